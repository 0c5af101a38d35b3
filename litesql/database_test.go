package litesql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litesql-go/litesql/sqlite3"
)

func openTestDB(t *testing.T) *Database {
	db, err := Open(":memory:", Options{Memory: true, Create: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCloseLifecycle(t *testing.T) {
	db, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)
	assert.True(t, db.Open())

	require.NoError(t, db.Close())
	assert.False(t, db.Open())

	// Close is idempotent.
	require.NoError(t, db.Close())
}

func TestOpenMissingReadonlyReturnsNotFound(t *testing.T) {
	_, err := Open("/nonexistent/path/to/db.sqlite", Options{Readonly: true})
	require.Error(t, err)
	var nf *NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestExecuteAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Execute(ctx, "CREATE TABLE people(name TEXT, age INTEGER)")
	require.NoError(t, err)

	n, err := db.Execute(ctx, "INSERT INTO people VALUES (?, ?)", "Ada", 36)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), db.LastInsertRowID())

	rows, err := db.Query(ctx, "SELECT name, age FROM people")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"name", "age"}, rows[0].Columns)
	name, ok := rows[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", name)
}

func TestQueryOneNoRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)

	row, ok, err := db.QueryOne(ctx, "SELECT a FROM x WHERE a = ?", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, NamedRow{}, row)
}

func TestQueryArrayAndQueryOneArray(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a, b)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1, 'one'), (2, 'two')")
	require.NoError(t, err)

	rows, err := db.QueryArray(ctx, "SELECT a, b FROM x ORDER BY a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{int64(1), "one"}, rows[0])
	assert.Equal(t, Row{int64(2), "two"}, rows[1])

	row, ok, err := db.QueryOneArray(ctx, "SELECT a, b FROM x ORDER BY a DESC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Row{int64(2), "two"}, row)
}

func TestQueryManyLazyIteration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1), (2), (3)")
	require.NoError(t, err)

	it, err := db.QueryMany(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)

	var got []int64
	for {
		row, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		v, _ := row.Get("a")
		got = append(got, v.(int64))
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
	require.NoError(t, it.Close())
}

func TestQueryManyCloseEarlyAllowsReuse(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1), (2), (3)")
	require.NoError(t, err)

	it, err := db.QueryManyArray(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)
	_, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, it.Close())

	// A second call succeeds because QueryManyArray's ephemeral statement
	// is entirely independent of the first.
	rows, err := db.QueryArray(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestInt64OptionControlsOutOfRangeDecoding(t *testing.T) {
	ctx := context.Background()
	lossy, err := Open(":memory:", Options{Memory: true})
	require.NoError(t, err)
	defer lossy.Close()

	precise, err := Open(":memory:", Options{Memory: true, Int64: true})
	require.NoError(t, err)
	defer precise.Close()

	const huge = int64(1) << 60
	for _, db := range []*Database{lossy, precise} {
		_, err := db.Execute(ctx, "CREATE TABLE x(a)")
		require.NoError(t, err)
		_, err = db.Execute(ctx, "INSERT INTO x VALUES (?)", huge)
		require.NoError(t, err)
	}

	row, ok, err := lossy.QueryOneArray(ctx, "SELECT a FROM x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, float64(0), row[0])

	row, ok, err = precise.QueryOneArray(ctx, "SELECT a FROM x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, huge, row[0])
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	src := openTestDB(t)
	dst := openTestDB(t)

	_, err := src.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)
	_, err = src.Execute(ctx, "INSERT INTO x VALUES (1), (2), (3)")
	require.NoError(t, err)

	require.NoError(t, src.Backup(ctx, "main", dst, "main", 1))

	rows, err := dst.QueryArray(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(1)}, {int64(2)}, {int64(3)}}, rows)
}

func TestConstraintViolationReturnsTypedError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a INTEGER UNIQUE)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1)")
	require.NoError(t, err)

	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1)")
	require.Error(t, err)
	var constraintErr *Constraint
	assert.ErrorAs(t, err, &constraintErr)
}

func TestCloseFinalizesOutstandingStatements(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "SELECT a FROM x")
	require.NoError(t, err)

	require.NoError(t, db.Close())

	// The statement was finalized by Close, not leaked against a
	// connection that will never see Finalize called on it.
	assert.Empty(t, db.stmts)

	// Finalize is harmless to call again on an already-finalized Stmt.
	require.NoError(t, stmt.Finalize())
}

func TestLoadExtensionDisabledByDefault(t *testing.T) {
	db := openTestDB(t)
	err := db.LoadExtension("whatever", "")
	require.Error(t, err)
	var sqliteErr *SqliteError
	require.ErrorAs(t, err, &sqliteErr)
	assert.Equal(t, sqlite3.MISUSE, sqliteErr.Code)
}
