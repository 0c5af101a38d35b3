package litesql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litesql-go/litesql/sqlite3"
)

func TestStmtBindPositionalPadding(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a, b, c)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "INSERT INTO x VALUES (?, ?, ?)")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Run(ctx, 1)
	require.NoError(t, err)

	row, ok, err := db.QueryOneArray(ctx, "SELECT a, b, c FROM x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Row{int64(1), nil, nil}, row)
}

func TestStmtBindTooManyParameters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "INSERT INTO x VALUES (?)")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Run(ctx, 1, 2)
	require.Error(t, err)
	var tooMany *TooManyParameters
	assert.ErrorAs(t, err, &tooMany)
}

func TestStmtNamedRepeatedParameterIsNotACollision(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a, b)")
	require.NoError(t, err)

	// ":a" used twice in the statement resolves to the same SQLite
	// parameter index both times, but that's one name bound once, not a
	// collision between two distinct names.
	stmt, err := db.Prepare(ctx, "INSERT INTO x VALUES (:a, :a)")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Run(ctx, sqlite3.NamedArgs{":a": 1})
	require.NoError(t, err)

	row, ok, err := db.QueryOneArray(ctx, "SELECT a, b FROM x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Row{int64(1), int64(1)}, row)
}

func TestStmtNamedDuplicateParameterCollision(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a, b)")
	require.NoError(t, err)

	// ":a" is the first parameter encountered and is assigned index 1;
	// the explicit numbered parameter "?1" names that same index under a
	// second, distinct spelling.
	stmt, err := db.Prepare(ctx, "INSERT INTO x VALUES (:a, ?1)")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Run(ctx, sqlite3.NamedArgs{":a": 1, "?1": 2})
	require.Error(t, err)
	var dup *DuplicateParameter
	assert.ErrorAs(t, err, &dup)
}

func TestStmtIntegerOutOfRange(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "INSERT INTO x VALUES (?)")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Run(ctx, uint64(1)<<63)
	require.Error(t, err)
	var rangeErr *IntegerOutOfRange
	assert.ErrorAs(t, err, &rangeErr)
}

func TestStatementBusyBlocksConcurrentIteration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1), (2)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)
	defer stmt.Finalize()

	it, err := stmt.ValueMany(ctx)
	require.NoError(t, err)

	_, err = stmt.Run(ctx)
	require.Error(t, err)
	var busy *StatementBusy
	assert.ErrorAs(t, err, &busy)

	require.NoError(t, it.Close())

	// Now that the iterator is closed, the statement is free again.
	_, err = stmt.Run(ctx)
	require.NoError(t, err)
}

func TestObjectIterAndRowIterShareDrainSemantics(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.Execute(ctx, "CREATE TABLE x(a)")
	require.NoError(t, err)
	_, err = db.Execute(ctx, "INSERT INTO x VALUES (1), (2)")
	require.NoError(t, err)

	stmt, err := db.Prepare(ctx, "SELECT a FROM x ORDER BY a")
	require.NoError(t, err)
	defer stmt.Finalize()

	it, err := stmt.GetMany(ctx)
	require.NoError(t, err)

	row, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := row.Get("a")
	assert.Equal(t, int64(1), v)

	_, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	// After natural exhaustion, the statement is released automatically.
	_, err = stmt.Run(ctx)
	require.NoError(t, err)
}
