package litesql

import (
	"context"
	"strings"
)

// Queryable is satisfied by both Database and Transaction, letting the
// Client Façade helpers below run identically over a bare connection or
// inside an active transaction.
type Queryable interface {
	Prepare(ctx context.Context, sql string) (*Stmt, error)
}

// Execute prepares sql, binds args, steps it to completion, and finalizes
// it, returning the connection's Changes count.
func Execute(ctx context.Context, q Queryable, sql string, args ...interface{}) (int, error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Finalize()
	return stmt.Run(ctx, args...)
}

// Query prepares sql, runs it to completion, and returns every row as
// NamedRow.
func Query(ctx context.Context, q Queryable, sql string, args ...interface{}) ([]NamedRow, error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()
	return stmt.All(ctx, args...)
}

// QueryOne prepares sql, steps once, and returns the row as NamedRow, or
// ok=false if no row was produced.
func QueryOne(ctx context.Context, q Queryable, sql string, args ...interface{}) (row NamedRow, ok bool, err error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return NamedRow{}, false, err
	}
	defer stmt.Finalize()
	return stmt.Get(ctx, args...)
}

// QueryMany prepares sql and returns a lazy ObjectIter. The ephemeral
// statement is finalized automatically once the iterator is drained or
// explicitly Close'd.
func QueryMany(ctx context.Context, q Queryable, sql string, args ...interface{}) (*ObjectIter, error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	it, err := stmt.GetMany(ctx, args...)
	if err != nil {
		stmt.Finalize()
		return nil, err
	}
	it.RowIter.ephemeral = true
	return it, nil
}

// QueryArray is Query's positional counterpart.
func QueryArray(ctx context.Context, q Queryable, sql string, args ...interface{}) ([]Row, error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()
	return stmt.Values(ctx, args...)
}

// QueryOneArray is QueryOne's positional counterpart.
func QueryOneArray(ctx context.Context, q Queryable, sql string, args ...interface{}) (row Row, ok bool, err error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return nil, false, err
	}
	defer stmt.Finalize()
	return stmt.Value(ctx, args...)
}

// QueryManyArray is QueryMany's positional counterpart.
func QueryManyArray(ctx context.Context, q Queryable, sql string, args ...interface{}) (*RowIter, error) {
	stmt, err := q.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	it, err := stmt.ValueMany(ctx, args...)
	if err != nil {
		stmt.Finalize()
		return nil, err
	}
	it.ephemeral = true
	return it, nil
}

// Execute is the Database method form of the package-level Execute
// helper.
func (db *Database) Execute(ctx context.Context, sql string, args ...interface{}) (int, error) {
	return Execute(ctx, db, sql, args...)
}

// Query is the Database method form of the package-level Query helper.
func (db *Database) Query(ctx context.Context, sql string, args ...interface{}) ([]NamedRow, error) {
	return Query(ctx, db, sql, args...)
}

// QueryOne is the Database method form of the package-level QueryOne
// helper.
func (db *Database) QueryOne(ctx context.Context, sql string, args ...interface{}) (NamedRow, bool, error) {
	return QueryOne(ctx, db, sql, args...)
}

// QueryMany is the Database method form of the package-level QueryMany
// helper.
func (db *Database) QueryMany(ctx context.Context, sql string, args ...interface{}) (*ObjectIter, error) {
	return QueryMany(ctx, db, sql, args...)
}

// QueryArray is the Database method form of the package-level
// QueryArray helper.
func (db *Database) QueryArray(ctx context.Context, sql string, args ...interface{}) ([]Row, error) {
	return QueryArray(ctx, db, sql, args...)
}

// QueryOneArray is the Database method form of the package-level
// QueryOneArray helper.
func (db *Database) QueryOneArray(ctx context.Context, sql string, args ...interface{}) (Row, bool, error) {
	return QueryOneArray(ctx, db, sql, args...)
}

// QueryManyArray is the Database method form of the package-level
// QueryManyArray helper.
func (db *Database) QueryManyArray(ctx context.Context, sql string, args ...interface{}) (*RowIter, error) {
	return QueryManyArray(ctx, db, sql, args...)
}

// SQL joins literal SQL fragments with "?" placeholders and returns the
// interpolated args positionally, the way a tagged-template query helper
// would in a host language with that syntax. Go has no such literal, so
// it takes the split fragments directly: SQL([]string{"SELECT * FROM t
// WHERE id = ", ""}, id) is the equivalent of a single `${id}`
// interpolation. Values never enter the returned SQL string, so the
// result is injection-safe regardless of what the args contain.
func SQL(fragments []string, args ...interface{}) (string, []interface{}) {
	if len(fragments) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(fragments[0])
	for i := 1; i < len(fragments); i++ {
		b.WriteString("?")
		b.WriteString(fragments[i])
	}
	return b.String(), args
}
