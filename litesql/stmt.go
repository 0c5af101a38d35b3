package litesql

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/litesql-go/litesql/sqlite3"
)

// Stmt is a compiled statement bound to a Database, with the row-shaped
// query surface litesql adds over the raw sqlite3.Stmt. It is not safe
// for concurrent use, and an in-flight RowIter exclusively borrows it
// until drained or reset.
type Stmt struct {
	raw     *sqlite3.Stmt
	db      *Database
	int64   bool
	columns []string
	iterOut bool
}

// Prepare compiles sql against db. Options currently recognized: passing
// no args uses db's Options.Int64 setting; readonly is enforced by the
// connection itself, not per-statement, so there is no per-Prepare
// override for it.
func (db *Database) Prepare(ctx context.Context, sql string) (*Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := db.acquire(ctx); err != nil {
		return nil, err
	}
	defer db.release()

	raw, err := db.conn.Prepare(sql)
	if err != nil {
		return nil, errors.WithMessagef(wrapSqliteErr(err), "preparing statement %q", sql)
	}
	if raw == nil {
		return nil, errors.Errorf("litesql: empty statement %q", sql)
	}
	s := &Stmt{raw: raw, db: db, int64: db.opts.Int64, columns: raw.ColumnNames()}
	db.trackStmt(s)
	return s, nil
}

// Bind binds parameters without stepping, returning the statement for
// chaining. Passing no arguments reuses the statement's existing
// bindings; passing fewer arguments than the statement has placeholders
// leaves the remaining ones bound to null; passing more than the
// statement has placeholders returns TooManyParameters.
func (s *Stmt) Bind(args ...interface{}) (*Stmt, error) {
	if len(args) == 0 {
		return s, nil
	}
	if len(args) == 1 {
		if named, ok := args[0].(sqlite3.NamedArgs); ok {
			if err := s.checkNamedCollisions(named); err != nil {
				return s, err
			}
			if err := s.raw.Bind(named); err != nil {
				return s, wrapSqliteErr(err)
			}
			return s, nil
		}
	}

	if err := checkIntegerRanges(args); err != nil {
		return s, err
	}

	want := s.raw.BindParameterCount()
	if len(args) > want {
		return s, newTooManyParameters(len(args), want)
	}
	if len(args) < want {
		padded := make([]interface{}, want)
		copy(padded, args)
		args = padded
	}
	if err := s.raw.Bind(args...); err != nil {
		return s, wrapSqliteErr(err)
	}
	return s, nil
}

// checkNamedCollisions reports DuplicateParameter when two distinct
// names in args resolve to the same SQLite parameter index — unreachable
// through Go map key collisions themselves, but reachable when a
// statement repeats the same index under two spellings (":x" and the
// positional "?1" alias for the same slot, for instance).
func (s *Stmt) checkNamedCollisions(args sqlite3.NamedArgs) error {
	seen := make(map[int]string, len(args))
	for name := range args {
		idx := s.raw.BindParameterIndex(name)
		if idx == 0 && strings.HasPrefix(name, "?") {
			// SQLite gives "?NNN" no name of its own when slot NNN was
			// already named by an earlier parameter; resolve it by number.
			idx, _ = strconv.Atoi(name[1:])
		}
		if idx <= 0 {
			continue
		}
		if prior, ok := seen[idx]; ok {
			return newDuplicateParameter(prior + ", " + name)
		}
		seen[idx] = name
	}
	return nil
}

// checkIntegerRanges reports IntegerOutOfRange for an unsigned host
// integer that overflows SQLite's signed 64-bit integer column type;
// int64 itself can never overflow it.
func checkIntegerRanges(args []interface{}) error {
	for _, v := range args {
		switch n := v.(type) {
		case uint64:
			if n > 1<<63-1 {
				return newIntegerOutOfRange(int64(n))
			}
		case uint:
			if uint64(n) > 1<<63-1 {
				return newIntegerOutOfRange(int64(n))
			}
		}
	}
	return nil
}

// Finalize releases the compiled statement. Subsequent calls to any other
// Stmt method return an error.
func (s *Stmt) Finalize() error {
	s.db.forgetStmt(s)
	if err := s.raw.Close(); err != nil {
		return wrapSqliteErr(err)
	}
	return nil
}

func (s *Stmt) checkBusy() error {
	if s.iterOut {
		return newStatementBusy("a RowIter from this statement has not been drained or reset")
	}
	return nil
}

// Run binds args if given, steps the statement to completion (discarding
// any rows), and returns the connection's post-execution Changes count.
func (s *Stmt) Run(ctx context.Context, args ...interface{}) (int, error) {
	if err := s.checkBusy(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.db.acquire(ctx); err != nil {
		return 0, err
	}
	defer s.db.release()

	if err := s.raw.Reset(); err != nil {
		return 0, wrapSqliteErr(err)
	}
	if len(args) > 0 {
		if _, err := s.Bind(args...); err != nil {
			return 0, err
		}
	}
	if err := s.raw.StepToCompletion(); err != nil {
		return 0, wrapSqliteErr(err)
	}
	return s.db.Changes(), nil
}

// Get binds args if given, steps once, and returns the row materialized
// as a NamedRow, or ok=false if the statement produced no row. Implicitly
// resets the statement first.
func (s *Stmt) Get(ctx context.Context, args ...interface{}) (row NamedRow, ok bool, err error) {
	if err = s.checkBusy(); err != nil {
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	if err = s.db.acquire(ctx); err != nil {
		return
	}
	defer s.db.release()

	if err = s.raw.Reset(); err != nil {
		err = wrapSqliteErr(err)
		return
	}
	if len(args) > 0 {
		if _, berr := s.Bind(args...); berr != nil {
			err = berr
			return
		}
	}
	hasRow, serr := s.raw.Step()
	if serr != nil {
		err = wrapSqliteErr(serr)
		return
	}
	if !hasRow {
		return
	}
	row = s.namedRow()
	ok = true
	return
}

// Value is Get's positional counterpart: it returns the row as a Row
// instead of a NamedRow.
func (s *Stmt) Value(ctx context.Context, args ...interface{}) (row Row, ok bool, err error) {
	named, has, verr := s.Get(ctx, args...)
	if verr != nil || !has {
		return nil, has, verr
	}
	return s.rowFromNamed(named), true, nil
}

// All binds args if given and collects every produced row as NamedRow,
// then resets the statement.
func (s *Stmt) All(ctx context.Context, args ...interface{}) ([]NamedRow, error) {
	it, err := s.GetMany(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []NamedRow
	for {
		row, has, err := it.Next()
		if err != nil {
			return rows, err
		}
		if !has {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Values is All's positional counterpart.
func (s *Stmt) Values(ctx context.Context, args ...interface{}) ([]Row, error) {
	it, err := s.ValueMany(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []Row
	for {
		row, has, err := it.Next()
		if err != nil {
			return rows, err
		}
		if !has {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// GetMany binds args if given and returns a lazy, non-restartable
// iterator of NamedRow. It exclusively borrows the statement until
// drained or Close'd; starting a second traversal before then returns
// StatementBusy.
func (s *Stmt) GetMany(ctx context.Context, args ...interface{}) (*ObjectIter, error) {
	it, err := s.rowIter(ctx, args...)
	if it == nil {
		return nil, err
	}
	return &ObjectIter{RowIter: it}, err
}

// ValueMany is GetMany's positional counterpart, yielding Row instead of
// NamedRow.
func (s *Stmt) ValueMany(ctx context.Context, args ...interface{}) (*RowIter, error) {
	return s.rowIter(ctx, args...)
}

func (s *Stmt) rowIter(ctx context.Context, args ...interface{}) (*RowIter, error) {
	if err := s.checkBusy(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.db.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.db.release()

	if err := s.raw.Reset(); err != nil {
		return nil, wrapSqliteErr(err)
	}
	if len(args) > 0 {
		if _, err := s.Bind(args...); err != nil {
			return nil, err
		}
	}
	s.iterOut = true
	return &RowIter{stmt: s, ctx: ctx}, nil
}

func (s *Stmt) namedRow() NamedRow {
	n := len(s.columns)
	values := make(map[string]Value, n)
	for i, name := range s.columns {
		values[name] = s.scanColumn(i)
	}
	return NamedRow{Columns: s.columns, Values: values}
}

func (s *Stmt) rowFromNamed(named NamedRow) Row {
	row := make(Row, len(named.Columns))
	for i, name := range named.Columns {
		row[i] = named.Values[name]
	}
	return row
}

func (s *Stmt) scanColumn(i int) Value {
	switch s.raw.ColumnType(i) {
	case sqlite3.INTEGER:
		v := s.raw.ColumnInt64(i)
		if !s.int64 && !fitsSafeInt53(v) {
			return float64(v)
		}
		return v
	case sqlite3.FLOAT:
		return s.raw.ColumnDouble(i)
	case sqlite3.TEXT:
		return s.raw.ColumnText(i)
	case sqlite3.BLOB:
		return s.raw.ColumnBytes(i)
	default:
		return nil
	}
}

// RowIter is a finite, non-restartable pull iterator over the positional
// rows of a ValueMany call. Call Next until it reports has=false, or call
// Close to abandon the traversal early and free the parent Stmt for
// reuse.
type RowIter struct {
	stmt      *Stmt
	ctx       context.Context
	done      bool
	ephemeral bool
}

// Next steps the parent statement and returns the next row, or
// has=false once the statement is exhausted. After the first call that
// returns has=false or a non-nil error, the iterator is done and the
// parent Stmt is released; further calls to Next return has=false, nil.
func (it *RowIter) Next() (row Row, has bool, err error) {
	named, has, err := it.next()
	if !has {
		return nil, false, err
	}
	return it.stmt.rowFromNamed(named), true, nil
}

// Close abandons the traversal early, freeing the parent Stmt for reuse
// (or, for an iterator obtained from the Client Façade, finalizing the
// ephemeral statement outright). Safe to call more than once, and safe
// to call after Next has already drained the iterator.
func (it *RowIter) Close() error {
	if it.done {
		return nil
	}
	it.close()
	if it.ephemeral {
		return wrapSqliteErr(it.stmt.raw.Close())
	}
	return wrapSqliteErr(it.stmt.raw.Reset())
}

func (it *RowIter) next() (row NamedRow, has bool, err error) {
	if it.done {
		return NamedRow{}, false, nil
	}
	if err = it.ctx.Err(); err != nil {
		it.Close()
		return NamedRow{}, false, err
	}
	if err = it.stmt.db.acquire(it.ctx); err != nil {
		it.Close()
		return NamedRow{}, false, err
	}
	hasRow, serr := it.stmt.raw.Step()
	it.stmt.db.release()
	if serr != nil {
		it.Close()
		return NamedRow{}, false, wrapSqliteErr(serr)
	}
	if !hasRow {
		it.Close()
		return NamedRow{}, false, nil
	}
	return it.stmt.namedRow(), true, nil
}

func (it *RowIter) close() {
	it.done = true
	it.stmt.iterOut = false
}

// ObjectIter is GetMany's object-shaped counterpart to RowIter, yielding
// NamedRow instead of Row. It shares the same exclusive-borrow and
// Close semantics.
type ObjectIter struct {
	*RowIter
}

// Next steps the parent statement and returns the next row as a
// NamedRow, or has=false once the statement is exhausted.
func (it *ObjectIter) Next() (row NamedRow, has bool, err error) {
	return it.next()
}
