package litesql

import (
	"fmt"

	"github.com/litesql-go/litesql/sqlite3"
)

// SqliteError is the root of litesql's typed error hierarchy. It wraps the
// SQLite extended result code and message produced by the native layer.
type SqliteError struct {
	Code    int
	Message string
	cause   error
}

func (e *SqliteError) Error() string {
	return fmt.Sprintf("litesql: %s (code %d)", e.Message, e.Code)
}

// Unwrap exposes the underlying *sqlite3.Error (or other cause) so
// errors.Is/errors.As reach both the litesql-level and sqlite3-level
// error types from a single wrapped error.
func (e *SqliteError) Unwrap() error {
	return e.cause
}

// SqliteTransactionError reports misuse of an inactivated Transaction —
// one whose Commit or Rollback has already failed or already run.
type SqliteTransactionError struct{ *SqliteError }

// Busy reports SQLITE_BUSY: the database file is locked by another
// connection and BusyTimeout, if any, elapsed before the lock cleared.
type Busy struct{ *SqliteError }

// Locked reports SQLITE_LOCKED: a table in the database is locked by
// another statement within the same shared-cache connection.
type Locked struct{ *SqliteError }

// Constraint reports SQLITE_CONSTRAINT: a statement violated a database
// constraint (UNIQUE, NOT NULL, CHECK, FOREIGN KEY, ...).
type Constraint struct{ *SqliteError }

// Misuse reports SQLITE_MISUSE: the API was called in a way the library
// does not support, e.g. using an object after it was closed.
type Misuse struct{ *SqliteError }

// IoError reports SQLITE_IOERR: a disk I/O error prevented an operation
// from completing.
type IoError struct{ *SqliteError }

// NotFound reports that a database file did not exist and the connection
// was opened with create disabled.
type NotFound struct{ *SqliteError }

// IntegerOutOfRange reports an unsigned integer argument to Bind that is
// above the signed 64-bit maximum. Signed int64 arguments are bound as
// given whatever Options.Int64 says, and reading a large value back never
// produces this error.
type IntegerOutOfRange struct{ *SqliteError }

// StatementBusy reports an attempt to start a second row traversal on a
// Stmt before the first was drained or reset, or to reuse a Stmt that
// another in-flight call currently owns.
type StatementBusy struct{ *SqliteError }

// BlobClosed reports a read or write against a BlobIO handle after Close.
type BlobClosed struct{ *SqliteError }

// DuplicateParameter reports that a NamedArgs binding targeted the same
// resolved SQLite parameter index through two distinct parameter names.
type DuplicateParameter struct{ *SqliteError }

// TooManyParameters reports more positional arguments than a statement
// has placeholders for.
type TooManyParameters struct{ *SqliteError }

func wrapSqliteErr(err error) error {
	if err == nil {
		return nil
	}
	se, ok := err.(*sqlite3.Error)
	if !ok {
		return err
	}
	base := &SqliteError{Code: se.Code(), Message: se.Error(), cause: se}
	switch se.Basic() {
	case sqlite3.BUSY:
		return &Busy{base}
	case sqlite3.LOCKED:
		return &Locked{base}
	case sqlite3.CONSTRAINT:
		return &Constraint{base}
	case sqlite3.MISUSE:
		return &Misuse{base}
	case sqlite3.IOERR:
		return &IoError{base}
	default:
		return base
	}
}

func newPkgError(basic int, format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)
	return &SqliteError{Code: basic, Message: msg, cause: sqlite3.NewError(basic, msg)}
}

func newNotFound(path string) error {
	base := &SqliteError{Code: sqlite3.NOTFOUND, Message: fmt.Sprintf("database file does not exist: %s", path)}
	return &NotFound{base}
}

func newTransactionError(msg string) error {
	return &SqliteTransactionError{&SqliteError{Code: sqlite3.MISUSE, Message: msg}}
}

func newStatementBusy(msg string) error {
	return &StatementBusy{&SqliteError{Code: sqlite3.MISUSE, Message: msg}}
}

func newBlobClosed() error {
	return &BlobClosed{&SqliteError{Code: sqlite3.MISUSE, Message: "blob handle already closed"}}
}

func newIntegerOutOfRange(v int64) error {
	base := &SqliteError{Code: sqlite3.RANGE, Message: fmt.Sprintf("unsigned integer %d overflows SQLite's signed 64-bit integer type", uint64(v))}
	return &IntegerOutOfRange{base}
}

func newDuplicateParameter(name string) error {
	base := &SqliteError{Code: sqlite3.MISUSE, Message: fmt.Sprintf("parameter %q resolves to an index already bound by another name", name)}
	return &DuplicateParameter{base}
}

func newTooManyParameters(got, want int) error {
	base := &SqliteError{Code: sqlite3.RANGE, Message: fmt.Sprintf("%d arguments given, statement has %d placeholders", got, want)}
	return &TooManyParameters{base}
}
