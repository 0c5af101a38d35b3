package litesql

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/litesql-go/litesql/sqlite3"
)

// Transaction is an Active queryable over the same connection as the
// Database that began it. Once Commit or Rollback fails, the Transaction
// is inactivated: further use returns SqliteTransactionError.
type Transaction struct {
	db     *Database
	active bool
}

// BeginTransaction issues BEGIN [DEFERRED|IMMEDIATE|EXCLUSIVE] on db and
// returns the resulting Transaction. Behavior defaults to Deferred if
// omitted.
func (db *Database) BeginTransaction(ctx context.Context, behaviorArgs ...Behavior) (*Transaction, error) {
	behavior := Deferred
	if len(behaviorArgs) > 0 {
		behavior = behaviorArgs[0]
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := db.acquire(ctx); err != nil {
		return nil, err
	}
	defer db.release()

	if err := db.conn.Exec(behavior.sql()); err != nil {
		return nil, errors.WithMessage(wrapSqliteErr(err), "beginning transaction")
	}
	return &Transaction{db: db, active: true}, nil
}

// Prepare satisfies Queryable, delegating to the same Database the
// transaction runs on.
func (tx *Transaction) Prepare(ctx context.Context, sql string) (*Stmt, error) {
	if !tx.active {
		return nil, newTransactionError("transaction is no longer active")
	}
	return tx.db.Prepare(ctx, sql)
}

// Commit runs COMMIT. On failure the Transaction is marked inactive and
// the connection is left in whatever state SQLite reports; callers
// should inspect Database.InTransaction afterward.
func (tx *Transaction) Commit(ctx context.Context) error {
	if !tx.active {
		return newTransactionError("transaction already committed, rolled back, or failed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.db.acquire(ctx); err != nil {
		return err
	}
	defer tx.db.release()

	tx.active = false
	if err := tx.db.conn.Exec("COMMIT"); err != nil {
		return errors.WithMessage(wrapSqliteErr(err), "committing transaction")
	}
	return nil
}

// Rollback runs ROLLBACK, or ROLLBACK TO <savepoint> if a savepoint name
// is given. On failure the Transaction is marked inactive.
func (tx *Transaction) Rollback(ctx context.Context, savepoint ...string) error {
	if !tx.active {
		return newTransactionError("transaction already committed, rolled back, or failed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.db.acquire(ctx); err != nil {
		return err
	}
	defer tx.db.release()

	sql := "ROLLBACK"
	if len(savepoint) > 0 && savepoint[0] != "" {
		sql = "ROLLBACK TO " + quoteIdent(savepoint[0])
	} else {
		tx.active = false
	}
	if err := tx.db.conn.Exec(sql); err != nil {
		tx.active = false
		return errors.WithMessage(wrapSqliteErr(err), "rolling back transaction")
	}
	return nil
}

// CreateSavepoint runs SAVEPOINT <name>. name must be non-empty; unlike
// the connection-level default some SQLite client libraries fall back to
// for an unnamed savepoint, litesql requires callers to name every
// savepoint explicitly.
func (tx *Transaction) CreateSavepoint(ctx context.Context, name string) error {
	if name == "" {
		return newPkgError(sqlite3.MISUSE, "CreateSavepoint requires a non-empty name")
	}
	if !tx.active {
		return newTransactionError("transaction is no longer active")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.db.acquire(ctx); err != nil {
		return err
	}
	defer tx.db.release()

	if err := tx.db.conn.Exec("SAVEPOINT " + quoteIdent(name)); err != nil {
		return errors.WithMessagef(wrapSqliteErr(err), "creating savepoint %q", name)
	}
	return nil
}

// ReleaseSavepoint runs RELEASE <name>.
func (tx *Transaction) ReleaseSavepoint(ctx context.Context, name string) error {
	if name == "" {
		return newPkgError(sqlite3.MISUSE, "ReleaseSavepoint requires a non-empty name")
	}
	if !tx.active {
		return newTransactionError("transaction is no longer active")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.db.acquire(ctx); err != nil {
		return err
	}
	defer tx.db.release()

	if err := tx.db.conn.Exec("RELEASE " + quoteIdent(name)); err != nil {
		return errors.WithMessagef(wrapSqliteErr(err), "releasing savepoint %q", name)
	}
	return nil
}

// Execute is the Transaction method form of the package-level Execute
// helper.
func (tx *Transaction) Execute(ctx context.Context, sql string, args ...interface{}) (int, error) {
	return Execute(ctx, tx, sql, args...)
}

// Query is the Transaction method form of the package-level Query helper.
func (tx *Transaction) Query(ctx context.Context, sql string, args ...interface{}) ([]NamedRow, error) {
	return Query(ctx, tx, sql, args...)
}

// QueryOne is the Transaction method form of the package-level QueryOne
// helper.
func (tx *Transaction) QueryOne(ctx context.Context, sql string, args ...interface{}) (NamedRow, bool, error) {
	return QueryOne(ctx, tx, sql, args...)
}

// QueryMany is the Transaction method form of the package-level QueryMany
// helper.
func (tx *Transaction) QueryMany(ctx context.Context, sql string, args ...interface{}) (*ObjectIter, error) {
	return QueryMany(ctx, tx, sql, args...)
}

// QueryArray is the Transaction method form of the package-level
// QueryArray helper.
func (tx *Transaction) QueryArray(ctx context.Context, sql string, args ...interface{}) ([]Row, error) {
	return QueryArray(ctx, tx, sql, args...)
}

// QueryOneArray is the Transaction method form of the package-level
// QueryOneArray helper.
func (tx *Transaction) QueryOneArray(ctx context.Context, sql string, args ...interface{}) (Row, bool, error) {
	return QueryOneArray(ctx, tx, sql, args...)
}

// QueryManyArray is the Transaction method form of the package-level
// QueryManyArray helper.
func (tx *Transaction) QueryManyArray(ctx context.Context, sql string, args ...interface{}) (*RowIter, error) {
	return QueryManyArray(ctx, tx, sql, args...)
}

// quoteIdent double-quotes a SQL identifier, escaping embedded quotes, so
// a savepoint name supplied by the caller cannot be used to inject SQL
// into the surrounding SAVEPOINT/RELEASE/ROLLBACK TO statement text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WithTransaction begins a transaction with the given behavior, invokes
// fn with it, and commits on success. If fn returns an error, the
// transaction is rolled back and fn's error is returned unchanged. If
// the commit itself fails, that error is returned instead, without an
// additional rollback attempt.
func (db *Database) WithTransaction(ctx context.Context, fn func(*Transaction) error, behaviorArgs ...Behavior) error {
	tx, err := db.BeginTransaction(ctx, behaviorArgs...)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if tx.active {
			tx.Rollback(ctx)
		}
		return err
	}
	return tx.Commit(ctx)
}
