package litesql

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/litesql-go/litesql/sqlite3"
)

// Behavior selects the locking mode a transaction begins with.
// https://www.sqlite.org/lang_transaction.html
type Behavior int

const (
	Deferred Behavior = iota
	Immediate
	Exclusive
)

func (b Behavior) sql() string {
	switch b {
	case Immediate:
		return "BEGIN IMMEDIATE"
	case Exclusive:
		return "BEGIN EXCLUSIVE"
	default:
		return "BEGIN"
	}
}

// Options configures Open. The zero value opens a read-write connection
// with Int64 mode off and does not create a missing database file;
// DefaultOptions, which Open uses when no Options are given, also sets
// Create.
type Options struct {
	// Readonly opens the connection without write access. Mutually
	// exclusive with Create in spirit: a readonly connection never
	// creates a missing file, and Open returns NotFound instead.
	Readonly bool

	// Create allows Open to create a missing database file. Defaults to
	// true; set explicitly via DefaultOptions or construct Options literally
	// with Create: true when overriding other fields.
	Create bool

	// Memory opens a private, temporary, in-memory database regardless
	// of the path argument to Open.
	Memory bool

	// Flags, if non-zero, overrides Readonly/Create/Memory entirely and
	// is passed to sqlite3.Open verbatim (escape hatch for callers that
	// need OPEN_URI, OPEN_NOMUTEX, or similar).
	Flags int

	// Int64 controls how out-of-safe-range integer columns are surfaced.
	// When false (default), integers outside ±2^53 decode as float64
	// instead of int64, mirroring the source driver's lossy default.
	// When true, they decode as int64 unconditionally.
	Int64 bool

	// UnsafeConcurrency disables the internal single-flight semaphore
	// guard, letting callers race the underlying connection. Only safe
	// when the caller already serializes access another way.
	UnsafeConcurrency bool

	// EnableLoadExtension allows LoadExtension to succeed. Disabled by
	// default since loading arbitrary shared libraries into the process
	// is a meaningful trust boundary.
	EnableLoadExtension bool
}

// DefaultOptions returns the Options Open uses when none are given:
// read-write, create-if-missing, Int64 off.
func DefaultOptions() Options {
	return Options{Create: true}
}

func (o Options) flags() int {
	if o.Flags != 0 {
		return o.Flags
	}
	flags := sqlite3.OPEN_READWRITE
	if o.Readonly {
		flags = sqlite3.OPEN_READONLY
	} else if o.Create {
		flags |= sqlite3.OPEN_CREATE
	}
	if o.Memory {
		flags |= sqlite3.OPEN_MEMORY
	}
	return flags
}

// Database is a single SQLite connection plus the state litesql layers on
// top of it: a connect/close event bus, a single-flight concurrency
// guard, and the row-shaped client façade (see client.go).
//
// A Database is not safe for concurrent use by multiple goroutines unless
// Options.UnsafeConcurrency is set; litesql serializes access itself with
// a weight-1 semaphore rather than leaving it entirely to the caller.
type Database struct {
	conn *sqlite3.Conn
	opts Options
	path string

	sem    *semaphore.Weighted
	events *eventBus

	closed bool
	funcs  map[string]registeredFn

	// stmtsMu and stmts track every Stmt this Database has prepared but
	// not yet finalized, so Close can finalize them itself instead of
	// leaving that to the caller — satisfying the invariant that closing
	// a Database leaves no Statement outstanding.
	stmtsMu sync.Mutex
	stmts   map[*Stmt]struct{}
}

type registeredFn struct {
	name string
	nArg int
}

// Open opens a connection to the SQLite database at path. path may be a
// filesystem path, a "file:" URI, ":memory:", or "" for a temporary
// on-disk database deleted on close. At most one Options value may be
// given; DefaultOptions() is used otherwise.
func Open(path string, optArgs ...Options) (*Database, error) {
	var opts Options
	if len(optArgs) > 0 {
		opts = optArgs[0]
	} else {
		opts = DefaultOptions()
	}

	name := path
	if opts.Memory {
		name = ":memory:"
	}

	if opts.Readonly && !opts.Memory && !strings.HasPrefix(name, "file:") && name != ":memory:" {
		if _, err := os.Stat(name); err != nil {
			return nil, newNotFound(name)
		}
	}

	conn, err := sqlite3.Open(name, opts.flags())
	if err != nil {
		if serr, ok := err.(*sqlite3.Error); ok && serr.Basic() == sqlite3.CANTOPEN {
			return nil, errors.WithMessagef(newNotFound(name), "opening database %q", name)
		}
		return nil, errors.WithMessagef(wrapSqliteErr(err), "opening database %q", name)
	}

	db := &Database{
		conn:   conn,
		opts:   opts,
		path:   name,
		sem:    semaphore.NewWeighted(1),
		events: newEventBus(),
		funcs:  make(map[string]registeredFn),
		stmts:  make(map[*Stmt]struct{}),
	}
	db.events.publish(Event{Kind: EventConnect, Conn: db})
	return db, nil
}

// acquire blocks until the Database is available or ctx is done,
// enforcing the "at most one in-flight statement per connection"
// invariant unless Options.UnsafeConcurrency is set.
func (db *Database) acquire(ctx context.Context) error {
	if db.opts.UnsafeConcurrency {
		return ctx.Err()
	}
	return db.sem.Acquire(ctx, 1)
}

func (db *Database) release() {
	if !db.opts.UnsafeConcurrency {
		db.sem.Release(1)
	}
}

// trackStmt registers a newly prepared statement as live.
func (db *Database) trackStmt(s *Stmt) {
	db.stmtsMu.Lock()
	defer db.stmtsMu.Unlock()
	db.stmts[s] = struct{}{}
}

// forgetStmt removes a statement from the live set once it has finalized
// itself. A no-op if it was already removed, which lets Finalize and
// Close's own finalize pass race harmlessly.
func (db *Database) forgetStmt(s *Stmt) {
	db.stmtsMu.Lock()
	defer db.stmtsMu.Unlock()
	delete(db.stmts, s)
}

// Close finalizes all resources held by the connection. The cleanup
// sequence runs in order — finalize every outstanding Statement, release
// UDF registrations, close the native handle, publish the close event —
// capturing but not aborting on a failure in an earlier step, so later
// steps still run; the first error encountered is returned, wrapped with
// the step that produced it.
func (db *Database) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	note := func(step string, err error) {
		if err != nil && firstErr == nil {
			firstErr = errors.WithMessage(wrapSqliteErr(err), step)
		}
	}

	db.stmtsMu.Lock()
	live := db.stmts
	db.stmts = nil
	db.stmtsMu.Unlock()
	for s := range live {
		note("finalizing outstanding statement", s.Finalize())
	}

	note("closing native connection", db.conn.Close())
	db.events.publish(Event{Kind: EventClose, Conn: db})
	return firstErr
}

// Open reports whether the connection is still open.
func (db *Database) Open() bool {
	return !db.closed
}

// Changes returns the number of rows changed by the most recently
// completed INSERT/UPDATE/DELETE.
func (db *Database) Changes() int {
	return db.conn.Changes()
}

// TotalChanges returns the number of rows changed since the connection
// was opened.
func (db *Database) TotalChanges() int {
	return db.conn.TotalChanges()
}

// LastInsertRowID returns the ROWID of the most recent successful INSERT.
func (db *Database) LastInsertRowID() int64 {
	return db.conn.LastInsertRowID()
}

// AutoCommit reports whether the connection is outside of an explicit
// transaction.
func (db *Database) AutoCommit() bool {
	return db.conn.AutoCommit()
}

// InTransaction reports whether a transaction is currently active on this
// connection. It is the logical negation of AutoCommit.
func (db *Database) InTransaction() bool {
	return !db.AutoCommit()
}

// Path returns the path or URI the connection was opened with.
func (db *Database) Path() string {
	return db.path
}

// LoadExtension loads a SQLite extension shared library, if
// Options.EnableLoadExtension was set on Open.
func (db *Database) LoadExtension(file, entry string) error {
	if !db.opts.EnableLoadExtension {
		return newPkgError(sqlite3.MISUSE, "LoadExtension disabled; open with Options.EnableLoadExtension")
	}
	if err := db.conn.EnableLoadExtension(true); err != nil {
		return wrapSqliteErr(err)
	}
	defer db.conn.EnableLoadExtension(false)
	if err := db.conn.LoadExtension(file, entry); err != nil {
		return errors.WithMessagef(wrapSqliteErr(err), "loading extension %q", file)
	}
	return nil
}

// Backup copies this database's named schema ("main" for the default
// schema) into dst's schema of the same name, driven to completion in
// nPages-sized steps.
func (db *Database) Backup(ctx context.Context, schema string, dst *Database, dstSchema string, nPages int) error {
	if schema == "" {
		schema = "main"
	}
	if dstSchema == "" {
		dstSchema = "main"
	}
	b, err := db.conn.Backup(schema, dst.conn, dstSchema)
	if err != nil {
		return errors.WithMessage(wrapSqliteErr(err), "initializing backup")
	}
	defer b.Finish()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := b.Step(nPages)
		if err != nil {
			return errors.WithMessage(wrapSqliteErr(err), "backup step")
		}
		if done {
			return nil
		}
	}
}
