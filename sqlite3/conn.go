// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#cgo pkg-config: sqlite3
#include <assert.h>
#include <pthread.h>
#include <sqlite3.h>

// cgo doesn't handle variadic functions.
static void set_temp_dir(const char *path) {
	sqlite3_temp_directory = sqlite3_mprintf("%s", path);
}

// cgo doesn't handle SQLITE_{STATIC,TRANSIENT} pointer constants. Not
// static: stmt.go's preamble links against these too.
int bind_text(sqlite3_stmt *s, int i, const char *p, int n, int copy) {
	if (n > 0) {
		return sqlite3_bind_text(s, i, p, n,
			(copy ? SQLITE_TRANSIENT : SQLITE_STATIC));
	}
	return sqlite3_bind_text(s, i, "", 0, SQLITE_STATIC);
}
int bind_blob(sqlite3_stmt *s, int i, const void *p, int n, int copy) {
	if (n > 0) {
		return sqlite3_bind_blob(s, i, p, n,
			(copy ? SQLITE_TRANSIENT : SQLITE_STATIC));
	}
	return sqlite3_bind_zeroblob(s, i, 0);
}

// Faster retrieval of column data types (1 cgo call instead of n).
void column_types(sqlite3_stmt *s, unsigned char p[], int n) {
	int i = 0;
	for (; i < n; ++i, ++p) {
		*p = sqlite3_column_type(s, i);
	}
}

// Macro for creating callback setter functions.
#define SET(x) \
static void set_##x(sqlite3 *db, void *data, int enable) { \
	(enable ? sqlite3_##x(db, go_##x, data) : sqlite3_##x(db, 0, 0)); \
}

// callbacks.go exports.
int go_busy_handler(void*,int);
int go_commit_hook(void*);
void go_rollback_hook(void*);
void go_update_hook(void* data, int op,const char *db, const char *tbl, sqlite3_int64 row);
int go_set_authorizer(void* data, int op, const char *arg1, const char *arg2, const char *db, const char *entity);

SET(busy_handler)
SET(commit_hook)
SET(rollback_hook)
SET(update_hook)
SET(set_authorizer)

// A pointer to an instance of this structure is passed as the user-context
// pointer when registering for an unlock-notify callback.
typedef struct UnlockNotification UnlockNotification;
struct UnlockNotification {
    int fired;
    pthread_cond_t cond;
    pthread_mutex_t mutex;
};

static void unlock_notify_cb(void **apArg, int nArg){
    int i;
    for(i=0; i<nArg; i++){
        UnlockNotification *p = (UnlockNotification *)apArg[i];
        pthread_mutex_lock(&p->mutex);
        p->fired = 1;
        pthread_cond_signal(&p->cond);
        pthread_mutex_unlock(&p->mutex);
    }
}

// This function assumes that an SQLite API call (either sqlite3_prepare_v2()
// or sqlite3_step()) has just returned SQLITE_LOCKED, and blocks until the
// shared-cache lock held by another connection on the same thread is
// released, or returns SQLITE_LOCKED immediately if blocking would
// deadlock.
static int wait_for_unlock_notify(sqlite3 *db){
    int rc;
    UnlockNotification un;

    un.fired = 0;
    pthread_mutex_init(&un.mutex, 0);
    pthread_cond_init(&un.cond, 0);

    rc = sqlite3_unlock_notify(db, unlock_notify_cb, (void *)&un);
    assert( rc==SQLITE_LOCKED || rc==SQLITE_OK );

    if( rc==SQLITE_OK ){
        pthread_mutex_lock(&un.mutex);
        if( !un.fired ){
            pthread_cond_wait(&un.cond, &un.mutex);
        }
        pthread_mutex_unlock(&un.mutex);
    }

    pthread_cond_destroy(&un.cond);
    pthread_mutex_destroy(&un.mutex);

    return rc;
}

// sqlite3_blocking_step behaves like sqlite3_step, except that a
// shared-cache SQLITE_LOCKED is retried after waiting for the unlock
// notification instead of being returned to the caller.
int sqlite3_blocking_step(sqlite3 *db, sqlite3_stmt *pStmt){
    int rc;
    for (;;) {
		rc = sqlite3_step(pStmt);
        if( rc != SQLITE_LOCKED ) {
            break;
        }
        if( sqlite3_extended_errcode(db) != SQLITE_LOCKED_SHAREDCACHE ) {
            break;
        }
        rc = wait_for_unlock_notify(sqlite3_db_handle(pStmt));
        if( rc!=SQLITE_OK ) {
			break;
		}
		sqlite3_reset(pStmt);
	}
	return rc;
}

// sqlite3_blocking_prepare_v2 behaves like sqlite3_prepare_v2, with the same
// shared-cache retry behavior as sqlite3_blocking_step.
int sqlite3_blocking_prepare_v2(
  sqlite3 *db,
  const char *zSql,
  int nSql,
  sqlite3_stmt **ppStmt,
  const char **pz
){
	int rc;
	for (;;) {
		rc = sqlite3_prepare_v2(db, zSql, nSql, ppStmt, pz);
		if( rc != SQLITE_LOCKED ){
			break;
		}
        if( sqlite3_extended_errcode(db) != SQLITE_LOCKED_SHAREDCACHE ) {
            break;
        }
        rc = wait_for_unlock_notify(db);
        if( rc!=SQLITE_OK ) {
			break;
		}
	}
    return rc;
}
*/
import "C"

import (
	"os"
	"sync"
	"time"
	"unsafe"
)

// initErr indicates a SQLite initialization error, which disables this package.
var initErr error

var busyRegistry = newRegistry()
var commitRegistry = newRegistry()
var rollbackRegistry = newRegistry()
var updateRegistry = newRegistry()
var authorizerRegistry = newRegistry()

func init() {
	// Initialize SQLite. Most system libsqlite3 builds auto-initialize, but
	// calling this explicitly is a no-op in that case and required if the
	// library was instead built with SQLITE_OMIT_AUTOINIT.
	// https://www.sqlite.org/c3ref/initialize.html
	if rc := C.sqlite3_initialize(); rc != OK {
		initErr = errStr(rc)
		return
	}

	tmp := os.TempDir() + "\x00"
	C.set_temp_dir(cStr(tmp))
}

// Conn is a connection handle, which may have multiple databases attached
// to it by using the ATTACH SQL statement.
// https://www.sqlite.org/c3ref/sqlite3.html
type Conn struct {
	db *C.sqlite3

	busyIdx       int
	commitIdx     int
	rollbackIdx   int
	updateIdx     int
	authorizerIdx int

	funcs map[string]*registeredFunc

	// stmtMu and its fields own the set of statements this connection has
	// prepared but not yet finalized. Every Stmt is assigned a generation
	// number at Prepare time so Close can finalize what's still live
	// without a connection ever becoming SQLite's "zombie" state, and so a
	// Stmt that outlives its own Close (a caller bug) is distinguishable
	// from one belonging to a later generation that reused the same
	// memory address.
	stmtMu  sync.Mutex
	nextGen uint64
	stmts   map[uint64]*Stmt
}

// Open creates a new connection to a SQLite database. name can be a path to
// a file (created if it does not exist), a URI per
// https://www.sqlite.org/uri.html, the string ":memory:" for a temporary
// in-memory database, or "" for a temporary on-disk database deleted when
// closed. Flags default to OPEN_READWRITE|OPEN_CREATE if not provided.
// https://www.sqlite.org/c3ref/open.html
func Open(name string, flagArgs ...int) (*Conn, error) {
	if len(flagArgs) > 1 {
		return nil, pkgErr(MISUSE, "too many arguments provided to Open")
	}
	if initErr != nil {
		return nil, initErr
	}
	name += "\x00"

	var db *C.sqlite3
	flags := C.SQLITE_OPEN_READWRITE | C.SQLITE_OPEN_CREATE
	if len(flagArgs) == 1 {
		flags = flagArgs[0]
	}
	rc := C.sqlite3_open_v2(cStr(name), &db, C.int(flags), nil)
	if rc != OK {
		err := libErr(rc, db)
		C.sqlite3_close(db)
		return nil, err
	}
	c := &Conn{db: db, funcs: make(map[string]*registeredFunc), stmts: make(map[uint64]*Stmt)}
	C.sqlite3_extended_result_codes(db, 1)
	return c, nil
}

// trackStmt records a newly prepared statement against the next generation
// number and returns it.
func (c *Conn) trackStmt(s *Stmt) uint64 {
	c.stmtMu.Lock()
	defer c.stmtMu.Unlock()
	c.nextGen++
	gen := c.nextGen
	c.stmts[gen] = s
	return gen
}

// forgetStmt removes a statement from the live set once it has finalized
// itself, a no-op if it was already removed (double Close, or Close racing
// Conn.Close's own finalize pass).
func (c *Conn) forgetStmt(gen uint64) {
	c.stmtMu.Lock()
	defer c.stmtMu.Unlock()
	delete(c.stmts, gen)
}

// Close finalizes every statement this connection still has prepared, then
// releases the connection's callbacks and the native handle itself. A
// connection closed this way never enters SQLite's "zombie" state, since
// nothing can still be open against it by the time sqlite3_close runs.
// https://www.sqlite.org/c3ref/close.html
func (c *Conn) Close() error {
	db := c.db
	if db == nil {
		return nil
	}
	c.db = nil

	c.stmtMu.Lock()
	live := c.stmts
	c.stmts = nil
	c.stmtMu.Unlock()

	var firstErr error
	for _, s := range live {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.busyIdx != 0 {
		busyRegistry.unregister(c.busyIdx)
	}
	if c.commitIdx != 0 {
		commitRegistry.unregister(c.commitIdx)
	}
	if c.rollbackIdx != 0 {
		rollbackRegistry.unregister(c.rollbackIdx)
	}
	if c.updateIdx != 0 {
		updateRegistry.unregister(c.updateIdx)
	}
	if c.authorizerIdx != 0 {
		authorizerRegistry.unregister(c.authorizerIdx)
	}
	for name, fn := range c.funcs {
		fn.release()
		delete(c.funcs, name)
	}

	if rc := C.sqlite3_close(db); rc != OK {
		err := libErr(rc, db)
		if rc == BUSY {
			C.sqlite3_close_v2(db)
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Prepare compiles the first statement in sql. Any remaining text is saved
// in s.Tail. A nil Stmt and nil error are returned if sql contains nothing
// to do. Arguments, if given, are bound to the returned statement; a
// binding error finalizes the statement before returning.
// https://www.sqlite.org/c3ref/prepare.html
func (c *Conn) Prepare(sql string, args ...interface{}) (s *Stmt, err error) {
	zSQL := sql + "\x00"

	var stmt *C.sqlite3_stmt
	var cTail *C.char
	rc := C.sqlite3_blocking_prepare_v2(c.db, cStr(zSQL), -1, &stmt, &cTail)
	if rc != OK {
		return nil, libErr(rc, c.db)
	}
	if stmt == nil {
		return nil, nil
	}

	var tail string
	if cTail != nil {
		n := cStrOffset(zSQL, cTail)
		if n >= 0 && n < len(sql) {
			tail = sql[n:]
		}
	}

	s = &Stmt{stmt: stmt, db: c.db, conn: c, Tail: tail, SQL: sql}
	s.gen = c.trackStmt(s)
	if len(args) > 0 {
		if err = s.Bind(args...); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Exec is a convenience function equivalent to sqlite3_exec when no
// arguments are given. With arguments, it prepares each statement in sql in
// turn, binds to it as many of the remaining arguments as it has
// parameters (the last statement gets all that remain), steps it to
// completion, and finalizes it.
// https://www.sqlite.org/c3ref/exec.html
func (c *Conn) Exec(sql string, args ...interface{}) error {
	if len(args) == 0 {
		sql += "\x00"
		return c.exec(cStr(sql))
	}

	for sql != "" {
		s, err := c.Prepare(sql)
		if err != nil || s == nil {
			return err
		}
		n := s.BindParameterCount()
		if n > len(args) || s.Tail == "" {
			n = len(args)
		}
		if err = s.Bind(args[:n]...); err == nil {
			err = s.StepToCompletion()
		}
		s.Close()
		if err != nil {
			return err
		}
		sql, args = s.Tail, args[n:]
	}
	return nil
}

// Begin starts a new deferred transaction. Equivalent to c.Exec("BEGIN").
// https://www.sqlite.org/lang_transaction.html
func (c *Conn) Begin() error { return c.exec(cStr("BEGIN\x00")) }

// BeginImmediate starts a new immediate transaction.
func (c *Conn) BeginImmediate() error { return c.exec(cStr("BEGIN IMMEDIATE\x00")) }

// BeginExclusive starts a new exclusive transaction.
func (c *Conn) BeginExclusive() error { return c.exec(cStr("BEGIN EXCLUSIVE\x00")) }

// Commit saves all changes made within a transaction to the database.
func (c *Conn) Commit() error { return c.exec(cStr("COMMIT\x00")) }

// Rollback aborts the current transaction without saving any changes.
func (c *Conn) Rollback() error { return c.exec(cStr("ROLLBACK\x00")) }

// Interrupt causes any pending database operation to abort and return at
// its earliest opportunity. Safe to call from another goroutine, but not
// safe to call on a connection that might close before the call returns.
// https://www.sqlite.org/c3ref/interrupt.html
func (c *Conn) Interrupt() {
	if db := c.db; db != nil {
		C.sqlite3_interrupt(db)
	}
}

// AutoCommit reports whether the connection is in auto-commit mode (i.e.
// outside of an explicit transaction started by BEGIN).
// https://www.sqlite.org/c3ref/get_autocommit.html
func (c *Conn) AutoCommit() bool {
	return C.sqlite3_get_autocommit(c.db) != 0
}

// LastInsertRowID returns the ROWID of the most recent successful INSERT.
func (c *Conn) LastInsertRowID() int64 {
	return int64(C.sqlite3_last_insert_rowid(c.db))
}

// Changes returns the number of rows changed, inserted, or deleted by the
// most recently completed statement.
func (c *Conn) Changes() int {
	return int(C.sqlite3_changes(c.db))
}

// TotalChanges returns the number of rows changed, inserted, or deleted
// since the connection was opened.
func (c *Conn) TotalChanges() int {
	return int(C.sqlite3_total_changes(c.db))
}

// FileName returns the full file path of an attached database, or "" for a
// temporary or in-memory database.
func (c *Conn) FileName(db string) string {
	db += "\x00"
	if path := C.sqlite3_db_filename(c.db, cStr(db)); path != nil {
		return C.GoString(path)
	}
	return ""
}

// Status returns the current and peak values of a connection performance
// counter (one of the DBSTATUS constants). If reset, the peak is reset down
// to the current value after retrieval.
func (c *Conn) Status(op int, reset bool) (cur, peak int, err error) {
	var cCur, cPeak C.int
	rc := C.sqlite3_db_status(c.db, C.int(op), &cCur, &cPeak, cBool(reset))
	if rc != OK {
		return 0, 0, pkgErr(MISUSE, "invalid connection status op (%d)", op)
	}
	return int(cCur), int(cPeak), nil
}

// Limit changes a per-connection resource limit (one of the LIMIT
// constants), returning its previous value. A negative new value leaves the
// limit unchanged and returns the current value.
func (c *Conn) Limit(id, value int) (prev int) {
	return int(C.sqlite3_limit(c.db, C.int(id), C.int(value)))
}

// BusyTimeout enables the built-in busy handler, retrying a locked table
// for the given duration before aborting. A non-positive duration disables
// the handler.
// https://www.sqlite.org/c3ref/busy_timeout.html
func (c *Conn) BusyTimeout(d time.Duration) {
	C.sqlite3_busy_timeout(c.db, C.int(d/time.Millisecond))
}

// registerHook installs f in reg under *idxField, replacing (and returning)
// whatever hook previously occupied that slot, then runs set to tell
// SQLite's C layer whether a handler is now enabled. The five *Func
// registration methods below share this one piece of bookkeeping instead
// of each repeating it.
func registerHook[F any](reg *registry, idxField *int, f F, enabled bool, set func(enable C.int)) (prev F) {
	prevIdx := *idxField
	*idxField = reg.register(f)
	set(cBool(enabled))
	prev, _ = reg.unregister(prevIdx).(F)
	return
}

// BusyFunc registers a function invoked when SQLite is unable to acquire a
// lock on a table.
func (c *Conn) BusyFunc(f BusyFunc) {
	registerHook(busyRegistry, &c.busyIdx, f, f != nil, func(enable C.int) {
		C.set_busy_handler(c.db, unsafe.Pointer(&c.busyIdx), enable)
	})
}

// CommitFunc registers a function invoked before a transaction is
// committed. Returns the previous handler, if any.
func (c *Conn) CommitFunc(f CommitFunc) CommitFunc {
	return registerHook(commitRegistry, &c.commitIdx, f, f != nil, func(enable C.int) {
		C.set_commit_hook(c.db, unsafe.Pointer(&c.commitIdx), enable)
	})
}

// RollbackFunc registers a function invoked when a transaction is rolled
// back. Returns the previous handler, if any.
func (c *Conn) RollbackFunc(f RollbackFunc) RollbackFunc {
	return registerHook(rollbackRegistry, &c.rollbackIdx, f, f != nil, func(enable C.int) {
		C.set_rollback_hook(c.db, unsafe.Pointer(&c.rollbackIdx), enable)
	})
}

// UpdateFunc registers a function invoked when a row is updated, inserted,
// or deleted. Returns the previous handler, if any.
func (c *Conn) UpdateFunc(f UpdateFunc) UpdateFunc {
	return registerHook(updateRegistry, &c.updateIdx, f, f != nil, func(enable C.int) {
		C.set_update_hook(c.db, unsafe.Pointer(&c.updateIdx), enable)
	})
}

// AuthorizerFunc registers a function invoked during SQL statement
// compilation. It should return OK to accept, IGNORE to disallow the
// specific action but continue, or DENY to abort compilation.
func (c *Conn) AuthorizerFunc(f AuthorizerFunc) AuthorizerFunc {
	return registerHook(authorizerRegistry, &c.authorizerIdx, f, f != nil, func(enable C.int) {
		C.set_set_authorizer(c.db, unsafe.Pointer(&c.authorizerIdx), enable)
	})
}

// exec calls sqlite3_exec on sql, which must be a null-terminated C string.
func (c *Conn) exec(sql *C.char) error {
	if rc := C.sqlite3_exec(c.db, sql, nil, nil, nil); rc != OK {
		return libErr(rc, c.db)
	}
	return nil
}

// LoadExtension loads a SQLite extension shared library. The connection
// must have extension loading enabled first; see EnableLoadExtension.
// https://www.sqlite.org/c3ref/load_extension.html
func (c *Conn) LoadExtension(file string, entry string) error {
	zFile := file + "\x00"
	var zEntry *C.char
	if entry != "" {
		e := entry + "\x00"
		zEntry = cStr(e)
	}
	var cErr *C.char
	rc := C.sqlite3_load_extension(c.db, cStr(zFile), zEntry, &cErr)
	if rc != OK {
		msg := C.GoString(cErr)
		if cErr != nil {
			C.sqlite3_free(unsafe.Pointer(cErr))
		}
		if msg == "" {
			return libErr(rc, c.db)
		}
		return &Error{int(rc), msg}
	}
	return nil
}

// EnableLoadExtension enables or disables the LoadExtension and
// load_extension() SQL function.
// https://www.sqlite.org/c3ref/enable_load_extension.html
func (c *Conn) EnableLoadExtension(enable bool) error {
	rc := C.sqlite3_enable_load_extension(c.db, cBool(enable))
	if rc != OK {
		return libErr(rc, c.db)
	}
	return nil
}
