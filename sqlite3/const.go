// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// Result codes returned by SQLite API calls.
// https://www.sqlite.org/rescode.html
const (
	OK         = C.SQLITE_OK
	ERROR      = C.SQLITE_ERROR
	INTERNAL   = C.SQLITE_INTERNAL
	PERM       = C.SQLITE_PERM
	ABORT      = C.SQLITE_ABORT
	BUSY       = C.SQLITE_BUSY
	LOCKED     = C.SQLITE_LOCKED
	NOMEM      = C.SQLITE_NOMEM
	READONLY   = C.SQLITE_READONLY
	INTERRUPT  = C.SQLITE_INTERRUPT
	IOERR      = C.SQLITE_IOERR
	CORRUPT    = C.SQLITE_CORRUPT
	NOTFOUND   = C.SQLITE_NOTFOUND
	FULL       = C.SQLITE_FULL
	CANTOPEN   = C.SQLITE_CANTOPEN
	PROTOCOL   = C.SQLITE_PROTOCOL
	EMPTY      = C.SQLITE_EMPTY
	SCHEMA     = C.SQLITE_SCHEMA
	TOOBIG     = C.SQLITE_TOOBIG
	CONSTRAINT = C.SQLITE_CONSTRAINT
	MISMATCH   = C.SQLITE_MISMATCH
	MISUSE     = C.SQLITE_MISUSE
	NOLFS      = C.SQLITE_NOLFS
	AUTH       = C.SQLITE_AUTH
	FORMAT     = C.SQLITE_FORMAT
	RANGE      = C.SQLITE_RANGE
	NOTADB     = C.SQLITE_NOTADB
	NOTICE     = C.SQLITE_NOTICE
	WARNING    = C.SQLITE_WARNING
	ROW        = C.SQLITE_ROW
	DONE       = C.SQLITE_DONE
)

// Column/value storage classes.
// https://www.sqlite.org/c3ref/c_blob.html
const (
	INTEGER = C.SQLITE_INTEGER
	FLOAT   = C.SQLITE_FLOAT
	TEXT    = C.SQLITE_TEXT
	BLOB    = C.SQLITE_BLOB
	NULL    = C.SQLITE_NULL
)

// Flags for sqlite3_open_v2.
// https://www.sqlite.org/c3ref/open.html
const (
	OPEN_READONLY  = C.SQLITE_OPEN_READONLY
	OPEN_READWRITE = C.SQLITE_OPEN_READWRITE
	OPEN_CREATE    = C.SQLITE_OPEN_CREATE
	OPEN_URI       = C.SQLITE_OPEN_URI
	OPEN_MEMORY    = C.SQLITE_OPEN_MEMORY
	OPEN_NOMUTEX   = C.SQLITE_OPEN_NOMUTEX
	OPEN_FULLMUTEX = C.SQLITE_OPEN_FULLMUTEX
)

// Flags for sqlite3_create_function_v2.
// https://www.sqlite.org/c3ref/create_function.html
const (
	FUNC_DETERMINISTIC = 0x000000800
	FUNC_DIRECTONLY    = 0x000080000
	FUNC_SUBTYPE       = 0x000100000
	FUNC_INNOCUOUS     = 0x000200000
)

// DBSTATUS/STMTSTATUS/STATUS op codes, used with Conn.Status, Stmt.Status,
// and the package-level Status function.
// https://www.sqlite.org/c3ref/c_dbstatus_options.html
const (
	DBSTATUS_LOOKASIDE_USED   = C.SQLITE_DBSTATUS_LOOKASIDE_USED
	DBSTATUS_CACHE_USED       = C.SQLITE_DBSTATUS_CACHE_USED
	DBSTATUS_SCHEMA_USED      = C.SQLITE_DBSTATUS_SCHEMA_USED
	DBSTATUS_STMT_USED        = C.SQLITE_DBSTATUS_STMT_USED
	DBSTATUS_CACHE_HIT        = C.SQLITE_DBSTATUS_CACHE_HIT
	DBSTATUS_CACHE_MISS       = C.SQLITE_DBSTATUS_CACHE_MISS
	STMTSTATUS_FULLSCAN_STEP  = C.SQLITE_STMTSTATUS_FULLSCAN_STEP
	STMTSTATUS_SORT           = C.SQLITE_STMTSTATUS_SORT
	STMTSTATUS_AUTOINDEX      = C.SQLITE_STMTSTATUS_AUTOINDEX
	STATUS_MEMORY_USED        = C.SQLITE_STATUS_MEMORY_USED
	STATUS_PAGECACHE_USED     = C.SQLITE_STATUS_PAGECACHE_USED
	STATUS_PAGECACHE_OVERFLOW = C.SQLITE_STATUS_PAGECACHE_OVERFLOW
	STATUS_MALLOC_SIZE        = C.SQLITE_STATUS_MALLOC_SIZE
)

// LIMIT op codes, used with Conn.Limit.
// https://www.sqlite.org/c3ref/c_limit_attached.html
const (
	LIMIT_LENGTH              = C.SQLITE_LIMIT_LENGTH
	LIMIT_SQL_LENGTH          = C.SQLITE_LIMIT_SQL_LENGTH
	LIMIT_COLUMN              = C.SQLITE_LIMIT_COLUMN
	LIMIT_EXPR_DEPTH          = C.SQLITE_LIMIT_EXPR_DEPTH
	LIMIT_COMPOUND_SELECT     = C.SQLITE_LIMIT_COMPOUND_SELECT
	LIMIT_VDBE_OP             = C.SQLITE_LIMIT_VDBE_OP
	LIMIT_FUNCTION_ARG        = C.SQLITE_LIMIT_FUNCTION_ARG
	LIMIT_ATTACHED            = C.SQLITE_LIMIT_ATTACHED
	LIMIT_VARIABLE_NUMBER     = C.SQLITE_LIMIT_VARIABLE_NUMBER
	LIMIT_TRIGGER_DEPTH       = C.SQLITE_LIMIT_TRIGGER_DEPTH
	LIMIT_WORKER_THREADS      = C.SQLITE_LIMIT_WORKER_THREADS
)

// Update hook operation codes.
// https://www.sqlite.org/c3ref/c_alter_table.html
const (
	INSERT = C.SQLITE_INSERT
	UPDATE = C.SQLITE_UPDATE
	DELETE = C.SQLITE_DELETE
)

// Authorizer return codes.
// https://www.sqlite.org/c3ref/c_deny.html
const (
	DENY   = C.SQLITE_DENY
	IGNORE = C.SQLITE_IGNORE
)
