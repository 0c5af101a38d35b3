// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import "unsafe"

// BusyFunc is called when SQLite is unable to acquire a lock on a table.
// count is the number of prior calls for the same locking event. Returning
// true retries the operation; returning false causes it to fail with BUSY.
type BusyFunc func(count int) (retry bool)

// CommitFunc is called before a transaction commits. Returning a non-nil
// error turns the commit into a rollback.
type CommitFunc func() error

// RollbackFunc is called when a transaction rolls back.
type RollbackFunc func()

// UpdateFunc is called after a row is inserted, updated, or deleted. op is
// one of INSERT, UPDATE, or DELETE; db and table name the affected table,
// and rowID is the ROWID of the affected row.
type UpdateFunc func(op int, db, table string, rowID int64)

// AuthorizerFunc is called during statement compilation to approve or deny
// an action. arg1 and arg2 depend on the action code; see
// https://www.sqlite.org/c3ref/c_alter_table.html for the full action code
// reference. It should return OK, DENY, or IGNORE.
type AuthorizerFunc func(op int, arg1, arg2, db, trigger string) int

//export go_busy_handler
func go_busy_handler(data unsafe.Pointer, count C.int) C.int {
	idx := *(*int)(data)
	f, _ := busyRegistry.lookup(idx).(BusyFunc)
	if f == nil || !f(int(count)) {
		return 0
	}
	return 1
}

//export go_commit_hook
func go_commit_hook(data unsafe.Pointer) C.int {
	idx := *(*int)(data)
	f, _ := commitRegistry.lookup(idx).(CommitFunc)
	if f != nil {
		if err := f(); err != nil {
			return 1
		}
	}
	return 0
}

//export go_rollback_hook
func go_rollback_hook(data unsafe.Pointer) {
	idx := *(*int)(data)
	if f, _ := rollbackRegistry.lookup(idx).(RollbackFunc); f != nil {
		f()
	}
}

//export go_update_hook
func go_update_hook(data unsafe.Pointer, op C.int, db, table *C.char, rowID C.sqlite3_int64) {
	idx := *(*int)(data)
	if f, _ := updateRegistry.lookup(idx).(UpdateFunc); f != nil {
		f(int(op), goStr(db), goStr(table), int64(rowID))
	}
}

//export go_set_authorizer
func go_set_authorizer(data unsafe.Pointer, op C.int, arg1, arg2, db, trigger *C.char) C.int {
	idx := *(*int)(data)
	f, _ := authorizerRegistry.lookup(idx).(AuthorizerFunc)
	if f == nil {
		return C.SQLITE_OK
	}
	return C.int(f(int(op), goStr(arg1), goStr(arg2), goStr(db), goStr(trigger)))
}
