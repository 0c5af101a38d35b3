// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import (
	"fmt"
)

// Error is returned for all SQLite API result codes other than OK, ROW, and
// DONE. Code is the SQLite extended result code.
type Error struct {
	rc  int
	msg string
}

// NewError creates a new Error instance using the specified SQLite result
// code and error message.
func NewError(rc int, msg string) *Error {
	return &Error{rc, msg}
}

// Code returns the SQLite extended result code.
func (err *Error) Code() int {
	return err.rc
}

// Error implements the error interface.
func (err *Error) Error() string {
	return fmt.Sprintf("sqlite3: %s [%d]", err.msg, err.rc)
}

// Basic returns the primary (non-extended) result code, i.e. the low byte
// of Code. https://www.sqlite.org/rescode.html#primary_result_code_list
func (err *Error) Basic() int {
	return err.rc & 0xff
}

// Errors returned for access attempts to closed or invalid objects.
var (
	ErrBadConn   = &Error{MISUSE, "closed or invalid connection"}
	ErrBadStmt   = &Error{MISUSE, "closed or invalid statement"}
	ErrBadIO     = &Error{MISUSE, "closed or invalid incremental I/O operation"}
	ErrBadBackup = &Error{MISUSE, "closed or invalid backup operation"}
)

func errStr(rc C.int) error {
	return &Error{int(rc), C.GoString(C.sqlite3_errstr(rc))}
}

// libErr reports an error originating in SQLite. The error message is
// obtained from the database connection when possible, which may include
// some additional information. Otherwise, the result code is translated to
// a generic message.
func libErr(rc C.int, db *C.sqlite3) error {
	if db != nil && rc == C.sqlite3_errcode(db) {
		return &Error{int(rc), C.GoString(C.sqlite3_errmsg(db))}
	}
	return &Error{int(rc), C.GoString(C.sqlite3_errstr(rc))}
}

// pkgErr reports an error originating in this package, not in SQLite
// itself.
func pkgErr(rc int, msg string, v ...interface{}) error {
	if len(v) == 0 {
		return &Error{rc, msg}
	}
	return &Error{rc, fmt.Sprintf(msg, v...)}
}
