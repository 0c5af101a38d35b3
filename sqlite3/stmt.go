// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>

int bind_text(sqlite3_stmt*, int, const char*, int, int);
int bind_blob(sqlite3_stmt*, int, const void*, int, int);
void column_types(sqlite3_stmt*, unsigned char*, int);
int sqlite3_blocking_step(sqlite3*, sqlite3_stmt*);
*/
import "C"

import (
	"unsafe"
)

// Stmt is a single SQL statement, compiled into bytecode by Conn.Prepare.
// It is not safe for concurrent use by multiple goroutines.
// https://www.sqlite.org/c3ref/stmt.html
type Stmt struct {
	stmt *C.sqlite3_stmt
	db   *C.sqlite3
	conn *Conn

	// gen is this statement's generation number in conn.stmts, assigned by
	// Conn.trackStmt at Prepare time and used to remove it from the live
	// set on Close without disturbing a later statement that happens to
	// reuse the same *Stmt memory address.
	gen uint64

	// Tail holds any text left over in the source SQL string after the
	// first statement that was compiled into this Stmt.
	Tail string

	// SQL is the original statement text, kept for diagnostics.
	SQL string

	colCount int
	colTypes []uint8
}

// Close finalizes the statement, releasing all resources. It is safe to
// call Close more than once; Exec, Bind, Step, Reset, and ClearBindings
// return ErrBadStmt after Close. An error from the most recent Step is not
// reported again by Close.
// https://www.sqlite.org/c3ref/finalize.html
func (s *Stmt) Close() error {
	if stmt := s.stmt; stmt != nil {
		s.stmt = nil
		if s.conn != nil {
			s.conn.forgetStmt(s.gen)
		}
		// sqlite3_finalize fails only by repeating the error of the most
		// recent Step, which Step has already returned to its caller.
		C.sqlite3_finalize(stmt)
	}
	return nil
}

// Busy reports whether the statement currently has a row available (i.e.
// Step last returned ROW) without having been reset since.
func (s *Stmt) Busy() bool {
	return s.stmt != nil && C.sqlite3_stmt_busy(s.stmt) != 0
}

// ReadOnly reports whether the statement makes no direct changes to the
// content of the database.
func (s *Stmt) ReadOnly() bool {
	return s.stmt != nil && C.sqlite3_stmt_readonly(s.stmt) != 0
}

// BindParameterCount returns the number of SQL parameters in the
// statement.
func (s *Stmt) BindParameterCount() int {
	return int(C.sqlite3_bind_parameter_count(s.stmt))
}

// BindParameterIndex returns the index of the statement parameter named
// name (including its ":", "@", or "$" prefix), or 0 if no such
// parameter exists.
func (s *Stmt) BindParameterIndex(name string) int {
	cname := name + "\x00"
	return int(C.sqlite3_bind_parameter_index(s.stmt, cStr(cname)))
}

// ColumnCount returns the number of columns in the statement's result set.
func (s *Stmt) ColumnCount() int {
	return int(C.sqlite3_column_count(s.stmt))
}

// ColumnName returns the name of the i'th result column, zero-indexed.
func (s *Stmt) ColumnName(i int) string {
	return C.GoString(C.sqlite3_column_name(s.stmt, C.int(i)))
}

// ColumnNames returns the names of all the statement's result columns.
func (s *Stmt) ColumnNames() []string {
	n := s.ColumnCount()
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = s.ColumnName(i)
	}
	return names
}

// DeclType returns the declared type of the i'th result column, as
// specified in CREATE TABLE, or "" if the column is the result of an
// expression.
func (s *Stmt) DeclType(i int) string {
	return C.GoString(C.sqlite3_column_decltype(s.stmt, C.int(i)))
}

// Exec resets the statement, binds args if any are given, and steps it to
// completion. It is a convenience wrapper intended for INSERT/UPDATE/DELETE
// statements that return no rows.
func (s *Stmt) Exec(args ...interface{}) error {
	if err := s.Reset(); err != nil {
		return err
	}
	if len(args) > 0 {
		if err := s.Bind(args...); err != nil {
			return err
		}
	}
	return s.StepToCompletion()
}

// Bind binds parameters to the statement, either positionally or, when a
// single NamedArgs argument is given, by name. Supported value types are
// nil, bool, int and all sized integer types, float32/float64, string,
// RawString, []byte, RawBytes, ZeroBlob, and Value.
// https://www.sqlite.org/c3ref/bind_blob.html
func (s *Stmt) Bind(args ...interface{}) error {
	if s.stmt == nil {
		return ErrBadStmt
	}
	if len(args) == 1 {
		if named, ok := args[0].(NamedArgs); ok {
			return s.bindNamed(named)
		}
	}
	if len(args) != s.BindParameterCount() {
		return pkgErr(MISUSE, "incorrect argument count for Bind (expected %d, got %d)",
			s.BindParameterCount(), len(args))
	}
	for i, v := range args {
		if err := s.bindIndex(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stmt) bindNamed(args NamedArgs) error {
	for name, v := range args {
		cname := name + "\x00"
		i := int(C.sqlite3_bind_parameter_index(s.stmt, cStr(cname)))
		if i == 0 {
			continue
		}
		if err := s.bindIndex(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stmt) bindIndex(i int, v interface{}) error {
	n := C.int(i)
	var rc C.int
	switch v := v.(type) {
	case nil:
		rc = C.sqlite3_bind_null(s.stmt, n)
	case bool:
		rc = C.sqlite3_bind_int(s.stmt, n, cBool(v))
	case int:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case int8:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case int16:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case int32:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case int64:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case uint:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case uint64:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case uint8:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case uint16:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case uint32:
		rc = C.sqlite3_bind_int64(s.stmt, n, C.sqlite3_int64(v))
	case float32:
		rc = C.sqlite3_bind_double(s.stmt, n, C.double(v))
	case float64:
		rc = C.sqlite3_bind_double(s.stmt, n, C.double(v))
	case string:
		str := v + "\x00"
		rc = C.bind_text(s.stmt, n, cStr(str), C.int(len(v)), 1)
	case RawString:
		str := string(v) + "\x00"
		rc = C.bind_text(s.stmt, n, cStr(str), C.int(len(v)), 0)
	case []byte:
		if len(v) == 0 {
			rc = C.bind_blob(s.stmt, n, nil, 0, 1)
		} else {
			rc = C.bind_blob(s.stmt, n, cBytes(v), C.int(len(v)), 1)
		}
	case RawBytes:
		if len(v) == 0 {
			rc = C.bind_blob(s.stmt, n, nil, 0, 0)
		} else {
			rc = C.bind_blob(s.stmt, n, cBytes(v), C.int(len(v)), 0)
		}
	case ZeroBlob:
		rc = C.sqlite3_bind_zeroblob(s.stmt, n, C.int(v))
	case Value:
		rc = C.sqlite3_bind_value(s.stmt, n, v.ptr)
	default:
		return pkgErr(MISUSE, "unsupported type for Bind parameter %d: %T", i, v)
	}
	if rc != OK {
		return libErr(rc, s.db)
	}
	return nil
}

// Step advances the statement to the next result row. It returns true if a
// row is available for scanning, false if the statement has completed
// execution with no (more) rows, and a non-nil error on failure.
// https://www.sqlite.org/c3ref/step.html
func (s *Stmt) Step() (bool, error) {
	if s.stmt == nil {
		return false, ErrBadStmt
	}
	s.colTypes = nil
	rc := C.sqlite3_blocking_step(s.db, s.stmt)
	switch rc {
	case ROW:
		return true, nil
	case DONE:
		return false, nil
	default:
		return false, libErr(rc, s.db)
	}
}

// StepToCompletion calls Step repeatedly, discarding any rows, until the
// statement is done or an error occurs.
func (s *Stmt) StepToCompletion() error {
	for {
		hasRow, err := s.Step()
		if err != nil || !hasRow {
			return err
		}
	}
}

// Reset returns the statement to its initial state, ready to be re-bound
// and re-executed. Does not clear bound parameter values; see
// ClearBindings.
// https://www.sqlite.org/c3ref/reset.html
func (s *Stmt) Reset() error {
	if s.stmt == nil {
		return ErrBadStmt
	}
	if rc := C.sqlite3_reset(s.stmt); rc != OK {
		return libErr(rc, s.db)
	}
	return nil
}

// ClearBindings resets all parameters bound to the statement to NULL.
func (s *Stmt) ClearBindings() error {
	if s.stmt == nil {
		return ErrBadStmt
	}
	if rc := C.sqlite3_clear_bindings(s.stmt); rc != OK {
		return libErr(rc, s.db)
	}
	return nil
}

// Status returns a per-statement performance counter (one of the
// STMTSTATUS constants). If reset, the counter is zeroed after retrieval.
func (s *Stmt) Status(op int, reset bool) int {
	return int(C.sqlite3_stmt_status(s.stmt, C.int(op), cBool(reset)))
}

func (s *Stmt) assureColTypes() {
	if s.colTypes != nil {
		return
	}
	n := s.ColumnCount()
	s.colCount = n
	if n == 0 {
		s.colTypes = emptyByteSlice
		return
	}
	types := make([]uint8, n)
	C.column_types(s.stmt, (*C.uchar)(unsafe.Pointer(&types[0])), C.int(n))
	s.colTypes = types
}

// ColumnType returns the storage class of the i'th result column in the
// current row (one of the column/value storage class constants). Only
// valid after Step has returned true.
func (s *Stmt) ColumnType(i int) int {
	return int(C.sqlite3_column_type(s.stmt, C.int(i)))
}

// ColumnTypes returns the storage classes of all result columns in the
// current row.
func (s *Stmt) ColumnTypes() []uint8 {
	s.assureColTypes()
	return s.colTypes
}

// Scan copies the values of the current row into dest, which must contain
// one pointer per result column: *bool, *int64, *float64, *string,
// *[]byte, or *interface{} for dynamic typing. A nil *interface{} slot
// (pass nil itself) skips the corresponding column.
func (s *Stmt) Scan(dest ...interface{}) error {
	n := s.ColumnCount()
	if len(dest) != n {
		return pkgErr(MISUSE, "incorrect argument count for Scan (expected %d, got %d)", n, len(dest))
	}
	for i, d := range dest {
		if d == nil {
			continue
		}
		if err := s.scan(i, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stmt) scan(i int, dest interface{}) error {
	switch d := dest.(type) {
	case *bool:
		*d = s.ColumnInt64(i) != 0
	case *int:
		*d = int(s.ColumnInt64(i))
	case *int64:
		*d = s.ColumnInt64(i)
	case *float64:
		*d = s.ColumnDouble(i)
	case *string:
		*d = s.ColumnText(i)
	case *[]byte:
		*d = s.ColumnBytes(i)
	case *interface{}:
		*d = s.scanDynamic(i)
	default:
		return pkgErr(MISUSE, "unsupported destination type for Scan column %d: %T", i, dest)
	}
	return nil
}

func (s *Stmt) scanDynamic(i int) interface{} {
	switch s.ColumnType(i) {
	case INTEGER:
		return s.ColumnInt64(i)
	case FLOAT:
		return s.ColumnDouble(i)
	case TEXT:
		return s.ColumnText(i)
	case BLOB:
		return s.ColumnBytes(i)
	default:
		return nil
	}
}

// ColumnInt64 returns the i'th column of the current row as a 64-bit
// integer.
func (s *Stmt) ColumnInt64(i int) int64 {
	return int64(C.sqlite3_column_int64(s.stmt, C.int(i)))
}

// ColumnDouble returns the i'th column of the current row as a floating
// point number.
func (s *Stmt) ColumnDouble(i int) float64 {
	return float64(C.sqlite3_column_double(s.stmt, C.int(i)))
}

// ColumnInt returns the i'th column of the current row as an int.
func (s *Stmt) ColumnInt(i int) int {
	return int(s.ColumnInt64(i))
}

// ColumnText returns the i'th column of the current row as a UTF-8 string.
// The returned string is a copy, safe to retain past the next Step or
// Reset.
func (s *Stmt) ColumnText(i int) string {
	p := C.sqlite3_column_text(s.stmt, C.int(i))
	n := C.sqlite3_column_bytes(s.stmt, C.int(i))
	return string(goBytes(unsafe.Pointer(p), n))
}

// ColumnBytes returns the i'th column of the current row as a byte slice.
// The returned slice is a copy, safe to retain past the next Step or
// Reset.
func (s *Stmt) ColumnBytes(i int) []byte {
	b := s.ColumnRawBytes(i)
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// ColumnRawBytes returns the i'th column of the current row as a byte
// slice aliasing memory owned by the statement. The slice is only valid
// until the next call to Step, Reset, or Close, and must not be modified.
func (s *Stmt) ColumnRawBytes(i int) []byte {
	p := C.sqlite3_column_blob(s.stmt, C.int(i))
	n := C.sqlite3_column_bytes(s.stmt, C.int(i))
	if p == nil {
		if n == 0 {
			return emptyByteSlice
		}
		return nil
	}
	return goBytes(p, n)
}

// ColumnRawString returns the i'th column of the current row as a string
// aliasing memory owned by the statement, avoiding a copy. The string is
// only valid until the next call to Step, Reset, or Close.
func (s *Stmt) ColumnRawString(i int) string {
	p := C.sqlite3_column_text(s.stmt, C.int(i))
	n := C.sqlite3_column_bytes(s.stmt, C.int(i))
	return goStrN((*C.char)(unsafe.Pointer(p)), n)
}

