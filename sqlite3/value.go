// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import "unsafe"

// NamedArgs binds statement parameters by name (":foo", "@foo", or "$foo")
// instead of by position. Unknown names are silently ignored, matching
// sqlite3_bind_parameter_index's behavior of returning 0 for them.
type NamedArgs map[string]interface{}

// RawString is a string that Bind passes to SQLite without copying. The
// caller must ensure the underlying bytes are not modified or garbage collected until SQLite is
// done with the value, which for a bound parameter means until the
// statement is reset or finalized.
type RawString string

// Copy returns an independent copy of the string that is always safe to
// pass to Bind.
func (s RawString) Copy() string {
	return string(s)
}

// RawBytes is a byte slice that Bind passes to SQLite without copying. The
// caller must ensure the underlying bytes are not modified or garbage collected until SQLite is
// done with the value, which for a bound parameter means until the
// statement is reset or finalized.
type RawBytes []byte

// Copy returns an independent copy of the byte slice that is always safe to
// pass to Bind.
func (b RawBytes) Copy() []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// ZeroBlob, when bound to a statement parameter, allocates a BLOB of the
// given length filled with zero bytes. Use (*Conn).OpenBlob to write to it
// incrementally afterward.
// https://www.sqlite.org/c3ref/bind_blob.html
type ZeroBlob int

// Value wraps a protected sqlite3_value pointer, as passed to a
// user-defined scalar or aggregate step function. It is only valid for the
// duration of the call that produced it.
// https://www.sqlite.org/c3ref/value.html
type Value struct {
	ptr *C.sqlite3_value
}

// Type returns the datatype of the value (one of the column/value storage
// class constants). Calling Type first rather than last avoids an extra,
// potentially lossy, type conversion inside SQLite.
func (v Value) Type() int {
	return int(C.sqlite3_value_type(v.ptr))
}

// Int64 returns the value as a 64-bit integer.
func (v Value) Int64() int64 {
	return int64(C.sqlite3_value_int64(v.ptr))
}

// Double returns the value as a floating point number.
func (v Value) Double() float64 {
	return float64(C.sqlite3_value_double(v.ptr))
}

// Bool returns the value as a boolean, using the C convention that zero is
// false and anything else is true.
func (v Value) Bool() bool {
	return v.Int64() != 0
}

// Text returns the value as a UTF-8 string. The returned string is a copy
// and remains valid after the call that produced v returns.
func (v Value) Text() string {
	p := (*C.char)(unsafe.Pointer(C.sqlite3_value_text(v.ptr)))
	n := C.sqlite3_value_bytes(v.ptr)
	return string(goBytes(unsafe.Pointer(p), n))
}

// Blob returns the value as a byte slice. The returned slice is a copy and
// remains valid after the call that produced v returns.
func (v Value) Blob() []byte {
	p := C.sqlite3_value_blob(v.ptr)
	n := C.sqlite3_value_bytes(v.ptr)
	b := goBytes(p, n)
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// IsNil reports whether the value's storage class is NULL.
func (v Value) IsNil() bool {
	return v.Type() == NULL
}
