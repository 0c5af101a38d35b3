// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// emptyByteSlice is returned from ColumnRawBytes instead of allocating for
// zero-length blobs. Callers are not allowed to modify the slice.
var emptyByteSlice = []byte{}

// cStr returns a pointer to the first byte in s. s must be NUL-terminated
// by the caller; cStr does not append one.
func cStr(s string) *C.char {
	if len(s) == 0 {
		return nil
	}
	return (*C.char)(unsafe.Pointer(unsafe.StringData(s)))
}

// cStrOffset returns the offset of p in s or -1 if p doesn't point into s.
func cStrOffset(s string, p *C.char) int {
	base := uintptr(unsafe.Pointer(unsafe.StringData(s)))
	if off := uintptr(unsafe.Pointer(p)) - base; off < uintptr(len(s)) {
		return int(off)
	}
	return -1
}

// cBytes returns a pointer to the first byte in b.
func cBytes(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

// cBool returns a C representation of a Go bool (false = 0, true = 1).
func cBool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

// goStr returns a Go representation of a null-terminated C string.
func goStr(p *C.char) string {
	if p == nil || *p == 0 {
		return ""
	}
	n := 0
	for q := p; *q != 0; q = (*C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(q)) + 1)) {
		n++
	}
	return unsafe.String((*byte)(unsafe.Pointer(p)), n)
}

// goStrN returns a Go representation of an n-byte C string.
func goStrN(p *C.char, n C.int) string {
	if n <= 0 {
		return ""
	}
	return unsafe.String((*byte)(unsafe.Pointer(p)), int(n))
}

// goBytes returns a Go representation of an n-byte C array. The returned
// slice aliases memory owned by SQLite and must not outlive the call that
// produced p.
func goBytes(p unsafe.Pointer, n C.int) []byte {
	if n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), int(n))
}

// registry hands out stable integer handles for Go values that must be
// referenced from C via a void* user-data pointer (hook callbacks,
// registered SQL functions, and aggregate state). SQLite's C API
// only ever round-trips the handle, never the Go pointer itself, which
// keeps the cgo pointer-passing rules happy.
type registry struct {
	mu    sync.Mutex
	index int
	vals  map[int]interface{}
}

func newRegistry() *registry {
	return &registry{vals: make(map[int]interface{})}
}

func (r *registry) register(val interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index++
	for r.vals[r.index] != nil || r.index == 0 {
		r.index++
	}
	r.vals[r.index] = val
	return r.index
}

func (r *registry) lookup(i int) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vals[i]
}

func (r *registry) unregister(i int) interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.vals[i]
	delete(r.vals, i)
	return prev
}
