// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// Blob is a handle for incremental BLOB I/O on a single column of a single
// row, opened with OpenBlob. It implements io.ReadWriteSeeker-like access
// via Read, Write, and Seek, without loading the entire BLOB into memory.
// https://www.sqlite.org/c3ref/blob_open.html
type Blob struct {
	blob *C.sqlite3_blob
	db   *C.sqlite3
	off  int
	size int
}

// OpenBlob opens a BLOB for incremental I/O. db and table name the table
// (table must be the rowid table itself, not a view), column names the
// column, and row is the ROWID of the row. If writable is false, the BLOB
// is opened read-only and Write returns an error.
// https://www.sqlite.org/c3ref/blob_open.html
func (c *Conn) OpenBlob(db, table, column string, row int64, writable bool) (*Blob, error) {
	zDB := db + "\x00"
	zTable := table + "\x00"
	zColumn := column + "\x00"

	var blob *C.sqlite3_blob
	rc := C.sqlite3_blob_open(c.db, cStr(zDB), cStr(zTable), cStr(zColumn),
		C.sqlite3_int64(row), cBool(writable), &blob)
	if rc != OK {
		return nil, libErr(rc, c.db)
	}
	return &Blob{blob: blob, db: c.db, size: int(C.sqlite3_blob_bytes(blob))}, nil
}

// Len returns the size of the BLOB in bytes.
func (b *Blob) Len() int {
	return b.size
}

// Close releases the BLOB handle.
func (b *Blob) Close() error {
	if blob := b.blob; blob != nil {
		b.blob = nil
		if rc := C.sqlite3_blob_close(blob); rc != OK {
			return libErr(rc, b.db)
		}
	}
	return nil
}

// Read reads up to len(p) bytes starting at the current offset, advancing
// it. It returns 0, nil at the end of the BLOB rather than io.EOF, since
// BLOB size is fixed and known in advance via Len.
func (b *Blob) Read(p []byte) (n int, err error) {
	if b.blob == nil {
		return 0, ErrBadIO
	}
	if b.off >= b.size {
		return 0, nil
	}
	if max := b.size - b.off; len(p) > max {
		p = p[:max]
	}
	if len(p) == 0 {
		return 0, nil
	}
	rc := C.sqlite3_blob_read(b.blob, cBytes(p), C.int(len(p)), C.int(b.off))
	if rc != OK {
		return 0, libErr(rc, b.db)
	}
	b.off += len(p)
	return len(p), nil
}

// Write writes len(p) bytes starting at the current offset, advancing it.
// Write cannot change the size of a BLOB; writing past the end returns an
// error.
func (b *Blob) Write(p []byte) (n int, err error) {
	if b.blob == nil {
		return 0, ErrBadIO
	}
	if len(p) == 0 {
		return 0, nil
	}
	if b.off+len(p) > b.size {
		return 0, pkgErr(RANGE, "write past end of blob (offset %d, len %d, size %d)", b.off, len(p), b.size)
	}
	rc := C.sqlite3_blob_write(b.blob, cBytes(p), C.int(len(p)), C.int(b.off))
	if rc != OK {
		return 0, libErr(rc, b.db)
	}
	b.off += len(p)
	return len(p), nil
}

// Seek sets the offset for the next Read or Write, interpreted according
// to whence as in io.Seeker (0 = from start, 1 = relative to current
// offset, 2 = relative to end).
func (b *Blob) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case 0:
		abs = offset
	case 1:
		abs = int64(b.off) + offset
	case 2:
		abs = int64(b.size) + offset
	default:
		return 0, pkgErr(MISUSE, "invalid whence value for Blob.Seek: %d", whence)
	}
	if abs < 0 || abs > int64(b.size) {
		return 0, pkgErr(RANGE, "seek out of range (offset %d, size %d)", abs, b.size)
	}
	b.off = int(abs)
	return abs, nil
}

// Reopen points the BLOB handle at a different row of the same table and
// column, which is considerably cheaper than closing and reopening.
// https://www.sqlite.org/c3ref/blob_reopen.html
func (b *Blob) Reopen(row int64) error {
	if b.blob == nil {
		return ErrBadIO
	}
	if rc := C.sqlite3_blob_reopen(b.blob, C.sqlite3_int64(row)); rc != OK {
		return libErr(rc, b.db)
	}
	b.off = 0
	b.size = int(C.sqlite3_blob_bytes(b.blob))
	return nil
}
