package litesql

import (
	"github.com/pkg/errors"

	"github.com/litesql-go/litesql/sqlite3"
)

// BlobIO is an open handle for incremental byte-ranged access to a single
// BLOB column of a single row. Its length is fixed at open; Close is
// mandatory and idempotent, and any Read/Write/Seek after Close returns
// BlobClosed.
type BlobIO struct {
	raw    *sqlite3.Blob
	closed bool
}

// OpenBlob opens db/table/column/row for incremental I/O. writable must
// be true to permit Write.
func (db *Database) OpenBlob(dbName, table, column string, row int64, writable bool) (*BlobIO, error) {
	raw, err := db.conn.OpenBlob(dbName, table, column, row, writable)
	if err != nil {
		return nil, errors.WithMessagef(wrapSqliteErr(err), "opening blob %s.%s row %d", table, column, row)
	}
	return &BlobIO{raw: raw}, nil
}

// Len returns the BLOB's fixed byte length.
func (b *BlobIO) Len() int {
	return b.raw.Len()
}

// Read reads into p starting at the handle's current offset.
func (b *BlobIO) Read(p []byte) (int, error) {
	if b.closed {
		return 0, newBlobClosed()
	}
	n, err := b.raw.Read(p)
	return n, wrapSqliteErr(err)
}

// Write writes p starting at the handle's current offset. Write cannot
// grow the BLOB; writing past its fixed length returns an error.
func (b *BlobIO) Write(p []byte) (int, error) {
	if b.closed {
		return 0, newBlobClosed()
	}
	n, err := b.raw.Write(p)
	return n, wrapSqliteErr(err)
}

// Seek repositions the handle's offset, as io.Seeker.
func (b *BlobIO) Seek(offset int64, whence int) (int64, error) {
	if b.closed {
		return 0, newBlobClosed()
	}
	n, err := b.raw.Seek(offset, whence)
	return n, wrapSqliteErr(err)
}

// Close releases the handle. Safe to call more than once.
func (b *BlobIO) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return wrapSqliteErr(b.raw.Close())
}
