// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
*/
import "C"

// Backup drives an online backup of one connection's database into
// another, copying a bounded number of pages per Step call so long-running
// backups can interleave with other work on the source connection.
// https://www.sqlite.org/c3ref/backup_finish.html
type Backup struct {
	backup *C.sqlite3_backup
	dstDB  *C.sqlite3
}

// Backup initializes an online backup of dbName in c (source) into dbName
// in dst (destination). Call Step repeatedly until it reports done, then
// Finish.
// https://www.sqlite.org/c3ref/backup_init.html
func (c *Conn) Backup(dbName string, dst *Conn, dstDBName string) (*Backup, error) {
	zDst := dstDBName + "\x00"
	zSrc := dbName + "\x00"
	b := C.sqlite3_backup_init(dst.db, cStr(zDst), c.db, cStr(zSrc))
	if b == nil {
		return nil, libErr(C.sqlite3_errcode(dst.db), dst.db)
	}
	return &Backup{backup: b, dstDB: dst.db}, nil
}

// Step copies up to nPages pages from the source to the destination
// database, or all remaining pages if nPages is negative. It returns true
// once the backup is complete.
func (b *Backup) Step(nPages int) (done bool, err error) {
	rc := C.sqlite3_backup_step(b.backup, C.int(nPages))
	switch rc {
	case DONE:
		return true, nil
	case OK, BUSY, LOCKED:
		return false, nil
	default:
		return false, libErr(rc, b.dstDB)
	}
}

// Remaining returns the number of pages still to be backed up, valid after
// at least one call to Step.
func (b *Backup) Remaining() int {
	return int(C.sqlite3_backup_remaining(b.backup))
}

// PageCount returns the total number of pages in the source database,
// valid after at least one call to Step.
func (b *Backup) PageCount() int {
	return int(C.sqlite3_backup_pagecount(b.backup))
}

// Finish releases all resources associated with the backup. It must be
// called exactly once, whether or not Step ran to completion.
func (b *Backup) Finish() error {
	if backup := b.backup; backup != nil {
		b.backup = nil
		if rc := C.sqlite3_backup_finish(backup); rc != OK {
			return libErr(rc, b.dstDB)
		}
	}
	return nil
}
