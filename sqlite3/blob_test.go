// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import "testing"

func TestBlobIO(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)
	t.exec(c, "CREATE TABLE x(a)")
	t.exec(c, "INSERT INTO x VALUES(?)", ZeroBlob(8))
	t.exec(c, "INSERT INTO x VALUES(?)", "hello, world")

	b, err := c.OpenBlob("main", "x", "a", 1, true)
	if err != nil {
		t.Fatalf("OpenBlob() unexpected error: %v", err)
	}
	defer b.Close()

	if b.Len() != 8 {
		t.Fatalf("b.Len() expected 8; got %d", b.Len())
	}

	in := []byte("1234567")
	if n, err := b.Write(in); n != 7 || err != nil {
		t.Fatalf("b.Write(%q) expected 7, <nil>; got %d, %v", in, n, err)
	}
	if _, err := b.Write([]byte("89")); err == nil {
		t.Fatal("expected error writing past end of blob")
	}

	if _, err := b.Seek(0, 0); err != nil {
		t.Fatalf("b.Seek() unexpected error: %v", err)
	}
	out := make([]byte, 8)
	if n, err := b.Read(out); n != 8 || err != nil {
		t.Fatalf("b.Read() expected 8, <nil>; got %d, %v", n, err)
	}
	if string(out) != "1234567\x00" {
		t.Fatalf("b.Read() expected %q; got %q", "1234567\x00", out)
	}

	if err := b.Reopen(2); err != nil {
		t.Fatalf("b.Reopen() unexpected error: %v", err)
	}
	if b.Len() != 12 {
		t.Fatalf("after Reopen, b.Len() expected 12; got %d", b.Len())
	}
	out = make([]byte, 12)
	if n, err := b.Read(out); n != 12 || err != nil {
		t.Fatalf("b.Read() expected 12, <nil>; got %d, %v", n, err)
	}
	if string(out) != "hello, world" {
		t.Fatalf("b.Read() expected %q; got %q", "hello, world", out)
	}

	b.Close()
	if _, err := b.Read(out); err != ErrBadIO {
		t.Fatalf("b.Read() after Close expected ErrBadIO; got %v", err)
	}
}

func TestBlobReadOnly(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)
	t.exec(c, "CREATE TABLE x(a); INSERT INTO x VALUES(?)", "value")

	b, err := c.OpenBlob("main", "x", "a", 1, false)
	if err != nil {
		t.Fatalf("OpenBlob() unexpected error: %v", err)
	}
	defer b.Close()

	if _, err := b.Write([]byte("x")); err == nil {
		t.Fatal("expected error writing to read-only blob")
	}
}
