// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 is a cgo binding to the native SQLite C library. It
// declares the symbol surface, wraps raw handles, and decodes SQLite
// result codes into typed errors. This package does not interpret SQL
// beyond what is needed to bind parameters and read back columns; the
// connection/transaction state machine and row-shaped query surface
// live one layer up, in package litesql.
package sqlite3
