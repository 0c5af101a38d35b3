// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

/*
#include <sqlite3.h>
#include <stdlib.h>

void go_scalar_func(sqlite3_context*, int, sqlite3_value**);
void go_step_func(sqlite3_context*, int, sqlite3_value**);
void go_final_func(sqlite3_context*);

static void bind_text_result(sqlite3_context *ctx, const char *p, int n) {
	sqlite3_result_text(ctx, p, n, SQLITE_TRANSIENT);
}
static void bind_blob_result(sqlite3_context *ctx, const void *p, int n) {
	sqlite3_result_blob(ctx, p, n, SQLITE_TRANSIENT);
}

static int create_scalar_function(sqlite3 *db, const char *name, int nArg, int flags, void *data) {
	return sqlite3_create_function_v2(db, name, nArg, SQLITE_UTF8 | flags, data,
		go_scalar_func, 0, 0, 0);
}

static int create_aggregate_function(sqlite3 *db, const char *name, int nArg, int flags, void *data) {
	return sqlite3_create_function_v2(db, name, nArg, SQLITE_UTF8 | flags, data,
		0, go_step_func, go_final_func, 0);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// ScalarFunc computes a single result from its arguments. It must not
// retain args or any Values inside it past the call.
type ScalarFunc func(ctx *FuncContext, args []Value)

// AggregateFunc accumulates state across calls to Step for each row in a
// group, then produces a final result in Final. An AggregateFactory creates
// the fresh aggregation state that Step is called on.
type AggregateFunc interface {
	Step(ctx *FuncContext, args []Value)
	Final(ctx *FuncContext)
}

// AggregateFactory creates a fresh AggregateFunc for each aggregation
// invocation (i.e. each group in a GROUP BY, or the one implicit group of
// an aggregate query with no GROUP BY).
type AggregateFactory func() AggregateFunc

// FuncContext is passed to a registered function to set its result or
// report an error, and to access per-invocation aggregate state.
// https://www.sqlite.org/c3ref/context.html
type FuncContext struct {
	ctx *C.sqlite3_context
}

// ResultInt64 sets the function's result to an integer.
func (c *FuncContext) ResultInt64(v int64) {
	C.sqlite3_result_int64(c.ctx, C.sqlite3_int64(v))
}

// ResultDouble sets the function's result to a floating point number.
func (c *FuncContext) ResultDouble(v float64) {
	C.sqlite3_result_double(c.ctx, C.double(v))
}

// ResultText sets the function's result to a UTF-8 string, copying it.
func (c *FuncContext) ResultText(v string) {
	if len(v) == 0 {
		C.sqlite3_result_text(c.ctx, cStr("\x00"), 0, nil)
		return
	}
	s := v + "\x00"
	C.bind_text_result(c.ctx, cStr(s), C.int(len(v)))
}

// ResultBlob sets the function's result to a byte slice, copying it.
func (c *FuncContext) ResultBlob(v []byte) {
	if len(v) == 0 {
		C.sqlite3_result_zeroblob(c.ctx, 0)
		return
	}
	C.bind_blob_result(c.ctx, cBytes(v), C.int(len(v)))
}

// ResultNull sets the function's result to NULL.
func (c *FuncContext) ResultNull() {
	C.sqlite3_result_null(c.ctx)
}

// ResultError reports err as the result of the function call. If execution
// of the function panics, the registered trampoline recovers and reports
// the panic value through ResultError automatically.
func (c *FuncContext) ResultError(err error) {
	msg := err.Error() + "\x00"
	C.sqlite3_result_error(c.ctx, cStr(msg), -1)
}

// aggregateState returns the AggregateFunc instance for the current
// aggregation group, creating it via the AggregateFactory on first use.
func (c *FuncContext) aggregateState(factory AggregateFactory) AggregateFunc {
	size := C.int(unsafe.Sizeof(uintptr(0)))
	pp := (*unsafe.Pointer)(unsafe.Pointer(C.sqlite3_aggregate_context(c.ctx, size)))
	if *pp == nil {
		idx := aggregateRegistry.register(factory())
		*pp = unsafe.Pointer(uintptr(idx))
	}
	idx := int(uintptr(*pp))
	state, _ := aggregateRegistry.lookup(idx).(AggregateFunc)
	return state
}

type registeredFunc struct {
	name      string
	scalar    ScalarFunc
	aggregate AggregateFactory
	idx       int
}

func (f *registeredFunc) release() {
	scalarRegistry.unregister(f.idx)
}

var scalarRegistry = newRegistry()
var aggregateRegistry = newRegistry()

// RegisterFunc registers a deterministic or non-deterministic scalar SQL
// function. nArg is the number of arguments the function accepts, or -1
// for a variable number. deterministic should be true when the function
// always returns the same output for the same input, which lets SQLite
// apply additional query optimizations.
// https://www.sqlite.org/c3ref/create_function.html
func (c *Conn) RegisterFunc(name string, nArg int, deterministic bool, fn ScalarFunc) error {
	idx := scalarRegistry.register(fn)
	flags := 0
	if deterministic {
		flags = FUNC_DETERMINISTIC
	}
	cname := name + "\x00"
	rc := C.create_scalar_function(c.db, cStr(cname), C.int(nArg), C.int(flags), unsafe.Pointer(uintptr(idx)))
	if rc != OK {
		scalarRegistry.unregister(idx)
		return libErr(rc, c.db)
	}
	c.funcs[name] = &registeredFunc{name: name, scalar: fn, idx: idx}
	return nil
}

// RegisterAggregateFunc registers an aggregate SQL function. factory is
// invoked once per aggregation group to create the accumulator passed to
// Step and Final.
func (c *Conn) RegisterAggregateFunc(name string, nArg int, factory AggregateFactory) error {
	idx := scalarRegistry.register(factory)
	cname := name + "\x00"
	rc := C.create_aggregate_function(c.db, cStr(cname), C.int(nArg), 0, unsafe.Pointer(uintptr(idx)))
	if rc != OK {
		scalarRegistry.unregister(idx)
		return libErr(rc, c.db)
	}
	c.funcs[name] = &registeredFunc{name: name, aggregate: factory, idx: idx}
	return nil
}

func valuesFromArgv(argc C.int, argv **C.sqlite3_value) []Value {
	n := int(argc)
	if n == 0 {
		return nil
	}
	vals := make([]Value, n)
	base := (*[1 << 20]*C.sqlite3_value)(unsafe.Pointer(argv))
	for i := 0; i < n; i++ {
		vals[i] = Value{ptr: base[i]}
	}
	return vals
}

func recoverToResultError(fc *FuncContext) {
	if r := recover(); r != nil {
		fc.ResultError(fmt.Errorf("panic in registered function: %v", r))
	}
}

//export go_scalar_func
func go_scalar_func(ctx *C.sqlite3_context, argc C.int, argv **C.sqlite3_value) {
	idx := int(uintptr(C.sqlite3_user_data(ctx)))
	fn, _ := scalarRegistry.lookup(idx).(ScalarFunc)
	fc := &FuncContext{ctx: ctx}
	if fn == nil {
		fc.ResultError(pkgErr(MISUSE, "function not registered"))
		return
	}
	defer recoverToResultError(fc)
	fn(fc, valuesFromArgv(argc, argv))
}

//export go_step_func
func go_step_func(ctx *C.sqlite3_context, argc C.int, argv **C.sqlite3_value) {
	idx := int(uintptr(C.sqlite3_user_data(ctx)))
	factory, _ := scalarRegistry.lookup(idx).(AggregateFactory)
	fc := &FuncContext{ctx: ctx}
	if factory == nil {
		fc.ResultError(pkgErr(MISUSE, "aggregate function not registered"))
		return
	}
	defer recoverToResultError(fc)
	state := fc.aggregateState(factory)
	state.Step(fc, valuesFromArgv(argc, argv))
}

//export go_final_func
func go_final_func(ctx *C.sqlite3_context) {
	fc := &FuncContext{ctx: ctx}
	defer recoverToResultError(fc)
	size := C.int(unsafe.Sizeof(uintptr(0)))
	pp := (*unsafe.Pointer)(unsafe.Pointer(C.sqlite3_aggregate_context(ctx, size)))
	if *pp == nil {
		fc.ResultNull()
		return
	}
	idx := int(uintptr(*pp))
	state, _ := aggregateRegistry.unregister(idx).(AggregateFunc)
	if state == nil {
		fc.ResultNull()
		return
	}
	state.Final(fc)
}
