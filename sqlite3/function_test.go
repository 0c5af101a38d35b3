// Copyright 2018 The go-sqlite-lite Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlite3

import "testing"

func TestRegisterFunc(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)

	err := c.RegisterFunc("double_int", 1, true, func(ctx *FuncContext, args []Value) {
		ctx.ResultInt64(args[0].Int64() * 2)
	})
	if err != nil {
		t.Fatalf("RegisterFunc() unexpected error: %v", err)
	}

	s := t.prepare(c, "SELECT double_int(21)")
	defer t.close(s)
	t.step(s, true)
	var n int64
	t.scan(s, &n)
	if n != 42 {
		t.Fatalf("expected 42; got %d", n)
	}
}

func TestRegisterFuncPanicRecovered(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)

	err := c.RegisterFunc("boom", 0, false, func(ctx *FuncContext, args []Value) {
		panic("exploded")
	})
	if err != nil {
		t.Fatalf("RegisterFunc() unexpected error: %v", err)
	}

	s := t.prepare(c, "SELECT boom()")
	defer t.close(s)
	if _, err := s.Step(); err == nil {
		t.Fatal("expected panicking function to surface as a step error")
	}
}

type concatAgg struct{ parts []string }

func (a *concatAgg) Step(ctx *FuncContext, args []Value) {
	// Value.Text() must copy: args[0] aliases a buffer SQLite reuses on
	// the next Step call, so retaining it unread would see later rows'
	// data by the time Final runs.
	a.parts = append(a.parts, args[0].Text())
}

func (a *concatAgg) Final(ctx *FuncContext) {
	out := ""
	for _, p := range a.parts {
		out += p
	}
	ctx.ResultText(out)
}

func TestRegisterAggregateFuncAccumulatesText(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)
	t.exec(c, "CREATE TABLE x(a)")
	t.exec(c, "INSERT INTO x VALUES('a')")
	t.exec(c, "INSERT INTO x VALUES('b')")
	t.exec(c, "INSERT INTO x VALUES('c')")

	err := c.RegisterAggregateFunc("my_concat", 1, func() AggregateFunc {
		return &concatAgg{}
	})
	if err != nil {
		t.Fatalf("RegisterAggregateFunc() unexpected error: %v", err)
	}

	s := t.prepare(c, "SELECT my_concat(a) FROM x")
	defer t.close(s)

	t.step(s, true)
	var got string
	t.scan(s, &got)
	if got != "abc" {
		t.Fatalf("expected \"abc\"; got %q", got)
	}
}

type sumAgg struct{ total int64 }

func (a *sumAgg) Step(ctx *FuncContext, args []Value) {
	a.total += args[0].Int64()
}

func (a *sumAgg) Final(ctx *FuncContext) {
	ctx.ResultInt64(a.total)
}

func TestRegisterAggregateFunc(tt *testing.T) {
	t := begin(tt)

	c := t.open(":memory:")
	defer t.close(c)
	t.exec(c, "CREATE TABLE x(a, g)")
	t.exec(c, "INSERT INTO x VALUES(1, 'a')")
	t.exec(c, "INSERT INTO x VALUES(2, 'a')")
	t.exec(c, "INSERT INTO x VALUES(10, 'b')")

	err := c.RegisterAggregateFunc("my_sum", 1, func() AggregateFunc {
		return &sumAgg{}
	})
	if err != nil {
		t.Fatalf("RegisterAggregateFunc() unexpected error: %v", err)
	}

	s := t.prepare(c, "SELECT g, my_sum(a) FROM x GROUP BY g ORDER BY g")
	defer t.close(s)

	t.step(s, true)
	var g string
	var sum int64
	t.scan(s, &g, &sum)
	if g != "a" || sum != 3 {
		t.Fatalf("expected a,3; got %s,%d", g, sum)
	}

	t.step(s, true)
	t.scan(s, &g, &sum)
	if g != "b" || sum != 10 {
		t.Fatalf("expected b,10; got %s,%d", g, sum)
	}

	t.step(s, false)
}
