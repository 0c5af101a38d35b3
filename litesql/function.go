package litesql

import (
	"github.com/pkg/errors"

	"github.com/litesql-go/litesql/sqlite3"
)

// HostFunc is a registered scalar SQL function. It returns a value from
// the closed BindValue set (nil, bool, int64, float64, string, []byte) or
// an error; any other return type is reported to SQLite as
// result_error("Invalid return value: ...") rather than risking undefined
// behavior from an unmarshallable result.
type HostFunc func(args []sqlite3.Value) (interface{}, error)

// FuncOptions controls registration for RegisterFunc/RegisterAggregate.
// Only NArg and, for RegisterFunc, Deterministic reach SQLite: DirectOnly,
// Subtype and Innocuous are not passed on, and RegisterAggregate registers
// the function with no flags.
type FuncOptions struct {
	// NArg is the number of arguments the function accepts; the caller
	// always states it. Zero means the function takes no arguments; use
	// -1 for a variable argument count.
	NArg int

	Deterministic bool
	DirectOnly    bool
	Subtype       bool
	Innocuous     bool
}

func (o FuncOptions) flags() int {
	f := 0
	if o.Deterministic {
		f |= sqlite3.FUNC_DETERMINISTIC
	}
	if o.DirectOnly {
		f |= sqlite3.FUNC_DIRECTONLY
	}
	if o.Subtype {
		f |= sqlite3.FUNC_SUBTYPE
	}
	if o.Innocuous {
		f |= sqlite3.FUNC_INNOCUOUS
	}
	return f
}

// RegisterFunc registers a scalar SQL function under name.
func (db *Database) RegisterFunc(name string, opts FuncOptions, fn HostFunc) error {
	wrapped := func(ctx *sqlite3.FuncContext, args []sqlite3.Value) {
		result, err := fn(args)
		if err != nil {
			ctx.ResultError(err)
			return
		}
		setResult(ctx, result)
	}
	if err := db.conn.RegisterFunc(name, opts.NArg, opts.Deterministic, wrapped); err != nil {
		return errors.WithMessagef(wrapSqliteErr(err), "registering function %q", name)
	}
	db.funcs[name] = registeredFn{name: name, nArg: opts.NArg}
	return nil
}

// HostAggregate accumulates per-group state for an aggregate SQL
// function, mirroring sqlite3.AggregateFunc but over the closed
// BindValue return set.
type HostAggregate interface {
	Step(args []sqlite3.Value) error
	Final() (interface{}, error)
}

// HostAggregateFactory creates a fresh HostAggregate for each aggregation
// group.
type HostAggregateFactory func() HostAggregate

type aggregateAdapter struct {
	state HostAggregate
	err   error
}

func (a *aggregateAdapter) Step(ctx *sqlite3.FuncContext, args []sqlite3.Value) {
	if a.err != nil {
		return
	}
	if err := a.state.Step(args); err != nil {
		a.err = err
	}
}

func (a *aggregateAdapter) Final(ctx *sqlite3.FuncContext) {
	if a.err != nil {
		ctx.ResultError(a.err)
		return
	}
	result, err := a.state.Final()
	if err != nil {
		ctx.ResultError(err)
		return
	}
	setResult(ctx, result)
}

// RegisterAggregate registers an aggregate SQL function under name.
func (db *Database) RegisterAggregate(name string, opts FuncOptions, factory HostAggregateFactory) error {
	wrapped := func() sqlite3.AggregateFunc {
		return &aggregateAdapter{state: factory()}
	}
	if err := db.conn.RegisterAggregateFunc(name, opts.NArg, wrapped); err != nil {
		return errors.WithMessagef(wrapSqliteErr(err), "registering aggregate %q", name)
	}
	db.funcs[name] = registeredFn{name: name, nArg: opts.NArg}
	return nil
}

// setResult reports result through ctx, enforcing the closed BindValue
// return set. Anything outside {nil, bool, int64, float64, string,
// []byte} is reported as a SQL-visible error rather than a panic.
func setResult(ctx *sqlite3.FuncContext, result interface{}) {
	switch v := result.(type) {
	case nil:
		ctx.ResultNull()
	case bool:
		if v {
			ctx.ResultInt64(1)
		} else {
			ctx.ResultInt64(0)
		}
	case int:
		ctx.ResultInt64(int64(v))
	case int64:
		ctx.ResultInt64(v)
	case float64:
		ctx.ResultDouble(v)
	case string:
		ctx.ResultText(v)
	case []byte:
		ctx.ResultBlob(v)
	default:
		ctx.ResultError(errors.Errorf("Invalid return value: %T", result))
	}
}
