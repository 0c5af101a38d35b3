package litesql

// Value is a single SQLite column value decoded into Go, always one of
// nil, int64, float64, string, []byte, or float64 in place of int64
// when the value overflows the safe-integer boundary and Int64 mode is
// off (see Options.Int64).
type Value = interface{}

// Row is a query result row addressed positionally, in column
// declaration order.
type Row []Value

// NamedRow is a query result row addressed by column name. Columns
// records the declaration order separately, since Go map iteration order
// is unspecified and callers that need display order cannot rely on map
// ranging alone.
type NamedRow struct {
	Columns []string
	Values  map[string]Value
}

// Get returns the value of the named column, and whether that column was
// present in the row.
func (r NamedRow) Get(name string) (Value, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// maxSafeInt53 is the largest magnitude int64 that converts to float64
// without loss of precision — the Go analogue of the source driver's
// "safe integer" boundary used by Options.Int64.
const maxSafeInt53 = int64(1) << 53

func fitsSafeInt53(v int64) bool {
	return v >= -maxSafeInt53 && v <= maxSafeInt53
}
