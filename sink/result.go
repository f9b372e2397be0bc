package sink

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/utils/cast"
)

// Row is one finalized group.
type Row struct {
	Key   []any
	Value aggregates.AnyValue
}

// Result is the output of a finalized sink, one row per group sorted by key.
type Result struct {
	Keys   []string
	Output string
	DType  aggregates.Kind
	Rows   []Row
}

// Len returns the number of groups.
func (r *Result) Len() int { return len(r.Rows) }

// Lookup returns the finalized value of the group with the given key values.
// Keys match by the same identity the sink groups by, so int(1) does not
// find the group of int64(1).
func (r *Result) Lookup(key ...any) (aggregates.AnyValue, bool) {
	enc := encodeKey(key)
	for _, row := range r.Rows {
		if len(row.Key) == len(key) && encodeKey(row.Key) == enc {
			return row.Value, true
		}
	}
	return aggregates.NullValue, false
}

// Column returns the output column typed by DType.
func (r *Result) Column() column.Column {
	switch r.DType {
	case aggregates.Float32:
		return outputSeries[float32](r.Output, r.Rows)
	case aggregates.Float64:
		return outputSeries[float64](r.Output, r.Rows)
	}
	values := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row.Value.Interface()
	}
	return column.NewAnyColumn(r.Output, values)
}

// KeyColumn returns the i-th group by column.
func (r *Result) KeyColumn(i int) column.Column {
	values := make([]any, len(r.Rows))
	for j, row := range r.Rows {
		values[j] = row.Key[i]
	}
	return column.NewAnyColumn(r.Keys[i], values)
}

// Chunk assembles the key columns and the output column.
func (r *Result) Chunk() column.Chunk {
	cols := make([]column.Column, 0, len(r.Keys)+1)
	for i := range r.Keys {
		cols = append(cols, r.KeyColumn(i))
	}
	cols = append(cols, r.Column())
	return column.NewChunk(0, cols...)
}

// Maps returns the rows as maps, nil for null aggregates.
func (r *Result) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]interface{}, len(r.Keys)+1)
		for j, k := range r.Keys {
			m[k] = row.Key[j]
		}
		m[r.Output] = row.Value.Interface()
		out[i] = m
	}
	return out
}

// FieldOrder lists the key columns followed by the output column.
func (r *Result) FieldOrder() []string {
	return append(append([]string(nil), r.Keys...), r.Output)
}

func outputSeries[T aggregates.Float](name string, rows []Row) *column.Series[T] {
	items := make([]aggregates.Nullable[T], len(rows))
	for i, row := range rows {
		if v, ok := row.Value.Interface().(T); ok {
			items[i] = aggregates.Some(v)
		}
	}
	return column.FromNullable(name, items)
}

func (r *Result) sort() {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i].Key, r.Rows[j].Key
		for k := range a {
			if c := compareValues(a[k], b[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

const (
	rankNull = iota
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case string:
		return rankString
	}
	if _, err := cast.ToFloat64E(v); err == nil {
		return rankNumber
	}
	return rankOther
}

// compareValues orders nulls first, then numbers, strings and anything else
// by its printed form.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		fa, _ := cast.ToFloat64E(a)
		fb, _ := cast.ToFloat64E(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
