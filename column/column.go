// Package column holds the minimal columnar input the groupby sink reads:
// typed numeric series, dynamically typed columns and chunks of both.
package column

import (
	"github.com/pkg/errors"

	"github.com/rulego/streamagg/aggregates"
)

// Column is one named column of a chunk.
type Column interface {
	Name() string
	// Kind returns the numeric kind of a typed column; ok is false for
	// dynamically typed columns.
	Kind() (kind aggregates.Kind, ok bool)
	Len() int
	// Value returns row i as a dynamically typed value.
	Value(i int) aggregates.AnyValue
}

// Series is a typed numeric column with a validity mask.
type Series[T aggregates.Numeric] struct {
	name     string
	values   []T
	validity []bool
}

// NewSeries builds a series where every value is present.
func NewSeries[T aggregates.Numeric](name string, values []T) *Series[T] {
	return &Series[T]{name: name, values: values}
}

// FromNullable builds a series from optional values.
func FromNullable[T aggregates.Numeric](name string, items []aggregates.Nullable[T]) *Series[T] {
	s := &Series[T]{
		name:     name,
		values:   make([]T, len(items)),
		validity: make([]bool, len(items)),
	}
	for i, it := range items {
		s.values[i], s.validity[i] = it.Value, it.Valid
	}
	return s
}

func (s *Series[T]) Name() string { return s.name }

func (s *Series[T]) Kind() (aggregates.Kind, bool) {
	return aggregates.KindOf[T](), true
}

func (s *Series[T]) Len() int { return len(s.values) }

// Get returns row i as an optional typed value.
func (s *Series[T]) Get(i int) aggregates.Nullable[T] {
	if s.validity != nil && !s.validity[i] {
		return aggregates.Null[T]()
	}
	return aggregates.Some(s.values[i])
}

func (s *Series[T]) Value(i int) aggregates.AnyValue {
	if v, ok := s.Get(i).Get(); ok {
		return aggregates.NewAnyValue(v)
	}
	return aggregates.NullValue
}

// AnyColumn is a dynamically typed column. nil cells are nulls.
type AnyColumn struct {
	name   string
	values []any
}

// NewAnyColumn wraps values.
func NewAnyColumn(name string, values []any) *AnyColumn {
	return &AnyColumn{name: name, values: values}
}

func (c *AnyColumn) Name() string { return c.name }

func (c *AnyColumn) Kind() (aggregates.Kind, bool) { return aggregates.Unknown, false }

func (c *AnyColumn) Len() int { return len(c.values) }

func (c *AnyColumn) Value(i int) aggregates.AnyValue {
	return aggregates.NewAnyValue(c.values[i])
}

// Iter returns a dynamic value iterator starting at row offset.
func (c *AnyColumn) Iter(offset int) *aggregates.SliceIter {
	return aggregates.NewSliceIter(c.values[offset:]...)
}

// Slice returns the raw values from offset to end.
func (c *AnyColumn) Slice(offset, end int) []any {
	return c.values[offset:end]
}

// Chunk is a horizontal slice of a table as delivered to the sink.
type Chunk struct {
	Index   aggregates.IdxSize
	Columns []Column
}

// NewChunk builds a chunk from columns.
func NewChunk(index aggregates.IdxSize, columns ...Column) Chunk {
	return Chunk{Index: index, Columns: columns}
}

// Len returns the row count, 0 for an empty chunk.
func (c Chunk) Len() int {
	if len(c.Columns) == 0 {
		return 0
	}
	return c.Columns[0].Len()
}

// Column finds a column by name.
func (c Chunk) Column(name string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Name() == name {
			return col, true
		}
	}
	return nil, false
}

// Validate checks that every column has the same length and that names are unique.
func (c Chunk) Validate() error {
	seen := make(map[string]struct{}, len(c.Columns))
	n := c.Len()
	for _, col := range c.Columns {
		if col.Len() != n {
			return errors.Errorf("chunk %d: column %s has %d rows, expected %d", c.Index, col.Name(), col.Len(), n)
		}
		if _, dup := seen[col.Name()]; dup {
			return errors.Errorf("chunk %d: duplicate column %s", c.Index, col.Name())
		}
		seen[col.Name()] = struct{}{}
	}
	return nil
}
