/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package aggregates

// AggregateFn is the contract every partial accumulator satisfies so the
// groupby sink can keep heterogeneous accumulators behind one type.
//
// An instance is owned by exactly one (group key, branch) slot. None of the
// methods are safe for concurrent use; the sink serialises feeding and only
// combines instances once both operands are quiescent.
type AggregateFn interface {
	// HasPhysicalAgg reports whether the typed PreAgg* channel may be used.
	HasPhysicalAgg() bool

	// Typed channel: one method per supported numeric kind. A null item
	// leaves the state untouched.
	PreAggInt8(chunkIdx IdxSize, item Nullable[int8])
	PreAggInt16(chunkIdx IdxSize, item Nullable[int16])
	PreAggInt32(chunkIdx IdxSize, item Nullable[int32])
	PreAggInt64(chunkIdx IdxSize, item Nullable[int64])
	PreAggUint8(chunkIdx IdxSize, item Nullable[uint8])
	PreAggUint16(chunkIdx IdxSize, item Nullable[uint16])
	PreAggUint32(chunkIdx IdxSize, item Nullable[uint32])
	PreAggUint64(chunkIdx IdxSize, item Nullable[uint64])
	PreAggFloat32(chunkIdx IdxSize, item Nullable[float32])
	PreAggFloat64(chunkIdx IdxSize, item Nullable[float64])

	// PreAgg is the dynamic channel. It consumes exactly one element from
	// items and panics with an *InvariantError if none is left. Values that
	// cannot be extracted are skipped like nulls.
	PreAgg(chunkIdx IdxSize, items ValueIter)

	// DType is the declared output kind. It never changes.
	DType() Kind

	// Combine merges other into the receiver. other must have the same
	// concrete type as the receiver, otherwise Combine panics.
	Combine(other AggregateFn)

	// Finalize returns the group's output cell, NullValue if nothing was folded.
	Finalize() AnyValue

	// AsAny exposes the concrete accumulator for the kind check in Combine.
	AsAny() any
}

// ValueIter yields dynamically typed values for PreAgg.
type ValueIter interface {
	// Next returns the next value and false once the iterator is exhausted.
	Next() (AnyValue, bool)
	// Len returns the number of values left.
	Len() int
}

// SliceIter iterates over a slice of Go values. nil elements are nulls.
type SliceIter struct {
	values []any
	pos    int
}

// NewSliceIter returns an iterator over values.
func NewSliceIter(values ...any) *SliceIter {
	return &SliceIter{values: values}
}

func (it *SliceIter) Next() (AnyValue, bool) {
	if it.pos >= len(it.values) {
		return NullValue, false
	}
	v := it.values[it.pos]
	it.pos++
	return NewAnyValue(v), true
}

func (it *SliceIter) Len() int {
	return len(it.values) - it.pos
}

// Reset rewinds the iterator onto a new slice without allocating.
func (it *SliceIter) Reset(values []any) {
	it.values = values
	it.pos = 0
}
