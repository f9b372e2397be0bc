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

import "fmt"

// MeanAgg accumulates the arithmetic mean of a group as a raw sum and count.
// The division only happens in Finalize, so partial states computed by
// different branches merge exactly up to floating summation order.
type MeanAgg[K Float] struct {
	sum   Nullable[K]
	count uint64
	kind  Kind
}

var (
	_ AggregateFn = (*MeanAgg[float32])(nil)
	_ AggregateFn = (*MeanAgg[float64])(nil)
)

// NewMeanAgg returns an empty mean accumulator stored as K.
func NewMeanAgg[K Float]() *MeanAgg[K] {
	return &MeanAgg[K]{kind: KindOf[K]()}
}

// merge is the single fold rule shared by both ingestion channels and Combine.
func (a *MeanAgg[K]) merge(sum Nullable[K], count uint64) {
	switch {
	case !sum.Valid:
	case !a.sum.Valid:
		a.sum = sum
		a.count = count
	default:
		a.sum.Value += sum.Value
		a.count += count
	}
}

func (a *MeanAgg[K]) fold(val K) {
	a.merge(Some(val), 1)
}

func preAggPrimitive[T Numeric, K Float](a *MeanAgg[K], item Nullable[T]) {
	if item.Valid {
		a.fold(K(item.Value))
	}
}

func (a *MeanAgg[K]) preAggValue(v AnyValue) {
	if val, ok := Extract[K](v); ok {
		a.fold(val)
	}
}

func (a *MeanAgg[K]) HasPhysicalAgg() bool {
	return true
}

func (a *MeanAgg[K]) PreAggInt8(_ IdxSize, item Nullable[int8])     { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggInt16(_ IdxSize, item Nullable[int16])   { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggInt32(_ IdxSize, item Nullable[int32])   { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggInt64(_ IdxSize, item Nullable[int64])   { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggUint8(_ IdxSize, item Nullable[uint8])   { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggUint16(_ IdxSize, item Nullable[uint16]) { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggUint32(_ IdxSize, item Nullable[uint32]) { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggUint64(_ IdxSize, item Nullable[uint64]) { preAggPrimitive(a, item) }

func (a *MeanAgg[K]) PreAggFloat32(_ IdxSize, item Nullable[float32]) { preAggPrimitive(a, item) }
func (a *MeanAgg[K]) PreAggFloat64(_ IdxSize, item Nullable[float64]) { preAggPrimitive(a, item) }

// PreAgg draws one value from items. An exhausted iterator is a caller bug
// and panics.
func (a *MeanAgg[K]) PreAgg(_ IdxSize, items ValueIter) {
	v, ok := items.Next()
	if !ok {
		panic(invariant("pre_agg", ErrExhausted, "%s", a.describe()))
	}
	a.preAggValue(v)
}

// PreAggUnchecked is the hot-path form of PreAgg. It does not check that items
// still had an element; an exhausted iterator is folded as a null.
func (a *MeanAgg[K]) PreAggUnchecked(_ IdxSize, items ValueIter) {
	v, _ := items.Next()
	a.preAggValue(v)
}

func (a *MeanAgg[K]) DType() Kind {
	return a.kind
}

func (a *MeanAgg[K]) Combine(other AggregateFn) {
	if other == nil {
		panic(invariant("combine", ErrKindMismatch, "%s <- <nil>", a.describe()))
	}
	o, ok := other.AsAny().(*MeanAgg[K])
	if !ok || o == nil {
		panic(invariant("combine", ErrKindMismatch, "%s <- %T", a.describe(), other.AsAny()))
	}
	if o == a {
		// 同一实例合并会重复计数
		panic(invariant("combine", ErrAliased, "%s", a.describe()))
	}
	a.merge(o.sum, o.count)
}

func (a *MeanAgg[K]) Finalize() AnyValue {
	if !a.sum.Valid {
		return NullValue
	}
	switch sum := any(a.sum.Value).(type) {
	case float32:
		return NewAnyValue(sum / float32(a.count))
	case float64:
		return NewAnyValue(sum / float64(a.count))
	}
	panic(invariant("finalize", ErrUnsupportedFinalize, "%s", a.kind))
}

func (a *MeanAgg[K]) AsAny() any {
	return a
}

// Sum returns the raw partial sum and whether any value was folded.
func (a *MeanAgg[K]) Sum() (K, bool) {
	return a.sum.Get()
}

// Count returns the number of non-null values folded.
func (a *MeanAgg[K]) Count() uint64 {
	return a.count
}

// Reset empties the accumulator.
func (a *MeanAgg[K]) Reset() {
	a.sum = Null[K]()
	a.count = 0
}

// Clone returns an independent copy of the partial state.
func (a *MeanAgg[K]) Clone() *MeanAgg[K] {
	c := *a
	return &c
}

func (a *MeanAgg[K]) describe() string {
	return "mean<" + a.kind.String() + ">"
}

func (a *MeanAgg[K]) String() string {
	if !a.sum.Valid {
		return a.describe() + "{empty}"
	}
	return fmt.Sprintf("%s{sum=%v, count=%d}", a.describe(), a.sum.Value, a.count)
}
