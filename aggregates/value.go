package aggregates

import (
	"fmt"

	"github.com/rulego/streamagg/utils/cast"
)

// Nullable is an optional scalar fed through the typed channel.
type Nullable[T Numeric] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T Numeric](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

// Null returns an absent value of type T.
func Null[T Numeric]() Nullable[T] {
	return Nullable[T]{}
}

// Get returns the value and whether it is present.
func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

// AnyValue is a dynamically typed scalar. The zero value is null.
type AnyValue struct {
	v any
}

// NullValue is the null AnyValue.
var NullValue = AnyValue{}

// NewAnyValue wraps v. A nil v yields NullValue.
func NewAnyValue(v any) AnyValue {
	return AnyValue{v: v}
}

// IsNull reports whether the value is absent.
func (a AnyValue) IsNull() bool {
	return a.v == nil
}

// Interface returns the wrapped Go value, nil when null.
func (a AnyValue) Interface() any {
	return a.v
}

// Kind returns the numeric kind of the wrapped value, Unknown for null and
// non-numeric values.
func (a AnyValue) Kind() Kind {
	switch a.v.(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64, int:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64, uint:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Unknown
}

func (a AnyValue) String() string {
	if a.v == nil {
		return "null"
	}
	return fmt.Sprint(a.v)
}

// Extract converts the value into K. It returns false when the value is null
// or cannot be represented as K: strings, non-numeric types, negative values
// for unsigned K and integers outside K's range. Float targets round to
// nearest.
func Extract[K Numeric](a AnyValue) (K, bool) {
	if a.v == nil {
		return 0, false
	}
	switch k := KindOf[K](); {
	case k.IsFloat():
		f, err := cast.ToFloat64E(a.v)
		if err != nil {
			return 0, false
		}
		return K(f), true
	case k.IsSigned():
		i, err := cast.ToInt64E(a.v)
		if err != nil || int64(K(i)) != i {
			return 0, false
		}
		return K(i), true
	case k != Unknown:
		u, err := cast.ToUint64E(a.v)
		if err != nil || uint64(K(u)) != u {
			return 0, false
		}
		return K(u), true
	}
	return 0, false
}
