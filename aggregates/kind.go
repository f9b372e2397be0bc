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

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// IdxSize is the chunk ordinal handed through by the sink. It is never interpreted.
type IdxSize = uint32

// Kind identifies a primitive numeric representation.
type Kind uint8

const (
	Unknown Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var kindNames = [...]string{
	Unknown: "unknown",
	Int8:    "i8",
	Int16:   "i16",
	Int32:   "i32",
	Int64:   "i64",
	Uint8:   "u8",
	Uint16:  "u16",
	Uint32:  "u32",
	Uint64:  "u64",
	Float32: "f32",
	Float64: "f64",
}

// 配置文件中允许使用的别名
var kindAliases = map[string]Kind{
	"int8":    Int8,
	"int16":   Int16,
	"int32":   Int32,
	"int64":   Int64,
	"uint8":   Uint8,
	"uint16":  Uint16,
	"uint32":  Uint32,
	"uint64":  Uint64,
	"float32": Float32,
	"float64": Float64,
	"float":   Float32,
	"double":  Float64,
}

// Numeric is the set of Go types that map onto a Kind.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Float is the set of internal representations a mean accumulator may use.
// Only these two have a defined finalize rule.
type Float interface {
	float32 | float64
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Unknown]
}

// IsFloat reports whether k is one of the floating point kinds.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsSigned reports whether k can hold negative values.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

// ParseKind resolves a kind from its short name ("f64") or Go name ("float64").
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if Kind(k) != Unknown && n == name {
			return Kind(k), nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return Unknown, errors.Errorf("unknown numeric kind %q", s)
}

// KindOf returns the Kind that T is stored as. Platform sized int and uint
// resolve to their 64-bit kinds; uintptr is reported as Uint64.
func KindOf[T Numeric]() Kind {
	var zero T
	switch any(zero).(type) {
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
	case uint64, uint, uintptr:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Unknown
}
