/*
 * Copyright 2024 The RuleGo Authors.
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

// Package cast converts dynamically typed column values into numbers.
// Unlike spf13/cast it never parses text: a string cell is data of a
// different kind, not a number waiting to be parsed.
package cast

import (
	"encoding/json"
	"fmt"

	spfcast "github.com/spf13/cast"
)

// ToFloat64E converts x to float64.
func ToFloat64E(x any) (float64, error) {
	if err := numeric(x); err != nil {
		return 0, err
	}
	return spfcast.ToFloat64E(x)
}

// ToInt64E converts x to int64. Floats are truncated toward zero.
func ToInt64E(x any) (int64, error) {
	if err := numeric(x); err != nil {
		return 0, err
	}
	switch v := x.(type) {
	case uint64:
		if v > 1<<63-1 {
			return 0, fmt.Errorf("unable to cast %d of type uint64 to int64: overflow", v)
		}
	case uint:
		if uint64(v) > 1<<63-1 {
			return 0, fmt.Errorf("unable to cast %d of type uint to int64: overflow", v)
		}
	}
	return spfcast.ToInt64E(x)
}

// ToUint64E converts x to uint64. Negative inputs fail.
func ToUint64E(x any) (uint64, error) {
	if err := numeric(x); err != nil {
		return 0, err
	}
	return spfcast.ToUint64E(x)
}

func numeric(x any) error {
	switch x.(type) {
	case nil:
		return fmt.Errorf("unable to cast nil to a number")
	case string, []byte, json.Number:
		return fmt.Errorf("unable to cast %#v of type %T to a number", x, x)
	}
	return nil
}

// ToString formats any value for display.
func ToString(arg any) string {
	return fmt.Sprintf("%v", arg)
}
