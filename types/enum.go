/*
 * Copyright 2025 tomoncle.
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

package types

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/lib/pq"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Integer is the underlying type of integer-backed enums.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// EnumArray stores enum values in an integer[] column.
type EnumArray[E Integer] []E

func (a EnumArray[E]) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	ints := make(pq.Int64Array, len(a))
	for i, e := range a {
		if int64(e) < math.MinInt32 || int64(e) > math.MaxInt32 {
			return nil, fmt.Errorf("enum value %d overflows integer", int64(e))
		}
		ints[i] = int64(e)
	}
	return ints.Value()
}

func (a *EnumArray[E]) Scan(src interface{}) error {
	values, err := scanInts(src)
	if err != nil {
		return err
	}
	*a = fromInts[E](values)
	return nil
}

// EnumShortArray stores enum values in a smallint[] column.
type EnumShortArray[E Integer] []E

func (a EnumShortArray[E]) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	ints := make(pq.Int64Array, len(a))
	for i, e := range a {
		if int64(e) < math.MinInt16 || int64(e) > math.MaxInt16 {
			return nil, fmt.Errorf("enum value %d overflows smallint", int64(e))
		}
		ints[i] = int64(e)
	}
	return ints.Value()
}

func (a *EnumShortArray[E]) Scan(src interface{}) error {
	values, err := scanInts(src)
	if err != nil {
		return err
	}
	*a = fromInts[E](values)
	return nil
}

func scanInts(src interface{}) (pq.Int64Array, error) {
	if s, ok := src.(string); ok {
		src = []byte(s)
	}
	var ints pq.Int64Array
	if err := ints.Scan(src); err != nil {
		return nil, err
	}
	return ints, nil
}

func fromInts[E Integer](values pq.Int64Array) []E {
	if values == nil {
		return nil
	}
	out := make([]E, len(values))
	for i, v := range values {
		out[i] = E(v)
	}
	return out
}
