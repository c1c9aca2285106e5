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
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TrimmedString drops surrounding whitespace on the way in and out of the
// store. Fixed-width char(n) columns pad with spaces.
type TrimmedString string

func (s TrimmedString) Value() (driver.Value, error) {
	return strings.TrimSpace(string(s)), nil
}

func (s *TrimmedString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ""
	case string:
		*s = TrimmedString(strings.TrimSpace(v))
	case []byte:
		*s = TrimmedString(strings.TrimSpace(string(v)))
	default:
		return fmt.Errorf("cannot scan %T into TrimmedString", src)
	}
	return nil
}

func (s TrimmedString) String() string { return string(s) }

// UUIDArray stores identifiers in a uuid[] column.
type UUIDArray []uuid.UUID

func (a UUIDArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	strs := make(pq.StringArray, len(a))
	for i, id := range a {
		strs[i] = id.String()
	}
	return strs.Value()
}

func (a *UUIDArray) Scan(src interface{}) error {
	if s, ok := src.(string); ok {
		src = []byte(s)
	}
	var strs pq.StringArray
	if err := strs.Scan(src); err != nil {
		return err
	}
	if strs == nil {
		*a = nil
		return nil
	}
	ids := make(UUIDArray, len(strs))
	for i, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("uuid array element %d: %w", i, err)
		}
		ids[i] = id
	}
	*a = ids
	return nil
}

// Contains reports whether id is an element of the array.
func (a UUIDArray) Contains(id uuid.UUID) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}
