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
	"encoding/json"
	"fmt"
)

// JsonObject is a convenience type for JSON columns mapped to objects.
type JsonObject map[string]interface{}

// JsonArray is a convenience type for JSON columns mapped to arrays.
type JsonArray []JsonObject

// Value implements driver.Valuer for JsonObject. JSON is sent as text so
// that the store casts it to json/jsonb rather than bytea.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

// Scan implements sql.Scanner for JsonObject.
func (j *JsonObject) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonObject)
		return nil
	}
	return unmarshalColumn(value, j)
}

// Value implements driver.Valuer for JsonArray.
func (j JsonArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalText(j)
}

// Scan implements sql.Scanner for JsonArray.
func (j *JsonArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonArray, 0)
		return nil
	}
	return unmarshalColumn(value, j)
}

// Jsonb stores any serializable value in a json/jsonb column. Valid is false
// for SQL NULL.
type Jsonb[T any] struct {
	Data  T
	Valid bool
}

// NewJsonb returns a valid Jsonb holding data.
func NewJsonb[T any](data T) Jsonb[T] {
	return Jsonb[T]{Data: data, Valid: true}
}

func (j Jsonb[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	return marshalText(j.Data)
}

func (j *Jsonb[T]) Scan(value interface{}) error {
	var zero T
	j.Data, j.Valid = zero, false
	if value == nil {
		return nil
	}
	if err := unmarshalColumn(value, &j.Data); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

func (j Jsonb[T]) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(j.Data)
}

func (j *Jsonb[T]) UnmarshalJSON(b []byte) error {
	var zero T
	j.Data, j.Valid = zero, false
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &j.Data); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

// JsonDocument keeps a JSON column as an unparsed document.
type JsonDocument json.RawMessage

func (d JsonDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return string(d), nil
}

func (d *JsonDocument) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append((*d)[:0], v...)
	case string:
		*d = JsonDocument(v)
	default:
		return fmt.Errorf("cannot scan %T into JsonDocument", value)
	}
	if len(*d) > 0 && !json.Valid(*d) {
		return fmt.Errorf("invalid JSON document")
	}
	return nil
}

func (d JsonDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JsonDocument) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

func marshalText(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalColumn(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("type assertion must be []byte or string, got %T", value)
	}
}
