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
	"errors"
	"net/http"
)

var (
	// ErrConflict marks a save that violated a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
	// ErrPaging marks a page that lies entirely past the end of a result set.
	ErrPaging = errors.New("page out of range")
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("record not found")
)

// StatusCodeError is an error that knows which HTTP status it maps to.
// Kind is one of the sentinel errors above so callers can use errors.Is.
type StatusCodeError struct {
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *StatusCodeError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusCodeError) Unwrap() error { return e.Err }

func (e *StatusCodeError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewConflictError wraps the store error that reported the duplicate key.
func NewConflictError(message string, cause error) *StatusCodeError {
	return &StatusCodeError{StatusCode: http.StatusConflict, Message: message, Kind: ErrConflict, Err: cause}
}

func NewPagingError(message string) *StatusCodeError {
	return &StatusCodeError{StatusCode: http.StatusBadRequest, Message: message, Kind: ErrPaging}
}

func NewNotFoundError(message string) *StatusCodeError {
	return &StatusCodeError{StatusCode: http.StatusNotFound, Message: message, Kind: ErrNotFound}
}

// StatusCode extracts the HTTP status carried by err, or 500.
func StatusCode(err error) int {
	var sce *StatusCodeError
	if errors.As(err, &sce) && sce.StatusCode != 0 {
		return sce.StatusCode
	}
	return http.StatusInternalServerError
}
