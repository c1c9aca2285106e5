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

import "github.com/google/uuid"

// Kind tags a record type so its table can be resolved from a registry
// instead of from the Go type name.
type Kind string

// Model is embedded by every persisted record. The identifier is assigned
// once, on first save, and never changes afterwards.
type Model struct {
	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
}

func (m *Model) RecordID() uuid.UUID { return m.ID }

// AssignID sets the identifier only when none is present yet.
func (m *Model) AssignID(id uuid.UUID) {
	if m.ID == uuid.Nil {
		m.ID = id
	}
}

// ClearID drops an identifier that was assigned but never persisted.
func (m *Model) ClearID() { m.ID = uuid.Nil }

// HasID reports whether an identifier has been assigned.
func (m *Model) HasID() bool { return m.ID != uuid.Nil }

// Record is satisfied by a pointer to a struct embedding Model that also
// declares its Kind. RecordKind must not dereference the receiver, so it
// can be called on a nil pointer.
type Record[T any] interface {
	*T
	RecordKind() Kind
	RecordID() uuid.UUID
	AssignID(id uuid.UUID)
	ClearID()
}
