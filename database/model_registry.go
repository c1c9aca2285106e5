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

package database

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/types"
)

// Table describes where records of one kind are stored. Priority controls
// creation order; lower values first.
type Table struct {
	Kind     types.Kind
	Name     string
	IDColumn string
	Columns  []string
	Model    interface{}
	Priority int
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// QualifiedName prefixes the table name with schema when one is set.
func (t *Table) QualifiedName(schema string) string {
	if schema == "" {
		return t.Name
	}
	return schema + "." + t.Name
}

// TableRegistry maps record kinds to their table descriptors. It is filled
// once at startup and read concurrently afterwards.
type TableRegistry struct {
	mu     sync.RWMutex
	tables map[types.Kind]*Table
}

func NewTableRegistry() *TableRegistry {
	return &TableRegistry{tables: make(map[types.Kind]*Table)}
}

// Register adds a descriptor. Registering a kind twice is an error.
func (r *TableRegistry) Register(t *Table) error {
	if t == nil || t.Kind == "" || t.Name == "" || t.IDColumn == "" {
		return fmt.Errorf("table descriptor requires kind, name and id column")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.Kind]; ok {
		return fmt.Errorf("record kind %q already registered", t.Kind)
	}
	r.tables[t.Kind] = t
	return nil
}

// Lookup returns the descriptor for kind.
func (r *TableRegistry) Lookup(kind types.Kind) (*Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("record kind %q is not registered", kind)
	}
	return t, nil
}

// Tables returns all descriptors ordered by priority, then name.
func (r *TableRegistry) Tables() []*Table {
	r.mu.RLock()
	result := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		result = append(result, t)
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Models returns the model instances of all tables in priority order.
func (r *TableRegistry) Models() []interface{} {
	tables := r.Tables()
	models := make([]interface{}, len(tables))
	for i, t := range tables {
		models[i] = t.Model
	}
	return models
}

// RegisterRecord derives a descriptor for T from its bun struct tags and
// registers it under T's kind.
func RegisterRecord[T any, PT types.Record[T]](r *TableRegistry, db *bun.DB, priority int) (*Table, error) {
	model := PT(new(T))
	meta := db.Table(reflect.TypeOf(model).Elem())
	if meta == nil {
		return nil, fmt.Errorf("no table metadata for %T", model)
	}
	if len(meta.PKs) != 1 {
		return nil, fmt.Errorf("%T must have exactly one primary key column", model)
	}
	columns := make([]string, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		columns = append(columns, f.Name)
	}
	t := &Table{
		Kind:     PT(nil).RecordKind(),
		Name:     meta.Name,
		IDColumn: meta.PKs[0].Name,
		Columns:  columns,
		Model:    model,
		Priority: priority,
	}
	if err := r.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}
