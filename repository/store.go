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

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/types"
)

// Store executes queries for every registered record kind. It holds no
// connection itself; each call borrows one from the pool.
type Store struct {
	db     *bun.DB
	tables *database.TableRegistry
	schema string
	logger database.Logger
}

type StoreOption func(*Store)

// WithSchema qualifies every table name with schema.
func WithSchema(schema string) StoreOption {
	return func(s *Store) { s.schema = schema }
}

func WithLogger(logger database.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(db *bun.DB, tables *database.TableRegistry, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		tables: tables,
		logger: database.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) Tables() *database.TableRegistry { return s.tables }

// TableName returns the schema-qualified name of t.
func (s *Store) TableName(t *database.Table) string {
	return t.QualifiedName(s.schema)
}

// Template returns the default whole-table template for kind.
func (s *Store) Template(kind types.Kind) (Template, error) {
	t, err := s.tables.Lookup(kind)
	if err != nil {
		return Template{}, err
	}
	return TableTemplate(s.TableName(t)), nil
}

// Execute runs a parameterised statement and returns the affected row count.
func (s *Store) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return database.UsingConnectionResult(ctx, s.db, func(conn bun.Conn) (int64, error) {
		res, err := conn.NewRaw(query, args...).Exec(ctx)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
}

// HealthCheck asks the store for its current time.
func (s *Store) HealthCheck(ctx context.Context) (time.Time, error) {
	return QueryScalar[time.Time](ctx, s, "SELECT CURRENT_TIMESTAMP")
}

// QueryStrings returns the first column of every row as a string.
func (s *Store) QueryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	return queryColumn[string](ctx, s, query, args...)
}

// QueryIDs returns the first column of every row as a UUID.
func (s *Store) QueryIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	return queryColumn[uuid.UUID](ctx, s, query, args...)
}

// QueryScalar returns the single value produced by query.
func QueryScalar[V any](ctx context.Context, s *Store, query string, args ...interface{}) (V, error) {
	return database.UsingConnectionResult(ctx, s.db, func(conn bun.Conn) (V, error) {
		var v V
		err := conn.NewRaw(query, args...).Scan(ctx, &v)
		return v, err
	})
}

// QueryRecords maps the rows of an arbitrary query onto T.
func QueryRecords[T any](ctx context.Context, s *Store, query string, args ...interface{}) ([]*T, error) {
	return queryColumn[*T](ctx, s, query, args...)
}

func queryColumn[V any](ctx context.Context, s *Store, query string, args ...interface{}) ([]V, error) {
	return database.UsingConnectionResult(ctx, s.db, func(conn bun.Conn) ([]V, error) {
		values := make([]V, 0)
		err := conn.NewRaw(query, args...).Scan(ctx, &values)
		return values, err
	})
}
