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

	"github.com/google/uuid"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/types"
)

// ReadRepository fetches records of one kind.
type ReadRepository[T any] interface {
	// Get returns nil, nil when no record has the id.
	Get(ctx context.Context, id uuid.UUID) (*T, error)

	// GetOne returns the first record matching build, or nil.
	GetOne(ctx context.Context, build BuildFunc, opts ...QueryOption) (*T, error)

	GetAll(ctx context.Context, build BuildFunc, opts ...QueryOption) (*types.ResultSet[T], error)

	// GetMultiple fetches each distinct id once; result order is unspecified.
	GetMultiple(ctx context.Context, ids []uuid.UUID) ([]*T, error)

	CountRows(ctx context.Context, build BuildFunc, opts ...QueryOption) (int, error)
}

// WriteRepository persists records of one kind.
type WriteRepository[T any] interface {
	Save(ctx context.Context, record *T, actorID uuid.UUID, opts ...SaveOption) error
	SaveMultiple(ctx context.Context, records []*T, actorID uuid.UUID) error
}

// Repository combines reads and writes with the table it is bound to.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
	Table() *database.Table
}

type queryOptions struct {
	pager    *types.Pager
	template *Template
}

// QueryOption tunes a read.
type QueryOption func(*queryOptions)

// WithPager paginates the result. A nil pager leaves the query unpaginated.
func WithPager(pager *types.Pager) QueryOption {
	return func(o *queryOptions) { o.pager = pager }
}

// WithTemplate replaces the default whole-table template.
func WithTemplate(t Template) QueryOption {
	return func(o *queryOptions) { o.template = &t }
}

type saveOptions struct {
	presetID bool
}

// SaveOption tunes a save.
type SaveOption func(*saveOptions)

// WithPresetID inserts the record with the id it already carries instead of
// updating the row with that id.
func WithPresetID() SaveOption {
	return func(o *saveOptions) { o.presetID = true }
}
