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

package demoapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomoncle/demoapi/repository"
	"github.com/tomoncle/demoapi/types"
)

type Service[T any] interface {
	// Get returns a single record by id, or nil when there is none.
	Get(ctx context.Context, id uuid.UUID) (*T, error)

	// GetAll returns the records matching build, paginated when pager is set.
	GetAll(ctx context.Context, build repository.BuildFunc, pager *types.Pager, opts ...repository.QueryOption) (*types.ResultSet[T], error)

	// GetAllWhere returns the records whose column equals value.
	GetAllWhere(ctx context.Context, column string, value interface{}, pager *types.Pager) (*types.ResultSet[T], error)

	// GetBatch returns the records with the given ids, each at most once.
	GetBatch(ctx context.Context, ids []uuid.UUID) ([]*T, error)

	// Save inserts or updates a record.
	Save(ctx context.Context, record *T, actorID uuid.UUID) error

	// SaveMultiple inserts or updates several records.
	SaveMultiple(ctx context.Context, records []*T, actorID uuid.UUID) error

	// GetByOtherGUID looks records up by a foreign key column.
	GetByOtherGUID(ctx context.Context, column string, id uuid.UUID) ([]*T, error)

	// GetByOtherGUIDs looks records up by any of several foreign key values.
	GetByOtherGUIDs(ctx context.Context, column string, ids []uuid.UUID) ([]*T, error)

	// GetByOtherUniqueColumn finds the single record whose uniquely indexed
	// string column equals value.
	GetByOtherUniqueColumn(ctx context.Context, column string, value string) (*T, error)

	// GetUsingTwoIDColumnUniqueIndex finds the single record matching a unique
	// index over two uuid columns.
	GetUsingTwoIDColumnUniqueIndex(ctx context.Context, column1 string, id1 uuid.UUID, column2 string, id2 uuid.UUID) (*T, error)

	// GetWhereIDArrayColumnContainsValue returns records whose uuid[] column
	// contains id.
	GetWhereIDArrayColumnContainsValue(ctx context.Context, column string, id uuid.UUID) ([]*T, error)

	// GetWhereIDArrayColumnContainsAtLeastOneValue returns records whose uuid[]
	// column shares at least one element with ids.
	GetWhereIDArrayColumnContainsAtLeastOneValue(ctx context.Context, column string, ids []uuid.UUID) ([]*T, error)

	// GetByStringKey returns the records whose column equals value exactly.
	GetByStringKey(ctx context.Context, column string, value string) ([]*T, error)

	// Repository exposes the underlying repository.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
}

// NewService returns a Service bound to the table registered for T.
func NewService[T any, PT types.Record[T]](store *repository.Store) (Service[T], error) {
	repo, err := repository.NewRepository[T, PT](store)
	if err != nil {
		return nil, err
	}
	return &baseServiceImpl[T]{repo: repo}, nil
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] { return s.repo }

func (s *baseServiceImpl[T]) column(name string) error {
	if !s.repo.Table().HasColumn(name) {
		return fmt.Errorf("unknown column %q for %s", name, s.repo.Table().Kind)
	}
	return nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return s.repo.Get(ctx, id)
}

func (s *baseServiceImpl[T]) GetAll(ctx context.Context, build repository.BuildFunc, pager *types.Pager, opts ...repository.QueryOption) (*types.ResultSet[T], error) {
	if pager != nil {
		opts = append(opts, repository.WithPager(pager))
	}
	return s.repo.GetAll(ctx, build, opts...)
}

func (s *baseServiceImpl[T]) GetAllWhere(ctx context.Context, column string, value interface{}, pager *types.Pager) (*types.ResultSet[T], error) {
	if err := s.column(column); err != nil {
		return nil, err
	}
	return s.GetAll(ctx, func(b *repository.Builder) {
		b.WhereFragment(repository.Eq(column, value))
	}, pager)
}

func (s *baseServiceImpl[T]) GetBatch(ctx context.Context, ids []uuid.UUID) ([]*T, error) {
	return s.repo.GetMultiple(ctx, ids)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, record *T, actorID uuid.UUID) error {
	return s.repo.Save(ctx, record, actorID)
}

func (s *baseServiceImpl[T]) SaveMultiple(ctx context.Context, records []*T, actorID uuid.UUID) error {
	return s.repo.SaveMultiple(ctx, records, actorID)
}

func (s *baseServiceImpl[T]) GetByOtherGUID(ctx context.Context, column string, id uuid.UUID) ([]*T, error) {
	return s.list(ctx, column, repository.Eq(column, id))
}

func (s *baseServiceImpl[T]) GetByOtherGUIDs(ctx context.Context, column string, ids []uuid.UUID) ([]*T, error) {
	return s.list(ctx, column, repository.In(column, ids))
}

func (s *baseServiceImpl[T]) GetByOtherUniqueColumn(ctx context.Context, column string, value string) (*T, error) {
	return s.single(ctx, []string{column}, repository.Eq(column, value))
}

func (s *baseServiceImpl[T]) GetUsingTwoIDColumnUniqueIndex(ctx context.Context, column1 string, id1 uuid.UUID, column2 string, id2 uuid.UUID) (*T, error) {
	return s.single(ctx, []string{column1, column2},
		repository.EqAll([]string{column1, column2}, []interface{}{id1, id2}))
}

func (s *baseServiceImpl[T]) GetWhereIDArrayColumnContainsValue(ctx context.Context, column string, id uuid.UUID) ([]*T, error) {
	return s.list(ctx, column, repository.ArrayContains(column, id))
}

func (s *baseServiceImpl[T]) GetWhereIDArrayColumnContainsAtLeastOneValue(ctx context.Context, column string, ids []uuid.UUID) ([]*T, error) {
	return s.list(ctx, column, repository.ArrayOverlaps(column, ids))
}

func (s *baseServiceImpl[T]) GetByStringKey(ctx context.Context, column string, value string) ([]*T, error) {
	return s.list(ctx, column, repository.Eq(column, value))
}

func (s *baseServiceImpl[T]) list(ctx context.Context, column string, where repository.Fragment) ([]*T, error) {
	if err := s.column(column); err != nil {
		return nil, err
	}
	rs, err := s.repo.GetAll(ctx, func(b *repository.Builder) { b.WhereFragment(where) })
	if err != nil {
		return nil, err
	}
	return rs.Items, nil
}

// single expects a unique index behind columns; more than one match means
// the index is missing and is reported as an error.
func (s *baseServiceImpl[T]) single(ctx context.Context, columns []string, where repository.Fragment) (*T, error) {
	for _, c := range columns {
		if err := s.column(c); err != nil {
			return nil, err
		}
	}
	rs, err := s.repo.GetAll(ctx, func(b *repository.Builder) { b.WhereFragment(where) })
	if err != nil {
		return nil, err
	}
	switch rs.Len() {
	case 0:
		return nil, nil
	case 1:
		return rs.First(), nil
	default:
		return nil, fmt.Errorf("%d %s records match a unique lookup on %v", rs.Len(), s.repo.Table().Kind, columns)
	}
}
