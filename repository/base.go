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
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/types"
)

type baseRepositoryImpl[T any, PT types.Record[T]] struct {
	store *Store
	table *database.Table
}

// NewRepository binds a repository for T to the table registered under
// T's kind.
func NewRepository[T any, PT types.Record[T]](store *Store) (Repository[T], error) {
	kind := PT(nil).RecordKind()
	table, err := store.tables.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return &baseRepositoryImpl[T, PT]{store: store, table: table}, nil
}

func (r *baseRepositoryImpl[T, PT]) Table() *database.Table { return r.table }

func (r *baseRepositoryImpl[T, PT]) tableName() string { return r.store.TableName(r.table) }

func (r *baseRepositoryImpl[T, PT]) logger() database.Logger { return r.store.logger }

func (r *baseRepositoryImpl[T, PT]) options(opts []QueryOption) *queryOptions {
	o := &queryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.template == nil {
		t := TableTemplate(r.tableName())
		o.template = &t
	}
	return o
}

func (r *baseRepositoryImpl[T, PT]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.GetOne(ctx, func(b *Builder) {
		b.WhereFragment(Eq(r.table.IDColumn, id))
	})
}

func (r *baseRepositoryImpl[T, PT]) GetOne(ctx context.Context, build BuildFunc, opts ...QueryOption) (*T, error) {
	o := r.options(opts)
	query, args, err := o.template.Page(types.PagerOf(1, 1)).Render(Build(build))
	if err != nil {
		return nil, err
	}
	var items []*T
	err = database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
		return conn.NewRaw(query, args...).Scan(ctx, &items)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// GetAll runs the query built on the template. With a pager the total is
// counted first on the same connection, the page is validated against it,
// and only then is the page fetched.
func (r *baseRepositoryImpl[T, PT]) GetAll(ctx context.Context, build BuildFunc, opts ...QueryOption) (*types.ResultSet[T], error) {
	o := r.options(opts)
	builder := Build(build)

	if o.pager == nil {
		query, args, err := o.template.Render(builder)
		if err != nil {
			return nil, err
		}
		r.logger().Debug("Calling GetAll", "table", r.tableName(), "query", query)
		var items []*T
		err = database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
			return conn.NewRaw(query, args...).Scan(ctx, &items)
		})
		if err != nil {
			return nil, err
		}
		return types.NewResultSet(items, 1, len(items)), nil
	}

	countQuery, countArgs, err := o.template.Count().Render(builder)
	if err != nil {
		return nil, err
	}
	pageQuery, pageArgs, err := o.template.Page(o.pager).Render(builder)
	if err != nil {
		return nil, err
	}
	r.logger().Debug("Calling GetAll with pager", "table", r.tableName(), "query", pageQuery,
		"page", o.pager.Page, "page_size", o.pager.PageSize)

	var (
		total int
		items []*T
	)
	err = database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
		if err := conn.NewRaw(countQuery, countArgs...).Scan(ctx, &total); err != nil {
			return err
		}
		if err := types.SanityCheckPager(total, o.pager); err != nil {
			return err
		}
		return conn.NewRaw(pageQuery, pageArgs...).Scan(ctx, &items)
	})
	if err != nil {
		return nil, err
	}
	return types.NewResultSet(items, o.pager.TotalPages(total), total), nil
}

func (r *baseRepositoryImpl[T, PT]) CountRows(ctx context.Context, build BuildFunc, opts ...QueryOption) (int, error) {
	o := r.options(opts)
	query, args, err := o.template.Count().Render(Build(build))
	if err != nil {
		return 0, err
	}
	var total int
	err = database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
		return conn.NewRaw(query, args...).Scan(ctx, &total)
	})
	return total, err
}

func (r *baseRepositoryImpl[T, PT]) GetMultiple(ctx context.Context, ids []uuid.UUID) ([]*T, error) {
	unique := distinctIDs(ids)
	if len(unique) == 0 {
		return []*T{}, nil
	}
	rs, err := r.GetAll(ctx, func(b *Builder) {
		b.WhereFragment(In(r.table.IDColumn, unique))
	})
	if err != nil {
		return nil, err
	}
	return rs.Items, nil
}

func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Save inserts a record without an id, assigning a fresh one, and updates a
// record that has one. WithPresetID forces the insert path. Duplicate keys
// surface as types.ErrConflict.
func (r *baseRepositoryImpl[T, PT]) Save(ctx context.Context, record *T, actorID uuid.UUID, opts ...SaveOption) error {
	if record == nil {
		return fmt.Errorf("cannot save a nil %s", r.table.Kind)
	}
	o := &saveOptions{}
	for _, opt := range opts {
		opt(o)
	}

	rec := PT(record)
	generated := rec.RecordID() == uuid.Nil
	insert := generated || o.presetID
	if generated {
		rec.AssignID(uuid.New())
	}

	err := database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
		if insert {
			return r.insert(ctx, conn, record)
		}
		return r.update(ctx, conn, record)
	})
	if err != nil {
		// A failed insert leaves the record as the caller passed it, so a
		// retry inserts again instead of updating a row that never existed.
		if generated {
			rec.ClearID()
		}
		return r.translate(err, actorID)
	}
	r.logger().Debug("Record saved", "table", r.tableName(), "id", rec.RecordID(), "insert", insert, "modified_by", actorID)
	return nil
}

// SaveMultiple updates the records that carry an id and inserts the rest
// in one batch, on a single connection.
func (r *baseRepositoryImpl[T, PT]) SaveMultiple(ctx context.Context, records []*T, actorID uuid.UUID) error {
	var updates, inserts []*T
	for _, record := range records {
		if record == nil {
			continue
		}
		rec := PT(record)
		if rec.RecordID() != uuid.Nil {
			updates = append(updates, record)
		} else {
			rec.AssignID(uuid.New())
			inserts = append(inserts, record)
		}
	}
	if len(updates) == 0 && len(inserts) == 0 {
		return nil
	}

	err := database.UsingConnection(ctx, r.store.db, func(conn bun.Conn) error {
		for _, record := range updates {
			if err := r.update(ctx, conn, record); err != nil {
				return err
			}
		}
		if len(inserts) > 0 {
			_, err := conn.NewInsert().
				Model(&inserts).
				ModelTableExpr("?", bun.Ident(r.tableName())).
				Exec(ctx)
			return err
		}
		return nil
	})
	if err != nil {
		for _, record := range inserts {
			PT(record).ClearID()
		}
		return r.translate(err, actorID)
	}
	r.logger().Debug("Records saved", "table", r.tableName(), "updated", len(updates), "inserted", len(inserts), "modified_by", actorID)
	return nil
}

func (r *baseRepositoryImpl[T, PT]) insert(ctx context.Context, conn bun.Conn, record *T) error {
	_, err := conn.NewInsert().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.tableName())).
		Exec(ctx)
	return err
}

// update overwrites the row by id. A missing row is not an error.
func (r *baseRepositoryImpl[T, PT]) update(ctx context.Context, conn bun.Conn, record *T) error {
	_, err := conn.NewUpdate().
		Model(record).
		ModelTableExpr("?", bun.Ident(r.tableName())).
		ExcludeColumn(r.table.IDColumn).
		Where("? = ?", bun.Ident(r.table.IDColumn), PT(record).RecordID()).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, PT]) translate(err error, actorID uuid.UUID) error {
	translated := database.TranslateSaveError(err)
	if translated != err {
		r.logger().Warn("Save rejected by unique constraint", "table", r.tableName(), "modified_by", actorID, "error", err)
	}
	return translated
}
