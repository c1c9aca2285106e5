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
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ConnFunc runs statements on a single pooled connection.
type ConnFunc func(conn bun.Conn) error

// UsingConnection checks one connection out of the pool, hands it to fn and
// returns it to the pool afterwards, whatever fn returned. Errors from fn
// are passed through unchanged.
func UsingConnection(ctx context.Context, db *bun.DB, fn ConnFunc) (err error) {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(conn)
}

// UsingConnectionResult is UsingConnection for functions producing a value.
func UsingConnectionResult[R any](ctx context.Context, db *bun.DB, fn func(conn bun.Conn) (R, error)) (R, error) {
	var result R
	err := UsingConnection(ctx, db, func(conn bun.Conn) error {
		var fnErr error
		result, fnErr = fn(conn)
		return fnErr
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
