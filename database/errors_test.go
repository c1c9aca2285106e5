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
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/tomoncle/demoapi/types"
)

func TestClassifySQLError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", sql.ErrNoRows, true, NoRowsErr},
		{"wrapped no rows", fmt.Errorf("get: %w", sql.ErrNoRows), true, NoRowsErr},
		{"pq unique", &pq.Error{Code: "23505"}, true, DuplicateKeyErr},
		{"pq not null", &pq.Error{Code: "23502"}, true, NotNullViolationErr},
		{"pq other", &pq.Error{Code: "57014"}, true, UnknownErr},
		{"pgx unique", &pgconn.PgError{Code: "23505"}, true, DuplicateKeyErr},
		{"pgx missing table", &pgconn.PgError{Code: "42P01"}, true, NoTableErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: securities.ticker_symbol (2067)"), true, DuplicateKeyErr},
		{"sqlite missing table", errors.New("SQL logic error: no such table: nope (1)"), true, NoTableErr},
		{"unrelated", errors.New("connection refused"), false, UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, kind := ClassifySQLError(tc.err)
			assert.Equal(t, tc.is, is)
			assert.Equal(t, tc.kind, kind, kind.String())
		})
	}
}

func TestTranslateSaveError(t *testing.T) {
	cause := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	err := TranslateSaveError(fmt.Errorf("insert: %w", cause))

	assert.True(t, errors.Is(err, types.ErrConflict))
	assert.Equal(t, http.StatusConflict, types.StatusCode(err))
	assert.Contains(t, err.Error(), SaveConflictMessage)

	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr), "driver error stays reachable")

	assert.Same(t, err, TranslateSaveError(err), "already translated")

	other := errors.New("connection reset")
	assert.Same(t, other, TranslateSaveError(other))
	assert.NoError(t, TranslateSaveError(nil))
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}
