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

// Package testdb opens throwaway in-memory SQLite databases holding the
// demo tables.
package testdb

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/models"
	"github.com/tomoncle/demoapi/repository"
)

// DemoSchema mirrors the models with column types SQLite understands.
var DemoSchema = []string{
	`CREATE TABLE securities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		logo_url TEXT,
		ticker_symbol TEXT NOT NULL UNIQUE,
		tags TEXT,
		attributes TEXT
	)`,
	`CREATE TABLE value_over_time (
		id TEXT PRIMARY KEY,
		security_id TEXT NOT NULL,
		date TIMESTAMP NOT NULL,
		open_amt REAL,
		high_amt REAL,
		low_amt REAL,
		close_amt REAL,
		volume INTEGER
	)`,
}

// Open connects a manager to a fresh shared-cache in-memory database and
// disconnects it when the test ends. The pool keeps idle connections so the
// database outlives each checked-out connection.
func Open(t testing.TB) database.AbstractDatabaseManager {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = "file:" + dbName(t) + "?mode=memory&cache=shared"
	cfg.SlowQueryTime = 0

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager
}

// OpenDemo opens a database with the demo tables created and returns a
// store over it.
func OpenDemo(t testing.TB) *repository.Store {
	t.Helper()
	db := Open(t).GetDB()
	Exec(t, db, DemoSchema...)

	registry, err := models.NewRegistry(db)
	require.NoError(t, err)
	return repository.NewStore(db, registry)
}

// Exec runs each statement and fails the test on the first error.
func Exec(t testing.TB, db *bun.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err, stmt)
	}
}

func dbName(t testing.TB) string {
	r := strings.NewReplacer("/", "_", " ", "_", "#", "_")
	return r.Replace(t.Name()) + "_" + uuid.NewString()[:8]
}
