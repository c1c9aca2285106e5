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
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const postgresMaintenanceDB = "postgres"

// EnsureDatabaseExists creates the configured database when the server does
// not have it yet. SQLite creates its file on first open, so nothing is done
// there.
func EnsureDatabaseExists(ctx context.Context, cfg *ConnectionConfig, logger Logger) error {
	if logger == nil {
		logger = GetLogger()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch cfg.Type {
	case "sqlite", "sqlite3":
		return nil
	case "mysql":
		dsn := cfg.WithDatabase("").mysqlDSN()
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			return err
		}
		db := bun.NewDB(sqlDB, mysqldialect.New())
		defer db.Close()
		if _, err := db.NewRaw("CREATE DATABASE IF NOT EXISTS ?", bun.Ident(cfg.DBName)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create database %s: %w", cfg.DBName, err)
		}
		return nil
	}

	dsn, err := cfg.WithDatabase(postgresMaintenanceDB).DSN()
	if err != nil {
		return err
	}
	sqlDB, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	defer db.Close()

	var exists bool
	err = db.NewRaw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", cfg.DBName).Scan(ctx, &exists)
	if err != nil {
		return fmt.Errorf("failed to look up database %s: %w", cfg.DBName, err)
	}
	if exists {
		logger.Debug("Database already exists", "dbname", cfg.DBName)
		return nil
	}
	if _, err := db.NewRaw("CREATE DATABASE ?", bun.Ident(cfg.DBName)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.DBName, err)
	}
	logger.Info("Database created", "dbname", cfg.DBName)
	return nil
}

// CreateTables creates the registered tables that do not exist yet, in
// priority order, inside schemaName when one is given.
func CreateTables(ctx context.Context, db bun.IDB, registry *TableRegistry, schemaName string, logger Logger) error {
	if logger == nil {
		logger = GetLogger()
	}
	if schemaName != "" {
		if _, err := db.NewRaw("CREATE SCHEMA IF NOT EXISTS ?", bun.Ident(schemaName)).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schemaName, err)
		}
	}
	for _, t := range registry.Tables() {
		q := db.NewCreateTable().Model(t.Model).IfNotExists()
		if schemaName != "" {
			q = q.ModelTableExpr("?", bun.Ident(t.QualifiedName(schemaName)))
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		logger.Debug("Table ensured", "table", t.QualifiedName(schemaName), "kind", t.Kind)
	}
	return nil
}
