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
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Host = "db.internal"
	cfg.Port = 5433
	cfg.Username = "demo"
	cfg.Password = "p@ss word"
	cfg.DBName = "demo"
	cfg.SSLMode = "require"
	cfg.Schema = "market"
	cfg.ConnectTimeout = 5 * time.Second

	dsn, err := cfg.DSN()
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "/demo", u.Path)
	assert.Equal(t, "demo", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)

	q := u.Query()
	assert.Equal(t, "require", q.Get("sslmode"))
	assert.Equal(t, "demoapi", q.Get("application_name"))
	assert.Equal(t, "5", q.Get("connect_timeout"))
	assert.Equal(t, "market", q.Get("search_path"))
}

func TestPostgresDSNDefaultsSSLModeOff(t *testing.T) {
	cfg := &ConnectionConfig{Type: "postgres", Host: "localhost", DBName: "demo"}
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/demo?sslmode=disable", dsn)
}

func TestMySQLAndSQLiteDSN(t *testing.T) {
	my := &ConnectionConfig{Type: "mysql", Host: "h", Port: 3306, Username: "u", Password: "p", DBName: "demo"}
	dsn, err := my.DSN()
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(h:3306)/demo?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s", dsn)

	lite := &ConnectionConfig{Type: "sqlite", DBName: "demo"}
	dsn, err = lite.DSN()
	require.NoError(t, err)
	assert.Equal(t, "demo.db", dsn)

	lite.DBName = "file:demo?mode=memory&cache=shared"
	dsn, err = lite.DSN()
	require.NoError(t, err)
	assert.Equal(t, lite.DBName, dsn)
}

func TestMissingDatabaseName(t *testing.T) {
	cfg := DefaultConnectionConfig()
	_, err := cfg.DSN()
	assert.ErrorIs(t, err, ErrMissingDatabaseName)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabaseName)

	cfg.DBName = "   "
	assert.ErrorIs(t, cfg.Validate(), ErrMissingDatabaseName)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.DBName = "demo"
	assert.NoError(t, cfg.Validate())

	cfg.Driver = "odbc"
	assert.Error(t, cfg.Validate())

	cfg.Driver = "pgx"
	cfg.Type = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestDriverName(t *testing.T) {
	cfg := DefaultConnectionConfig()
	assert.Equal(t, "postgres", cfg.DriverName())
	cfg.Driver = "pgx"
	assert.Equal(t, "pgx", cfg.DriverName())
	cfg.Type = "mysql"
	assert.Equal(t, "mysql", cfg.DriverName())
}

func TestWithDatabase(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.DBName = "demo"
	other := cfg.WithDatabase("postgres")
	assert.Equal(t, "postgres", other.DBName)
	assert.Equal(t, "demo", cfg.DBName)
}
