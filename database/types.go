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
	"net/url"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// ErrMissingDatabaseName is returned when no database name is configured.
var ErrMissingDatabaseName = errors.New("database name is required")

// AbstractDatabaseManager defines the operations for managing a database
// connection, creating tables and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	CreateTables(ctx context.Context, registry *TableRegistry) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type               string        `yaml:"type" json:"type"`     // postgres, mysql, sqlite
	Driver             string        `yaml:"driver" json:"driver"` // postgres only: pq (default) or pgx
	Host               string        `yaml:"host" json:"host"`
	Port               int           `yaml:"port" json:"port"`
	Username           string        `yaml:"username" json:"username"`
	Password           string        `yaml:"password" json:"-"`
	DBName             string        `yaml:"dbname" json:"dbname"`
	SSLMode            string        `yaml:"sslmode" json:"sslmode"`
	ApplicationName    string        `yaml:"application_name" json:"application_name"`
	Schema             string        `yaml:"schema" json:"schema"`
	MinPoolSize        int           `yaml:"min_pool_size" json:"min_pool_size"`
	MaxOpenConns       int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime    time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	IncludeErrorDetail bool          `yaml:"include_error_detail" json:"include_error_detail"`
	EnableQueryLog     bool          `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime      time.Duration `yaml:"slow_query_time" json:"slow_query_time"`
	AutoCreate         bool          `yaml:"auto_create" json:"auto_create"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            "postgres",
		Driver:          "pq",
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		ApplicationName: "demoapi",
		MinPoolSize:     5,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		SlowQueryTime:   time.Second * 2,
	}
}

// Validate reports configuration that makes a connection impossible.
func (c *ConnectionConfig) Validate() error {
	if strings.TrimSpace(c.DBName) == "" {
		return ErrMissingDatabaseName
	}
	switch c.Type {
	case "postgres", "postgresql":
		switch c.Driver {
		case "", "pq", "pgx":
		default:
			return fmt.Errorf("unsupported postgres driver: %s", c.Driver)
		}
	case "mysql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// DriverName returns the database/sql driver registered for this config.
func (c *ConnectionConfig) DriverName() string {
	switch c.Type {
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	}
	if c.Driver == "pgx" {
		return "pgx"
	}
	return "postgres"
}

// DSN assembles the driver connection string. Optional settings are only
// emitted when set.
func (c *ConnectionConfig) DSN() (string, error) {
	if strings.TrimSpace(c.DBName) == "" {
		return "", ErrMissingDatabaseName
	}
	switch c.Type {
	case "mysql":
		return c.mysqlDSN(), nil
	case "sqlite", "sqlite3":
		if c.DBName == ":memory:" || strings.HasPrefix(c.DBName, "file:") {
			return c.DBName, nil
		}
		return c.DBName + ".db", nil
	case "postgres", "postgresql":
		return c.postgresDSN(), nil
	}
	return "", fmt.Errorf("unsupported database type: %s", c.Type)
}

func (c *ConnectionConfig) postgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Host,
		Path:   "/" + c.DBName,
	}
	if c.Port > 0 {
		u.Host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	q := url.Values{}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *ConnectionConfig) mysqlDSN() string {
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		timeout,
	)
}

// WithDatabase returns a copy of the config pointing at another database
// on the same server.
func (c *ConnectionConfig) WithDatabase(name string) *ConnectionConfig {
	cp := *c
	cp.DBName = name
	return &cp
}
