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

package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/demoapi/database"
	"github.com/tomoncle/demoapi/internal/testdb"
)

// sqliteConfigFile writes a config pointing at a file database with the demo
// tables already created.
func sqliteConfigFile(t *testing.T) (string, database.AbstractDatabaseManager) {
	t.Helper()
	dir := t.TempDir()
	name := filepath.Join(dir, "demo")

	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = name
	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	testdb.Exec(t, manager.GetDB(), testdb.DemoSchema...)

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("database:\n  type: sqlite\n  dbname: %s\n  slow_query_time: 0s\nlog:\n  level: warn\n", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path, manager
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func countRows(t *testing.T, manager database.AbstractDatabaseManager, table string) int {
	t.Helper()
	var n int
	require.NoError(t, manager.GetDB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestRootCommandLayout(t *testing.T) {
	cmd := NewRootCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed", "health"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestSeedCommand(t *testing.T) {
	path, manager := sqliteConfigFile(t)

	out, err := execute(t, "--config", path, "seed", "--env", "dev")
	require.NoError(t, err, out)
	assert.Contains(t, out, "common/10_securities.sql: 2 statements")
	assert.Contains(t, out, "common/20_value_over_time.sql: 1 statements, 3 rows")
	assert.Contains(t, out, "environments/dev/10_extra_securities.sql")

	assert.Equal(t, 3, countRows(t, manager, "securities"))
	assert.Equal(t, 3, countRows(t, manager, "value_over_time"))

	// Seeding twice leaves the data alone.
	out, err = execute(t, "--config", path, "seed", "--env", "dev")
	require.NoError(t, err, out)
	assert.Equal(t, 3, countRows(t, manager, "securities"))
}

func TestSeedCommandUnknownEnvironment(t *testing.T) {
	path, manager := sqliteConfigFile(t)

	out, err := execute(t, "--config", path, "seed", "--env", "prod")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "environments/")
	assert.Equal(t, 2, countRows(t, manager, "securities"))
}

func TestHealthCommand(t *testing.T) {
	path, _ := sqliteConfigFile(t)

	out, err := execute(t, "--config", path, "health")
	require.NoError(t, err, out)
	assert.Regexp(t, `^ok \d{4}-\d{2}-\d{2}T`, out)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
