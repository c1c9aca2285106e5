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
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ret := m.Called(query)
	return ret.Get(0).(int64), ret.Error(1)
}

func seedFS() fstest.MapFS {
	return fstest.MapFS{
		"common/10_securities.sql": {Data: []byte(`
-- securities
INSERT INTO securities (id, name) VALUES ('1', 'Apple');
INSERT INTO securities (id, name)
VALUES ('2', 'Microsoft');
`)},
		"common/2_schema.sql":             {Data: []byte("CREATE TABLE IF NOT EXISTS notes (id TEXT);")},
		"common/readme.txt":               {Data: []byte("not sql")},
		"environments/dev/1_prices.sql":   {Data: []byte("DELETE FROM value_over_time;")},
		"environments/prod/1_ignored.sql": {Data: []byte("DROP TABLE securities;")},
	}
}

func TestGetSQLFilesOrder(t *testing.T) {
	m := NewSQLInitManager(&mockExecutor{}, seedFS(), "dev")
	files, err := m.GetSQLFiles()
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		"common/2_schema.sql",
		"common/10_securities.sql",
		"environments/dev/1_prices.sql",
	}, paths)
	assert.Equal(t, "dev", files[2].Environment)
}

func TestExecuteInitialization(t *testing.T) {
	exec := &mockExecutor{}
	exec.On("Execute", "CREATE TABLE IF NOT EXISTS notes (id TEXT);").Return(int64(0), nil).Once()
	exec.On("Execute", "INSERT INTO securities (id, name) VALUES ('1', 'Apple');").Return(int64(1), nil).Once()
	exec.On("Execute", "INSERT INTO securities (id, name) VALUES ('2', 'Microsoft');").Return(int64(1), nil).Once()
	exec.On("Execute", "DELETE FROM value_over_time;").Return(int64(7), nil).Once()

	results, err := NewSQLInitManager(exec, seedFS(), "dev").ExecuteInitialization(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[1].Statements)
	assert.EqualValues(t, 2, results[1].RowsAffected)
	assert.EqualValues(t, 7, results[2].RowsAffected)
	exec.AssertExpectations(t)
}

func TestExecuteInitializationStopsOnError(t *testing.T) {
	exec := &mockExecutor{}
	exec.On("Execute", mock.Anything).Return(int64(0), errors.New("syntax error")).Once()

	results, err := NewSQLInitManager(exec, seedFS(), "dev").ExecuteInitialization(context.Background())
	assert.Error(t, err)
	assert.Empty(t, results)
	exec.AssertNumberOfCalls(t, "Execute", 1)
}

func TestExecuteInitializationWithoutFiles(t *testing.T) {
	results, err := NewSQLInitManager(&mockExecutor{}, fstest.MapFS{}, "dev").ExecuteInitialization(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestSplitSQLStatements(t *testing.T) {
	got, err := SplitSQLStatements(`
-- leading comment
SELECT 1;

UPDATE t
   SET a = 1
 WHERE b = 2;
SELECT 'no terminator'
`)
	assert.Equal(t, []string{
		"SELECT 1;",
		"UPDATE t SET a = 1 WHERE b = 2;",
		"SELECT 'no terminator'",
	}, got)
	require.NoError(t, err)
}

func TestExecuteInitializationLongLines(t *testing.T) {
	values := strings.Repeat("('x'), ", 20000) + "('x');"
	bulk := "INSERT INTO notes (id) VALUES " + values
	require.Greater(t, len(bulk), 64*1024)

	fsys := fstest.MapFS{
		"common/1_bulk.sql": {Data: []byte(bulk + "\nDELETE FROM notes WHERE id = 'x';\n")},
	}
	exec := &mockExecutor{}
	exec.On("Execute", bulk).Return(int64(20001), nil).Once()
	exec.On("Execute", "DELETE FROM notes WHERE id = 'x';").Return(int64(20001), nil).Once()

	results, err := NewSQLInitManager(exec, fsys, "dev").ExecuteInitialization(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Statements)
	exec.AssertExpectations(t)
}

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 10, parseFileOrder("10_seed.sql"))
	assert.Equal(t, 999, parseFileOrder("seed.sql"))
}
