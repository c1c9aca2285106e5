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
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/utils"
)

type logLine struct {
	level  string
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.add("error", msg, fields) }

func TestSlowQueryHook(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(time.Second, logger)
	hook.now = func() time.Time { return start.Add(1500 * time.Millisecond) }

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start})
	require.Len(t, logger.lines, 1)
	assert.Equal(t, "warn", logger.lines[0].level)
	assert.Equal(t, "Slow query detected", logger.lines[0].msg)
	assert.Contains(t, logger.lines[0].fields, 1500*time.Millisecond)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start.Add(time.Second)})
	hook.AfterQuery(context.Background(), &bun.QueryEvent{Query: "SELECT 1", StartTime: start, Err: errors.New("x")})
	assert.Len(t, logger.lines, 1, "fast and failed queries are not logged")
}

func TestHighlightQuery(t *testing.T) {
	assert.Contains(t, highlightQuery("SELECT", "SELECT 1"), "SELECT 1")
	assert.Contains(t, highlightQuery("VACUUM", "VACUUM"), "VACUUM")
}

func TestDefaultLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	lg := utils.NewLogger("DATABASE_TEST")
	lg.SetOutput(&buf)

	var l Logger = NewDefaultLogger(lg)
	l.Info("Table ensured", "table", "securities", "dangling")
	assert.Contains(t, buf.String(), "Table ensured")
	assert.Contains(t, buf.String(), "table=securities")
	assert.Contains(t, buf.String(), "extra=dangling")
}
