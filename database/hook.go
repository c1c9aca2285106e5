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
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.BgGreen, color.FgHiWhite),
	"INSERT": color.New(color.BgBlue, color.FgHiWhite),
	"UPDATE": color.New(color.BgYellow, color.FgHiWhite),
	"DELETE": color.New(color.BgMagenta, color.FgHiWhite),
}

var defaultOperationColor = color.New(color.BgRed, color.FgHiWhite)

// SlowQueryHook logs queries that take longer than Threshold. Failed
// queries are left to the caller, which sees the error anyway.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
	now       func() time.Time
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{Threshold: threshold, Logger: logger, now: time.Now}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.Logger == nil || h.Threshold <= 0 {
		return
	}
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	duration := now().Sub(event.StartTime)
	if duration <= h.Threshold {
		return
	}
	h.Logger.Warn("Slow query detected",
		"duration", duration.Round(time.Microsecond),
		"threshold", h.Threshold,
		"query", highlightQuery(event.Operation(), event.Query),
	)
}

func highlightQuery(operation, query string) string {
	c, ok := operationColors[operation]
	if !ok {
		c = defaultOperationColor
	}
	return c.Sprint(query)
}
