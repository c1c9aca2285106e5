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

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/demoapi/types"
)

const (
	KindSecurity      types.Kind = "security"
	KindValueOverTime types.Kind = "value_over_time"
)

// Security is a tradable instrument, unique by ticker symbol.
type Security struct {
	bun.BaseModel `bun:"table:securities,alias:security"`
	types.Model

	Name         string                          `bun:"name,notnull" json:"name"`
	LogoURL      string                          `bun:"logo_url" json:"logoUrl"`
	TickerSymbol types.TrimmedString             `bun:"ticker_symbol,notnull,unique" json:"tickerSymbol"`
	Tags         types.UUIDArray                 `bun:"tags,type:uuid[]" json:"tags,omitempty"`
	Attributes   types.Jsonb[map[string]string] `bun:"attributes,type:jsonb" json:"attributes"`
}

func (*Security) RecordKind() types.Kind { return KindSecurity }

// ValueOverTime is one daily price bar of a security.
type ValueOverTime struct {
	bun.BaseModel `bun:"table:value_over_time,alias:vot"`
	types.Model

	SecurityID uuid.UUID `bun:"security_id,type:uuid,notnull" json:"securityId"`
	Date       time.Time `bun:"date,notnull" json:"date"`
	OpenAmt    float64   `bun:"open_amt,type:numeric(19,4)" json:"openAmt"`
	HighAmt    float64   `bun:"high_amt,type:numeric(19,4)" json:"highAmt"`
	LowAmt     float64   `bun:"low_amt,type:numeric(19,4)" json:"lowAmt"`
	CloseAmt   float64   `bun:"close_amt,type:numeric(19,4)" json:"closeAmt"`
	Volume     int64     `bun:"volume" json:"volume"`
}

func (*ValueOverTime) RecordKind() types.Kind { return KindValueOverTime }

// Column names used by lookups.
const (
	ColumnTickerSymbol = "ticker_symbol"
	ColumnSecurityID   = "security_id"
	ColumnTags         = "tags"
	ColumnDate         = "date"
)
