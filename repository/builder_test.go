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

package repository_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/demoapi/repository"
	"github.com/tomoncle/demoapi/types"
)

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func joinedBuilder(b *repository.Builder) {
	b.InnerJoin("value_over_time vot ON vot.security_id = securities.id").
		LeftJoin("security_notes n ON n.security_id = securities.id").
		WhereFragment(repository.Eq("ticker_symbol", "AAPL")).
		Where("? > ?", bun.Ident("vot.volume"), 10).
		OrderBy("? DESC", bun.Ident("vot.date"))
}

func TestRenderGolden(t *testing.T) {
	tmpl := repository.TableTemplate("securities")

	cases := []struct {
		name     string
		template repository.Template
		build    repository.BuildFunc
		args     int
	}{
		{name: "table_all", template: tmpl, args: 2},
		{name: "joined", template: tmpl, build: joinedBuilder, args: 7},
		{name: "joined_count", template: tmpl.Count(), build: joinedBuilder, args: 6},
		{name: "joined_page", template: tmpl.Page(types.PagerOf(2, 10)), build: joinedBuilder, args: 9},
		{name: "predicates", template: tmpl, build: func(b *repository.Builder) {
			b.WhereFragment(repository.In("id", []string{"a", "b"})).
				WhereFragment(repository.ArrayContains("tags", "x")).
				WhereFragment(repository.ArrayOverlaps("tags", []string{"y", "z"})).
				WhereFragment(repository.EqAll([]string{"security_id", "date"}, []interface{}{"s", "d"}))
		}, args: 12},
		{name: "empty_in", template: tmpl, build: func(b *repository.Builder) {
			b.WhereFragment(repository.In("id", []string{}))
		}, args: 2},
	}

	g := golden(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := tc.template.Render(repository.Build(tc.build))
			require.NoError(t, err)
			assert.Len(t, args, tc.args)
			g.Assert(t, tc.name, []byte(query))
		})
	}
}

func TestRenderArgumentOrder(t *testing.T) {
	tmpl := repository.TableTemplate("securities").Page(types.PagerOf(3, 10))
	_, args, err := tmpl.Render(repository.Build(joinedBuilder))
	require.NoError(t, err)

	assert.Equal(t, bun.Ident("securities"), args[0])
	assert.Equal(t, bun.Ident("securities"), args[1])
	assert.Equal(t, bun.Ident("ticker_symbol"), args[2])
	assert.Equal(t, "AAPL", args[3])
	assert.Equal(t, bun.Ident("vot.date"), args[6])
	assert.Equal(t, []interface{}{10, 20}, args[7:])
}

func TestRenderFormatted(t *testing.T) {
	query, args, err := repository.TableTemplate("securities").Render(repository.Build(func(b *repository.Builder) {
		b.WhereFragment(repository.Eq("ticker_symbol", "AAPL"))
	}))
	require.NoError(t, err)

	formatted := schema.NewFormatter(pgdialect.New()).FormatQuery(query, args...)
	assert.Equal(t, `SELECT "securities".* FROM "securities" WHERE ("ticker_symbol" = 'AAPL')`, formatted)
}

func TestRenderCustomTemplate(t *testing.T) {
	tmpl := repository.Template{
		SQL:  "SELECT s.* FROM securities s /**where**/ AND s.name <> ? /**orderby**/",
		Args: []interface{}{"ignored"},
	}
	query, args, err := tmpl.Render(repository.Build(func(b *repository.Builder) {
		b.Where("s.logo_url IS NOT NULL").OrderBy("s.name")
	}))
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.* FROM securities s WHERE (s.logo_url IS NOT NULL) AND s.name <> ? ORDER BY s.name", query)
	assert.Equal(t, []interface{}{"ignored"}, args)
}

func TestRenderKeepsQuotedWhitespace(t *testing.T) {
	tmpl := repository.Template{SQL: "SELECT 'a   b'   FROM t /**where**/"}
	query, _, err := tmpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 'a   b' FROM t", query)
}

func TestRenderKeepsLineComments(t *testing.T) {
	tmpl := repository.Template{SQL: "SELECT s.*\n" +
		"FROM securities s -- every listed security\n" +
		"/**where**/\n" +
		"/**orderby**/"}
	build := repository.Build(func(b *repository.Builder) {
		b.Where("s.name = ?", "Apple").OrderBy("s.name")
	})

	query, args, err := tmpl.Render(build)
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.* FROM securities s -- every listed security\nWHERE (s.name = ?) ORDER BY s.name", query)
	assert.Equal(t, []interface{}{"Apple"}, args)

	query, _, err = tmpl.Count().Render(build)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM ( SELECT s.* FROM securities s -- every listed security\nWHERE (s.name = ?) ) derived", query)

	query, _, err = tmpl.Page(types.PagerOf(1, 5)).Render(repository.NewBuilder())
	require.NoError(t, err)
	assert.Equal(t, "SELECT s.* FROM securities s -- every listed security\nLIMIT ? OFFSET ?", query)
}

func TestRenderKeepsQuotedIdentifiers(t *testing.T) {
	tmpl := repository.Template{SQL: `SELECT "odd   name", 'x -- y' FROM t /**where**/`}
	query, _, err := tmpl.Render(repository.Build(func(b *repository.Builder) {
		b.Where("a = 1")
	}))
	require.NoError(t, err)
	assert.Equal(t, `SELECT "odd   name", 'x -- y' FROM t WHERE (a = 1)`, query)
}

func TestRenderPassesOtherBlockComments(t *testing.T) {
	tmpl := repository.Template{SQL: "SELECT /** newest first **/ * FROM t /**where**/ /**groupby**/"}
	query, _, err := tmpl.Render(repository.Build(func(b *repository.Builder) {
		b.Where("a = 1")
	}))
	require.NoError(t, err)
	assert.Equal(t, "SELECT /** newest first **/ * FROM t WHERE (a = 1) /**groupby**/", query)

	query, _, err = tmpl.Count().Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM ( SELECT /** newest first **/ * FROM t /**groupby**/ ) derived", query)
}

func TestRenderErrors(t *testing.T) {
	cases := map[string]repository.Template{
		"unterminated": {SQL: "SELECT * FROM t /**where"},
		"duplicate":    {SQL: "SELECT * FROM t /**where**/ /**where**/"},
		"missing arg":  {SQL: "SELECT * FROM t WHERE a = ?"},
		"unused arg":   {SQL: "SELECT * FROM t", Args: []interface{}{1}},
	}
	for name, tmpl := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := tmpl.Render(nil)
			assert.Error(t, err)
		})
	}
}

func TestEscapedPlaceholderIsNotBound(t *testing.T) {
	tmpl := repository.Template{SQL: "SELECT data \\? 'key' FROM t WHERE id = ?", Args: []interface{}{1}}
	_, args, err := tmpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1}, args)
}

func TestWithoutOrderBy(t *testing.T) {
	tmpl := repository.TableTemplate("securities").WithoutOrderBy()
	query, _, err := tmpl.Render(repository.Build(func(b *repository.Builder) {
		b.OrderBy("name")
	}))
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?.* FROM ?", query)
}
