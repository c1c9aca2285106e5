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

package repository

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/tomoncle/demoapi/types"
)

// Slot names recognised inside /**name**/ markers.
const (
	SlotInnerJoin = "innerjoin"
	SlotLeftJoin  = "leftjoin"
	SlotWhere     = "where"
	SlotOrderBy   = "orderby"
)

const (
	slotOpen  = "/**"
	slotClose = "**/"
)

// Fragment is a piece of SQL with its positional ? arguments.
type Fragment struct {
	SQL  string
	Args []interface{}
}

// Builder collects the optional fragments that fill a Template's slots.
type Builder struct {
	innerJoins []Fragment
	leftJoins  []Fragment
	wheres     []Fragment
	orderBys   []Fragment
}

// BuildFunc populates a Builder. A nil BuildFunc adds nothing.
type BuildFunc func(b *Builder)

func NewBuilder() *Builder {
	return &Builder{}
}

// Where adds a condition; multiple conditions are combined with AND.
func (b *Builder) Where(sql string, args ...interface{}) *Builder {
	b.wheres = append(b.wheres, Fragment{SQL: sql, Args: args})
	return b
}

// WhereFragment adds a prebuilt condition such as Eq or ArrayContains.
func (b *Builder) WhereFragment(f Fragment) *Builder {
	b.wheres = append(b.wheres, f)
	return b
}

// InnerJoin adds "INNER JOIN <sql>".
func (b *Builder) InnerJoin(sql string, args ...interface{}) *Builder {
	b.innerJoins = append(b.innerJoins, Fragment{SQL: sql, Args: args})
	return b
}

// LeftJoin adds "LEFT JOIN <sql>".
func (b *Builder) LeftJoin(sql string, args ...interface{}) *Builder {
	b.leftJoins = append(b.leftJoins, Fragment{SQL: sql, Args: args})
	return b
}

// OrderBy adds a sort expression; several are comma separated.
func (b *Builder) OrderBy(sql string, args ...interface{}) *Builder {
	b.orderBys = append(b.orderBys, Fragment{SQL: sql, Args: args})
	return b
}

// Build applies fn to a fresh builder.
func Build(fn BuildFunc) *Builder {
	b := NewBuilder()
	if fn != nil {
		fn(b)
	}
	return b
}

func (b *Builder) render(slot string) (string, []interface{}) {
	var (
		frags []Fragment
		sep   string
		head  string
		wrap  bool
	)
	switch slot {
	case SlotInnerJoin:
		frags, sep, head = b.innerJoins, " ", ""
	case SlotLeftJoin:
		frags, sep, head = b.leftJoins, " ", ""
	case SlotWhere:
		frags, sep, head, wrap = b.wheres, " AND ", "WHERE ", true
	case SlotOrderBy:
		frags, sep, head = b.orderBys, ", ", "ORDER BY "
	}
	if len(frags) == 0 {
		return "", nil
	}

	parts := make([]string, len(frags))
	var args []interface{}
	for i, f := range frags {
		switch {
		case wrap:
			parts[i] = "(" + f.SQL + ")"
		case slot == SlotInnerJoin:
			parts[i] = "INNER JOIN " + f.SQL
		case slot == SlotLeftJoin:
			parts[i] = "LEFT JOIN " + f.SQL
		default:
			parts[i] = f.SQL
		}
		args = append(args, f.Args...)
	}
	return head + strings.Join(parts, sep), args
}

// Template is a parameterised SQL skeleton with optional /**slot**/ markers.
// Args bind the ? placeholders written in the template itself, in order.
type Template struct {
	SQL  string
	Args []interface{}
}

// TableTemplate selects every column of table with all four slots.
func TableTemplate(table string) Template {
	return Template{
		SQL:  "SELECT ?.* FROM ? /**innerjoin**/ /**leftjoin**/ /**where**/ /**orderby**/",
		Args: []interface{}{bun.Ident(table), bun.Ident(table)},
	}
}

type segment struct {
	text string
	slot string
}

func (t Template) parse() ([]segment, error) {
	var segs []segment
	var text strings.Builder
	seen := make(map[string]bool)
	rest := t.SQL
	for {
		i := strings.Index(rest, slotOpen)
		if i < 0 {
			text.WriteString(rest)
			return append(segs, segment{text: text.String()}), nil
		}
		j := strings.Index(rest[i+len(slotOpen):], slotClose)
		if j < 0 {
			return nil, fmt.Errorf("unterminated slot marker at offset %d", len(t.SQL)-len(rest)+i)
		}
		end := i + len(slotOpen) + j + len(slotClose)
		name := strings.TrimSpace(rest[i+len(slotOpen) : i+len(slotOpen)+j])
		switch name {
		case SlotInnerJoin, SlotLeftJoin, SlotWhere, SlotOrderBy:
		default:
			// Any other /** ... **/ block is an ordinary SQL comment.
			text.WriteString(rest[:end])
			rest = rest[end:]
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("template slot %q appears more than once", name)
		}
		seen[name] = true
		text.WriteString(rest[:i])
		segs = append(segs, segment{text: text.String()}, segment{slot: name})
		text.Reset()
		rest = rest[end:]
	}
}

// Render substitutes the builder's fragments into the slots. Arguments are
// returned in the order their placeholders appear in the final SQL.
func (t Template) Render(b *Builder) (string, []interface{}, error) {
	if b == nil {
		b = NewBuilder()
	}
	segs, err := t.parse()
	if err != nil {
		return "", nil, err
	}

	var sql strings.Builder
	args := make([]interface{}, 0, len(t.Args))
	templateArgs := t.Args
	for _, s := range segs {
		if s.slot == "" {
			n := countPlaceholders(s.text)
			if n > len(templateArgs) {
				return "", nil, fmt.Errorf("template has more placeholders than arguments")
			}
			sql.WriteString(s.text)
			args = append(args, templateArgs[:n]...)
			templateArgs = templateArgs[n:]
			continue
		}
		fragment, fragmentArgs := b.render(s.slot)
		sql.WriteString(fragment)
		args = append(args, fragmentArgs...)
	}
	if len(templateArgs) > 0 {
		return "", nil, fmt.Errorf("template has %d unused arguments", len(templateArgs))
	}
	return squeezeSpaces(sql.String()), args, nil
}

// squeezeSpaces collapses the blank runs left behind by empty slots. Quoted
// literals and identifiers are copied untouched, and the newline closing a
// -- comment is kept so the comment ends where the author ended it.
func squeezeSpaces(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	var quote byte
	inComment := false
	lastSpace := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case inComment:
			if c == '\n' {
				inComment = false
				out.WriteByte('\n')
				lastSpace = true
				continue
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			inComment = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if !lastSpace {
				out.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		out.WriteByte(c)
		lastSpace = false
	}
	return strings.TrimRight(out.String(), " \t\r")
}

// WithoutOrderBy drops the orderby slot so ordering never reaches the query.
// A malformed template is returned unchanged; Render reports the error.
func (t Template) WithoutOrderBy() Template {
	segs, err := t.parse()
	if err != nil {
		return t
	}
	var sql strings.Builder
	for _, s := range segs {
		switch s.slot {
		case "":
			sql.WriteString(s.text)
		case SlotOrderBy:
		default:
			sql.WriteString(slotOpen + s.slot + slotClose)
		}
	}
	return Template{SQL: sql.String(), Args: t.Args}
}

// Count wraps the template, minus ordering, in a row count over a derived
// table.
func (t Template) Count() Template {
	inner := t.WithoutOrderBy()
	return Template{SQL: "SELECT COUNT(*) FROM (\n" + inner.SQL + "\n) derived", Args: inner.Args}
}

// Page appends a LIMIT/OFFSET range for pager.
func (t Template) Page(pager *types.Pager) Template {
	args := make([]interface{}, 0, len(t.Args)+2)
	args = append(args, t.Args...)
	args = append(args, pager.GetLimit(), pager.GetOffset())
	return Template{SQL: t.SQL + "\nLIMIT ? OFFSET ?", Args: args}
}

// countPlaceholders counts ? markers that bun will bind. An escaped \? is a
// literal question mark.
func countPlaceholders(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '?' {
			i++
			continue
		}
		if s[i] == '?' {
			n++
		}
	}
	return n
}

// Eq matches column against value.
func Eq(column string, value interface{}) Fragment {
	return Fragment{SQL: "? = ?", Args: []interface{}{bun.Ident(column), value}}
}

// EqAll matches every column against the value at the same position.
func EqAll(columns []string, values []interface{}) Fragment {
	parts := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)*2)
	for i, c := range columns {
		parts[i] = "? = ?"
		var v interface{}
		if i < len(values) {
			v = values[i]
		}
		args = append(args, bun.Ident(c), v)
	}
	return Fragment{SQL: strings.Join(parts, " AND "), Args: args}
}

// In matches column against a set. An empty set matches nothing.
func In[V any](column string, values []V) Fragment {
	if len(values) == 0 {
		return Fragment{SQL: "1 = 0"}
	}
	return Fragment{SQL: "? IN (?)", Args: []interface{}{bun.Ident(column), bun.In(values)}}
}

// ArrayContains matches rows whose array column holds value. PostgreSQL only.
func ArrayContains(column string, value interface{}) Fragment {
	return Fragment{SQL: "? = ANY(?)", Args: []interface{}{value, bun.Ident(column)}}
}

// ArrayOverlaps matches rows whose array column shares at least one element
// with values. PostgreSQL only.
func ArrayOverlaps[V any](column string, values []V) Fragment {
	return Fragment{SQL: "? && ?", Args: []interface{}{bun.Ident(column), pgdialect.Array(values)}}
}
