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

package types

import "fmt"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Pager describes which slice of a result set to fetch.
// Page and PageSize are always >= 1 once constructed through NewPager.
type Pager struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Offset   int `json:"offset"`
}

// NewPager normalizes optional user input into a Pager. Absent or
// non-positive values fall back to DefaultPage and DefaultPageSize.
func NewPager(page *int, pageSize *int) *Pager {
	p := &Pager{Page: DefaultPage, PageSize: DefaultPageSize}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if pageSize != nil && *pageSize >= 1 {
		p.PageSize = *pageSize
	}
	p.Offset = (p.Page - 1) * p.PageSize
	return p
}

// PagerOf is NewPager for callers that already hold plain ints.
func PagerOf(page int, pageSize int) *Pager {
	return NewPager(&page, &pageSize)
}

func (p *Pager) GetLimit() int { return p.PageSize }

func (p *Pager) GetOffset() int { return p.Offset }

// TotalPages returns how many pages of this size cover totalRows.
func (p *Pager) TotalPages(totalRows int) int {
	if totalRows <= 0 {
		return 0
	}
	return (totalRows + p.PageSize - 1) / p.PageSize
}

// SanityCheckPager rejects a pager whose offset lies past the end of the
// result set. A partial last page is fine; a nil pager always passes.
func SanityCheckPager(totalRows int, pager *Pager) error {
	if pager == nil {
		return nil
	}
	if pager.Offset > totalRows {
		return NewPagingError(
			fmt.Sprintf("more rows were requested than are returned by the query: offset %d, total %d", pager.Offset, totalRows))
	}
	return nil
}

// ResultSet holds one page of records along with the totals of the
// unpaginated query.
type ResultSet[T any] struct {
	Items        []*T `json:"items"`
	TotalPages   int  `json:"total_pages"`
	TotalResults int  `json:"total_results"`
}

// NewResultSet wraps items and totals; a nil slice becomes empty.
func NewResultSet[T any](items []*T, totalPages int, totalResults int) *ResultSet[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &ResultSet[T]{Items: items, TotalPages: totalPages, TotalResults: totalResults}
}

// Len returns the number of records on this page.
func (r *ResultSet[T]) Len() int { return len(r.Items) }

// First returns the first record or nil.
func (r *ResultSet[T]) First() *T {
	if len(r.Items) == 0 {
		return nil
	}
	return r.Items[0]
}
