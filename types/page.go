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

import (
	"fmt"
	"strings"
)

const DefaultPageSize = 10

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Params binds named query parameters, e.g. Params{"username": "member1"}.
type Params map[string]interface{}

// Order sorts by one entity property.
type Order struct {
	Property  string
	Direction Direction
}

func (o Order) String() string {
	return fmt.Sprintf("%s: %s", o.Property, o.Direction)
}

// Sort is an ordered list of Orders; the zero value means unsorted.
type Sort []Order

// SortBy sorts by each of the properties in the given direction.
func SortBy(direction Direction, properties ...string) Sort {
	sort := make(Sort, 0, len(properties))
	for _, p := range properties {
		sort = append(sort, Order{Property: p, Direction: direction})
	}
	return sort
}

// Unsorted returns an empty Sort.
func Unsorted() Sort { return Sort{} }

// And appends the orders of other.
func (s Sort) And(other Sort) Sort {
	out := make(Sort, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

func (s Sort) IsSorted() bool { return len(s) > 0 }

func (s Sort) String() string {
	if !s.IsSorted() {
		return "UNSORTED"
	}
	parts := make([]string, len(s))
	for i, o := range s {
		parts[i] = o.String()
	}
	return strings.Join(parts, ",")
}

// PageRequest describes a zero-based page, its size, optional filter and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	sort     Sort
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 0 {
		p.page = 0
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return p.GetPage() * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetSort() Sort {
	return p.sort
}

// Next returns the request for the following page with the same size and sort.
func (p *PageRequest) Next() *PageRequest {
	return &PageRequest{p.GetPage() + 1, p.GetPageSize(), p.filter, p.sort}
}

// Previous returns the request for the preceding page, or the first page.
func (p *PageRequest) Previous() *PageRequest {
	if p.GetPage() == 0 {
		return p.First()
	}
	return &PageRequest{p.GetPage() - 1, p.GetPageSize(), p.filter, p.sort}
}

func (p *PageRequest) First() *PageRequest {
	return &PageRequest{0, p.GetPageSize(), p.filter, p.sort}
}

func (p *PageRequest) String() string {
	return fmt.Sprintf("Page request [number: %d, size %d, sort: %s]", p.GetPage(), p.GetPageSize(), p.sort)
}

// PageRequestOf constructs a zero-based PageRequest with optional ordering.
func PageRequestOf(page int, pageSize int, sort ...Order) *PageRequest {
	return &PageRequest{page, pageSize, nil, Sort(sort)}
}

// DefaultPageRequest returns p, or the first unsorted page of DefaultPageSize
// when p is nil.
func DefaultPageRequest(p *PageRequest) *PageRequest {
	if p == nil {
		return PageRequestOf(0, DefaultPageSize)
	}
	return p
}

// NewPageRequest constructs a PageRequest with filter and sort settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, sort Sort) *PageRequest {
	return &PageRequest{page, pageSize, filter, sort}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, Unsorted())
}

// NewPageRequestWithSort constructs a PageRequest with ordering only.
func NewPageRequestWithSort(page int, pageSize int, sort Sort) *PageRequest {
	return NewPageRequest(page, pageSize, nil, sort)
}

// Page is a slice of content plus the total element count of the whole result.
type Page[T any] struct {
	Content       []*T  `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
}

// NewPage builds a page for request. A nil content is replaced with an empty slice.
func NewPage[T any](content []*T, request *PageRequest, total int64) *Page[T] {
	if content == nil {
		content = make([]*T, 0)
	}
	return &Page[T]{
		Content:       content,
		Number:        request.GetPage(),
		Size:          request.GetPageSize(),
		TotalElements: total,
	}
}

func (p *Page[T]) TotalPages() int {
	if p.Size == 0 {
		return 1
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) HasContent() bool { return len(p.Content) > 0 }

func (p *Page[T]) IsFirst() bool { return !p.HasPrevious() }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }

func (p *Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

func (p *Page[T]) String() string {
	return fmt.Sprintf("Page %d of %d containing %d instances", p.Number+1, p.TotalPages(), len(p.Content))
}

// MapPage converts the content of a page while keeping its paging metadata.
func MapPage[T any, R any](p *Page[T], fn func(*T) *R) *Page[R] {
	content := make([]*R, len(p.Content))
	for i, item := range p.Content {
		content[i] = fn(item)
	}
	return &Page[R]{Content: content, Number: p.Number, Size: p.Size, TotalElements: p.TotalElements}
}

// Slice is a page that only knows whether a following page exists.
type Slice[T any] struct {
	Content     []*T `json:"content"`
	Number      int  `json:"number"`
	Size        int  `json:"size"`
	HasNextPage bool `json:"has_next"`
}

// NewSlice builds a slice from rows fetched with a limit of size+1; the extra
// row only signals that a next page exists and is dropped from the content.
func NewSlice[T any](rows []*T, request *PageRequest) *Slice[T] {
	size := request.GetPageSize()
	hasNext := len(rows) > size
	if hasNext {
		rows = rows[:size]
	}
	if rows == nil {
		rows = make([]*T, 0)
	}
	return &Slice[T]{Content: rows, Number: request.GetPage(), Size: size, HasNextPage: hasNext}
}

func (s *Slice[T]) NumberOfElements() int { return len(s.Content) }

func (s *Slice[T]) HasContent() bool { return len(s.Content) > 0 }

func (s *Slice[T]) HasNext() bool { return s.HasNextPage }

func (s *Slice[T]) HasPrevious() bool { return s.Number > 0 }

func (s *Slice[T]) IsFirst() bool { return !s.HasPrevious() }

func (s *Slice[T]) IsLast() bool { return !s.HasNext() }

// MapSlice converts the content of a slice while keeping its paging metadata.
func MapSlice[T any, R any](s *Slice[T], fn func(*T) *R) *Slice[R] {
	content := make([]*R, len(s.Content))
	for i, item := range s.Content {
		content[i] = fn(item)
	}
	return &Slice[R]{Content: content, Number: s.Number, Size: s.Size, HasNextPage: s.HasNextPage}
}
