// Package pagination slices ordered listings into fixed-size pages.
//
// Page numbers are 1-based. A requested page that is missing, not an
// integer, below 1 or past the last page resolves to page 1. An empty
// listing still has exactly one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a non-positive page size is supplied.
const DefaultPageSize = 10

// Window is a resolved page: which page is shown and which slice of the
// listing it covers.
type Window struct {
	Number     int
	TotalPages int
	TotalItems int
	Offset     int
	Limit      int
}

// Resolve computes the window for page requested of a listing with total items.
func Resolve(total, pageSize int, requested string) Window {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(requested))
	if err != nil || number < 1 || number > pages {
		number = 1
	}

	offset := (number - 1) * pageSize
	limit := pageSize
	if remaining := total - offset; remaining < limit {
		limit = remaining
	}
	if limit < 0 {
		limit = 0
	}

	return Window{
		Number:     number,
		TotalPages: pages,
		TotalItems: total,
		Offset:     offset,
		Limit:      limit,
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Number      int  `json:"number"`
	TotalPages  int  `json:"total_pages"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPage wraps items already fetched for window w.
func NewPage[T any](items []T, w Window, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Number:      w.Number,
		TotalPages:  w.TotalPages,
		PageSize:    pageSize,
		TotalItems:  w.TotalItems,
		HasNext:     w.Number < w.TotalPages,
		HasPrevious: w.Number > 1,
	}
}

// Paginate returns page requested of an in-memory listing.
func Paginate[T any](items []T, pageSize int, requested string) Page[T] {
	w := Resolve(len(items), pageSize, requested)
	return NewPage(items[w.Offset:w.Offset+w.Limit], w, pageSize)
}

// Map converts the items of a page, keeping its numbering.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return Page[U]{
		Items:       out,
		Number:      p.Number,
		TotalPages:  p.TotalPages,
		PageSize:    p.PageSize,
		TotalItems:  p.TotalItems,
		HasNext:     p.HasNext,
		HasPrevious: p.HasPrevious,
	}
}
