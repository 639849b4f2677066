// Package pagination parses page/page_size query parameters and builds the list envelope.
package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	PageParam     = "page"
	PageSizeParam = "page_size"
)

// PerPageOptions are advertised to clients in every page envelope
var PerPageOptions = []int{10, 25, 50, 100}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

var DefaultConfig = Config{DefaultPageSize: 50, MaxPageSize: 100}

// Error is a rejected pagination request
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(message string) *Error {
	return &Error{Code: "INVALID_PAGINATION", Message: message, Status: http.StatusBadRequest}
}

// Params is a validated page request
type Params struct {
	Page     int
	PageSize int
	Path     string
	Query    url.Values
}

// Parse reads page and page_size from values. page_size above the maximum is capped.
func Parse(values url.Values, path string, cfg Config) (Params, error) {
	if cfg.DefaultPageSize <= 0 {
		cfg = DefaultConfig
	}

	params := Params{Page: 1, PageSize: cfg.DefaultPageSize, Path: path, Query: cloneValues(values)}

	if raw := strings.TrimSpace(values.Get(PageSizeParam)); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, invalid("Invalid page size format.")
		}
		if size <= 0 {
			return Params{}, invalid("Page size must be a positive integer.")
		}
		if cfg.MaxPageSize > 0 && size > cfg.MaxPageSize {
			size = cfg.MaxPageSize
		}
		params.PageSize = size
	}

	if raw := strings.TrimSpace(values.Get(PageParam)); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, invalid("Invalid page number.")
		}
		params.Page = page
	}

	return params, nil
}

// Offset is the number of rows to skip
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit is the page size
func (p Params) Limit() int {
	return p.PageSize
}

// Page is the list envelope
type Page[T any] struct {
	Count          int64   `json:"count"`
	NumPages       int     `json:"num_pages"`
	CurrentPage    int     `json:"current_page"`
	PageSize       int     `json:"page_size"`
	HasNext        bool    `json:"has_next"`
	HasPrevious    bool    `json:"has_previous"`
	Next           *string `json:"next"`
	Previous       *string `json:"previous"`
	First          *string `json:"first"`
	Last           *string `json:"last"`
	ItemRange      string  `json:"item_range"`
	PerPageOptions []int   `json:"per_page_options"`
	Results        []T     `json:"results"`
}

// NewPage wraps one page of items. A page past the last one is a 404.
func NewPage[T any](items []T, total int64, p Params) (*Page[T], error) {
	pages := numPages(total, p.PageSize)
	if p.Page > pages {
		return nil, &Error{Code: "INVALID_PAGE", Message: "Invalid page.", Status: http.StatusNotFound}
	}
	if items == nil {
		items = []T{}
	}

	start, end := 0, 0
	if total > 0 {
		start = p.Offset() + 1
		end = p.Offset() + len(items)
	}

	page := &Page[T]{
		Count:          total,
		NumPages:       pages,
		CurrentPage:    p.Page,
		PageSize:       p.PageSize,
		HasNext:        p.Page < pages,
		HasPrevious:    p.Page > 1,
		ItemRange:      fmt.Sprintf("Items %d-%d of %d", start, end, total),
		PerPageOptions: PerPageOptions,
		Results:        items,
	}
	if page.HasNext {
		page.Next = p.link(p.Page + 1)
	}
	if page.HasPrevious {
		page.Previous = p.link(p.Page - 1)
	}
	if p.Page != 1 {
		page.First = p.link(1)
	}
	if p.Page != pages {
		page.Last = p.link(pages)
	}
	return page, nil
}

func (p Params) link(page int) *string {
	query := cloneValues(p.Query)
	query.Set(PageParam, strconv.Itoa(page))
	if query.Has(PageSizeParam) {
		query.Set(PageSizeParam, strconv.Itoa(p.PageSize))
	}
	s := p.Path + "?" + query.Encode()
	return &s
}

func numPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
