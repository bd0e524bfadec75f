package utils

import (
	"math"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

// DefaultPageSize is the default number of items per page
const DefaultPageSize = 20

// MaxPageSize is the maximum number of items per page
const MaxPageSize = 100

// MaxOffset bounds (page-1)*limit so the offset always fits the int
// parameters databases accept.
const MaxOffset = math.MaxInt32

// PaginationParams contains the effective (clamped) pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// Pagination is the block echoed back with every list response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ClampPagination applies defaults and bounds. A limit of zero selects
// defaultLimit. Pages past MaxOffset are pulled back to the last
// reachable one.
func ClampPagination(page, limit, defaultLimit int) PaginationParams {
	if defaultLimit < 1 || defaultLimit > MaxPageSize {
		defaultLimit = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if maxPage := MaxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ParsePaginationParams reads page and limit from the query string.
// Malformed numbers are rejected; out-of-range values are clamped.
func ParsePaginationParams(r *http.Request, defaultLimit int) (PaginationParams, error) {
	q := r.URL.Query()
	page, err := parseIntQuery(q.Get("page"), 1)
	if err != nil {
		return PaginationParams{}, errors.ValidationError("Invalid query parameters", map[string]string{"page": "must be an integer"})
	}
	limit, err := parseIntQuery(q.Get("limit"), 0)
	if err != nil {
		return PaginationParams{}, errors.ValidationError("Invalid query parameters", map[string]string{"limit": "must be an integer"})
	}
	return ClampPagination(page, limit, defaultLimit), nil
}

// NewPagination computes the pagination block for a result set.
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Page wraps one page of items under an entity-specific key, e.g.
// {"jobs": [...], "pagination": {...}}.
type Page[T any] struct {
	Key        string
	Items      []T
	Pagination Pagination
}

// NewPage builds a Page from the effective page and limit.
func NewPage[T any](key string, items []T, total int64, params PaginationParams) *Page[T] {
	return &Page[T]{
		Key:        key,
		Items:      items,
		Pagination: NewPagination(total, params.Page, params.Limit),
	}
}

// EmptyPage is the result of a list that was short-circuited.
func EmptyPage[T any](key string, params PaginationParams) *Page[T] {
	return NewPage[T](key, nil, 0, params)
}

// MarshalJSON renders the entity key and the pagination block.
func (p *Page[T]) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	key := p.Key
	if key == "" {
		key = "items"
	}
	return json.Marshal(map[string]interface{}{
		key:          items,
		"pagination": p.Pagination,
	})
}

func parseIntQuery(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
