package query

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Sort orders.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// ListQuery is the raw paging and sorting part of a list request. Zero
// values mean "not supplied".
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Spec describes what a collection accepts for paging and sorting.
type Spec struct {
	DefaultLimit int
	DefaultSort  string
	// SortFields maps each sortable request field to its qualified column.
	SortFields map[string]string
}

// Options are the effective values after defaults and clamping.
type Options struct {
	utils.PaginationParams
	SortBy    string
	SortOrder string
}

// Normalize clamps paging and replaces any sort field outside the
// allow-list with the default. It never fails.
func (s Spec) Normalize(q ListQuery) Options {
	sortBy := s.DefaultSort
	if _, ok := s.SortFields[q.SortBy]; ok {
		sortBy = q.SortBy
	}
	order := strings.ToUpper(strings.TrimSpace(q.SortOrder))
	if order != Asc && order != Desc {
		order = Desc
	}
	return Options{
		PaginationParams: utils.ClampPagination(q.Page, q.Limit, s.DefaultLimit),
		SortBy:           sortBy,
		SortOrder:        order,
	}
}

// ParseListQuery reads page, limit, sort_by and sort_order. Only
// malformed integers are rejected.
func ParseListQuery(r *http.Request) (ListQuery, error) {
	q := r.URL.Query()
	out := ListQuery{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	var invalid map[string]string
	for key, dst := range map[string]*int{"page": &out.Page, "limit": &out.Limit} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if invalid == nil {
				invalid = map[string]string{}
			}
			invalid[key] = "must be an integer"
			continue
		}
		*dst = n
	}
	if invalid != nil {
		return ListQuery{}, errors.ValidationError("Invalid query parameters", invalid)
	}
	return out, nil
}

// Column returns the qualified column for a normalized sort field.
func (s Spec) Column(field string) string {
	if col, ok := s.SortFields[field]; ok {
		return col
	}
	return s.SortFields[s.DefaultSort]
}

// Plan builds a plan sorted by the column behind opts.SortBy.
func (s Spec) Plan(where *Where, opts Options, tiebreak string) *Plan {
	return NewPlan(where, opts, s.Column(opts.SortBy), tiebreak)
}

// Plan is a fully resolved list statement: one predicate set shared by
// the count and the page fetch.
type Plan struct {
	Where   *Where
	OrderBy string
	Options Options
}

// NewPlan combines predicates with the effective options. sortColumn is
// the qualified column for Options.SortBy; tiebreak, if set, keeps
// pagination stable across equal sort keys.
func NewPlan(where *Where, opts Options, sortColumn, tiebreak string) *Plan {
	orderBy := fmt.Sprintf("%s %s", sortColumn, opts.SortOrder)
	if tiebreak != "" && tiebreak != sortColumn {
		orderBy += fmt.Sprintf(", %s %s", tiebreak, opts.SortOrder)
	}
	return &Plan{Where: where, OrderBy: orderBy, Options: opts}
}

// Empty reports whether the plan is known to match nothing.
func (p *Plan) Empty() bool {
	return p.Where.Empty()
}

// CountSQL renders the count statement for from (table plus joins).
func (p *Plan) CountSQL(from string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM " + from + p.Where.SQL(), p.Where.Args()
}

// PageSQL renders the page statement.
func (p *Plan) PageSQL(columns, from string) (string, []interface{}) {
	args := p.Where.Args()
	d := p.Where.Dialect()
	limitPh := d.placeholder(len(args) + 1)
	offsetPh := d.placeholder(len(args) + 2)
	args = append(args, p.Options.Limit, p.Options.Offset)
	stmt := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		columns, from, p.Where.SQL(), p.OrderBy, limitPh, offsetPh)
	return stmt, args
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Run executes the count and the page fetch of a plan. An empty plan
// returns immediately without touching the database.
func Run[T any](ctx context.Context, db Querier, p *Plan, columns, from string, scan func(*sql.Rows) (T, error)) ([]T, int64, error) {
	if p.Empty() {
		return nil, 0, nil
	}

	countSQL, countArgs := p.CountSQL(from)
	var total int64
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}
	if total == 0 || int64(p.Options.Offset) >= total {
		return nil, total, nil
	}

	pageSQL, pageArgs := p.PageSQL(columns, from)
	rows, err := db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("page: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0, p.Options.Limit)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}
	return items, total, nil
}
