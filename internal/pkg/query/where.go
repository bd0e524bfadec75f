// Package query builds parameterised WHERE/ORDER/LIMIT clauses for the
// admin list endpoints. Column names always come from code, never from
// the request; request values only ever travel as bind arguments.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Dialect selects placeholder and case-insensitive match syntax.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a database/sql driver name to a Dialect.
func DialectFor(driver string) Dialect {
	if driver == "sqlite" || driver == "sqlite3" {
		return SQLite
	}
	return Postgres
}

func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// Rebind rewrites ? placeholders into the dialect's form. Statements
// passed here must not contain literal question marks.
func (d Dialect) Rebind(stmt string) string {
	if d == SQLite {
		return stmt
	}
	var b strings.Builder
	b.Grow(len(stmt) + 8)
	n := 0
	for i := 0; i < len(stmt); i++ {
		if stmt[i] == '?' {
			n++
			b.WriteString(fmt.Sprintf("$%d", n))
			continue
		}
		b.WriteByte(stmt[i])
	}
	return b.String()
}

func (d Dialect) containsClause(column, ph string) string {
	if d == SQLite {
		return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, column, ph)
	}
	return fmt.Sprintf("%s ILIKE %s", column, ph)
}

// Where accumulates AND-ed predicates and their bind arguments.
type Where struct {
	dialect Dialect
	clauses []string
	args    []interface{}
	empty   bool
}

// NewWhere returns an empty predicate set for the dialect.
func NewWhere(d Dialect) *Where {
	return &Where{dialect: d}
}

// Dialect returns the dialect the predicates are rendered for.
func (w *Where) Dialect() Dialect {
	return w.dialect
}

func (w *Where) bind(v interface{}) string {
	w.args = append(w.args, v)
	return w.dialect.placeholder(len(w.args))
}

// Eq adds column = value. Empty strings and nil pointers are skipped.
func (w *Where) Eq(column string, value interface{}) *Where {
	v, ok := present(value)
	if !ok {
		return w
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s = %s", column, w.bind(v)))
	return w
}

// Contains adds a case-insensitive substring match. With several
// columns the match is OR-ed across them.
func (w *Where) Contains(value string, columns ...string) *Where {
	value = strings.TrimSpace(value)
	if value == "" || len(columns) == 0 {
		return w
	}
	pattern := "%" + escapeLike(value) + "%"
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, w.dialect.containsClause(col, w.bind(pattern)))
	}
	if len(parts) == 1 {
		w.clauses = append(w.clauses, parts[0])
	} else {
		w.clauses = append(w.clauses, "("+strings.Join(parts, " OR ")+")")
	}
	return w
}

// Range adds an inclusive [from, to] bound; either side may be nil.
// Bounds are bound in UTC, the zone timestamps are stored in.
func (w *Where) Range(column string, from, to *time.Time) *Where {
	if from != nil {
		w.clauses = append(w.clauses, fmt.Sprintf("%s >= %s", column, w.bind(from.UTC())))
	}
	if to != nil {
		w.clauses = append(w.clauses, fmt.Sprintf("%s <= %s", column, w.bind(to.UTC())))
	}
	return w
}

// Since adds column >= t.
func (w *Where) Since(column string, t time.Time) *Where {
	return w.Range(column, &t, nil)
}

// In adds set membership. An empty set can match nothing, so the whole
// predicate set is marked empty and no statement should be issued.
func (w *Where) In(column string, values []string) *Where {
	if len(values) == 0 {
		w.empty = true
		return w
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = w.bind(v)
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(phs, ", ")))
	return w
}

// Raw adds a literal predicate with its own placeholders rendered by
// the caller through Bind.
func (w *Where) Raw(clause string) *Where {
	w.clauses = append(w.clauses, clause)
	return w
}

// Bind appends an argument and returns its placeholder, for use with Raw.
func (w *Where) Bind(v interface{}) string {
	return w.bind(v)
}

// AnyOf renders the predicates added by fn as a single OR group. An
// empty In inside the group is a false branch: it drops out of the OR,
// and when nothing else is left the whole set is marked empty.
func (w *Where) AnyOf(fn func(*Where)) *Where {
	sub := &Where{dialect: w.dialect, args: w.args}
	fn(sub)
	w.args = sub.args
	if sub.empty && len(sub.clauses) == 0 {
		w.empty = true
		return w
	}
	if len(sub.clauses) == 1 {
		w.clauses = append(w.clauses, sub.clauses[0])
	} else if len(sub.clauses) > 1 {
		w.clauses = append(w.clauses, "("+strings.Join(sub.clauses, " OR ")+")")
	}
	return w
}

// Empty reports whether the predicates are known to match no rows.
func (w *Where) Empty() bool {
	return w.empty
}

// Len returns the number of predicates.
func (w *Where) Len() int {
	return len(w.clauses)
}

// SQL renders " WHERE a AND b", or "" when there are no predicates.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns a copy of the bind arguments.
func (w *Where) Args() []interface{} {
	out := make([]interface{}, len(w.args))
	copy(out, w.args)
	return out
}

func present(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	case *string:
		if v == nil || *v == "" {
			return nil, false
		}
		return *v, true
	case *bool:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *int:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *int64:
		if v == nil {
			return nil, false
		}
		return *v, true
	default:
		return v, true
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
