package query

import (
	"context"
	"fmt"
	"strings"
)

// ForeignFilter is a substring predicate on a field owned by another
// collection, e.g. the email of a job's owner.
type ForeignFilter struct {
	Field string
	Value string
}

// KeyResolver finds primary keys in a foreign collection. Filters are
// OR-ed: a row qualifies if any one of them matches.
type KeyResolver interface {
	ResolveKeys(ctx context.Context, filters []ForeignFilter) ([]string, error)
}

// ResolveForeign folds cross-collection filters into w as a set
// membership on fkColumn. Filters with blank values are dropped; if none
// remain w is untouched. Zero matching keys mark w empty so the caller
// issues no primary query at all. Lookup failures are returned as-is.
func ResolveForeign(ctx context.Context, resolver KeyResolver, w *Where, fkColumn string, filters ...ForeignFilter) error {
	active := make([]ForeignFilter, 0, len(filters))
	for _, f := range filters {
		if strings.TrimSpace(f.Value) != "" {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	if resolver == nil {
		return fmt.Errorf("no resolver for %s", fkColumn)
	}

	keys, err := resolver.ResolveKeys(ctx, active)
	if err != nil {
		return err
	}
	w.In(fkColumn, keys)
	return nil
}
