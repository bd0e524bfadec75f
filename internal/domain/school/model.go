package school

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// School is a row of public.schools
type School struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	Province  *string   `json:"province"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a school with the number of profiles pointing at it
type Detail struct {
	School    *School `json:"school"`
	UserCount int64   `json:"userCount"`
}

// Input holds the writable fields of a school
type Input struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address  *string `json:"address" validate:"omitempty"`
	City     *string `json:"city" validate:"omitempty,min=1,max=100"`
	Province *string `json:"province" validate:"omitempty,min=1,max=100"`
}

// Empty reports whether the input changes nothing
func (in Input) Empty() bool {
	return in.Name == nil && in.Address == nil && in.City == nil && in.Province == nil
}

// Filter holds the list search term
type Filter struct {
	Search string
}

// Apply adds the filter's predicates to w
func (f Filter) Apply(w *query.Where) {
	w.Contains(f.Search, "name", "city", "province")
}

// ListSpec describes the sortable columns of the school list
var ListSpec = query.Spec{
	DefaultLimit: 20,
	DefaultSort:  "created_at",
	SortFields: map[string]string{
		"name":       "name",
		"city":       "city",
		"province":   "province",
		"created_at": "created_at",
	},
}

// Repository defines the school data access interface
type Repository interface {
	List(ctx context.Context, filter Filter, opts query.Options) ([]*School, int64, error)
	GetByID(ctx context.Context, id int64) (*School, error)
	Create(ctx context.Context, in Input) (*School, error)
	Update(ctx context.Context, id int64, in Input) (*School, error)
	Delete(ctx context.Context, id int64) error
	UserCount(ctx context.Context, id int64) (int64, error)
}

// Service defines the school operations
type Service interface {
	List(ctx context.Context, filter Filter, q query.ListQuery) (*utils.Page[*School], error)
	Get(ctx context.Context, id int64) (*Detail, error)
	Create(ctx context.Context, in Input) (*School, error)
	Update(ctx context.Context, id int64, in Input) (*School, error)
	Delete(ctx context.Context, id int64) error
}
