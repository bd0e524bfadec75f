package job

import (
	"context"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Service defines the job service interface
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	List(ctx context.Context, filter Filter, q query.ListQuery) (*utils.Page[*Job], error)
	ListForUser(ctx context.Context, userID string, q query.ListQuery) (*utils.Page[*Job], error)
	Get(ctx context.Context, id string) (*Detail, error)
	Results(ctx context.Context, jobID string) (*ResultView, error)
}
