package alert

import (
	"context"

	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Service defines the alert operations exposed to handlers and workers.
type Service interface {
	Create(ctx context.Context, in NewAlert) (*Alert, error)
	List(ctx context.Context, filter Filter, params utils.PaginationParams) (*utils.Page[*Alert], error)
	Get(ctx context.Context, id string) (*Alert, error)
	Acknowledge(ctx context.Context, id, actorID string) (*Alert, error)
	Resolve(ctx context.Context, id, actorID, resolution string) (*Alert, error)
	Stats(ctx context.Context) (Stats, error)
}
