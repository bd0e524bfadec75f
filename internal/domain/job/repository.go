package job

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// Repository defines the job repository interface
type Repository interface {
	// List returns one page of jobs matching the plan's predicates
	List(ctx context.Context, where *query.Where, opts query.Options) ([]*Job, int64, error)
	GetByID(ctx context.Context, id string) (*Job, error)
	GetByJobID(ctx context.Context, jobID string) (*Job, error)
	GetResult(ctx context.Context, resultID string) (*Result, error)

	// Dashboard aggregates
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
	CountFailedSince(ctx context.Context, since time.Time) (int64, error)
	RecentProcessingSpans(ctx context.Context, limit int) ([]ProcessingSpan, error)
	DailyBreakdown(ctx context.Context, since time.Time) ([]DailyMetric, error)
	LatestResourceMetrics(ctx context.Context, names []string) (map[string]ResourceMetric, error)

	// ListStuck returns jobs processing since before the cutoff
	ListStuck(ctx context.Context, startedBefore time.Time, limit int) ([]*Job, error)

	// Dialect is the SQL dialect predicates must be built for
	Dialect() query.Dialect
}
