package services

import (
	"context"
	"math"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
)

// UserDirectory resolves user filters to ids and ids to summaries. It is
// how jobs and conversations reach into the auth schema.
type UserDirectory interface {
	query.KeyResolver
	Summaries(ctx context.Context, ids []string) (map[string]*user.Summary, error)
}

// withRetry runs a read under the retry policy, counting and logging
// every attempt that will be repeated.
func withRetry[T any](ctx context.Context, p retry.Policy, log *logger.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, p, fn, func(attempt int, err error, next time.Duration) {
		metrics.RecordRetry(op)
		log.With("operation", op).With("attempt", attempt).With("next_delay", next.String()).WarnWithErr(err, "Retrying read")
	})
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent returns part/whole*100 rounded to two places, or 0.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

// startOfDay returns local midnight of t.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ownerIDs collects the distinct non-empty user ids of items.
func ownerIDs[T any](items []T, id func(T) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		v := id(it)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
