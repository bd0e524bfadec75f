package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// JobService implements job.Service
type JobService struct {
	repo   job.Repository
	users  UserDirectory
	retry  retry.Policy
	logger *logger.Logger
	now    func() time.Time
}

// NewJobService creates a new job service
func NewJobService(repo job.Repository, users UserDirectory, policy retry.Policy, log *logger.Logger) *JobService {
	return &JobService{
		repo:   repo,
		users:  users,
		retry:  policy,
		logger: log,
		now:    time.Now,
	}
}

// Stats builds the job dashboard
func (s *JobService) Stats(ctx context.Context) (*job.Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &job.Stats{
		Overview: job.Overview{
			Queued:     counts[job.StatusQueued],
			Processing: counts[job.StatusProcessing],
			Completed:  counts[job.StatusCompleted],
			Failed:     counts[job.StatusFailed],
			Cancelled:  counts[job.StatusCancelled],
		},
	}
	for status, n := range counts {
		stats.Overview.Total += n
		metrics.SetJobsByStatus(string(status), n)
	}
	stats.Overview.SuccessRate = percent(stats.Overview.Completed, stats.Overview.Completed+stats.Overview.Failed)

	now := s.now()
	today := startOfDay(now)
	if stats.Today.Total, err = s.repo.CountCreatedSince(ctx, today); err != nil {
		return nil, err
	}
	if stats.Today.Completed, err = s.repo.CountCompletedSince(ctx, today); err != nil {
		return nil, err
	}
	if stats.Today.Failed, err = s.repo.CountFailedSince(ctx, today); err != nil {
		return nil, err
	}

	spans, err := s.repo.RecentProcessingSpans(ctx, job.RecentCompletedSample)
	if err != nil {
		return nil, err
	}
	stats.Performance = averageProcessing(spans)

	since := today.AddDate(0, 0, -(job.DailyWindow - 1))
	if stats.DailyMetrics, err = s.repo.DailyBreakdown(ctx, since); err != nil {
		return nil, err
	}
	if stats.DailyMetrics == nil {
		stats.DailyMetrics = []job.DailyMetric{}
	}

	if stats.ResourceUtilization, err = s.repo.LatestResourceMetrics(ctx, job.ResourceMetricNames); err != nil {
		return nil, err
	}

	return stats, nil
}

func averageProcessing(spans []job.ProcessingSpan) job.Performance {
	if len(spans) == 0 {
		return job.Performance{}
	}
	var total time.Duration
	for _, sp := range spans {
		total += sp.CompletedAt.Sub(sp.StartedAt)
	}
	avg := total / time.Duration(len(spans))
	secs := int64(avg.Round(time.Second) / time.Second)
	return job.Performance{
		AvgProcessingTimeSeconds: secs,
		AvgProcessingTimeMinutes: round2(avg.Minutes()),
	}
}

// List returns one page of jobs. Owner email and username filters are
// resolved against auth.users first; no matching owner means no query.
func (s *JobService) List(ctx context.Context, filter job.Filter, q query.ListQuery) (*utils.Page[*job.Job], error) {
	opts := job.ListSpec.Normalize(q)

	w := query.NewWhere(s.repo.Dialect())
	filter.Apply(w)
	if err := query.ResolveForeign(ctx, s.users, w, "user_id", filter.UserFilters()...); err != nil {
		return nil, err
	}
	if w.Empty() {
		return utils.EmptyPage[*job.Job]("jobs", opts.PaginationParams), nil
	}

	return s.list(ctx, w, opts)
}

// ListForUser returns one page of a single user's jobs
func (s *JobService) ListForUser(ctx context.Context, userID string, q query.ListQuery) (*utils.Page[*job.Job], error) {
	opts := job.UserJobsSpec.Normalize(q)
	w := query.NewWhere(s.repo.Dialect())
	w.Eq("user_id", userID)
	return s.list(ctx, w, opts)
}

func (s *JobService) list(ctx context.Context, w *query.Where, opts query.Options) (*utils.Page[*job.Job], error) {
	jobs, total, err := s.repo.List(ctx, w, opts)
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, jobs...); err != nil {
		return nil, err
	}
	return utils.NewPage("jobs", jobs, total, opts.PaginationParams), nil
}

// attachUsers sets each job's owner summary. Owners missing from
// auth.users stay nil.
func (s *JobService) attachUsers(ctx context.Context, jobs ...*job.Job) error {
	ids := ownerIDs(jobs, func(j *job.Job) string { return j.UserID })
	if len(ids) == 0 {
		return nil
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		j.User = summaries[j.UserID]
	}
	return nil
}

// Get returns a job with its owner and processing time
func (s *JobService) Get(ctx context.Context, id string) (*job.Detail, error) {
	j, err := withRetry(ctx, s.retry, s.logger, "job.get", func(ctx context.Context) (*job.Job, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachUsers(ctx, j); err != nil {
		return nil, err
	}
	return job.NewDetail(j), nil
}

// Results returns the analysis result of the job with the given job_id
func (s *JobService) Results(ctx context.Context, jobID string) (*job.ResultView, error) {
	return withRetry(ctx, s.retry, s.logger, "job.results", func(ctx context.Context) (*job.ResultView, error) {
		j, err := s.repo.GetByJobID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if j.ResultID == nil || *j.ResultID == "" {
			return nil, errors.NotFoundf("Job has no results yet")
		}
		result, err := s.repo.GetResult(ctx, *j.ResultID)
		if err != nil {
			return nil, err
		}
		return &job.ResultView{
			Job: job.ResultJob{
				ID:             j.ID,
				JobID:          j.JobID,
				Status:         j.Status,
				AssessmentName: j.AssessmentName,
				CompletedAt:    j.CompletedAt,
			},
			Result: result,
		}, nil
	})
}

var _ job.Service = (*JobService)(nil)
