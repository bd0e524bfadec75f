package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

// JobStatsPusher pushes job statistics to subscribed clients.
type JobStatsPusher interface {
	PushJobStats(ctx context.Context) error
}

// StatsPush periodically sends job statistics to job-updates subscribers.
type StatsPush struct {
	pusher JobStatsPusher
}

// NewStatsPush creates the job statistics push task.
func NewStatsPush(pusher JobStatsPusher) *StatsPush {
	return &StatsPush{pusher: pusher}
}

func (t *StatsPush) Name() string { return "job-stats-push" }

func (t *StatsPush) Run(ctx context.Context) error {
	return t.pusher.PushJobStats(ctx)
}

// StuckJobFinder lists jobs that have been processing for too long.
type StuckJobFinder interface {
	ListStuck(ctx context.Context, startedBefore time.Time, limit int) ([]*job.Job, error)
}

// AlertCreator stores a new alert.
type AlertCreator interface {
	Create(ctx context.Context, in alert.NewAlert) (*alert.Alert, error)
}

// JobAlertPublisher sends job-scoped alerts to job-updates subscribers.
type JobAlertPublisher interface {
	PublishJobAlert(a *alert.Alert)
}

const stuckJobBatch = 50

// StuckJobMonitor raises one warning alert per job that stays in
// processing longer than the threshold.
type StuckJobMonitor struct {
	finder    StuckJobFinder
	alerts    AlertCreator
	publisher JobAlertPublisher
	threshold time.Duration
	seen      *cache.TTL[struct{}]
	now       func() time.Time
	logger    *logger.Logger
}

// NewStuckJobMonitor creates the monitor. A job is reported again only
// after a further threshold has passed.
func NewStuckJobMonitor(finder StuckJobFinder, alerts AlertCreator, publisher JobAlertPublisher, threshold time.Duration, log *logger.Logger) *StuckJobMonitor {
	return &StuckJobMonitor{
		finder:    finder,
		alerts:    alerts,
		publisher: publisher,
		threshold: threshold,
		seen:      cache.New[struct{}]("stuck_jobs", 1024, threshold),
		now:       time.Now,
		logger:    log.Component("stuck-job-monitor"),
	}
}

func (m *StuckJobMonitor) Name() string { return "stuck-job-monitor" }

// Run checks for stuck jobs once.
func (m *StuckJobMonitor) Run(ctx context.Context) error {
	jobs, err := m.finder.ListStuck(ctx, m.now().Add(-m.threshold), stuckJobBatch)
	if err != nil {
		return fmt.Errorf("list stuck jobs: %w", err)
	}

	raised := 0
	for _, j := range jobs {
		if _, ok := m.seen.Get(j.ID); ok {
			continue
		}

		a, err := m.alerts.Create(ctx, m.newAlert(j))
		if err != nil {
			m.logger.With("job_id", j.JobID).ErrorWithErr(err, "Failed to raise stuck job alert")
			continue
		}
		m.seen.Set(j.ID, struct{}{})
		m.publisher.PublishJobAlert(a)
		raised++
	}

	if raised > 0 {
		m.logger.Warnf("Raised %d stuck job alert(s)", raised)
	}
	return nil
}

func (m *StuckJobMonitor) newAlert(j *job.Job) alert.NewAlert {
	data := map[string]interface{}{
		"id":     j.ID,
		"jobId":  j.JobID,
		"userId": j.UserID,
	}
	minutes := int64(0)
	if j.ProcessingStartedAt != nil {
		data["processingStartedAt"] = j.ProcessingStartedAt.UTC()
		minutes = int64(m.now().Sub(*j.ProcessingStartedAt) / time.Minute)
	}
	data["minutesProcessing"] = minutes

	return alert.NewAlert{
		Type:     alert.TypeJob,
		Severity: alert.SeverityWarning,
		Title:    "Job stuck in processing",
		Message:  fmt.Sprintf("Job %s has been processing for %d minutes", j.JobID, minutes),
		Data:     data,
	}
}

// ResourceRecorder persists a host resource sample.
type ResourceRecorder interface {
	SampleResources(ctx context.Context, queueSize int64) error
}

// StatusCounter counts jobs per status.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[job.Status]int64, error)
}

// ResourceSampler records cpu, memory and queue depth samples that feed
// the job statistics performance section.
type ResourceSampler struct {
	recorder ResourceRecorder
	jobs     StatusCounter
}

// NewResourceSampler creates the sampling task.
func NewResourceSampler(recorder ResourceRecorder, jobs StatusCounter) *ResourceSampler {
	return &ResourceSampler{recorder: recorder, jobs: jobs}
}

func (t *ResourceSampler) Name() string { return "resource-sampler" }

func (t *ResourceSampler) Run(ctx context.Context) error {
	counts, err := t.jobs.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count queued jobs: %w", err)
	}
	return t.recorder.SampleResources(ctx, counts[job.StatusQueued])
}
