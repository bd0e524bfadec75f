package services

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

func fastRetry() retry.Policy {
	return retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func newJobService(t *testing.T) (*JobService, *testutil.Fixture) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewJobService(postgres.NewJobRepository(db), postgres.NewUserRepository(db), fastRetry(), testLogger())
	return svc, testutil.NewFixture(t, db)
}

func TestJobService_ListFiltersByOwner(t *testing.T) {
	svc, fx := newJobService(t)
	ctx := context.Background()

	alice := fx.User(testutil.UserRow{Email: "alice@school.id", Username: "alice"})
	bob := fx.User(testutil.UserRow{Email: "bob@school.id", Username: "bobby"})
	fx.Job(testutil.JobRow{UserID: alice, Status: "completed"})
	fx.Job(testutil.JobRow{UserID: alice, Status: "failed"})
	fx.Job(testutil.JobRow{UserID: bob, Status: "completed"})

	tests := []struct {
		name      string
		filter    job.Filter
		wantTotal int64
	}{
		{"no filter", job.Filter{}, 3},
		{"email substring", job.Filter{UserEmail: "ALICE"}, 2},
		{"username substring", job.Filter{UserUsername: "bob"}, 1},
		{"email and status", job.Filter{UserEmail: "alice", Status: "completed"}, 1},
		{"no matching owner", job.Filter{UserEmail: "nobody"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.filter, query.ListQuery{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Pagination.Total != tt.wantTotal {
				t.Errorf("List() total = %d, want %d", page.Pagination.Total, tt.wantTotal)
			}
			if int64(len(page.Items)) != tt.wantTotal {
				t.Errorf("List() returned %d items, want %d", len(page.Items), tt.wantTotal)
			}
			for _, j := range page.Items {
				if j.User == nil || j.User.ID != j.UserID {
					t.Errorf("job %s owner not attached", j.ID)
				}
			}
			if tt.wantTotal == 0 && page.Pagination.TotalPages != 0 {
				t.Errorf("TotalPages = %d, want 0", page.Pagination.TotalPages)
			}
		})
	}
}

func TestJobService_ListPaginationAndSort(t *testing.T) {
	svc, fx := newJobService(t)
	ctx := context.Background()

	owner := fx.User(testutil.UserRow{})
	for i := 0; i < 5; i++ {
		fx.Job(testutil.JobRow{UserID: owner, Priority: i})
	}

	page, err := svc.List(ctx, job.Filter{}, query.ListQuery{Page: 2, Limit: 2, SortBy: "priority", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Pagination.Page != 2 || page.Pagination.Limit != 2 || page.Pagination.Total != 5 || page.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
	if len(page.Items) != 2 || page.Items[0].Priority != 2 || page.Items[1].Priority != 3 {
		t.Errorf("page 2 priorities wrong: %+v", page.Items)
	}

	// unknown sort field falls back to created_at DESC
	page, err = svc.List(ctx, job.Filter{}, query.ListQuery{SortBy: "password_hash; DROP TABLE"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Items[0].Priority != 4 {
		t.Errorf("fallback sort returned priority %d first, want newest job", page.Items[0].Priority)
	}
}

func TestJobService_DanglingOwnerIsNull(t *testing.T) {
	svc, fx := newJobService(t)
	id := fx.Job(testutil.JobRow{UserID: "2b9bb7f6-0000-4000-8000-000000000000"})

	detail, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.User != nil {
		t.Errorf("Get() user = %+v, want nil", detail.User)
	}
}

func TestJobService_GetProcessingTime(t *testing.T) {
	svc, fx := newJobService(t)
	owner := fx.User(testutil.UserRow{})
	started := fx.Now.Add(-10 * time.Minute)
	completed := started.Add(90 * time.Second)
	id := fx.Job(testutil.JobRow{UserID: owner, Status: "completed", StartedAt: &started, CompletedAt: &completed})

	detail, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.ProcessingTimeSeconds == nil || *detail.ProcessingTimeSeconds != 90 {
		t.Errorf("ProcessingTimeSeconds = %v, want 90", detail.ProcessingTimeSeconds)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.IsNotFound(err) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestJobService_Results(t *testing.T) {
	svc, fx := newJobService(t)
	ctx := context.Background()
	owner := fx.User(testutil.UserRow{})

	resultID := fx.Result(owner, `{"riasec":"RIA"}`)
	fx.Job(testutil.JobRow{JobID: "job_done", UserID: owner, Status: "completed", ResultID: resultID})
	fx.Job(testutil.JobRow{JobID: "job_pending", UserID: owner})
	fx.Job(testutil.JobRow{JobID: "job_dangling", UserID: owner, Status: "completed", ResultID: "gone"})

	view, err := svc.Results(ctx, "job_done")
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if view.Job.JobID != "job_done" || view.Result.ID != resultID {
		t.Errorf("Results() = %+v", view)
	}

	tests := []struct {
		jobID   string
		message string
	}{
		{"job_missing", "Job not found"},
		{"job_pending", "Job has no results yet"},
		{"job_dangling", "Result not found"},
	}
	for _, tt := range tests {
		t.Run(tt.jobID, func(t *testing.T) {
			_, err := svc.Results(ctx, tt.jobID)
			appErr, ok := errors.As(err)
			if !ok || appErr.Code != errors.ErrCodeNotFound || appErr.Message != tt.message {
				t.Errorf("Results() error = %v, want NOT_FOUND %q", err, tt.message)
			}
		})
	}
}

func TestJobService_Stats(t *testing.T) {
	svc, fx := newJobService(t)
	owner := fx.User(testutil.UserRow{})

	now := time.Now()
	started := now.Add(-time.Hour)
	done := started.Add(2 * time.Minute)
	for i := 0; i < 3; i++ {
		fx.Job(testutil.JobRow{UserID: owner, Status: "completed", StartedAt: &started, CompletedAt: &done, CreatedAt: now.Add(-time.Minute)})
	}
	fx.Job(testutil.JobRow{UserID: owner, Status: "failed", CreatedAt: now.Add(-time.Minute), UpdatedAt: now.Add(-time.Minute)})
	fx.Job(testutil.JobRow{UserID: owner, Status: "queue", CreatedAt: now.Add(-time.Minute)})
	fx.Metric("cpu_usage", 42.5, now.Add(-time.Minute))

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.Overview.Total != 5 || stats.Overview.Completed != 3 || stats.Overview.Failed != 1 || stats.Overview.Queued != 1 {
		t.Errorf("Overview = %+v", stats.Overview)
	}
	if stats.Overview.SuccessRate != 75 {
		t.Errorf("SuccessRate = %v, want 75", stats.Overview.SuccessRate)
	}
	if stats.Performance.AvgProcessingTimeSeconds != 120 || stats.Performance.AvgProcessingTimeMinutes != 2 {
		t.Errorf("Performance = %+v", stats.Performance)
	}
	if len(stats.DailyMetrics) == 0 {
		t.Error("DailyMetrics is empty")
	}
	if m, ok := stats.ResourceUtilization["cpu_usage"]; !ok || m.Value != 42.5 {
		t.Errorf("ResourceUtilization = %+v", stats.ResourceUtilization)
	}
	if _, ok := stats.ResourceUtilization["queue_size"]; ok {
		t.Error("unrecorded metric should be absent")
	}
}

func TestAverageProcessing(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		spans       []job.ProcessingSpan
		wantSeconds int64
		wantMinutes float64
	}{
		{"empty", nil, 0, 0},
		{"single", []job.ProcessingSpan{{StartedAt: base, CompletedAt: base.Add(45 * time.Second)}}, 45, 0.75},
		{
			"rounded",
			[]job.ProcessingSpan{
				{StartedAt: base, CompletedAt: base.Add(100 * time.Second)},
				{StartedAt: base, CompletedAt: base.Add(101 * time.Second)},
				{StartedAt: base, CompletedAt: base.Add(101 * time.Second)},
			},
			101, 1.68,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := averageProcessing(tt.spans)
			if got.AvgProcessingTimeSeconds != tt.wantSeconds || got.AvgProcessingTimeMinutes != tt.wantMinutes {
				t.Errorf("averageProcessing() = %+v, want %d s / %v min", got, tt.wantSeconds, tt.wantMinutes)
			}
		})
	}
}
