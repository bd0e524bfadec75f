package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

const jobColumns = `id, job_id, user_id, status, result_id, error_message, completed_at,
	assessment_name, priority, retry_count, max_retries, processing_started_at, created_at, updated_at`

const jobTable = "archive.analysis_jobs"

// JobRepository implements job.Repository over archive.analysis_jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.Repository = (*JobRepository)(nil)

// Dialect returns the dialect list predicates must be built for
func (r *JobRepository) Dialect() query.Dialect {
	return r.db.Dialect()
}

func scanJob(row rowScanner) (*job.Job, error) {
	var j job.Job
	var resultID, errMsg, name sql.NullString
	var completed, started sql.NullTime
	err := row.Scan(
		&j.ID, &j.JobID, &j.UserID, &j.Status, &resultID, &errMsg, &completed,
		&name, &j.Priority, &j.RetryCount, &j.MaxRetries, &started, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.ResultID = stringPtr(resultID)
	j.ErrorMessage = stringPtr(errMsg)
	j.AssessmentName = stringPtr(name)
	j.CompletedAt = timePtr(completed)
	j.ProcessingStartedAt = timePtr(started)
	return &j, nil
}

// List returns one page of jobs matching where
func (r *JobRepository) List(ctx context.Context, where *query.Where, opts query.Options) ([]*job.Job, int64, error) {
	defer observe("list", "analysis_jobs", time.Now())

	plan := job.ListSpec.Plan(where, opts, "id")
	jobs, total, err := query.Run(ctx, r.db, plan, jobColumns, jobTable, func(rows *sql.Rows) (*job.Job, error) {
		return scanJob(rows)
	})
	if err != nil {
		return nil, 0, mapError(err, "Failed to list jobs")
	}
	return jobs, total, nil
}

// GetByID retrieves a job by primary key
func (r *JobRepository) GetByID(ctx context.Context, id string) (*job.Job, error) {
	return r.getBy(ctx, "id", id)
}

// GetByJobID retrieves a job by its external job_id
func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*job.Job, error) {
	return r.getBy(ctx, "job_id", jobID)
}

func (r *JobRepository) getBy(ctx context.Context, column, value string) (*job.Job, error) {
	defer observe("get", "analysis_jobs", time.Now())

	stmt := r.db.Rebind("SELECT " + jobColumns + " FROM " + jobTable + " WHERE " + column + " = ?")
	j, err := scanJob(r.db.QueryRowContext(ctx, stmt, value))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Job")
	}
	if err != nil {
		return nil, mapError(err, "Failed to get job")
	}
	return j, nil
}

// GetResult retrieves an analysis result
func (r *JobRepository) GetResult(ctx context.Context, resultID string) (*job.Result, error) {
	defer observe("get", "analysis_results", time.Now())

	var res job.Result
	var testData, testResult, raw, chatbotID sql.NullString
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, user_id, test_data, test_result, raw_responses, is_public, chatbot_id, created_at, updated_at
		FROM archive.analysis_results WHERE id = ?`), resultID).Scan(
		&res.ID, &res.UserID, &testData, &testResult, &raw, &res.IsPublic, &chatbotID, &res.CreatedAt, &res.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Result")
	}
	if err != nil {
		return nil, mapError(err, "Failed to get result")
	}
	res.TestData = rawJSON(testData)
	res.TestResult = rawJSON(testResult)
	res.RawResponses = rawJSON(raw)
	res.ChatbotID = stringPtr(chatbotID)
	return &res, nil
}

// CountByStatus counts every job by status
func (r *JobRepository) CountByStatus(ctx context.Context) (map[job.Status]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM "+jobTable+" GROUP BY status")
	if err != nil {
		return nil, mapError(err, "Failed to count jobs")
	}
	defer rows.Close()

	counts := make(map[job.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError(err, "Failed to count jobs")
		}
		counts[job.Status(status)] = n
	}
	return counts, mapError(rows.Err(), "Failed to count jobs")
}

func (r *JobRepository) count(ctx context.Context, where string, args ...interface{}) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM "+jobTable+" WHERE "+where), args...).Scan(&n)
	if err != nil {
		return 0, mapError(err, "Failed to count jobs")
	}
	return n, nil
}

// CountCreatedSince counts jobs created at or after since
func (r *JobRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "created_at >= ?", since.UTC())
}

// CountCompletedSince counts jobs completed at or after since
func (r *JobRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "status = ? AND completed_at >= ?", string(job.StatusCompleted), since.UTC())
}

// CountFailedSince counts jobs that failed at or after since
func (r *JobRepository) CountFailedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "status = ? AND updated_at >= ?", string(job.StatusFailed), since.UTC())
}

// RecentProcessingSpans returns the processing windows of the newest
// completed jobs.
func (r *JobRepository) RecentProcessingSpans(ctx context.Context, limit int) ([]job.ProcessingSpan, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT processing_started_at, completed_at FROM `+jobTable+`
		WHERE status = ? AND processing_started_at IS NOT NULL AND completed_at IS NOT NULL
		ORDER BY completed_at DESC LIMIT ?`), string(job.StatusCompleted), limit)
	if err != nil {
		return nil, mapError(err, "Failed to read processing times")
	}
	defer rows.Close()

	spans := make([]job.ProcessingSpan, 0, limit)
	for rows.Next() {
		var s job.ProcessingSpan
		if err := rows.Scan(&s.StartedAt, &s.CompletedAt); err != nil {
			return nil, mapError(err, "Failed to read processing times")
		}
		spans = append(spans, s)
	}
	return spans, mapError(rows.Err(), "Failed to read processing times")
}

// DailyBreakdown counts jobs per creation day since the given time
func (r *JobRepository) DailyBreakdown(ctx context.Context, since time.Time) ([]job.DailyMetric, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT CAST(DATE(created_at) AS TEXT) AS day,
			COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM `+jobTable+`
		WHERE created_at >= ?
		GROUP BY 1 ORDER BY 1 ASC`), since.UTC())
	if err != nil {
		return nil, mapError(err, "Failed to read daily job metrics")
	}
	defer rows.Close()

	days := []job.DailyMetric{}
	for rows.Next() {
		var d job.DailyMetric
		if err := rows.Scan(&d.Date, &d.Total, &d.Completed, &d.Failed); err != nil {
			return nil, mapError(err, "Failed to read daily job metrics")
		}
		days = append(days, d)
	}
	return days, mapError(rows.Err(), "Failed to read daily job metrics")
}

// LatestResourceMetrics returns the newest sample of each named metric.
// Metrics never recorded are absent.
func (r *JobRepository) LatestResourceMetrics(ctx context.Context, names []string) (map[string]job.ResourceMetric, error) {
	stmt := r.db.Rebind(`SELECT metric_value, metric_data, recorded_at FROM archive.system_metrics
		WHERE metric_name = ? ORDER BY recorded_at DESC LIMIT 1`)

	out := make(map[string]job.ResourceMetric, len(names))
	for _, name := range names {
		var m job.ResourceMetric
		var data sql.NullString
		err := r.db.QueryRowContext(ctx, stmt, name).Scan(&m.Value, &data, &m.RecordedAt)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, mapError(err, "Failed to read resource metrics")
		}
		m.Data = rawJSON(data)
		out[name] = m
	}
	return out, nil
}

// ListStuck returns jobs that have been processing since before the cutoff
func (r *JobRepository) ListStuck(ctx context.Context, startedBefore time.Time, limit int) ([]*job.Job, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT `+jobColumns+` FROM `+jobTable+`
		WHERE status = ? AND processing_started_at < ?
		ORDER BY processing_started_at ASC LIMIT ?`),
		string(job.StatusProcessing), startedBefore.UTC(), limit)
	if err != nil {
		return nil, mapError(err, "Failed to list stuck jobs")
	}
	defer rows.Close()

	jobs := []*job.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mapError(err, "Failed to list stuck jobs")
		}
		jobs = append(jobs, j)
	}
	return jobs, mapError(rows.Err(), "Failed to list stuck jobs")
}
