package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/adminservice/internal/domain/system"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// pingTables are read to check that a schema is reachable
var pingTables = map[string]string{
	system.SchemaAuth:    "auth.users",
	system.SchemaArchive: "archive.analysis_jobs",
	system.SchemaChat:    "chat.conversations",
}

// SystemRepository reads platform-wide aggregates
type SystemRepository struct {
	db *DB
}

// NewSystemRepository creates a new system repository
func NewSystemRepository(db *DB) *SystemRepository {
	return &SystemRepository{db: db}
}

var _ system.Repository = (*SystemRepository)(nil)

// Ping checks that the schema's ping table can be read
func (r *SystemRepository) Ping(ctx context.Context, schema string) error {
	table, ok := pingTables[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		return mapError(err, "Schema "+schema+" is unreachable")
	}
	return nil
}

// avgProcessingExpr averages completed-minus-created seconds over completed jobs
func avgProcessingExpr(d query.Dialect) string {
	if d == query.SQLite {
		return "AVG(CASE WHEN status = 'completed' THEN (julianday(completed_at) - julianday(created_at)) * 86400.0 END)"
	}
	return "AVG(CASE WHEN status = 'completed' THEN EXTRACT(EPOCH FROM (completed_at - created_at)) END)"
}

// JobMetrics aggregates jobs created since the given time
func (r *SystemRepository) JobMetrics(ctx context.Context, since time.Time) (system.JobMetrics, error) {
	defer observe("metrics", "analysis_jobs", time.Now())

	var m system.JobMetrics
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'queue' THEN 1 ELSE 0 END), 0),
			`+avgProcessingExpr(r.db.Dialect())+`
		FROM archive.analysis_jobs WHERE created_at >= ?`), since.UTC(),
	).Scan(&m.TotalJobs, &m.CompletedJobs, &m.FailedJobs, &m.ProcessingJobs, &m.QueuedJobs, &avg)
	if err != nil {
		return m, mapError(err, "Failed to read job metrics")
	}
	if avg.Valid {
		m.AvgProcessingTime = &avg.Float64
	}
	return m, nil
}

// UserMetrics aggregates all accounts
func (r *SystemRepository) UserMetrics(ctx context.Context, since time.Time) (system.UserMetrics, error) {
	defer observe("metrics", "users", time.Now())

	var m system.UserMetrics
	since = since.UTC()
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN last_login >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(token_balance), 0)
		FROM auth.users`), since, since,
	).Scan(&m.TotalUsers, &m.ActiveUsers, &m.NewUsersToday, &m.ActiveToday, &m.TotalTokens)
	if err != nil {
		return m, mapError(err, "Failed to read user metrics")
	}
	return m, nil
}

// ChatMetrics aggregates conversations, messages and token usage
func (r *SystemRepository) ChatMetrics(ctx context.Context, since time.Time) (system.ChatMetrics, error) {
	defer observe("metrics", "conversations", time.Now())

	var m system.ChatMetrics
	since = since.UTC()
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM chat.conversations),
			(SELECT COUNT(*) FROM chat.conversations WHERE created_at >= ?),
			(SELECT COUNT(*) FROM chat.messages),
			(SELECT COUNT(*) FROM chat.messages WHERE created_at >= ?),
			(SELECT COALESCE(SUM(total_tokens), 0) FROM chat.usage_tracking)`), since, since,
	).Scan(&m.TotalConversations, &m.ConversationsToday, &m.TotalMessages, &m.MessagesToday, &m.TotalTokensUsed)
	if err != nil {
		return m, mapError(err, "Failed to read chat metrics")
	}
	return m, nil
}

// RecordMetric appends a sample to archive.system_metrics
func (r *SystemRepository) RecordMetric(ctx context.Context, name string, value float64, data interface{}) error {
	var payload interface{}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(raw)
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO archive.system_metrics (id, metric_name, metric_value, metric_data, recorded_at)
		VALUES (?, ?, ?, ?, ?)`),
		uuid.NewString(), name, value, payload, time.Now().UTC(),
	)
	return mapError(err, "Failed to record system metric")
}
