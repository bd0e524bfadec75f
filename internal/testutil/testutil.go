package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
)

// NewTestDB creates an in-memory SQLite database with the auth, archive,
// chat and public schemas attached and the development tables created.
func NewTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	db, err := postgres.New(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { CleanupDB(db) })

	if _, err := postgres.Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// CleanupDB closes the test database
func CleanupDB(db *postgres.DB) {
	if db != nil {
		_ = db.Close()
	}
}

var seq atomic.Int64

// Fixture inserts rows into a test database. Every insert fails the test
// on error.
type Fixture struct {
	t  *testing.T
	db *postgres.DB
	// Now is the base timestamp for rows that do not set one
	Now time.Time
}

// NewFixture returns a fixture writing to db
func NewFixture(t *testing.T, db *postgres.DB) *Fixture {
	return &Fixture{t: t, db: db, Now: time.Now().UTC().Truncate(time.Second)}
}

func (f *Fixture) exec(stmt string, args ...interface{}) {
	f.t.Helper()
	for i, a := range args {
		if ts, ok := a.(time.Time); ok {
			args[i] = ts.UTC()
		}
	}
	if _, err := f.db.ExecContext(context.Background(), f.db.Rebind(stmt), args...); err != nil {
		f.t.Fatalf("fixture insert failed: %v\n%s", err, stmt)
	}
}

// UserRow describes a user to insert
type UserRow struct {
	ID           string
	Email        string
	Username     string
	UserType     string
	IsActive     *bool
	TokenBalance int64
	AuthProvider string
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// User inserts a user and returns its id
func (f *Fixture) User(u UserRow) string {
	f.t.Helper()
	n := seq.Add(1)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.com", n)
	}
	if u.UserType == "" {
		u.UserType = "user"
	}
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}
	active := true
	if u.IsActive != nil {
		active = *u.IsActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = f.Now.Add(time.Duration(n) * time.Second)
	}
	var username interface{}
	if u.Username != "" {
		username = u.Username
	}
	var lastLogin interface{}
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC()
	}
	f.exec(`INSERT INTO auth.users (id, username, email, user_type, is_active, token_balance, auth_provider, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, username, u.Email, u.UserType, active, u.TokenBalance, u.AuthProvider, lastLogin, u.CreatedAt, u.CreatedAt)
	return u.ID
}

// Profile inserts a profile for userID, optionally linked to a school
func (f *Fixture) Profile(userID, fullName string, schoolID *int64) {
	f.t.Helper()
	var school interface{}
	if schoolID != nil {
		school = *schoolID
	}
	f.exec(`INSERT INTO auth.user_profiles (user_id, full_name, date_of_birth, school_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, userID, fullName, "2008-04-01", school, f.Now, f.Now)
}

// School inserts a school and returns its id
func (f *Fixture) School(name, city, province string) int64 {
	f.t.Helper()
	var id int64
	err := f.db.QueryRowContext(context.Background(),
		f.db.Rebind("INSERT INTO public.schools (name, city, province, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		name, city, province, f.Now.Add(time.Duration(seq.Add(1))*time.Second)).Scan(&id)
	if err != nil {
		f.t.Fatalf("fixture insert failed: %v", err)
	}
	return id
}

// JobRow describes a job to insert
type JobRow struct {
	ID             string
	JobID          string
	UserID         string
	Status         string
	ResultID       string
	AssessmentName string
	Priority       int
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Job inserts a job and returns its id
func (f *Fixture) Job(j JobRow) string {
	f.t.Helper()
	n := seq.Add(1)
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.JobID == "" {
		j.JobID = fmt.Sprintf("job_%d", n)
	}
	if j.Status == "" {
		j.Status = "queue"
	}
	if j.AssessmentName == "" {
		j.AssessmentName = "AI-Driven Talent Mapping"
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = f.Now.Add(time.Duration(n) * time.Second)
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = j.CreatedAt
	}
	var resultID, started, completed interface{}
	if j.ResultID != "" {
		resultID = j.ResultID
	}
	if j.StartedAt != nil {
		started = j.StartedAt.UTC()
	}
	if j.CompletedAt != nil {
		completed = j.CompletedAt.UTC()
	}
	f.exec(`INSERT INTO archive.analysis_jobs
		(id, job_id, user_id, status, result_id, assessment_name, priority, processing_started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.JobID, j.UserID, j.Status, resultID, j.AssessmentName, j.Priority, started, completed, j.CreatedAt, j.UpdatedAt)
	return j.ID
}

// Result inserts an analysis result and returns its id
func (f *Fixture) Result(userID, testResult string) string {
	f.t.Helper()
	id := uuid.NewString()
	f.exec(`INSERT INTO archive.analysis_results (id, user_id, test_result, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, userID, testResult, false, f.Now, f.Now)
	return id
}

// Metric inserts a system metric sample
func (f *Fixture) Metric(name string, value float64, at time.Time) {
	f.t.Helper()
	f.exec(`INSERT INTO archive.system_metrics (id, metric_name, metric_value, recorded_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), name, value, at.UTC())
}

// Conversation inserts a conversation and returns its id
func (f *Fixture) Conversation(userID, title, status string, createdAt time.Time) string {
	f.t.Helper()
	id := uuid.NewString()
	if createdAt.IsZero() {
		createdAt = f.Now.Add(time.Duration(seq.Add(1)) * time.Second)
	}
	f.exec(`INSERT INTO chat.conversations (id, user_id, title, context_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, id, userID, title, "general", status, createdAt, createdAt)
	return id
}

// Message inserts a message and returns its id
func (f *Fixture) Message(conversationID, sender, content string, createdAt time.Time) string {
	f.t.Helper()
	id := uuid.NewString()
	if createdAt.IsZero() {
		createdAt = f.Now.Add(time.Duration(seq.Add(1)) * time.Second)
	}
	f.exec(`INSERT INTO chat.messages (id, conversation_id, sender_type, content, content_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, conversationID, sender, content, "text", createdAt)
	return id
}

// Usage inserts a usage record for a message
func (f *Fixture) Usage(conversationID, messageID, model string, tokens int64, cost float64, free bool, ms int64) {
	f.t.Helper()
	f.exec(`INSERT INTO chat.usage_tracking
		(id, conversation_id, message_id, model_used, prompt_tokens, completion_tokens, total_tokens, cost_credits, is_free_model, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), conversationID, messageID, model, tokens/2, tokens-tokens/2, tokens, cost, free, ms,
		f.Now.Add(time.Duration(seq.Add(1))*time.Second))
}

// Bool returns a pointer to b
func Bool(b bool) *bool { return &b }

// Time returns a pointer to t
func Time(t time.Time) *time.Time { return &t }
