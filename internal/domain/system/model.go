// Package system describes service health and platform-wide metrics.
package system

import (
	"context"
	"time"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Schemas pinged by the health check
const (
	SchemaAuth    = "auth"
	SchemaArchive = "archive"
	SchemaChat    = "chat"
)

// Schemas lists every schema the service reads
var Schemas = []string{SchemaAuth, SchemaArchive, SchemaChat}

// Health is the full health report
type Health struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Uptime    float64                  `json:"uptime"`
	Database  map[string]*SchemaHealth `json:"database"`
	Cache     CacheHealth              `json:"cache"`
	Resources *Resources               `json:"resources"`
	Version   string                   `json:"version"`
}

// SchemaHealth is the result of pinging one schema
type SchemaHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CacheHealth reports the response cache state
type CacheHealth struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
}

// Evaluate derives the overall status. auth and archive are required;
// chat and the cache only degrade the service.
func (h *Health) Evaluate() {
	h.Status = StatusHealthy
	for _, name := range []string{SchemaAuth, SchemaArchive} {
		if s := h.Database[name]; s == nil || s.Status != StatusHealthy {
			h.Status = StatusUnhealthy
			return
		}
	}
	if s := h.Database[SchemaChat]; s == nil || s.Status != StatusHealthy || h.Cache.Status != StatusHealthy {
		h.Status = StatusDegraded
	}
}

// Resources is a snapshot of host and process usage
type Resources struct {
	CPU     CPU     `json:"cpu"`
	Memory  Memory  `json:"memory"`
	Process Process `json:"process"`
}

// CPU describes the host processors
type CPU struct {
	Cores       int       `json:"cores"`
	Model       string    `json:"model"`
	LoadAverage []float64 `json:"loadAverage"`
}

// Memory is host memory, formatted for display
type Memory struct {
	Total        string  `json:"total"`
	Used         string  `json:"used"`
	Free         string  `json:"free"`
	UsagePercent float64 `json:"usagePercent"`
}

// Process describes this process
type Process struct {
	Memory     string  `json:"memory"`
	Goroutines int     `json:"goroutines"`
	PID        int     `json:"pid"`
	Uptime     float64 `json:"uptime"`
}

// Metrics is the platform-wide activity report
type Metrics struct {
	Timestamp time.Time   `json:"timestamp"`
	Jobs      JobMetrics  `json:"jobs"`
	Users     UserMetrics `json:"users"`
	Chat      ChatMetrics `json:"chat"`
	System    *Resources  `json:"system"`
}

// JobMetrics covers jobs created in the last 24 hours
type JobMetrics struct {
	TotalJobs         int64    `json:"total_jobs"`
	CompletedJobs     int64    `json:"completed_jobs"`
	FailedJobs        int64    `json:"failed_jobs"`
	ProcessingJobs    int64    `json:"processing_jobs"`
	QueuedJobs        int64    `json:"queued_jobs"`
	AvgProcessingTime *float64 `json:"avg_processing_time"`
}

// UserMetrics covers all accounts
type UserMetrics struct {
	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	NewUsersToday int64 `json:"new_users_today"`
	ActiveToday   int64 `json:"active_today"`
	TotalTokens   int64 `json:"total_tokens"`
}

// ChatMetrics covers all conversations
type ChatMetrics struct {
	TotalConversations int64 `json:"total_conversations"`
	ConversationsToday int64 `json:"conversations_today"`
	TotalMessages      int64 `json:"total_messages"`
	MessagesToday      int64 `json:"messages_today"`
	TotalTokensUsed    int64 `json:"total_tokens_used"`
}

// Repository reads aggregates across schemas
type Repository interface {
	Ping(ctx context.Context, schema string) error
	JobMetrics(ctx context.Context, since time.Time) (JobMetrics, error)
	UserMetrics(ctx context.Context, since time.Time) (UserMetrics, error)
	ChatMetrics(ctx context.Context, since time.Time) (ChatMetrics, error)
	RecordMetric(ctx context.Context, name string, value float64, data interface{}) error
}

// Service defines the system operations
type Service interface {
	Health(ctx context.Context) (*Health, error)
	Metrics(ctx context.Context) (*Metrics, error)
	Database(ctx context.Context) (map[string]*SchemaHealth, error)
	Resources(ctx context.Context) (*Resources, error)
	Ready(ctx context.Context) bool
}
