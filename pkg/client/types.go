package client

import "time"

// Admin is the authenticated administrator
type Admin struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	UserType string `json:"user_type"`
	IsActive bool   `json:"is_active,omitempty"`
}

// User is a platform account
type User struct {
	ID           string     `json:"id"`
	Username     *string    `json:"username"`
	Email        string     `json:"email"`
	UserType     string     `json:"user_type"`
	IsActive     bool       `json:"is_active"`
	TokenBalance int64      `json:"token_balance"`
	LastLogin    *time.Time `json:"last_login"`
	AuthProvider string     `json:"auth_provider"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Profile      *Profile   `json:"profile"`
}

// Profile is the optional profile of a user
type Profile struct {
	FullName *string `json:"full_name"`
	Gender   *string `json:"gender"`
	SchoolID *int64  `json:"school_id"`
}

// UserDetail is a user with activity statistics
type UserDetail struct {
	User       *User `json:"user"`
	Statistics struct {
		Jobs          map[string]int64 `json:"jobs"`
		Conversations int64            `json:"conversations"`
	} `json:"statistics"`
}

// UserSummary is the compact user embedded in jobs and conversations
type UserSummary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// TokenAdjustment is the result of crediting or debiting a balance
type TokenAdjustment struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	OldBalance int64  `json:"oldBalance"`
	NewBalance int64  `json:"newBalance"`
	Amount     int64  `json:"amount"`
}

// School is a school referenced by user profiles
type School struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	Province  *string   `json:"province"`
	CreatedAt time.Time `json:"created_at"`
}

// SchoolDetail is a school with the number of users pointing at it
type SchoolDetail struct {
	School    *School `json:"school"`
	UserCount int64   `json:"userCount"`
}

// Job is an analysis job
type Job struct {
	ID                    string       `json:"id"`
	JobID                 string       `json:"job_id"`
	UserID                string       `json:"user_id"`
	Status                string       `json:"status"`
	ResultID              *string      `json:"result_id"`
	ErrorMessage          *string      `json:"error_message"`
	AssessmentName        *string      `json:"assessment_name"`
	Priority              int          `json:"priority"`
	RetryCount            int          `json:"retry_count"`
	CompletedAt           *time.Time   `json:"completed_at"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
	User                  *UserSummary `json:"user"`
	ProcessingTimeSeconds *int64       `json:"processingTimeSeconds,omitempty"`
}

// Alert is an operational alert
type Alert struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`     // system, job, user, chat, performance, security
	Severity       string                 `json:"severity"` // info, warning, error, critical
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Status         string                 `json:"status"` // active, acknowledged, resolved
	CreatedAt      time.Time              `json:"createdAt"`
	AcknowledgedAt *time.Time             `json:"acknowledgedAt"`
	AcknowledgedBy string                 `json:"acknowledgedBy,omitempty"`
	ResolvedAt     *time.Time             `json:"resolvedAt"`
	ResolvedBy     string                 `json:"resolvedBy,omitempty"`
	Resolution     string                 `json:"resolution,omitempty"`
}

// AlertStats counts stored alerts
type AlertStats struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Acknowledged int            `json:"acknowledged"`
	Resolved     int            `json:"resolved"`
	BySeverity   map[string]int `json:"bySeverity"`
	ByType       map[string]int `json:"byType"`
}

// SchemaHealth is the result of pinging one schema
type SchemaHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth is the admin system health report
type SystemHealth struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Uptime    float64                  `json:"uptime"`
	Database  map[string]*SchemaHealth `json:"database"`
	Version   string                   `json:"version"`
}

// HealthResponse represents the public health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	Service     string    `json:"service,omitempty"`
	Version     string    `json:"version,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page      int    // Page number (1-based)
	Limit     int    // Items per page
	SortBy    string // Sort field
	SortOrder string // asc or desc
	Search    string
}

// Pagination is the block returned with every list
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}
