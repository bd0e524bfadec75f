package job

import (
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// Job is an assessment analysis job from archive.analysis_jobs
type Job struct {
	ID                  string        `json:"id"`
	JobID               string        `json:"job_id"`
	UserID              string        `json:"user_id"`
	Status              Status        `json:"status"`
	ResultID            *string       `json:"result_id"`
	ErrorMessage        *string       `json:"error_message"`
	CompletedAt         *time.Time    `json:"completed_at"`
	AssessmentName      *string       `json:"assessment_name"`
	Priority            int           `json:"priority"`
	RetryCount          int           `json:"retry_count"`
	MaxRetries          int           `json:"max_retries"`
	ProcessingStartedAt *time.Time    `json:"processing_started_at"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	User                *user.Summary `json:"user"`
}

// Detail is a job with its processing time
type Detail struct {
	*Job
	ProcessingTimeSeconds *int64 `json:"processingTimeSeconds"`
}

// NewDetail computes the processing time when both timestamps are known
func NewDetail(j *Job) *Detail {
	d := &Detail{Job: j}
	if j.ProcessingStartedAt != nil && j.CompletedAt != nil {
		secs := int64(j.CompletedAt.Sub(*j.ProcessingStartedAt).Round(time.Second) / time.Second)
		d.ProcessingTimeSeconds = &secs
	}
	return d
}

// Result is an analysis result from archive.analysis_results
type Result struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	TestData     json.RawMessage `json:"test_data"`
	TestResult   json.RawMessage `json:"test_result"`
	RawResponses json.RawMessage `json:"raw_responses"`
	IsPublic     bool            `json:"is_public"`
	ChatbotID    *string         `json:"chatbot_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ResultView pairs a result with the job that produced it
type ResultView struct {
	Job    ResultJob `json:"job"`
	Result *Result   `json:"result"`
}

// ResultJob is the job shape returned with a result
type ResultJob struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	Status         Status     `json:"status"`
	AssessmentName *string    `json:"assessment_name"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// Status represents the state of a job
type Status string

const (
	StatusQueued     Status = "queue"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every job status
var Statuses = []string{
	string(StatusQueued), string(StatusProcessing), string(StatusCompleted),
	string(StatusFailed), string(StatusCancelled),
}

// IsTerminal checks if the status is completed, failed or cancelled
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Filter contains job filtering options. UserEmail and UserUsername are
// matched against auth.users and folded into a user_id set.
type Filter struct {
	Status         string
	UserID         string
	UserEmail      string
	UserUsername   string
	AssessmentName string
	DateFrom       *time.Time
	DateTo         *time.Time
}

// Apply adds the local predicates to w
func (f Filter) Apply(w *query.Where) {
	w.Eq("status", f.Status)
	w.Eq("user_id", f.UserID)
	w.Contains(f.AssessmentName, "assessment_name")
	w.Range("created_at", f.DateFrom, f.DateTo)
}

// UserFilters returns the cross-collection user filters
func (f Filter) UserFilters() []query.ForeignFilter {
	return []query.ForeignFilter{
		{Field: "user_email", Value: f.UserEmail},
		{Field: "user_username", Value: f.UserUsername},
	}
}

// ListSpec describes the sortable columns of the job list
var ListSpec = query.Spec{
	DefaultLimit: 50,
	DefaultSort:  "created_at",
	SortFields: map[string]string{
		"created_at":   "created_at",
		"updated_at":   "updated_at",
		"completed_at": "completed_at",
		"status":       "status",
		"priority":     "priority",
	},
}

// UserJobsSpec is the list spec for a single user's jobs
var UserJobsSpec = query.Spec{
	DefaultLimit: 20,
	DefaultSort:  "created_at",
	SortFields:   map[string]string{"created_at": "created_at"},
}

// Stats is the job dashboard
type Stats struct {
	Overview            Overview                  `json:"overview"`
	Today               Today                     `json:"today"`
	Performance         Performance               `json:"performance"`
	DailyMetrics        []DailyMetric             `json:"dailyMetrics"`
	ResourceUtilization map[string]ResourceMetric `json:"resourceUtilization"`
}

// Overview counts jobs by status
type Overview struct {
	Total       int64   `json:"total"`
	Queued      int64   `json:"queued"`
	Processing  int64   `json:"processing"`
	Completed   int64   `json:"completed"`
	Failed      int64   `json:"failed"`
	Cancelled   int64   `json:"cancelled"`
	SuccessRate float64 `json:"successRate"`
}

// Today counts jobs since local midnight
type Today struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Performance summarises processing time of recent completed jobs
type Performance struct {
	AvgProcessingTimeSeconds int64   `json:"avgProcessingTimeSeconds"`
	AvgProcessingTimeMinutes float64 `json:"avgProcessingTimeMinutes"`
}

// DailyMetric is one day of the job breakdown
type DailyMetric struct {
	Date      string `json:"date"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
}

// ResourceMetric is the latest value of a system metric
type ResourceMetric struct {
	Value      float64         `json:"value"`
	Data       json.RawMessage `json:"data"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ProcessingSpan is a completed job's processing window
type ProcessingSpan struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// ResourceMetricNames are the system metrics shown on the dashboard
var ResourceMetricNames = []string{"cpu_usage", "memory_usage", "queue_size"}

// RecentCompletedSample is the number of completed jobs averaged for
// processing time
const RecentCompletedSample = 100

// DailyWindow is the number of days in the daily breakdown
const DailyWindow = 7
