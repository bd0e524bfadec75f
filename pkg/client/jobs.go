package client

import (
	"context"
	"net/http"
	"net/url"
)

// JobService handles analysis job API calls
type JobService struct {
	client *Client
}

// JobListOptions contains options for listing jobs
type JobListOptions struct {
	ListOptions
	Status         string
	UserID         string
	UserEmail      string
	AssessmentName string
	DateFrom       string // YYYY-MM-DD or RFC 3339
	DateTo         string
}

// JobList is one page of jobs
type JobList struct {
	Jobs       []Job      `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}

// List retrieves a page of jobs
func (s *JobService) List(ctx context.Context, opts *JobListOptions) (*JobList, error) {
	var q url.Values
	if opts != nil {
		q = opts.values()
		set := func(key, value string) {
			if value != "" {
				q.Set(key, value)
			}
		}
		set("status", opts.Status)
		set("user_id", opts.UserID)
		set("user_email", opts.UserEmail)
		set("assessment_name", opts.AssessmentName)
		set("date_from", opts.DateFrom)
		set("date_to", opts.DateTo)
	}

	var list JobList
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/admin/jobs", q), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a job by its row id
func (s *JobService) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Stats retrieves the job statistics report
func (s *JobService) Stats(ctx context.Context) (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/jobs/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
