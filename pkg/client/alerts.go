package client

import (
	"context"
	"net/http"
	"net/url"
)

// AlertService handles alert-related API calls
type AlertService struct {
	client *Client
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	Page     int
	Limit    int
	Type     string // system, job, user, chat, performance, security
	Severity string // info, warning, error, critical
	Status   string // active, acknowledged, resolved
}

// AlertList is one page of alerts, newest first
type AlertList struct {
	Alerts     []Alert    `json:"alerts"`
	Pagination Pagination `json:"pagination"`
}

// TestAlertRequest represents a request to raise a test alert
type TestAlertRequest struct {
	Type     string `json:"type,omitempty"`
	Severity string `json:"severity,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
}

func alertPath(id string) string {
	return "/admin/system/alerts/" + url.PathEscape(id)
}

// List retrieves a page of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*AlertList, error) {
	var q url.Values
	if opts != nil {
		q = (&ListOptions{Page: opts.Page, Limit: opts.Limit}).values()
		if opts.Type != "" {
			q.Set("type", opts.Type)
		}
		if opts.Severity != "" {
			q.Set("severity", opts.Severity)
		}
		if opts.Status != "" {
			q.Set("status", opts.Status)
		}
	}

	var list AlertList
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/admin/system/alerts", q), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a single alert by ID
func (s *AlertService) Get(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodGet, alertPath(id), nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Acknowledge moves an active alert to acknowledged
func (s *AlertService) Acknowledge(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, alertPath(id)+"/acknowledge", nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Resolve resolves an alert with an optional resolution note
func (s *AlertService) Resolve(ctx context.Context, id, resolution string) (*Alert, error) {
	var body interface{}
	if resolution != "" {
		body = map[string]string{"resolution": resolution}
	}

	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, alertPath(id)+"/resolve", body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Stats retrieves alert counts
func (s *AlertService) Stats(ctx context.Context) (*AlertStats, error) {
	var stats AlertStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/system/alerts/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateTest raises a test alert. The route only exists outside production.
func (s *AlertService) CreateTest(ctx context.Context, req TestAlertRequest) (*Alert, error) {
	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, "/admin/system/alerts/test", req, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
