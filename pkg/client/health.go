package client

import (
	"context"
	"net/http"
)

// SystemService handles system monitoring API calls
type SystemService struct {
	client *Client
}

// Health checks the health of the API
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ping is a simple connectivity test
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// Health retrieves schema and host health
func (s *SystemService) Health(ctx context.Context) (*SystemHealth, error) {
	var health SystemHealth
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/system/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Database pings every schema
func (s *SystemService) Database(ctx context.Context) (map[string]*SchemaHealth, error) {
	var schemas map[string]*SchemaHealth
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/system/database", nil, &schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}
