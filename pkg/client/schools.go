package client

import (
	"context"
	"net/http"
	"strconv"
)

// SchoolService handles school-related API calls
type SchoolService struct {
	client *Client
}

// SchoolInput holds the writable fields of a school
type SchoolInput struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	City     *string `json:"city,omitempty"`
	Province *string `json:"province,omitempty"`
}

// SchoolList is one page of schools
type SchoolList struct {
	Schools    []School   `json:"schools"`
	Pagination Pagination `json:"pagination"`
}

func schoolPath(id int64) string {
	return "/admin/schools/" + strconv.FormatInt(id, 10)
}

// List retrieves a page of schools
func (s *SchoolService) List(ctx context.Context, opts *ListOptions) (*SchoolList, error) {
	var list SchoolList
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/admin/schools", opts.values()), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a school and its user count
func (s *SchoolService) Get(ctx context.Context, id int64) (*SchoolDetail, error) {
	var detail SchoolDetail
	if err := s.client.doRequest(ctx, http.MethodGet, schoolPath(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create creates a school
func (s *SchoolService) Create(ctx context.Context, in SchoolInput) (*School, error) {
	var school School
	if err := s.client.doRequest(ctx, http.MethodPost, "/admin/schools", in, &school); err != nil {
		return nil, err
	}
	return &school, nil
}

// Update changes the given fields of a school
func (s *SchoolService) Update(ctx context.Context, id int64, in SchoolInput) (*School, error) {
	var school School
	if err := s.client.doRequest(ctx, http.MethodPut, schoolPath(id), in, &school); err != nil {
		return nil, err
	}
	return &school, nil
}

// Delete removes a school that no user references
func (s *SchoolService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, schoolPath(id), nil, nil)
}
