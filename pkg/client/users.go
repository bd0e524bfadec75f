package client

import (
	"context"
	"net/http"
	"net/url"
)

// UserService handles user-related API calls
type UserService struct {
	client *Client
}

// UserListOptions contains options for listing users
type UserListOptions struct {
	ListOptions
	UserType     string
	IsActive     *bool
	AuthProvider string
}

// UserList is one page of users
type UserList struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// UserUpdate holds the writable account and profile fields
type UserUpdate struct {
	Username *string        `json:"username,omitempty"`
	UserType *string        `json:"user_type,omitempty"`
	IsActive *bool          `json:"is_active,omitempty"`
	Profile  *ProfileUpdate `json:"profile,omitempty"`
}

// ProfileUpdate holds the editable profile fields
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	SchoolID *int64  `json:"school_id,omitempty"`
}

// List retrieves a page of users
func (s *UserService) List(ctx context.Context, opts *UserListOptions) (*UserList, error) {
	var q url.Values
	if opts != nil {
		q = opts.values()
		if opts.UserType != "" {
			q.Set("user_type", opts.UserType)
		}
		if opts.IsActive != nil {
			if *opts.IsActive {
				q.Set("is_active", "true")
			} else {
				q.Set("is_active", "false")
			}
		}
		if opts.AuthProvider != "" {
			q.Set("auth_provider", opts.AuthProvider)
		}
	}

	var list UserList
	if err := s.client.doRequest(ctx, http.MethodGet, withQuery("/admin/users", q), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get retrieves a user with activity statistics
func (s *UserService) Get(ctx context.Context, id string) (*UserDetail, error) {
	var detail UserDetail
	if err := s.client.doRequest(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Update changes account or profile fields
func (s *UserService) Update(ctx context.Context, id string, update UserUpdate) (*User, error) {
	var user User
	if err := s.client.doRequest(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdjustTokens credits (positive amount) or debits (negative amount) a balance
func (s *UserService) AdjustTokens(ctx context.Context, id string, amount int64, reason string) (*TokenAdjustment, error) {
	body := map[string]interface{}{"amount": amount}
	if reason != "" {
		body["reason"] = reason
	}

	var adj TokenAdjustment
	if err := s.client.doRequest(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/tokens", body, &adj); err != nil {
		return nil, err
	}
	return &adj, nil
}
