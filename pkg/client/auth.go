package client

import (
	"context"
	"net/http"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	User  Admin  `json:"user"`
	Token string `json:"token"`
}

// Login authenticates an administrator with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{
		Email:    email,
		Password: password,
	}

	var resp LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/admin/auth/login", req, &resp); err != nil {
		return nil, err
	}

	// Automatically set the token for future requests
	if resp.Token != "" {
		c.SetToken(resp.Token)
	}

	return &resp, nil
}

// Verify returns the administrator behind the current token
func (c *Client) Verify(ctx context.Context) (*Admin, error) {
	var admin Admin
	if err := c.doRequest(ctx, http.MethodGet, "/admin/auth/verify", nil, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// Logout drops the server side token cache entry and clears the token
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/admin/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}
