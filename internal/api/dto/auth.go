package dto

import "github.com/pratik-mahalle/adminservice/internal/auth"

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse is the token and account returned by the auth service
type LoginResponse struct {
	User  auth.LoginUser `json:"user"`
	Token string         `json:"token"`
}

// AdminDTO is the authenticated admin
type AdminDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// NewAdminDTO converts a verified principal
func NewAdminDTO(p *auth.Principal) AdminDTO {
	return AdminDTO{ID: p.ID, Email: p.Email, UserType: p.UserType}
}
