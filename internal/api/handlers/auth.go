package handlers

import (
	"context"
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/api/dto"
	"github.com/pratik-mahalle/adminservice/internal/api/middleware"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
)

// Authenticator logs admins in through the auth service
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Forget(token string)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth      Authenticator
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator Authenticator, log *logger.Logger, val *validator.Validator) *AuthHandler {
	return &AuthHandler{
		auth:      authenticator,
		logger:    log,
		validator: val,
	}
}

// Login handles admin login
// @Summary Admin login
// @Description Exchange admin credentials for a token issued by the auth service
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse{data=dto.LoginResponse} "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Failure 403 {object} utils.ErrorResponse "Not an admin"
// @Failure 503 {object} utils.ErrorResponse "Auth service unavailable"
// @Router /admin/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		fail(w, err)
		return
	}

	log := h.logger.WithFields(map[string]interface{}{
		"email": req.Email,
		"ip":    middleware.ClientIP(r),
	})
	log.Info("Admin login attempt")

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.WithError(err).Warn("Admin login failed")
		if _, ok := errors.As(err); !ok {
			err = errors.Unauthorized("Invalid credentials")
		}
		fail(w, err)
		return
	}

	log.With("user_id", result.User.ID).Info("Admin login successful")
	ok(w, "Login successful", dto.LoginResponse{User: result.User, Token: result.Token})
}

// Logout drops the cached verification of the presented token. The
// token itself stays valid at the auth service until it expires.
// @Summary Admin logout
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Forget(middleware.GetToken(r))
	h.logger.WithFields(map[string]interface{}{
		"admin_id": adminID(r),
		"ip":       middleware.ClientIP(r),
	}).Info("Admin logout")
	ok(w, "Logout successful", nil)
}

// Verify echoes the authenticated admin
// @Summary Verify token
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.AdminDTO}
// @Failure 401 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/auth/verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, found := middleware.GetAdmin(r)
	if !found {
		fail(w, errors.Unauthorized("Access token is required"))
		return
	}
	ok(w, "Token is valid", dto.NewAdminDTO(admin))
}
