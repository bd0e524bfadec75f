package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/api/dto"
	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
)


// UserHandler handles user management requests
type UserHandler struct {
	users         user.Service
	jobs          job.Service
	conversations conversation.Service
	logger        *logger.Logger
	validator     *validator.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(users user.Service, jobs job.Service, conversations conversation.Service, log *logger.Logger, val *validator.Validator) *UserHandler {
	return &UserHandler{
		users:         users,
		jobs:          jobs,
		conversations: conversations,
		logger:        log,
		validator:     val,
	}
}

// List handles listing users
// @Summary List users
// @Description Paginated user list with school and profile data
// @Tags Users
// @Produce json
// @Param search query string false "Match email or username"
// @Param user_type query string false "user, admin or superadmin"
// @Param is_active query bool false "Filter by active flag"
// @Param auth_provider query string false "Filter by auth provider"
// @Param school_id query int false "Filter by school"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (default: 20)"
// @Param sort_by query string false "created_at, updated_at, email, username, last_login or token_balance"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	p := query.NewParams(r)
	filter := user.Filter{
		Search:       p.String("search"),
		UserType:     p.OneOf("user_type", user.Types...),
		IsActive:     p.Bool("is_active"),
		AuthProvider: p.String("auth_provider"),
		SchoolID:     p.Int64("school_id"),
	}
	if err := p.Err(); err != nil {
		fail(w, err)
		return
	}

	page, err := h.users.List(r.Context(), filter, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Users retrieved successfully", page)
}

// Get handles fetching one user with statistics
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	detail, err := h.users.Detail(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "User details retrieved successfully", detail)
}

// Update handles editing a user and its profile
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body user.Update true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var req user.Update
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		fail(w, err)
		return
	}

	updated, err := h.users.Update(r.Context(), id, req, actorFrom(r))
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "User updated successfully", updated)
}

// Tokens handles the token balance and history of a user
// @Summary Token history
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/users/{id}/tokens [get]
func (h *UserHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	history, err := h.users.Tokens(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Token history retrieved successfully", history)
}

// AdjustTokens handles crediting or debiting a token balance
// @Summary Adjust tokens
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.TokenAdjustRequest true "Signed amount and reason"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Validation error or insufficient balance"
// @Security BearerAuth
// @Router /admin/users/{id}/tokens [put]
func (h *UserHandler) AdjustTokens(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var req dto.TokenAdjustRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		fail(w, err)
		return
	}

	adj, err := h.users.AdjustTokens(r.Context(), id, req.Amount, req.Reason, actorFrom(r))
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Token balance updated successfully", adj)
}

// Jobs lists a user's jobs
// @Summary User jobs
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/users/{id}/jobs [get]
func (h *UserHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	page, err := h.jobs.ListForUser(r.Context(), id, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "User jobs retrieved successfully", page)
}

// Conversations lists a user's conversations
// @Summary User conversations
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/users/{id}/conversations [get]
func (h *UserHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	page, err := h.conversations.ListForUser(r.Context(), id, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "User conversations retrieved successfully", page)
}
