package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/adminservice/internal/api/dto"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
)

// AlertHandler serves the in-memory system alert log
type AlertHandler struct {
	service   alert.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(service alert.Service, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{service: service, logger: log, validator: val}
}

// List returns alerts newest first
// @Summary List alerts
// @Description Get a paginated list of in-memory alerts with optional filtering
// @Tags Alerts
// @Produce json
// @Param type query string false "Filter by alert type"
// @Param severity query string false "Filter by severity"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 50, max: 100)"
// @Success 200 {object} utils.SuccessResponse "List of alerts"
// @Failure 400 {object} utils.ErrorResponse "Invalid query parameters"
// @Security BearerAuth
// @Router /admin/system/alerts [get]
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := utils.ParsePaginationParams(r, alert.DefaultListLimit)
	if err != nil {
		fail(w, err)
		return
	}

	p := query.NewParams(r)
	filter := alert.Filter{
		Type:     p.OneOf("type", alert.Types...),
		Severity: p.OneOf("severity", alert.Severities...),
		Status:   p.OneOf("status", alert.Statuses...),
	}
	if err := p.Err(); err != nil {
		fail(w, err)
		return
	}

	page, err := h.service.List(r.Context(), filter, params)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Alerts retrieved successfully", page)
}

// Get returns a single alert by ID
// @Summary Get alert by ID
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} utils.SuccessResponse "Alert details"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Security BearerAuth
// @Router /admin/system/alerts/{id} [get]
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Alert retrieved successfully", a)
}

// Acknowledge marks an active alert as acknowledged
// @Summary Acknowledge alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} utils.SuccessResponse "Acknowledged alert"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Failure 409 {object} utils.ErrorResponse "Alert is not active"
// @Security BearerAuth
// @Router /admin/system/alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Acknowledge(r.Context(), chi.URLParam(r, "id"), adminID(r))
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Alert acknowledged successfully", a)
}

// Resolve marks an alert as resolved
// @Summary Resolve alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.ResolveAlertRequest false "Resolution note"
// @Success 200 {object} utils.SuccessResponse "Resolved alert"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Failure 409 {object} utils.ErrorResponse "Alert already resolved"
// @Security BearerAuth
// @Router /admin/system/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveAlertRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		fail(w, err)
		return
	}

	a, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"), adminID(r), req.Resolution)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Alert resolved successfully", a)
}

// Stats returns alert counts by status, severity and type
// @Summary Alert statistics
// @Tags Alerts
// @Produce json
// @Success 200 {object} utils.SuccessResponse "Alert statistics"
// @Security BearerAuth
// @Router /admin/system/alerts/stats [get]
func (h *AlertHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Alert statistics retrieved successfully", stats)
}

// CreateTest raises a synthetic alert. Only routed outside production.
func (h *AlertHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var req dto.TestAlertRequest
	if err := decodeBody(w, r, h.validator, &req); err != nil {
		fail(w, err)
		return
	}

	in := alert.NewAlert{
		Type:     req.Type,
		Severity: req.Severity,
		Title:    req.Title,
		Message:  req.Message,
		Data:     map[string]interface{}{"test": true},
	}
	if in.Type == "" {
		in.Type = alert.TypeSystem
	}
	if in.Severity == "" {
		in.Severity = alert.SeverityInfo
	}
	if in.Title == "" {
		in.Title = "Test Alert"
	}
	if in.Message == "" {
		in.Message = "This is a test alert"
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": adminID(r),
		"type":     in.Type,
		"severity": in.Severity,
	}).Info("Creating test alert")

	a, err := h.service.Create(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Test alert created successfully", a)
}
