package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/domain/system"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
)

// SystemHandler serves the admin system dashboard
type SystemHandler struct {
	service system.Service
	logger  *logger.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(service system.Service, log *logger.Logger) *SystemHandler {
	return &SystemHandler{service: service, logger: log}
}

// Health reports schema, cache and host health
// @Summary System health
// @Tags System
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/system/health [get]
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.service.Health(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "System health retrieved successfully", health)
}

// Metrics reports job, user and chat aggregates for the last 24 hours
// @Summary System metrics
// @Tags System
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/system/metrics [get]
func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Metrics(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "System metrics retrieved successfully", metrics)
}

// Database pings every schema
// @Summary Database health
// @Tags System
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/system/database [get]
func (h *SystemHandler) Database(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.service.Database(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Database health retrieved successfully", schemas)
}

// Resources reports CPU, memory and process usage
// @Summary System resources
// @Tags System
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/system/resources [get]
func (h *SystemHandler) Resources(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Resources(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "System resources retrieved successfully", res)
}
