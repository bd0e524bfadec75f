package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/adminservice/internal/domain/job"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// JobHandler handles analysis job monitoring requests
type JobHandler struct {
	service job.Service
	logger  *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(service job.Service, log *logger.Logger) *JobHandler {
	return &JobHandler{service: service, logger: log}
}

// Stats returns the job dashboard
// @Summary Job statistics
// @Description Overview, today, performance, daily breakdown and resource samples
// @Tags Jobs
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/jobs/stats [get]
func (h *JobHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Job statistics retrieved successfully", stats)
}

// List returns jobs with their owners
// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Param status query string false "queue, processing, completed, failed or cancelled"
// @Param user_id query string false "Owner ID"
// @Param user_email query string false "Owner email (substring)"
// @Param user_username query string false "Owner username (substring)"
// @Param assessment_name query string false "Assessment name (substring)"
// @Param date_from query string false "Created on or after"
// @Param date_to query string false "Created on or before"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (default: 50)"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/jobs [get]
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	p := query.NewParams(r)
	filter := job.Filter{
		Status:         p.OneOf("status", job.Statuses...),
		UserID:         p.UUID("user_id"),
		UserEmail:      p.String("user_email"),
		UserUsername:   p.String("user_username"),
		AssessmentName: p.String("assessment_name"),
		DateFrom:       p.From("date_from"),
		DateTo:         p.To("date_to"),
	}
	if err := p.Err(); err != nil {
		fail(w, err)
		return
	}

	page, err := h.service.List(r.Context(), filter, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Jobs retrieved successfully", page)
}

// Get returns a job with its owner
// @Summary Get job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/jobs/{id} [get]
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Job details retrieved successfully", detail)
}

// Results returns a job with its analysis result. The path segment is
// the external job_id, not the row id.
func (h *JobHandler) Results(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		fail(w, errors.BadRequest("Job ID is required"))
		return
	}
	view, err := h.service.Results(r.Context(), jobID)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"job_id":   jobID,
			"admin_id": adminID(r),
			"code":     errors.CodeOf(err),
		}).Warn("Error fetching job results")
		fail(w, err)
		return
	}
	ok(w, "Job results retrieved successfully", view)
}
