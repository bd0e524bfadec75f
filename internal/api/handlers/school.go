package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/domain/school"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
)

// SchoolHandler handles school CRUD
type SchoolHandler struct {
	service   school.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewSchoolHandler(service school.Service, log *logger.Logger, val *validator.Validator) *SchoolHandler {
	return &SchoolHandler{service: service, logger: log, validator: val}
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	p := query.NewParams(r)
	page, err := h.service.List(r.Context(), school.Filter{Search: p.String("search")}, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Schools retrieved successfully", page)
}

func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "School details retrieved successfully", detail)
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in school.Input
	if err := decodeBody(w, r, h.validator, &in); err != nil {
		fail(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	h.logger.WithFields(map[string]interface{}{
		"school_id": created.ID,
		"admin_id":  adminID(r),
	}).Info("School created")
	_ = utils.WriteSuccessWithMessage(w, http.StatusCreated, "School created successfully", created)
}

func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	var in school.Input
	if err := decodeBody(w, r, h.validator, &in); err != nil {
		fail(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "School updated successfully", updated)
}

func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		fail(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		fail(w, err)
		return
	}
	h.logger.WithFields(map[string]interface{}{
		"school_id": id,
		"admin_id":  adminID(r),
	}).Info("School deleted")
	ok(w, "School deleted successfully", nil)
}
