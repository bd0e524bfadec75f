package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// ConversationHandler handles chatbot monitoring requests
type ConversationHandler struct {
	service conversation.Service
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service conversation.Service, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{service: service, logger: log}
}

// Stats returns chatbot usage statistics
// @Summary Chatbot statistics
// @Tags Chatbot
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/chatbot/stats [get]
func (h *ConversationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Chatbot statistics retrieved successfully", stats)
}

// Models returns per-model usage
// @Summary Model usage
// @Tags Chatbot
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/chatbot/models [get]
func (h *ConversationHandler) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.Models(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Models information retrieved successfully", models)
}

// List returns conversations with their owners
// @Summary List conversations
// @Tags Conversations
// @Produce json
// @Param status query string false "Conversation status"
// @Param user_id query string false "Owner ID"
// @Param context_type query string false "Context type"
// @Param search query string false "Match title"
// @Param date_from query string false "Created on or after"
// @Param date_to query string false "Created on or before"
// @Success 200 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /admin/conversations [get]
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseListQuery(r)
	if err != nil {
		fail(w, err)
		return
	}
	p := query.NewParams(r)
	filter := conversation.Filter{
		Status:      p.String("status"),
		UserID:      p.UUID("user_id"),
		ContextType: p.String("context_type"),
		Search:      p.String("search"),
		DateFrom:    p.From("date_from"),
		DateTo:      p.To("date_to"),
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
	ok(w, "Conversations retrieved successfully", page)
}

// Get returns a conversation with token totals
// @Summary Get conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/conversations/{id} [get]
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	ok(w, "Conversation details retrieved successfully", detail)
}

// Messages returns a page of messages oldest first
// @Summary Conversation messages
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (default: 50)"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/conversations/{id}/chats [get]
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
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
	msgs, err := h.service.Messages(r.Context(), id, q)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, "Conversation chats retrieved successfully", msgs)
}
