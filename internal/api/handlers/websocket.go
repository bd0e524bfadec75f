package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/pratik-mahalle/adminservice/internal/api/middleware"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/realtime"
)

// WebSocketHandler upgrades dashboard connections and hands them to the hub
type WebSocketHandler struct {
	hub      *realtime.Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWebSocketHandler creates a handler. A nil verifier accepts any
// non-empty token without calling the auth service.
func NewWebSocketHandler(hub *realtime.Hub, verifier auth.Verifier, allowedOrigins []string, log *logger.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		logger:   log.Component("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return origins[u.Scheme+"://"+u.Host]
			},
		},
	}
}

// accessTokenProtocol marks a subprotocol list of the form
// ["access_token", <token>], the only header channel browsers can set.
const accessTokenProtocol = "access_token"

// wsToken reads the handshake token from the token query parameter, the
// Authorization header or the offered subprotocols. protocol is the
// subprotocol to echo back, empty when the token did not come from one.
func wsToken(r *http.Request) (token, protocol string) {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t, ""
	}
	if t := auth.BearerToken(r); t != "" {
		return t, ""
	}
	offered := websocket.Subprotocols(r)
	switch {
	case len(offered) >= 2 && offered[0] == accessTokenProtocol:
		return offered[1], accessTokenProtocol
	case len(offered) == 1 && offered[0] != accessTokenProtocol:
		return offered[0], offered[0]
	}
	return "", ""
}

// HandleConnection authenticates the handshake and serves the client
// until it disconnects.
// @Summary Real-time events
// @Description WebSocket endpoint for alert and job events
// @Tags Realtime
// @Param token query string false "Admin token (or Authorization header, or Sec-WebSocket-Protocol: access_token, <token>)"
// @Success 101 "Switching protocols"
// @Failure 401 {object} utils.ErrorResponse
// @Router /ws [get]
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token, protocol := wsToken(r)
	if token == "" {
		h.logger.With("ip", middleware.ClientIP(r)).Warn("WebSocket connection rejected: no token provided")
		fail(w, errors.Unauthorized("Authentication required"))
		return
	}

	var admin string
	if h.verifier != nil {
		principal, err := h.verifier.Verify(r.Context(), token)
		if err != nil {
			h.logger.WithError(err).With("ip", middleware.ClientIP(r)).Warn("WebSocket connection rejected")
			fail(w, err)
			return
		}
		admin = principal.ID
	}

	var header http.Header
	if protocol != "" {
		header = http.Header{"Sec-Websocket-Protocol": {protocol}}
	}
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	client := realtime.NewClient(h.hub, conn, admin)
	h.logger.WithFields(map[string]interface{}{
		"client_id": client.ID(),
		"admin_id":  admin,
	}).Info("WebSocket client connected")

	client.Serve()

	h.logger.With("client_id", client.ID()).Info("WebSocket client disconnected")
}
