package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/pratik-mahalle/adminservice/docs"
	"github.com/pratik-mahalle/adminservice/internal/api/handlers"
	"github.com/pratik-mahalle/adminservice/internal/api/middleware"
	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

const (
	adminLimitMessage = "Too many requests from this IP, please try again later"
	authLimitMessage  = "Too many authentication attempts, please try again later"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	School       *handlers.SchoolHandler
	Job          *handlers.JobHandler
	Conversation *handlers.ConversationHandler
	System       *handlers.SystemHandler
	Alert        *handlers.AlertHandler
	WebSocket    *handlers.WebSocketHandler
}

func New(cfg *config.Config, log *logger.Logger, verifier auth.Verifier, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL, cfg.Server.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, errors.NotFoundf("Route %s %s not found", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorMessage(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Method "+r.Method+" is not allowed for "+r.URL.Path)
	})

	// Public routes
	r.Get("/", h.Health.Root)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", h.Health.Live)
	r.Get("/readyz", h.Health.Ready)
	r.Route("/health", healthRoutes(h.Health))

	// The socket authenticates its own handshake
	r.Get("/ws", h.WebSocket.HandleConnection)

	r.Route("/admin", func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(middleware.RateLimit(
				middleware.NewRateLimiter(cfg.RateLimit.AdminRequests, cfg.RateLimit.Window),
				adminLimitMessage, log))
		}

		r.Route("/health", healthRoutes(h.Health))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.RateLimit.Enabled {
					r.Use(middleware.RateLimit(
						middleware.NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window),
						authLimitMessage, log))
				}
				r.Post("/login", h.Auth.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(verifier))
				r.Post("/logout", h.Auth.Logout)
				r.Get("/verify", h.Auth.Verify)
			})
		})

		// Everything below requires an admin token
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(verifier))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.User.List)
				r.Get("/{id}", h.User.Get)
				r.Put("/{id}", h.User.Update)
				r.Get("/{id}/tokens", h.User.Tokens)
				r.Put("/{id}/tokens", h.User.AdjustTokens)
				r.Get("/{id}/jobs", h.User.Jobs)
				r.Get("/{id}/conversations", h.User.Conversations)
			})

			r.Route("/schools", func(r chi.Router) {
				r.Get("/", h.School.List)
				r.Post("/", h.School.Create)
				r.Get("/{id}", h.School.Get)
				r.Put("/{id}", h.School.Update)
				r.Delete("/{id}", h.School.Delete)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/stats", h.Job.Stats)
				r.Get("/", h.Job.List)
				r.Get("/{id}", h.Job.Get)
				r.Get("/{id}/results", h.Job.Results)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", h.Conversation.List)
				r.Get("/{id}", h.Conversation.Get)
				r.Get("/{id}/chats", h.Conversation.Messages)
				r.Get("/{id}/messages", h.Conversation.Messages)
			})

			r.Route("/chatbot", func(r chi.Router) {
				r.Get("/stats", h.Conversation.Stats)
				r.Get("/models", h.Conversation.Models)
			})

			r.Route("/system", func(r chi.Router) {
				r.Get("/health", h.System.Health)
				r.Get("/metrics", h.System.Metrics)
				r.Get("/database", h.System.Database)
				r.Get("/resources", h.System.Resources)

				r.Get("/alerts", h.Alert.List)
				r.Get("/alerts/stats", h.Alert.Stats)
				r.Get("/alerts/{id}", h.Alert.Get)
				r.Post("/alerts/{id}/acknowledge", h.Alert.Acknowledge)
				r.Post("/alerts/{id}/resolve", h.Alert.Resolve)
				if !cfg.Server.IsProduction() {
					r.Post("/alerts/test", h.Alert.CreateTest)
				}
			})
		})
	})

	return r
}

func healthRoutes(h *handlers.HealthHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/detailed", h.Detailed)
		r.Get("/ready", h.Ready)
		r.Get("/live", h.Live)
	}
}
