package middleware

import (
	"context"
	"net/http"

	"github.com/pratik-mahalle/adminservice/internal/auth"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// AdminKey is the context key for the verified admin principal
	AdminKey ContextKey = "admin"
	// TokenKey is the context key for the raw bearer token
	TokenKey ContextKey = "token"
)

// AdminAuth returns a middleware that verifies the bearer token with the
// auth service and requires an admin account. Verification outages fail
// closed with 503.
func AdminAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r)
			if token == "" {
				utils.WriteError(w, errors.Unauthorized("Access token is required"))
				return
			}

			admin, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.WriteErr(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, admin)
			ctx = context.WithValue(ctx, TokenKey, token)

			AddLogField(w, "admin_id", admin.ID)
			AddLogField(w, "admin_email", admin.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the verified admin from the request context
func GetAdmin(r *http.Request) (*auth.Principal, bool) {
	admin, ok := r.Context().Value(AdminKey).(*auth.Principal)
	return admin, ok && admin != nil
}

// GetToken extracts the bearer token accepted by AdminAuth
func GetToken(r *http.Request) string {
	token, _ := r.Context().Value(TokenKey).(string)
	return token
}

// WithAdmin returns a copy of ctx carrying admin. Used by tests and by
// handlers mounted outside AdminAuth.
func WithAdmin(ctx context.Context, admin *auth.Principal) context.Context {
	return context.WithValue(ctx, AdminKey, admin)
}
