package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pratik-mahalle/adminservice/internal/api/middleware"
	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
	"github.com/pratik-mahalle/adminservice/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and validates it. Unknown fields
// are ignored. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, val *validator.Validator, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return errors.BadRequest("Invalid request body")
	}
	if errs := val.Validate(dst); len(errs) > 0 {
		return errors.ValidationError("Invalid request body", errs)
	}
	return nil
}

// uuidParam returns the named path parameter if it is a UUID.
func uuidParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if _, err := uuid.Parse(v); err != nil {
		return "", errors.ValidationError("Invalid request parameters", map[string]string{
			name: "must be a valid UUID",
		})
	}
	return v, nil
}

// intParam returns the named path parameter as a positive integer.
func intParam(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n < 1 {
		return 0, errors.ValidationError("Invalid request parameters", map[string]string{
			name: "must be a positive integer",
		})
	}
	return n, nil
}

// actorFrom identifies the admin behind the request for audit records.
func actorFrom(r *http.Request) user.Actor {
	actor := user.Actor{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if admin, ok := middleware.GetAdmin(r); ok {
		actor.AdminID = admin.ID
	}
	return actor
}

// adminID returns the authenticated admin id or ""
func adminID(r *http.Request) string {
	if admin, ok := middleware.GetAdmin(r); ok {
		return admin.ID
	}
	return ""
}

func ok(w http.ResponseWriter, message string, data interface{}) {
	_ = utils.WriteSuccessWithMessage(w, http.StatusOK, message, data)
}

func fail(w http.ResponseWriter, err error) {
	_ = utils.WriteErr(w, err)
}
