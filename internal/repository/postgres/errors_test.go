package postgres

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"pgx unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, errors.ErrCodeConflict, http.StatusConflict},
		{"pq foreign key", &pq.Error{Code: pgerrcode.ForeignKeyViolation}, errors.ErrCodeConflict, http.StatusConflict},
		{"invalid uuid", fmt.Errorf("scan: %w", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}), errors.ErrCodeValidation, http.StatusBadRequest},
		{"connection lost", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"admin shutdown", &pq.Error{Code: pgerrcode.AdminShutdown}, errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"other sqlstate", &pgconn.PgError{Code: pgerrcode.DivisionByZero}, errors.ErrCodeDatabase, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"bad conn", driver.ErrBadConn, errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"plain", stderrors.New("boom"), errors.ErrCodeDatabase, http.StatusInternalServerError},
		{"already classified", errors.NotFound("User"), errors.ErrCodeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := errors.As(mapError(tt.err, "Failed"))
			if !ok {
				t.Fatalf("mapError() did not return an AppError")
			}
			if appErr.Code != tt.wantCode || appErr.StatusCode != tt.wantStatus {
				t.Errorf("mapError() = %s/%d, want %s/%d", appErr.Code, appErr.StatusCode, tt.wantCode, tt.wantStatus)
			}
		})
	}

	if mapError(nil, "Failed") != nil {
		t.Error("mapError(nil) should be nil")
	}
}
