package postgres

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

// sqlState extracts the SQLSTATE from either Postgres driver's error type
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

// mapError classifies a driver error into an application error. Errors
// that are already classified pass through unchanged.
func mapError(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}

	if code, ok := sqlState(err); ok {
		switch {
		case code == pgerrcode.UniqueViolation:
			return errors.Wrap(err, errors.ErrCodeConflict, "Record already exists", http.StatusConflict)
		case code == pgerrcode.ForeignKeyViolation:
			return errors.Wrap(err, errors.ErrCodeConflict, "Record is referenced by other records", http.StatusConflict)
		case code == pgerrcode.CheckViolation, code == pgerrcode.NotNullViolation,
			code == pgerrcode.InvalidTextRepresentation, code == pgerrcode.StringDataRightTruncationDataException:
			return errors.Wrap(err, errors.ErrCodeValidation, "Invalid value", http.StatusBadRequest)
		case pgerrcode.IsConnectionException(code),
			pgerrcode.IsOperatorIntervention(code),
			pgerrcode.IsInsufficientResources(code):
			return errors.ServiceUnavailable("Database is temporarily unavailable", err)
		}
		return errors.DatabaseError(message, err)
	}

	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ServiceUnavailable("Database query timed out", err)
	case stderrors.Is(err, driver.ErrBadConn), stderrors.As(err, &netErr):
		return errors.ServiceUnavailable("Database is temporarily unavailable", err)
	}
	return errors.DatabaseError(message, err)
}
