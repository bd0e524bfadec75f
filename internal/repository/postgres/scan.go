package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/metrics"
)

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func rawJSON(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}

// jsonArg passes JSON as text so both drivers can bind it to json/jsonb
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// observe records the duration of a query started at start
func observe(operation, table string, start time.Time) {
	metrics.RecordDBQuery(operation, table, time.Since(start))
}

func optString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
