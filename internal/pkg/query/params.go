package query

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
)

const dateOnly = "2006-01-02"

// Params reads typed filter values from a query string. Keys that are
// never asked for are ignored; malformed values are collected and
// reported together by Err.
type Params struct {
	values  url.Values
	invalid map[string]string
}

// NewParams wraps the request's query string.
func NewParams(r *http.Request) *Params {
	return &Params{values: r.URL.Query()}
}

// ParamsFrom wraps already parsed values.
func ParamsFrom(values url.Values) *Params {
	return &Params{values: values}
}

func (p *Params) fail(key, msg string) {
	if p.invalid == nil {
		p.invalid = make(map[string]string)
	}
	p.invalid[key] = msg
}

// String returns the trimmed value, or "".
func (p *Params) String(key string) string {
	return strings.TrimSpace(p.values.Get(key))
}

// OneOf returns the value if it is one of allowed.
func (p *Params) OneOf(key string, allowed ...string) string {
	v := p.String(key)
	if v == "" {
		return ""
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	p.fail(key, "must be one of "+strings.Join(allowed, ", "))
	return ""
}

// UUID returns the value if it parses as a UUID.
func (p *Params) UUID(key string) string {
	v := p.String(key)
	if v == "" {
		return ""
	}
	if _, err := uuid.Parse(v); err != nil {
		p.fail(key, "must be a valid UUID")
		return ""
	}
	return v
}

// Bool accepts true/false/1/0.
func (p *Params) Bool(key string) *bool {
	v := p.String(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, "must be a boolean")
		return nil
	}
	return &b
}

// Int64 returns the value as an integer.
func (p *Params) Int64(key string) *int64 {
	v := p.String(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, "must be an integer")
		return nil
	}
	return &n
}

// From parses a lower date bound (RFC 3339 or YYYY-MM-DD).
func (p *Params) From(key string) *time.Time {
	return p.date(key, false)
}

// To parses an upper date bound. A bare date covers the whole day.
func (p *Params) To(key string) *time.Time {
	return p.date(key, true)
}

func (p *Params) date(key string, endOfDay bool) *time.Time {
	v := p.String(key)
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		p.fail(key, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

// Err returns a VALIDATION_ERROR listing every malformed key.
func (p *Params) Err() error {
	if len(p.invalid) == 0 {
		return nil
	}
	return errors.ValidationError("Invalid query parameters", p.invalid)
}
