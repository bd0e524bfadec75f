package alert

import "time"

// Alert is a transient operational notice. Alerts live only in memory
// and are evicted oldest-first once the store is full.
type Alert struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Severity       string                 `json:"severity"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"createdAt"`
	AcknowledgedAt *time.Time             `json:"acknowledgedAt"`
	AcknowledgedBy string                 `json:"acknowledgedBy,omitempty"`
	ResolvedAt     *time.Time             `json:"resolvedAt"`
	ResolvedBy     string                 `json:"resolvedBy,omitempty"`
	Resolution     string                 `json:"resolution,omitempty"`
}

// Alert types
const (
	TypeSystem      = "system"
	TypeJob         = "job"
	TypeUser        = "user"
	TypeChat        = "chat"
	TypePerformance = "performance"
	TypeSecurity    = "security"
)

// Alert severity levels, least to most severe
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Alert status
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

var (
	Types      = []string{TypeSystem, TypeJob, TypeUser, TypeChat, TypePerformance, TypeSecurity}
	Severities = []string{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	Statuses   = []string{StatusActive, StatusAcknowledged, StatusResolved}
)

// DefaultCapacity is the number of alerts kept in memory.
const DefaultCapacity = 1000

// DefaultListLimit is the page size when none is requested.
const DefaultListLimit = 50

// NewAlert carries the caller-supplied fields of a new alert.
type NewAlert struct {
	Type     string                 `json:"type" validate:"omitempty,alert_type"`
	Severity string                 `json:"severity" validate:"omitempty,alert_severity"`
	Title    string                 `json:"title" validate:"omitempty,max=200"`
	Message  string                 `json:"message" validate:"omitempty,max=1000"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Filter selects alerts by exact match; empty fields match everything.
type Filter struct {
	Type     string
	Severity string
	Status   string
}

// Matches reports whether a satisfies every set field of f.
func (f Filter) Matches(a *Alert) bool {
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// Stats is a snapshot of the store. Active+Acknowledged+Resolved == Total.
type Stats struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Acknowledged int            `json:"acknowledged"`
	Resolved     int            `json:"resolved"`
	BySeverity   map[string]int `json:"bySeverity"`
	ByType       map[string]int `json:"byType"`
}

// NewStats returns zeroed counters with every known key present.
func NewStats() Stats {
	s := Stats{
		BySeverity: make(map[string]int, len(Severities)),
		ByType:     make(map[string]int, len(Types)),
	}
	for _, sev := range Severities {
		s.BySeverity[sev] = 0
	}
	for _, typ := range Types {
		s.ByType[typ] = 0
	}
	return s
}

// Add counts one alert.
func (s *Stats) Add(a *Alert) {
	s.Total++
	switch a.Status {
	case StatusActive:
		s.Active++
	case StatusAcknowledged:
		s.Acknowledged++
	case StatusResolved:
		s.Resolved++
	}
	s.BySeverity[a.Severity]++
	s.ByType[a.Type]++
}

// CanAcknowledge reports whether the alert may move to acknowledged.
func (a *Alert) CanAcknowledge() bool {
	return a.Status == StatusActive
}

// CanResolve reports whether the alert may move to resolved.
func (a *Alert) CanResolve() bool {
	return a.Status == StatusActive || a.Status == StatusAcknowledged
}

// Clone returns a copy that does not share timestamps or data with a.
func (a *Alert) Clone() *Alert {
	c := *a
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	if a.Data != nil {
		c.Data = make(map[string]interface{}, len(a.Data))
		for k, v := range a.Data {
			c.Data[k] = v
		}
	}
	return &c
}
