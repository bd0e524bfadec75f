package alert

import "context"

// Store owns the alert log. Implementations must be safe for concurrent
// use; Acknowledge and Resolve are read-modify-write on one alert.
type Store interface {
	// Insert adds a at the head of the log, evicting the oldest alert
	// when the log is full.
	Insert(ctx context.Context, a *Alert) error

	// Get returns a copy of the alert or NOT_FOUND.
	Get(ctx context.Context, id string) (*Alert, error)

	// List returns matching alerts newest first, with the total match count.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int, error)

	// Acknowledge moves an active alert to acknowledged.
	Acknowledge(ctx context.Context, id, actorID string) (*Alert, error)

	// Resolve moves an alert to resolved.
	Resolve(ctx context.Context, id, actorID, resolution string) (*Alert, error)

	// Stats scans the log.
	Stats(ctx context.Context) (Stats, error)

	// Len returns the number of alerts held.
	Len() int
}

// AuditWriter persists a long-term record of alert creation.
type AuditWriter interface {
	RecordAlert(ctx context.Context, a *Alert) error
}

// Publisher fans alert events out to connected clients.
type Publisher interface {
	PublishAlert(event string, a *Alert)
}

// Notifier delivers out-of-band notifications for critical alerts.
type Notifier interface {
	Notify(ctx context.Context, a *Alert) error
}

// Event names pushed to real-time clients.
const (
	EventNew    = "alert:new"
	EventUpdate = "alert:update"
)
