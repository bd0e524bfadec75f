package activity

import (
	"context"
	"github.com/goccy/go-json"
	"time"
)

// Log is a row of archive.user_activity_logs.
type Log struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"user_id"`
	AdminID      *string         `json:"admin_id"`
	ActivityType string          `json:"activity_type"`
	ActivityData json.RawMessage `json:"activity_data"`
	IPAddress    *string         `json:"ip_address"`
	UserAgent    *string         `json:"user_agent"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SystemActorID is the admin id recorded for entries the service writes
// on its own behalf.
const SystemActorID = "00000000-0000-0000-0000-000000000000"

// Repository stores and reads activity log entries.
type Repository interface {
	Record(ctx context.Context, entry *Log) error
	ListForUser(ctx context.Context, userID string, types []string, limit int) ([]*Log, error)
}

// New builds an entry with activity data marshalled from data.
func New(userID, adminID *string, activityType string, data interface{}) (*Log, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Log{
		UserID:       userID,
		AdminID:      adminID,
		ActivityType: activityType,
		ActivityData: raw,
	}, nil
}
