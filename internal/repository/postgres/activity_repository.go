package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/adminservice/internal/domain/activity"
	"github.com/pratik-mahalle/adminservice/internal/domain/alert"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// ActivityAlertCreated is the activity type of alert audit rows
const ActivityAlertCreated = "alert_created"

// ActivityRepository writes and reads archive.user_activity_logs
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var (
	_ activity.Repository = (*ActivityRepository)(nil)
	_ alert.AuditWriter   = (*ActivityRepository)(nil)
)

// Record inserts an activity entry, assigning its id and timestamp
func (r *ActivityRepository) Record(ctx context.Context, entry *activity.Log) error {
	defer observe("insert", "user_activity_logs", time.Now())

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var ip, agent interface{}
	if entry.IPAddress != nil {
		ip = nullable(*entry.IPAddress)
	}
	if entry.UserAgent != nil {
		agent = nullable(*entry.UserAgent)
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO archive.user_activity_logs
			(id, user_id, admin_id, activity_type, activity_data, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, optString(entry.UserID), optString(entry.AdminID), entry.ActivityType, jsonArg(entry.ActivityData),
		ip, agent, entry.CreatedAt,
	)
	return mapError(err, "Failed to record activity")
}

// ListForUser returns the user's newest entries of the given types
func (r *ActivityRepository) ListForUser(ctx context.Context, userID string, types []string, limit int) ([]*activity.Log, error) {
	defer observe("list", "user_activity_logs", time.Now())

	w := query.NewWhere(r.db.Dialect()).Eq("user_id", userID)
	if len(types) > 0 {
		w.In("activity_type", types)
	}
	stmt := `SELECT id, user_id, admin_id, activity_type, activity_data, ip_address, user_agent, created_at
		FROM archive.user_activity_logs` + w.SQL() + " ORDER BY created_at DESC LIMIT " + w.Bind(limit)

	rows, err := r.db.QueryContext(ctx, stmt, w.Args()...)
	if err != nil {
		return nil, mapError(err, "Failed to list activity")
	}
	defer rows.Close()

	logs := []*activity.Log{}
	for rows.Next() {
		var l activity.Log
		var userIDCol, adminID, data, ip, agent sql.NullString
		if err := rows.Scan(&l.ID, &userIDCol, &adminID, &l.ActivityType, &data, &ip, &agent, &l.CreatedAt); err != nil {
			return nil, mapError(err, "Failed to list activity")
		}
		l.UserID = stringPtr(userIDCol)
		l.AdminID = stringPtr(adminID)
		l.ActivityData = rawJSON(data)
		l.IPAddress = stringPtr(ip)
		l.UserAgent = stringPtr(agent)
		logs = append(logs, &l)
	}
	return logs, mapError(rows.Err(), "Failed to list activity")
}

// RecordAlert writes the audit row for a newly created alert
func (r *ActivityRepository) RecordAlert(ctx context.Context, a *alert.Alert) error {
	admin := activity.SystemActorID
	entry, err := activity.New(nil, &admin, ActivityAlertCreated, a)
	if err != nil {
		return err
	}
	return r.Record(ctx, entry)
}
