package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

const userColumns = `u.id, u.username, u.email, u.user_type, u.is_active, u.token_balance,
	u.last_login, u.firebase_uid, u.auth_provider, u.provider_data, u.last_firebase_sync,
	u.federation_status, u.created_at, u.updated_at,
	p.user_id, p.full_name, CAST(p.date_of_birth AS TEXT), p.gender, p.school_id, p.created_at, p.updated_at,
	s.id, s.name, s.city, s.province`

const userFrom = `auth.users u
	LEFT JOIN auth.user_profiles p ON p.user_id = u.id
	LEFT JOIN public.schools s ON s.id = p.school_id`

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

var (
	_ user.Repository   = (*UserRepository)(nil)
	_ query.KeyResolver = (*UserRepository)(nil)
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var (
		username, firebaseUID, providerData, federation sql.NullString
		lastLogin, lastSync                             sql.NullTime
		profileUserID, fullName, dob, gender            sql.NullString
		profileSchoolID                                 sql.NullInt64
		profileCreated, profileUpdated                  sql.NullTime
		schoolID                                        sql.NullInt64
		schoolName, schoolCity, schoolProvince          sql.NullString
	)

	err := row.Scan(
		&u.ID, &username, &u.Email, &u.UserType, &u.IsActive, &u.TokenBalance,
		&lastLogin, &firebaseUID, &u.AuthProvider, &providerData, &lastSync,
		&federation, &u.CreatedAt, &u.UpdatedAt,
		&profileUserID, &fullName, &dob, &gender, &profileSchoolID, &profileCreated, &profileUpdated,
		&schoolID, &schoolName, &schoolCity, &schoolProvince,
	)
	if err != nil {
		return nil, err
	}

	u.Username = stringPtr(username)
	u.FirebaseUID = stringPtr(firebaseUID)
	u.ProviderData = rawJSON(providerData)
	u.FederationStatus = stringPtr(federation)
	u.LastLogin = timePtr(lastLogin)
	u.LastFirebaseSync = timePtr(lastSync)

	if profileUserID.Valid {
		u.Profile = &user.Profile{
			UserID:      profileUserID.String,
			FullName:    stringPtr(fullName),
			DateOfBirth: stringPtr(dob),
			Gender:      stringPtr(gender),
			SchoolID:    int64Ptr(profileSchoolID),
			CreatedAt:   profileCreated.Time,
			UpdatedAt:   profileUpdated.Time,
		}
		if schoolID.Valid {
			u.Profile.School = &user.SchoolSummary{
				ID:       schoolID.Int64,
				Name:     schoolName.String,
				City:     stringPtr(schoolCity),
				Province: stringPtr(schoolProvince),
			}
		}
	}

	return &u, nil
}

// List returns one page of users with profile and school
func (r *UserRepository) List(ctx context.Context, filter user.Filter, opts query.Options) ([]*user.User, int64, error) {
	defer observe("list", "users", time.Now())

	w := query.NewWhere(r.db.Dialect())
	filter.Apply(w)
	plan := user.ListSpec.Plan(w, opts, "u.id")

	users, total, err := query.Run(ctx, r.db, plan, userColumns, userFrom, func(rows *sql.Rows) (*user.User, error) {
		return scanUser(rows)
	})
	if err != nil {
		return nil, 0, mapError(err, "Failed to list users")
	}
	return users, total, nil
}

// GetByID retrieves a user with profile and school
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer observe("get", "users", time.Now())

	stmt := r.db.Rebind("SELECT " + userColumns + " FROM " + userFrom + " WHERE u.id = ?")
	u, err := scanUser(r.db.QueryRowContext(ctx, stmt, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, mapError(err, "Failed to get user")
	}
	return u, nil
}

// Update applies account changes
func (r *UserRepository) Update(ctx context.Context, id string, update user.Update) error {
	defer observe("update", "users", time.Now())

	var sets []string
	var args []interface{}
	if update.Username != nil {
		sets, args = append(sets, "username = ?"), append(args, *update.Username)
	}
	if update.IsActive != nil {
		sets, args = append(sets, "is_active = ?"), append(args, *update.IsActive)
	}
	if update.UserType != nil {
		sets, args = append(sets, "user_type = ?"), append(args, *update.UserType)
	}
	if update.FederationStatus != nil {
		sets, args = append(sets, "federation_status = ?"), append(args, *update.FederationStatus)
	}
	if len(sets) == 0 {
		return nil
	}
	sets, args = append(sets, "updated_at = ?"), append(args, time.Now().UTC())
	args = append(args, id)

	stmt := r.db.Rebind("UPDATE auth.users SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	result, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return mapError(err, "Failed to update user")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("User")
	}
	return nil
}

// UpdateProfile applies profile changes. Users without a profile row are
// left without one.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update user.ProfileUpdate) error {
	defer observe("update", "user_profiles", time.Now())

	var sets []string
	var args []interface{}
	if update.FullName != nil {
		sets, args = append(sets, "full_name = ?"), append(args, *update.FullName)
	}
	if update.DateOfBirth != nil {
		sets, args = append(sets, "date_of_birth = ?"), append(args, *update.DateOfBirth)
	}
	if update.Gender != nil {
		sets, args = append(sets, "gender = ?"), append(args, *update.Gender)
	}
	if update.SchoolID != nil {
		sets, args = append(sets, "school_id = ?"), append(args, *update.SchoolID)
	}
	if len(sets) == 0 {
		return nil
	}
	sets, args = append(sets, "updated_at = ?"), append(args, time.Now().UTC())
	args = append(args, id)

	stmt := r.db.Rebind("UPDATE auth.user_profiles SET " + strings.Join(sets, ", ") + " WHERE user_id = ?")
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return mapError(err, "Failed to update user profile")
	}
	return nil
}

// AdjustTokens adds amount to the balance in a single guarded UPDATE so
// concurrent adjustments can never drive it below zero.
func (r *UserRepository) AdjustTokens(ctx context.Context, id string, amount int64) (*user.TokenAdjustment, error) {
	defer observe("adjust_tokens", "users", time.Now())

	var email string
	var current int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT email, token_balance FROM auth.users WHERE id = ?"), id).
		Scan(&email, &current)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, mapError(err, "Failed to read token balance")
	}

	stmt := r.db.Rebind(`UPDATE auth.users
		SET token_balance = token_balance + ?, updated_at = ?
		WHERE id = ? AND token_balance + ? >= 0
		RETURNING token_balance`)

	var balance int64
	err = r.db.QueryRowContext(ctx, stmt, amount, time.Now().UTC(), id, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, errors.InsufficientBalance(current, amount)
	}
	if err != nil {
		return nil, mapError(err, "Failed to update token balance")
	}

	return &user.TokenAdjustment{
		UserID:     id,
		Email:      email,
		OldBalance: balance - amount,
		NewBalance: balance,
		Amount:     amount,
	}, nil
}

// JobCounts counts the user's assessment jobs by status
func (r *UserRepository) JobCounts(ctx context.Context, id string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind("SELECT status, COUNT(*) FROM archive.analysis_jobs WHERE user_id = ? GROUP BY status"), id)
	if err != nil {
		return nil, mapError(err, "Failed to count user jobs")
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError(err, "Failed to count user jobs")
		}
		counts[status] = n
	}
	return counts, mapError(rows.Err(), "Failed to count user jobs")
}

// ConversationCount counts the user's chat conversations
func (r *UserRepository) ConversationCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM chat.conversations WHERE user_id = ?"), id).Scan(&n)
	if err != nil {
		return 0, mapError(err, "Failed to count user conversations")
	}
	return n, nil
}

// RecentJobs returns the user's newest jobs
func (r *UserRepository) RecentJobs(ctx context.Context, id string, limit int) ([]*user.RecentJob, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, job_id, status, assessment_name, created_at, completed_at
		FROM archive.analysis_jobs WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`), id, limit)
	if err != nil {
		return nil, mapError(err, "Failed to get recent jobs")
	}
	defer rows.Close()

	jobs := make([]*user.RecentJob, 0, limit)
	for rows.Next() {
		var j user.RecentJob
		var name sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&j.ID, &j.JobID, &j.Status, &name, &j.CreatedAt, &completed); err != nil {
			return nil, mapError(err, "Failed to get recent jobs")
		}
		j.AssessmentName = stringPtr(name)
		j.CompletedAt = timePtr(completed)
		jobs = append(jobs, &j)
	}
	return jobs, mapError(rows.Err(), "Failed to get recent jobs")
}

// RecentConversations returns the user's newest conversations
func (r *UserRepository) RecentConversations(ctx context.Context, id string, limit int) ([]*user.RecentConversation, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, title, status, context_type, created_at, updated_at
		FROM chat.conversations WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`), id, limit)
	if err != nil {
		return nil, mapError(err, "Failed to get recent conversations")
	}
	defer rows.Close()

	convs := make([]*user.RecentConversation, 0, limit)
	for rows.Next() {
		var c user.RecentConversation
		var title, status, contextType sql.NullString
		if err := rows.Scan(&c.ID, &title, &status, &contextType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapError(err, "Failed to get recent conversations")
		}
		c.Title = stringPtr(title)
		c.Status = status.String
		c.ContextType = stringPtr(contextType)
		convs = append(convs, &c)
	}
	return convs, mapError(rows.Err(), "Failed to get recent conversations")
}

// Summaries returns id, email and username for the given ids. Ids with no
// matching user are absent from the map.
func (r *UserRepository) Summaries(ctx context.Context, ids []string) (map[string]*user.Summary, error) {
	out := make(map[string]*user.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer observe("summaries", "users", time.Now())

	w := query.NewWhere(r.db.Dialect()).In("id", dedupe(ids))
	if w.Empty() {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, "SELECT id, email, username FROM auth.users"+w.SQL(), w.Args()...)
	if err != nil {
		return nil, mapError(err, "Failed to load users")
	}
	defer rows.Close()

	for rows.Next() {
		var s user.Summary
		var username sql.NullString
		if err := rows.Scan(&s.ID, &s.Email, &username); err != nil {
			return nil, mapError(err, "Failed to load users")
		}
		s.Username = stringPtr(username)
		out[s.ID] = &s
	}
	return out, mapError(rows.Err(), "Failed to load users")
}

// userKeyColumns maps foreign filter fields to auth.users columns
var userKeyColumns = map[string]string{
	"user_email":    "email",
	"user_username": "username",
}

// ResolveKeys returns the ids of users whose email or username contains
// any of the filter values.
func (r *UserRepository) ResolveKeys(ctx context.Context, filters []query.ForeignFilter) ([]string, error) {
	defer observe("resolve_keys", "users", time.Now())

	for _, f := range filters {
		if _, ok := userKeyColumns[f.Field]; !ok {
			return nil, errors.BadRequest("Unsupported user filter: " + f.Field)
		}
	}

	w := query.NewWhere(r.db.Dialect())
	w.AnyOf(func(or *query.Where) {
		for _, f := range filters {
			or.Contains(f.Value, userKeyColumns[f.Field])
		}
	})

	rows, err := r.db.QueryContext(ctx, "SELECT id FROM auth.users"+w.SQL(), w.Args()...)
	if err != nil {
		return nil, mapError(err, "Failed to resolve users")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "Failed to resolve users")
		}
		ids = append(ids, id)
	}
	return ids, mapError(rows.Err(), "Failed to resolve users")
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
