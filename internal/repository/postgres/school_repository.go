package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/school"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

const schoolColumns = "id, name, address, city, province, created_at"

// SchoolRepository implements school.Repository over public.schools
type SchoolRepository struct {
	db *DB
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

var _ school.Repository = (*SchoolRepository)(nil)

func scanSchool(row rowScanner) (*school.School, error) {
	var s school.School
	var address, city, province sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &address, &city, &province, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Address = stringPtr(address)
	s.City = stringPtr(city)
	s.Province = stringPtr(province)
	return &s, nil
}

// List returns one page of schools
func (r *SchoolRepository) List(ctx context.Context, filter school.Filter, opts query.Options) ([]*school.School, int64, error) {
	defer observe("list", "schools", time.Now())

	w := query.NewWhere(r.db.Dialect())
	filter.Apply(w)
	plan := school.ListSpec.Plan(w, opts, "id")

	schools, total, err := query.Run(ctx, r.db, plan, schoolColumns, "public.schools", func(rows *sql.Rows) (*school.School, error) {
		return scanSchool(rows)
	})
	if err != nil {
		return nil, 0, mapError(err, "Failed to list schools")
	}
	return schools, total, nil
}

// GetByID retrieves a school
func (r *SchoolRepository) GetByID(ctx context.Context, id int64) (*school.School, error) {
	stmt := r.db.Rebind("SELECT " + schoolColumns + " FROM public.schools WHERE id = ?")
	s, err := scanSchool(r.db.QueryRowContext(ctx, stmt, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("School")
	}
	if err != nil {
		return nil, mapError(err, "Failed to get school")
	}
	return s, nil
}

// Create inserts a school and returns the stored row
func (r *SchoolRepository) Create(ctx context.Context, in school.Input) (*school.School, error) {
	defer observe("insert", "schools", time.Now())

	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO public.schools (name, address, city, province, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`),
		optString(in.Name), optString(in.Address), optString(in.City), optString(in.Province), time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return nil, mapError(err, "Failed to create school")
	}
	return r.GetByID(ctx, id)
}

// Update changes the supplied fields and returns the stored row
func (r *SchoolRepository) Update(ctx context.Context, id int64, in school.Input) (*school.School, error) {
	defer observe("update", "schools", time.Now())

	var sets []string
	var args []interface{}
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"name", in.Name},
		{"address", in.Address},
		{"city", in.City},
		{"province", in.Province},
	} {
		if f.value != nil {
			sets = append(sets, f.column+" = ?")
			args = append(args, *f.value)
		}
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)

	result, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE public.schools SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return nil, mapError(err, "Failed to update school")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, errors.NotFound("School")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a school
func (r *SchoolRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM public.schools WHERE id = ?"), id)
	if err != nil {
		return mapError(err, "Failed to delete school")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("School")
	}
	return nil
}

// UserCount counts profiles that reference the school
func (r *SchoolRepository) UserCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM auth.user_profiles WHERE school_id = ?"), id).Scan(&n)
	if err != nil {
		return 0, mapError(err, "Failed to count school users")
	}
	return n, nil
}
