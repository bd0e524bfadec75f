package services

import (
	"context"
	"fmt"

	"github.com/pratik-mahalle/adminservice/internal/domain/school"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// SchoolService implements school.Service
type SchoolService struct {
	repo   school.Repository
	logger *logger.Logger
}

// NewSchoolService creates a new school service
func NewSchoolService(repo school.Repository, log *logger.Logger) *SchoolService {
	return &SchoolService{repo: repo, logger: log}
}

// List returns one page of schools
func (s *SchoolService) List(ctx context.Context, filter school.Filter, q query.ListQuery) (*utils.Page[*school.School], error) {
	opts := school.ListSpec.Normalize(q)
	schools, total, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return utils.NewPage("schools", schools, total, opts.PaginationParams), nil
}

// Get returns a school with the number of users attending it
func (s *SchoolService) Get(ctx context.Context, id int64) (*school.Detail, error) {
	sc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.UserCount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &school.Detail{School: sc, UserCount: count}, nil
}

// Create adds a school. Name is required.
func (s *SchoolService) Create(ctx context.Context, in school.Input) (*school.School, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, errors.ValidationError("Validation failed", map[string]string{"name": "name is required"})
	}
	sc, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.With("school_id", sc.ID).Infof("School created: %s", sc.Name)
	return sc, nil
}

// Update changes the supplied fields of a school
func (s *SchoolService) Update(ctx context.Context, id int64, in school.Input) (*school.School, error) {
	if in.Empty() {
		return nil, errors.BadRequest("No fields to update")
	}
	sc, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.logger.With("school_id", id).Info("School updated")
	return sc, nil
}

// Delete removes a school nobody is attached to
func (s *SchoolService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.UserCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.Conflict(fmt.Sprintf("Cannot delete school. %d user(s) are associated with this school.", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.With("school_id", id).Info("School deleted")
	return nil
}

var _ school.Service = (*SchoolService)(nil)
