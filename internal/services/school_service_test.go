package services

import (
	"context"
	"testing"

	"github.com/pratik-mahalle/adminservice/internal/domain/school"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

func newSchoolService(t *testing.T) (*SchoolService, *testutil.Fixture) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewSchoolService(postgres.NewSchoolRepository(db), testLogger()), testutil.NewFixture(t, db)
}

func strPtr(s string) *string { return &s }

func TestSchoolService_CRUD(t *testing.T) {
	svc, _ := newSchoolService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, school.Input{Name: strPtr("SMAN 3 Bandung"), City: strPtr("Bandung"), Province: strPtr("Jawa Barat")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 || created.Name != "SMAN 3 Bandung" || created.City == nil || *created.City != "Bandung" {
		t.Errorf("Create() = %+v", created)
	}

	updated, err := svc.Update(ctx, created.ID, school.Input{Address: strPtr("Jl. Belitung 8")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Address == nil || *updated.Address != "Jl. Belitung 8" || updated.Name != "SMAN 3 Bandung" {
		t.Errorf("Update() = %+v", updated)
	}

	detail, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.UserCount != 0 {
		t.Errorf("UserCount = %d, want 0", detail.UserCount)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want NOT_FOUND", err)
	}
}

func TestSchoolService_Validation(t *testing.T) {
	svc, _ := newSchoolService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, school.Input{City: strPtr("Medan")}); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("Create() without name error = %v, want VALIDATION_ERROR", err)
	}
	if _, err := svc.Update(ctx, 1, school.Input{}); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("empty Update() error = %v, want BAD_REQUEST", err)
	}
	if _, err := svc.Update(ctx, 999, school.Input{Name: strPtr("x")}); !errors.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want NOT_FOUND", err)
	}
	if err := svc.Delete(ctx, 999); !errors.IsNotFound(err) {
		t.Errorf("Delete(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestSchoolService_DeleteWithUsers(t *testing.T) {
	svc, fx := newSchoolService(t)
	ctx := context.Background()

	id := fx.School("SMA 8", "Jakarta", "DKI Jakarta")
	fx.Profile(fx.User(testutil.UserRow{}), "A", &id)
	fx.Profile(fx.User(testutil.UserRow{}), "B", &id)

	err := svc.Delete(ctx, id)
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeConflict {
		t.Fatalf("Delete() error = %v, want CONFLICT", err)
	}
	want := "Cannot delete school. 2 user(s) are associated with this school."
	if appErr.Message != want {
		t.Errorf("Delete() message = %q, want %q", appErr.Message, want)
	}

	detail, err := svc.Get(ctx, id)
	if err != nil || detail.UserCount != 2 {
		t.Errorf("Get() = %+v, %v", detail, err)
	}
}

func TestSchoolService_List(t *testing.T) {
	svc, fx := newSchoolService(t)
	fx.School("SMA Surabaya", "Surabaya", "Jawa Timur")
	fx.School("SMA Malang", "Malang", "Jawa Timur")
	fx.School("SMA Denpasar", "Denpasar", "Bali")

	page, err := svc.List(context.Background(), school.Filter{Search: "jawa"}, query.ListQuery{SortBy: "name", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Pagination.Total != 2 || page.Items[0].Name != "SMA Malang" {
		t.Errorf("List() = %+v", page.Items)
	}
}
