package services

import (
	"context"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

type userFixture struct {
	service  *UserService
	activity *testutil.MockActivityRepository
	fx       *testutil.Fixture
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	activity := testutil.NewMockActivityRepository()
	return userFixture{
		service:  NewUserService(postgres.NewUserRepository(db), activity, fastRetry(), testLogger()),
		activity: activity,
		fx:       testutil.NewFixture(t, db),
	}
}

var admin = user.Actor{AdminID: "9d0c6a53-1111-4222-8333-444455556666", IPAddress: "10.0.0.1", UserAgent: "test"}

func TestUserService_List(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	school := f.fx.School("SMA 1 Jakarta", "Jakarta", "DKI Jakarta")
	a := f.fx.User(testutil.UserRow{Email: "ana@example.com", Username: "ana"})
	f.fx.Profile(a, "Ana", &school)
	f.fx.User(testutil.UserRow{Email: "budi@example.com", UserType: "admin"})
	f.fx.User(testutil.UserRow{Email: "citra@example.com", IsActive: testutil.Bool(false)})

	tests := []struct {
		name      string
		filter    user.Filter
		wantTotal int64
	}{
		{"all", user.Filter{}, 3},
		{"search", user.Filter{Search: "BUDI"}, 1},
		{"user type", user.Filter{UserType: "admin"}, 1},
		{"inactive", user.Filter{IsActive: testutil.Bool(false)}, 1},
		{"school", user.Filter{SchoolID: &school}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.service.List(ctx, tt.filter, query.ListQuery{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Pagination.Total != tt.wantTotal || int64(len(page.Items)) != tt.wantTotal {
				t.Errorf("List() total = %d items = %d, want %d", page.Pagination.Total, len(page.Items), tt.wantTotal)
			}
		})
	}

	page, _ := f.service.List(ctx, user.Filter{SchoolID: &school}, query.ListQuery{})
	u := page.Items[0]
	if u.Profile == nil || u.Profile.School == nil || u.Profile.School.Name != "SMA 1 Jakarta" {
		t.Errorf("profile/school not joined: %+v", u.Profile)
	}
}

func TestUserService_Detail(t *testing.T) {
	f := newUserFixture(t)
	id := f.fx.User(testutil.UserRow{})
	for _, status := range []string{"completed", "completed", "failed"} {
		f.fx.Job(testutil.JobRow{UserID: id, Status: status})
	}
	f.fx.Conversation(id, "hello", "active", f.fx.Now)

	detail, err := f.service.Detail(context.Background(), id)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.Statistics.Jobs["completed"] != 2 || detail.Statistics.Jobs["failed"] != 1 {
		t.Errorf("Statistics.Jobs = %+v", detail.Statistics.Jobs)
	}
	if detail.Statistics.Conversations != 1 || len(detail.RecentConversations) != 1 {
		t.Errorf("conversation stats = %d / %d", detail.Statistics.Conversations, len(detail.RecentConversations))
	}
	if len(detail.RecentJobs) != 3 {
		t.Errorf("RecentJobs = %d, want 3", len(detail.RecentJobs))
	}

	if _, err := f.service.Detail(context.Background(), "missing"); !errors.IsNotFound(err) {
		t.Errorf("Detail(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestUserService_Update(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	id := f.fx.User(testutil.UserRow{Username: "old"})
	f.fx.Profile(id, "Old Name", nil)

	name := "new"
	fullName := "New Name"
	updated, err := f.service.Update(ctx, id, user.Update{
		Username: &name,
		IsActive: testutil.Bool(false),
		Profile:  &user.ProfileUpdate{FullName: &fullName},
	}, admin)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Username == nil || *updated.Username != "new" || updated.IsActive {
		t.Errorf("Update() user = %+v", updated)
	}
	if updated.Profile == nil || *updated.Profile.FullName != "New Name" {
		t.Errorf("Update() profile = %+v", updated.Profile)
	}

	logs := f.activity.Logs()
	if len(logs) != 1 || logs[0].ActivityType != user.ActivityUserUpdate || *logs[0].AdminID != admin.AdminID {
		t.Fatalf("activity = %+v", logs)
	}
	var data map[string]map[string]interface{}
	if err := json.Unmarshal(logs[0].ActivityData, &data); err != nil {
		t.Fatalf("activity data: %v", err)
	}
	if data["updates"]["username"] != "new" || data["profileUpdates"]["full_name"] != "New Name" {
		t.Errorf("activity data = %+v", data)
	}

	if _, err := f.service.Update(ctx, id, user.Update{}, admin); !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("empty Update() error = %v, want BAD_REQUEST", err)
	}
	if _, err := f.service.Update(ctx, "missing", user.Update{Username: &name}, admin); !errors.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestUserService_AdjustTokens(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	id := f.fx.User(testutil.UserRow{TokenBalance: 10})

	tests := []struct {
		name        string
		amount      int64
		wantBalance int64
		wantType    string
		wantCode    string
	}{
		{"credit", 15, 25, user.ActivityTokenUpdate, ""},
		{"debit", -20, 5, user.ActivityTokenDeduction, ""},
		{"overdraw", -6, 5, "", errors.ErrCodeInsufficientBalance},
		{"zero", 0, 5, "", errors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.activity.Logs())
			adj, err := f.service.AdjustTokens(ctx, id, tt.amount, "support", admin)
			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Errorf("AdjustTokens() error = %v, want %s", err, tt.wantCode)
				}
				if len(f.activity.Logs()) != before {
					t.Error("failed adjustment should not be logged")
				}
				return
			}
			if err != nil {
				t.Fatalf("AdjustTokens() error = %v", err)
			}
			if adj.NewBalance != tt.wantBalance || adj.NewBalance-adj.OldBalance != tt.amount {
				t.Errorf("AdjustTokens() = %+v", adj)
			}
			logs := f.activity.Logs()
			if got := logs[len(logs)-1].ActivityType; got != tt.wantType {
				t.Errorf("activity type = %s, want %s", got, tt.wantType)
			}
		})
	}

	history, err := f.service.Tokens(ctx, id)
	if err != nil {
		t.Fatalf("Tokens() error = %v", err)
	}
	if history.CurrentBalance != 5 || len(history.History) != 2 {
		t.Errorf("Tokens() = balance %d, %d entries", history.CurrentBalance, len(history.History))
	}
}

func TestUserService_AdjustTokensConcurrentDebits(t *testing.T) {
	f := newUserFixture(t)
	id := f.fx.User(testutil.UserRow{TokenBalance: 5})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.AdjustTokens(context.Background(), id, -1, "race", admin); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Errorf("%d debits succeeded, want 5", succeeded)
	}
	detail, err := f.service.Detail(context.Background(), id)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.User.TokenBalance != 0 {
		t.Errorf("balance = %d, want 0", detail.User.TokenBalance)
	}
}
