package services

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
	"github.com/pratik-mahalle/adminservice/internal/testutil"
)

func newConversationService(t *testing.T, stats *cache.TTL[*conversation.Stats]) (*ConversationService, *testutil.Fixture) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewConversationService(postgres.NewConversationRepository(db), postgres.NewUserRepository(db), stats, fastRetry(), testLogger())
	return svc, testutil.NewFixture(t, db)
}

// seedChat creates one user with two conversations. The first has three
// messages, two of them answered by models.
func seedChat(fx *testutil.Fixture) (userID, first, second string) {
	userID = fx.User(testutil.UserRow{Email: "siswa@example.com"})
	now := time.Now()

	first = fx.Conversation(userID, "Career advice", "active", now.Add(-2*time.Hour))
	second = fx.Conversation(userID, "Majors", "archived", now.Add(-time.Hour))

	fx.Message(first, "user", "Hi", now.Add(-110*time.Minute))
	m2 := fx.Message(first, "assistant", "Hello", now.Add(-109*time.Minute))
	m3 := fx.Message(first, "assistant", "Try engineering", now.Add(-108*time.Minute))
	fx.Usage(first, m2, "gpt-free", 100, 0, true, 1000)
	fx.Usage(first, m3, "gpt-pro", 300, 1.5, false, 3000)
	return userID, first, second
}

func TestConversationService_List(t *testing.T) {
	svc, fx := newConversationService(t, nil)
	userID, first, _ := seedChat(fx)
	ctx := context.Background()

	page, err := svc.List(ctx, conversation.Filter{}, query.ListQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Pagination.Total != 2 || page.Pagination.Limit != 20 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
	for _, c := range page.Items {
		if c.User == nil || c.User.Email != "siswa@example.com" {
			t.Errorf("conversation %s owner = %+v", c.ID, c.User)
		}
		if c.ID == first && c.MessageCount != 3 {
			t.Errorf("MessageCount = %d, want 3", c.MessageCount)
		}
	}

	active, err := svc.List(ctx, conversation.Filter{Status: "active", Search: "career"}, query.ListQuery{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if active.Pagination.Total != 1 || active.Items[0].ID != first {
		t.Errorf("filtered list = %+v", active.Items)
	}

	mine, err := svc.ListForUser(ctx, userID, query.ListQuery{Limit: 1})
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if mine.Pagination.Total != 2 || len(mine.Items) != 1 || mine.Pagination.TotalPages != 2 {
		t.Errorf("ListForUser() = %+v", mine.Pagination)
	}
}

func TestConversationService_GetAndMessages(t *testing.T) {
	svc, fx := newConversationService(t, nil)
	_, first, _ := seedChat(fx)
	ctx := context.Background()

	detail, err := svc.Get(ctx, first)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.MessageCount != 3 || detail.TotalTokens != 400 || detail.TotalCost != 1.5 {
		t.Errorf("Get() = count %d tokens %d cost %v", detail.MessageCount, detail.TotalTokens, detail.TotalCost)
	}

	msgs, err := svc.Messages(ctx, first, query.ListQuery{})
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if msgs.Conversation.ID != first || len(msgs.Messages) != 3 {
		t.Fatalf("Messages() = %+v", msgs)
	}
	if msgs.Messages[0].Content != "Hi" || msgs.Messages[2].Content != "Try engineering" {
		t.Error("messages should be oldest first")
	}
	if msgs.Messages[0].Usage != nil || msgs.Messages[1].Usage == nil || msgs.Messages[1].Usage.ModelUsed != "gpt-free" {
		t.Error("usage not attached to the right messages")
	}
	if msgs.Pagination.Limit != 50 || msgs.Pagination.Total != 3 {
		t.Errorf("pagination = %+v", msgs.Pagination)
	}

	if _, err := svc.Messages(ctx, "missing", query.ListQuery{}); !errors.IsNotFound(err) {
		t.Errorf("Messages(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestConversationService_Stats(t *testing.T) {
	stats := cache.New[*conversation.Stats]("test_chatbot_stats", 4, time.Minute)
	svc, fx := newConversationService(t, stats)
	seedChat(fx)
	ctx := context.Background()

	got, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if got.Overview.TotalConversations != 2 || got.Overview.TotalMessages != 3 || got.Overview.ActiveConversations != 1 {
		t.Errorf("Overview = %+v", got.Overview)
	}
	if got.Overview.AvgMessagesPerConversation != 1.5 {
		t.Errorf("AvgMessagesPerConversation = %v, want 1.5", got.Overview.AvgMessagesPerConversation)
	}
	if got.Performance.AvgResponseTimeMs != 2000 || got.Performance.AvgResponseTimeSeconds != 2 {
		t.Errorf("Performance = %+v", got.Performance)
	}
	if got.TokenUsage.TotalTokens != 400 {
		t.Errorf("TokenUsage = %+v", got.TokenUsage)
	}
	if got.StatusBreakdown["active"] != 1 || got.StatusBreakdown["archived"] != 1 {
		t.Errorf("StatusBreakdown = %+v", got.StatusBreakdown)
	}
	if len(got.ModelUsage) != 2 {
		t.Errorf("ModelUsage = %+v", got.ModelUsage)
	}

	fx.Conversation(fx.User(testutil.UserRow{}), "later", "active", time.Time{})
	again, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if again.Overview.TotalConversations != 2 {
		t.Error("second call should be served from the cache")
	}
}

func TestConversationService_Models(t *testing.T) {
	svc, fx := newConversationService(t, nil)
	seedChat(fx)

	models, err := svc.Models(context.Background())
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if models.Summary.TotalModels != 2 || models.Summary.TotalUsage != 2 || models.Summary.FreeModelUsage != 1 {
		t.Errorf("Summary = %+v", models.Summary)
	}
	if models.Summary.FreeModelPercentage != 50 {
		t.Errorf("FreeModelPercentage = %v, want 50", models.Summary.FreeModelPercentage)
	}
	for _, m := range models.Models {
		if m.Model == "gpt-free" && !m.IsFreeModel {
			t.Error("gpt-free should be marked free")
		}
		if m.LastUsed == nil {
			t.Errorf("model %s has no last use", m.Model)
		}
	}
}
