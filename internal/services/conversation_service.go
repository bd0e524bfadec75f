package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/pkg/cache"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// ConversationService implements conversation.Service. It backs both the
// conversation browser and the chatbot dashboard.
type ConversationService struct {
	repo   conversation.Repository
	users  UserDirectory
	stats  *cache.TTL[*conversation.Stats]
	retry  retry.Policy
	logger *logger.Logger
	now    func() time.Time
}

// NewConversationService creates a new conversation service. A nil
// stats cache computes the dashboard on every call.
func NewConversationService(repo conversation.Repository, users UserDirectory, stats *cache.TTL[*conversation.Stats], policy retry.Policy, log *logger.Logger) *ConversationService {
	return &ConversationService{
		repo:   repo,
		users:  users,
		stats:  stats,
		retry:  policy,
		logger: log,
		now:    time.Now,
	}
}

// Stats builds the chatbot dashboard
func (s *ConversationService) Stats(ctx context.Context) (*conversation.Stats, error) {
	if s.stats == nil {
		return s.computeStats(ctx)
	}
	return s.stats.GetOrLoad(ctx, "chatbot", s.computeStats)
}

func (s *ConversationService) computeStats(ctx context.Context) (*conversation.Stats, error) {
	today := startOfDay(s.now())

	totals, err := s.repo.Totals(ctx, today)
	if err != nil {
		return nil, err
	}
	models, err := s.repo.ModelUsage(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.repo.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	since := today.AddDate(0, 0, -(conversation.DailyWindow - 1))
	daily, err := s.repo.DailyConversations(ctx, since)
	if err != nil {
		return nil, err
	}
	dailyMessages, err := s.repo.DailyMessages(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &conversation.Stats{
		Overview: conversation.Overview{
			TotalConversations:  totals.Conversations,
			TotalMessages:       totals.Messages,
			ActiveConversations: totals.Active,
		},
		Today: conversation.Today{
			Conversations: totals.ConversationsToday,
			Messages:      totals.MessagesToday,
		},
		ModelUsage: models,
		Performance: conversation.Performance{
			AvgResponseTimeMs:      round2(totals.AvgResponseTimeMs),
			AvgResponseTimeSeconds: round2(totals.AvgResponseTimeMs / 1000),
		},
		TokenUsage:      totals.Tokens,
		StatusBreakdown: breakdown,
		DailyMetrics:    daily,
		DailyMessages:   dailyMessages,
	}
	if totals.Conversations > 0 {
		stats.Overview.AvgMessagesPerConversation = round2(float64(totals.Messages) / float64(totals.Conversations))
	}
	if stats.ModelUsage == nil {
		stats.ModelUsage = []conversation.ModelUsage{}
	}
	if stats.StatusBreakdown == nil {
		stats.StatusBreakdown = map[string]int64{}
	}
	return stats, nil
}

// Models lists every model with its usage and the free/paid split
func (s *ConversationService) Models(ctx context.Context) (*conversation.Models, error) {
	models, err := s.repo.Models(ctx)
	if err != nil {
		return nil, err
	}
	total, free, err := s.repo.FreeUsage(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []conversation.ModelInfo{}
	}
	return &conversation.Models{
		Models: models,
		Summary: conversation.ModelSummary{
			TotalModels:         len(models),
			TotalUsage:          total,
			FreeModelUsage:      free,
			PaidModelUsage:      total - free,
			FreeModelPercentage: percent(free, total),
		},
	}, nil
}

// List returns one page of conversations with owners and message counts
func (s *ConversationService) List(ctx context.Context, filter conversation.Filter, q query.ListQuery) (*utils.Page[*conversation.Conversation], error) {
	opts := conversation.ListSpec.Normalize(q)
	convs, total, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, convs...); err != nil {
		return nil, err
	}
	return utils.NewPage("conversations", convs, total, opts.PaginationParams), nil
}

// ListForUser returns one page of a single user's conversations
func (s *ConversationService) ListForUser(ctx context.Context, userID string, q query.ListQuery) (*utils.Page[*conversation.Conversation], error) {
	return s.List(ctx, conversation.Filter{UserID: userID}, q)
}

func (s *ConversationService) decorate(ctx context.Context, convs ...*conversation.Conversation) error {
	if len(convs) == 0 {
		return nil
	}

	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	counts, err := s.repo.MessageCounts(ctx, ids)
	if err != nil {
		return err
	}

	owners := ownerIDs(convs, func(c *conversation.Conversation) string { return c.UserID })
	summaries, err := s.users.Summaries(ctx, owners)
	if err != nil {
		return err
	}

	for _, c := range convs {
		c.MessageCount = counts[c.ID]
		c.User = summaries[c.UserID]
	}
	return nil
}

// Get returns a conversation with its message count and usage totals
func (s *ConversationService) Get(ctx context.Context, id string) (*conversation.Detail, error) {
	c, err := withRetry(ctx, s.retry, s.logger, "conversation.get", func(ctx context.Context) (*conversation.Conversation, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, c); err != nil {
		return nil, err
	}

	tokens, cost, err := s.repo.UsageTotals(ctx, id)
	if err != nil {
		return nil, err
	}
	return &conversation.Detail{Conversation: c, TotalTokens: tokens, TotalCost: cost}, nil
}

// Messages returns one page of a conversation's messages, oldest first
// unless another order is requested.
func (s *ConversationService) Messages(ctx context.Context, id string, q query.ListQuery) (*conversation.Messages, error) {
	c, err := withRetry(ctx, s.retry, s.logger, "conversation.get", func(ctx context.Context) (*conversation.Conversation, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if q.SortOrder == "" {
		q.SortOrder = query.Asc
	}
	opts := conversation.MessageListSpec.Normalize(q)
	msgs, total, err := s.repo.ListMessages(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*conversation.Message{}
	}

	return &conversation.Messages{
		Conversation: conversation.Summary{
			ID:          c.ID,
			Title:       c.Title,
			Status:      c.Status,
			ContextType: c.ContextType,
		},
		Messages:   msgs,
		Pagination: utils.NewPagination(total, opts.Page, opts.Limit),
	}, nil
}

var _ conversation.Service = (*ConversationService)(nil)
