package conversation

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Repository defines the chat data access interface
type Repository interface {
	List(ctx context.Context, filter Filter, opts query.Options) ([]*Conversation, int64, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	MessageCounts(ctx context.Context, ids []string) (map[string]int64, error)
	UsageTotals(ctx context.Context, conversationID string) (tokens int64, cost float64, err error)
	ListMessages(ctx context.Context, conversationID string, opts query.Options) ([]*Message, int64, error)

	// Dashboard aggregates
	Totals(ctx context.Context, since time.Time) (*Totals, error)
	ModelUsage(ctx context.Context) ([]ModelUsage, error)
	StatusBreakdown(ctx context.Context) (map[string]int64, error)
	DailyConversations(ctx context.Context, since time.Time) ([]DailyCount, error)
	DailyMessages(ctx context.Context, since time.Time) ([]DailyCount, error)
	Models(ctx context.Context) ([]ModelInfo, error)
	FreeUsage(ctx context.Context) (total, free int64, err error)
}

// Service defines the conversation and chatbot operations
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Models(ctx context.Context) (*Models, error)
	List(ctx context.Context, filter Filter, q query.ListQuery) (*utils.Page[*Conversation], error)
	ListForUser(ctx context.Context, userID string, q query.ListQuery) (*utils.Page[*Conversation], error)
	Get(ctx context.Context, id string) (*Detail, error)
	Messages(ctx context.Context, id string, q query.ListQuery) (*Messages, error)
}
