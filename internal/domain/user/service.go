package user

import (
	"context"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/activity"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Actor identifies the admin making a change and where the request came from.
type Actor struct {
	AdminID   string
	IPAddress string
	UserAgent string
}

// Detail is a user with activity statistics and recent items.
type Detail struct {
	User                *User                 `json:"user"`
	Statistics          Statistics            `json:"statistics"`
	RecentJobs          []*RecentJob          `json:"recentJobs"`
	RecentConversations []*RecentConversation `json:"recentConversations"`
}

// Statistics counts a user's jobs by status and their conversations.
type Statistics struct {
	Jobs          map[string]int64 `json:"jobs"`
	Conversations int64            `json:"conversations"`
}

// RecentJob is the trimmed job shape of a user detail.
type RecentJob struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	AssessmentName *string    `json:"assessment_name"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// RecentConversation is the trimmed conversation shape of a user detail.
type RecentConversation struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title"`
	Status      string    `json:"status"`
	ContextType *string   `json:"context_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenHistory is a balance with its most recent token activity.
type TokenHistory struct {
	CurrentBalance int64           `json:"currentBalance"`
	History        []*activity.Log `json:"history"`
}

// Service defines the interface for user business logic
type Service interface {
	List(ctx context.Context, filter Filter, q query.ListQuery) (*utils.Page[*User], error)
	Detail(ctx context.Context, id string) (*Detail, error)
	Update(ctx context.Context, id string, update Update, actor Actor) (*User, error)
	Tokens(ctx context.Context, id string) (*TokenHistory, error)
	AdjustTokens(ctx context.Context, id string, amount int64, reason string, actor Actor) (*TokenAdjustment, error)
}
