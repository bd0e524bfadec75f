package user

import (
	"context"

	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

// Repository defines the interface for user data access
type Repository interface {
	// List returns one page of users with profile and school
	List(ctx context.Context, filter Filter, opts query.Options) ([]*User, int64, error)

	// GetByID retrieves a user with profile and school
	GetByID(ctx context.Context, id string) (*User, error)

	// Update applies account changes and returns the updated user
	Update(ctx context.Context, id string, update Update) error

	// UpdateProfile applies profile changes; users without a profile are skipped
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error

	// AdjustTokens adds amount to the balance unless it would go negative
	AdjustTokens(ctx context.Context, id string, amount int64) (*TokenAdjustment, error)

	// JobCounts counts the user's assessment jobs by status
	JobCounts(ctx context.Context, id string) (map[string]int64, error)

	// ConversationCount counts the user's chat conversations
	ConversationCount(ctx context.Context, id string) (int64, error)

	// RecentJobs returns the user's newest jobs
	RecentJobs(ctx context.Context, id string, limit int) ([]*RecentJob, error)

	// RecentConversations returns the user's newest conversations
	RecentConversations(ctx context.Context, id string, limit int) ([]*RecentConversation, error)

	// Summaries returns id/email/username for the given ids; missing ids are absent
	Summaries(ctx context.Context, ids []string) (map[string]*Summary, error)

	// ResolveKeys returns the ids of users matching any of the filters
	// (user_email, user_username)
	ResolveKeys(ctx context.Context, filters []query.ForeignFilter) ([]string, error)
}
