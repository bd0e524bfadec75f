package services

import (
	"context"

	"github.com/pratik-mahalle/adminservice/internal/domain/activity"
	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/logger"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/retry"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// UserService implements user.Service
type UserService struct {
	repo     user.Repository
	activity activity.Repository
	retry    retry.Policy
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, activityRepo activity.Repository, policy retry.Policy, log *logger.Logger) *UserService {
	return &UserService{
		repo:     repo,
		activity: activityRepo,
		retry:    policy,
		logger:   log,
	}
}

// List returns one page of users
func (s *UserService) List(ctx context.Context, filter user.Filter, q query.ListQuery) (*utils.Page[*user.User], error) {
	opts := user.ListSpec.Normalize(q)
	users, total, err := s.repo.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return utils.NewPage("users", users, total, opts.PaginationParams), nil
}

// Detail returns a user with job and conversation statistics and their
// most recent items.
func (s *UserService) Detail(ctx context.Context, id string) (*user.Detail, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	jobs, err := s.repo.JobCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	conversations, err := s.repo.ConversationCount(ctx, id)
	if err != nil {
		return nil, err
	}
	recentJobs, err := s.repo.RecentJobs(ctx, id, user.RecentLimit)
	if err != nil {
		return nil, err
	}
	recentConversations, err := s.repo.RecentConversations(ctx, id, user.RecentLimit)
	if err != nil {
		return nil, err
	}

	return &user.Detail{
		User: u,
		Statistics: user.Statistics{
			Jobs:          jobs,
			Conversations: conversations,
		},
		RecentJobs:          recentJobs,
		RecentConversations: recentConversations,
	}, nil
}

func (s *UserService) get(ctx context.Context, id string) (*user.User, error) {
	return withRetry(ctx, s.retry, s.logger, "user.get", func(ctx context.Context) (*user.User, error) {
		return s.repo.GetByID(ctx, id)
	})
}

// Update changes account and profile fields and records a USER_UPDATE
// activity entry.
func (s *UserService) Update(ctx context.Context, id string, update user.Update, actor user.Actor) (*user.User, error) {
	if update.Empty() && update.Profile.Empty() {
		return nil, errors.BadRequest("No fields to update")
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	if !update.Empty() {
		if err := s.repo.Update(ctx, id, update); err != nil {
			return nil, err
		}
	}
	if !update.Profile.Empty() {
		if err := s.repo.UpdateProfile(ctx, id, *update.Profile); err != nil {
			return nil, err
		}
	}

	account := update
	account.Profile = nil
	s.record(ctx, id, user.ActivityUserUpdate, map[string]interface{}{
		"updates":        account,
		"profileUpdates": update.Profile,
	}, actor)

	s.logger.With("user_id", id).With("admin_id", actor.AdminID).Info("User updated")

	return s.repo.GetByID(ctx, id)
}

// Tokens returns the balance and recent token activity of a user
func (s *UserService) Tokens(ctx context.Context, id string) (*user.TokenHistory, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.activity.ListForUser(ctx, id, user.TokenActivityTypes, user.TokenHistoryLimit)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*activity.Log{}
	}
	return &user.TokenHistory{CurrentBalance: u.TokenBalance, History: history}, nil
}

// AdjustTokens credits or debits a balance. Debits that would leave a
// negative balance fail with INSUFFICIENT_BALANCE.
func (s *UserService) AdjustTokens(ctx context.Context, id string, amount int64, reason string, actor user.Actor) (*user.TokenAdjustment, error) {
	if amount == 0 {
		return nil, errors.ValidationError("Validation failed", map[string]string{"amount": "amount must not be zero"})
	}

	adj, err := s.repo.AdjustTokens(ctx, id, amount)
	if err != nil {
		return nil, err
	}

	activityType := user.ActivityTokenDeduction
	if amount > 0 {
		activityType = user.ActivityTokenUpdate
	}
	s.record(ctx, id, activityType, map[string]interface{}{
		"oldBalance": adj.OldBalance,
		"newBalance": adj.NewBalance,
		"amount":     amount,
		"reason":     reason,
	}, actor)

	s.logger.With("user_id", id).With("admin_id", actor.AdminID).
		Infof("User token balance updated: %d -> %d", adj.OldBalance, adj.NewBalance)

	return adj, nil
}

// record writes an activity entry. The change it describes has already
// been applied, so failures are logged rather than returned.
func (s *UserService) record(ctx context.Context, userID, activityType string, data interface{}, actor user.Actor) {
	var adminID *string
	if actor.AdminID != "" {
		adminID = &actor.AdminID
	}
	entry, err := activity.New(&userID, adminID, activityType, data)
	if err != nil {
		s.logger.With("user_id", userID).ErrorWithErr(err, "Failed to encode activity entry")
		return
	}
	if actor.IPAddress != "" {
		entry.IPAddress = &actor.IPAddress
	}
	if actor.UserAgent != "" {
		entry.UserAgent = &actor.UserAgent
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.With("user_id", userID).With("activity_type", activityType).ErrorWithErr(err, "Failed to record user activity")
	}
}

var _ user.Service = (*UserService)(nil)
