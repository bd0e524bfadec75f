package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/conversation"
	"github.com/pratik-mahalle/adminservice/internal/pkg/errors"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
)

const conversationColumns = `c.id, c.user_id, c.title, c.context_type, c.context_data,
	c.status, c.metadata, c.created_at, c.updated_at`

const messageColumns = `m.id, m.conversation_id, m.sender_type, m.content, m.content_type,
	m.metadata, m.parent_message_id, m.created_at`

// ConversationRepository implements conversation.Repository over the chat schema
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

var _ conversation.Repository = (*ConversationRepository)(nil)

func scanConversation(row rowScanner) (*conversation.Conversation, error) {
	var c conversation.Conversation
	var title, contextType, contextData, status, metadata sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &title, &contextType, &contextData, &status, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Title = stringPtr(title)
	c.ContextType = stringPtr(contextType)
	c.ContextData = rawJSON(contextData)
	c.Status = status.String
	c.Metadata = rawJSON(metadata)
	return &c, nil
}

// List returns one page of conversations
func (r *ConversationRepository) List(ctx context.Context, filter conversation.Filter, opts query.Options) ([]*conversation.Conversation, int64, error) {
	defer observe("list", "conversations", time.Now())

	w := query.NewWhere(r.db.Dialect())
	filter.Apply(w)
	plan := conversation.ListSpec.Plan(w, opts, "c.id")

	convs, total, err := query.Run(ctx, r.db, plan, conversationColumns, "chat.conversations c",
		func(rows *sql.Rows) (*conversation.Conversation, error) {
			return scanConversation(rows)
		})
	if err != nil {
		return nil, 0, mapError(err, "Failed to list conversations")
	}
	return convs, total, nil
}

// GetByID retrieves a conversation
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*conversation.Conversation, error) {
	defer observe("get", "conversations", time.Now())

	stmt := r.db.Rebind("SELECT " + conversationColumns + " FROM chat.conversations c WHERE c.id = ?")
	c, err := scanConversation(r.db.QueryRowContext(ctx, stmt, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Conversation")
	}
	if err != nil {
		return nil, mapError(err, "Failed to get conversation")
	}
	return c, nil
}

// MessageCounts counts messages per conversation in one statement
func (r *ConversationRepository) MessageCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	w := query.NewWhere(r.db.Dialect()).In("conversation_id", dedupe(ids))
	if w.Empty() {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT conversation_id, COUNT(*) FROM chat.messages"+w.SQL()+" GROUP BY conversation_id", w.Args()...)
	if err != nil {
		return nil, mapError(err, "Failed to count messages")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, mapError(err, "Failed to count messages")
		}
		out[id] = n
	}
	return out, mapError(rows.Err(), "Failed to count messages")
}

// UsageTotals sums tokens and cost of a conversation
func (r *ConversationRepository) UsageTotals(ctx context.Context, conversationID string) (int64, float64, error) {
	var tokens int64
	var cost float64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost_credits), 0)
		FROM chat.usage_tracking WHERE conversation_id = ?`), conversationID).Scan(&tokens, &cost)
	if err != nil {
		return 0, 0, mapError(err, "Failed to sum conversation usage")
	}
	return tokens, cost, nil
}

// ListMessages returns one page of a conversation's messages with their
// usage records attached.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, opts query.Options) ([]*conversation.Message, int64, error) {
	defer observe("list", "messages", time.Now())

	w := query.NewWhere(r.db.Dialect()).Eq("m.conversation_id", conversationID)
	plan := conversation.MessageListSpec.Plan(w, opts, "m.id")

	msgs, total, err := query.Run(ctx, r.db, plan, messageColumns, "chat.messages m",
		func(rows *sql.Rows) (*conversation.Message, error) {
			var m conversation.Message
			var contentType, metadata, parent sql.NullString
			err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderType, &m.Content, &contentType, &metadata, &parent, &m.CreatedAt)
			if err != nil {
				return nil, err
			}
			m.ContentType = contentType.String
			m.Metadata = rawJSON(metadata)
			m.ParentMessageID = stringPtr(parent)
			return &m, nil
		})
	if err != nil {
		return nil, 0, mapError(err, "Failed to list messages")
	}
	if len(msgs) == 0 {
		return msgs, total, nil
	}

	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	usage, err := r.usageFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, m := range msgs {
		m.Usage = usage[m.ID]
	}
	return msgs, total, nil
}

func (r *ConversationRepository) usageFor(ctx context.Context, messageIDs []string) (map[string]*conversation.Usage, error) {
	w := query.NewWhere(r.db.Dialect()).In("message_id", messageIDs)
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, id, model_used, prompt_tokens, completion_tokens, total_tokens,
			cost_credits, is_free_model, processing_time_ms, created_at
		FROM chat.usage_tracking`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, mapError(err, "Failed to load message usage")
	}
	defer rows.Close()

	out := make(map[string]*conversation.Usage, len(messageIDs))
	for rows.Next() {
		var messageID string
		var u conversation.Usage
		var cost sql.NullFloat64
		var free sql.NullBool
		var ms sql.NullInt64
		if err := rows.Scan(&messageID, &u.ID, &u.ModelUsed, &u.PromptTokens, &u.CompletionTokens, &u.TotalTokens,
			&cost, &free, &ms, &u.CreatedAt); err != nil {
			return nil, mapError(err, "Failed to load message usage")
		}
		u.CostCredits = cost.Float64
		u.IsFreeModel = free.Bool
		u.ProcessingTimeMs = int64Ptr(ms)
		out[messageID] = &u
	}
	return out, mapError(rows.Err(), "Failed to load message usage")
}

// Totals reads the headline chatbot counters
func (r *ConversationRepository) Totals(ctx context.Context, since time.Time) (*conversation.Totals, error) {
	defer observe("totals", "conversations", time.Now())

	var t conversation.Totals
	var avg sql.NullFloat64
	since = since.UTC()
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM chat.conversations),
			(SELECT COUNT(*) FROM chat.messages),
			(SELECT COUNT(*) FROM chat.conversations WHERE status = ?),
			(SELECT COUNT(*) FROM chat.conversations WHERE created_at >= ?),
			(SELECT COUNT(*) FROM chat.messages WHERE created_at >= ?),
			(SELECT AVG(processing_time_ms) FROM chat.usage_tracking),
			(SELECT COALESCE(SUM(prompt_tokens), 0) FROM chat.usage_tracking),
			(SELECT COALESCE(SUM(completion_tokens), 0) FROM chat.usage_tracking),
			(SELECT COALESCE(SUM(total_tokens), 0) FROM chat.usage_tracking),
			(SELECT COALESCE(SUM(cost_credits), 0) FROM chat.usage_tracking)`),
		conversation.StatusActive, since, since,
	).Scan(
		&t.Conversations, &t.Messages, &t.Active, &t.ConversationsToday, &t.MessagesToday, &avg,
		&t.Tokens.TotalPromptTokens, &t.Tokens.TotalCompletionTokens, &t.Tokens.TotalTokens, &t.Tokens.TotalCost,
	)
	if err != nil {
		return nil, mapError(err, "Failed to read chatbot totals")
	}
	t.AvgResponseTimeMs = avg.Float64
	return &t, nil
}

// ModelUsage aggregates usage per model, most used first
func (r *ConversationRepository) ModelUsage(ctx context.Context) ([]conversation.ModelUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model_used, COUNT(*), COALESCE(SUM(total_tokens), 0), COALESCE(AVG(processing_time_ms), 0)
		FROM chat.usage_tracking GROUP BY model_used ORDER BY 2 DESC`)
	if err != nil {
		return nil, mapError(err, "Failed to read model usage")
	}
	defer rows.Close()

	usage := []conversation.ModelUsage{}
	for rows.Next() {
		var m conversation.ModelUsage
		if err := rows.Scan(&m.Model, &m.Count, &m.TotalTokens, &m.AvgProcessingTime); err != nil {
			return nil, mapError(err, "Failed to read model usage")
		}
		usage = append(usage, m)
	}
	return usage, mapError(rows.Err(), "Failed to read model usage")
}

// StatusBreakdown counts conversations by status
func (r *ConversationRepository) StatusBreakdown(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM chat.conversations GROUP BY status")
	if err != nil {
		return nil, mapError(err, "Failed to read conversation statuses")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status sql.NullString
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, mapError(err, "Failed to read conversation statuses")
		}
		out[status.String] = n
	}
	return out, mapError(rows.Err(), "Failed to read conversation statuses")
}

// DailyConversations counts conversations per creation day
func (r *ConversationRepository) DailyConversations(ctx context.Context, since time.Time) ([]conversation.DailyCount, error) {
	return r.daily(ctx, "chat.conversations", since)
}

// DailyMessages counts messages per creation day
func (r *ConversationRepository) DailyMessages(ctx context.Context, since time.Time) ([]conversation.DailyCount, error) {
	return r.daily(ctx, "chat.messages", since)
}

func (r *ConversationRepository) daily(ctx context.Context, table string, since time.Time) ([]conversation.DailyCount, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT CAST(DATE(created_at) AS TEXT) AS day, COUNT(*)
		FROM `+table+` WHERE created_at >= ?
		GROUP BY 1 ORDER BY 1 ASC`), since.UTC())
	if err != nil {
		return nil, mapError(err, "Failed to read daily chat metrics")
	}
	defer rows.Close()

	days := []conversation.DailyCount{}
	for rows.Next() {
		var d conversation.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, mapError(err, "Failed to read daily chat metrics")
		}
		days = append(days, d)
	}
	return days, mapError(rows.Err(), "Failed to read daily chat metrics")
}

// Models lists each model with its aggregate usage and the free flag and
// time of its most recent use.
func (r *ConversationRepository) Models(ctx context.Context) ([]conversation.ModelInfo, error) {
	defer observe("models", "usage_tracking", time.Now())

	usage, err := r.ModelUsage(ctx)
	if err != nil {
		return nil, err
	}

	latest := r.db.Rebind(`SELECT is_free_model, created_at FROM chat.usage_tracking
		WHERE model_used = ? ORDER BY created_at DESC LIMIT 1`)

	models := make([]conversation.ModelInfo, 0, len(usage))
	for _, u := range usage {
		info := conversation.ModelInfo{
			Model:               u.Model,
			UsageCount:          u.Count,
			TotalTokens:         u.TotalTokens,
			AvgProcessingTimeMs: u.AvgProcessingTime,
		}
		var free sql.NullBool
		var last sql.NullTime
		err := r.db.QueryRowContext(ctx, latest, u.Model).Scan(&free, &last)
		if err != nil && err != sql.ErrNoRows {
			return nil, mapError(err, "Failed to read model usage")
		}
		info.IsFreeModel = free.Bool
		info.LastUsed = timePtr(last)
		models = append(models, info)
	}
	return models, nil
}

// FreeUsage counts all usage records and those on free models
func (r *ConversationRepository) FreeUsage(ctx context.Context) (int64, int64, error) {
	var total, free int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_free_model THEN 1 ELSE 0 END), 0)
		FROM chat.usage_tracking`).Scan(&total, &free)
	if err != nil {
		return 0, 0, mapError(err, "Failed to count model usage")
	}
	return total, free, nil
}
