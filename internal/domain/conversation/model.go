package conversation

import (
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/adminservice/internal/domain/user"
	"github.com/pratik-mahalle/adminservice/internal/pkg/query"
	"github.com/pratik-mahalle/adminservice/internal/pkg/utils"
)

// Conversation is a chatbot conversation from chat.conversations
type Conversation struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Title        *string         `json:"title"`
	ContextType  *string         `json:"context_type"`
	ContextData  json.RawMessage `json:"context_data"`
	Status       string          `json:"status"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	User         *user.Summary   `json:"user"`
	MessageCount int64           `json:"messageCount"`
}

// Detail adds token totals to a conversation
type Detail struct {
	*Conversation
	TotalTokens int64   `json:"totalTokens"`
	TotalCost   float64 `json:"totalCost"`
}

// Message is a row of chat.messages with its usage record
type Message struct {
	ID              string          `json:"id"`
	ConversationID  string          `json:"conversation_id"`
	SenderType      string          `json:"sender_type"`
	Content         string          `json:"content"`
	ContentType     string          `json:"content_type"`
	Metadata        json.RawMessage `json:"metadata"`
	ParentMessageID *string         `json:"parent_message_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Usage           *Usage          `json:"usage"`
}

// Usage is a chat.usage_tracking row
type Usage struct {
	ID               string    `json:"id"`
	ModelUsed        string    `json:"model_used"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	CostCredits      float64   `json:"cost_credits"`
	IsFreeModel      bool      `json:"is_free_model"`
	ProcessingTimeMs *int64    `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary is the conversation header returned with its messages
type Summary struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Status      string  `json:"status"`
	ContextType *string `json:"context_type"`
}

// Messages is one page of a conversation's messages
type Messages struct {
	Conversation Summary          `json:"conversation"`
	Messages     []*Message       `json:"messages"`
	Pagination   utils.Pagination `json:"pagination"`
}

// Filter contains conversation filtering options
type Filter struct {
	Status      string
	UserID      string
	ContextType string
	Search      string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// Apply adds the filter's predicates to w
func (f Filter) Apply(w *query.Where) {
	w.Eq("c.status", f.Status)
	w.Eq("c.user_id", f.UserID)
	w.Eq("c.context_type", f.ContextType)
	w.Contains(f.Search, "c.title")
	w.Range("c.created_at", f.DateFrom, f.DateTo)
}

// ListSpec describes the sortable columns of the conversation list
var ListSpec = query.Spec{
	DefaultLimit: 20,
	DefaultSort:  "created_at",
	SortFields: map[string]string{
		"created_at": "c.created_at",
		"updated_at": "c.updated_at",
		"title":      "c.title",
		"status":     "c.status",
	},
}

// MessageListSpec pages messages oldest first
var MessageListSpec = query.Spec{
	DefaultLimit: 50,
	DefaultSort:  "created_at",
	SortFields:   map[string]string{"created_at": "m.created_at"},
}

// Stats is the chatbot dashboard
type Stats struct {
	Overview        Overview         `json:"overview"`
	Today           Today            `json:"today"`
	ModelUsage      []ModelUsage     `json:"modelUsage"`
	Performance     Performance      `json:"performance"`
	TokenUsage      TokenUsage       `json:"tokenUsage"`
	StatusBreakdown map[string]int64 `json:"statusBreakdown"`
	DailyMetrics    []DailyCount     `json:"dailyMetrics"`
	DailyMessages   []DailyCount     `json:"dailyMessages"`
}

// Overview counts conversations and messages
type Overview struct {
	TotalConversations         int64   `json:"totalConversations"`
	TotalMessages              int64   `json:"totalMessages"`
	ActiveConversations        int64   `json:"activeConversations"`
	AvgMessagesPerConversation float64 `json:"avgMessagesPerConversation"`
}

// Today counts activity since local midnight
type Today struct {
	Conversations int64 `json:"conversations"`
	Messages      int64 `json:"messages"`
}

// ModelUsage aggregates usage per model
type ModelUsage struct {
	Model             string  `json:"model"`
	Count             int64   `json:"count"`
	TotalTokens       int64   `json:"totalTokens"`
	AvgProcessingTime float64 `json:"avgProcessingTime"`
}

// Performance is the average model response time
type Performance struct {
	AvgResponseTimeMs      float64 `json:"avgResponseTimeMs"`
	AvgResponseTimeSeconds float64 `json:"avgResponseTimeSeconds"`
}

// TokenUsage sums usage across all conversations
type TokenUsage struct {
	TotalPromptTokens     int64   `json:"totalPromptTokens"`
	TotalCompletionTokens int64   `json:"totalCompletionTokens"`
	TotalTokens           int64   `json:"totalTokens"`
	TotalCost             float64 `json:"totalCost"`
}

// DailyCount is one day of a 7-day breakdown
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Models lists every model seen in usage tracking
type Models struct {
	Models  []ModelInfo  `json:"models"`
	Summary ModelSummary `json:"summary"`
}

// ModelInfo is the usage of one model
type ModelInfo struct {
	Model               string     `json:"model"`
	UsageCount          int64      `json:"usageCount"`
	TotalTokens         int64      `json:"totalTokens"`
	AvgProcessingTimeMs float64    `json:"avgProcessingTimeMs"`
	IsFreeModel         bool       `json:"isFreeModel"`
	LastUsed            *time.Time `json:"lastUsed"`
}

// ModelSummary splits usage between free and paid models
type ModelSummary struct {
	TotalModels         int     `json:"totalModels"`
	TotalUsage          int64   `json:"totalUsage"`
	FreeModelUsage      int64   `json:"freeModelUsage"`
	PaidModelUsage      int64   `json:"paidModelUsage"`
	FreeModelPercentage float64 `json:"freeModelPercentage"`
}

// Totals are the raw aggregates behind Stats
type Totals struct {
	Conversations      int64
	Messages           int64
	Active             int64
	ConversationsToday int64
	MessagesToday      int64
	AvgResponseTimeMs  float64
	Tokens             TokenUsage
}

// StatusActive is the status of an open conversation
const StatusActive = "active"

// DailyWindow is the number of days in the daily breakdowns
const DailyWindow = 7
