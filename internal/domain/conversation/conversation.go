package conversation

import (
	"context"
	"time"

	"genai-studio/chat-api/internal/domain/query"
)

// ===============================================
// Conversation Types
// ===============================================

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the store accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation is a titled, timestamped message thread owned by one user.
// UserID is an opaque identity (session ID or client address); all access
// is scoped by it.
type Conversation struct {
	ID           uint      `json:"-"`
	PublicID     string    `json:"id"`
	UserID       string    `json:"-"`
	Title        *string   `json:"title,omitempty"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenUsage mirrors the usage block returned by the completion API.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message is one turn in a conversation. Messages are append-only and never
// mutated after creation; ordering is (created_at, id).
type Message struct {
	ID             uint        `json:"-"`
	PublicID       string      `json:"id"`
	ConversationID uint        `json:"-"`
	Role           Role        `json:"role"`
	Content        string      `json:"content"`
	Model          *string     `json:"model,omitempty"`
	Usage          *TokenUsage `json:"usage,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Export is the full structured document for a conversation, independent of
// the context window limit.
type Export struct {
	Conversation *Conversation
	Messages     []*Message
}

// DailyCount is one day's message volume.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// Stats aggregates per-user and global usage counts.
type Stats struct {
	UserConversations  int64        `json:"user_conversations"`
	UserMessages       int64        `json:"user_messages"`
	TotalConversations int64        `json:"total_conversations"`
	TotalMessages      int64        `json:"total_messages"`
	MessagesPerDay     []DailyCount `json:"messages_per_day"`
}

// ===============================================
// Conversation Repository
// ===============================================

type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByUser(ctx context.Context, userID string, pagination *query.Pagination) ([]*Conversation, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	UpdateTitle(ctx context.Context, id uint, title string) error
	// Delete removes the conversation and all its messages in one transaction.
	Delete(ctx context.Context, id uint) error

	// AppendMessage inserts the message and bumps the parent's updated_at in
	// the same transaction.
	AppendMessage(ctx context.Context, conversationID uint, message *Message) error
	// RecentMessages returns the most recent limit messages in chronological
	// order (oldest of the window first).
	RecentMessages(ctx context.Context, conversationID uint, limit int) ([]*Message, error)
	// ListMessages returns every message in chronological order.
	ListMessages(ctx context.Context, conversationID uint) ([]*Message, error)
	CountMessages(ctx context.Context, conversationID uint) (int64, error)

	// PurgeOlderThan deletes every conversation (cascading messages) whose
	// updated_at is strictly before the horizon; returns the count deleted.
	PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error)

	Totals(ctx context.Context) (conversations, messages int64, err error)
	UserTotals(ctx context.Context, userID string) (conversations, messages int64, err error)
	DailyMessageCounts(ctx context.Context, since time.Time) ([]DailyCount, error)
}

// NewConversation creates a new conversation owned by userID.
func NewConversation(publicID, userID string, title *string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		PublicID:  publicID,
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMessage creates a message turn for a conversation.
func NewMessage(publicID string, conversationID uint, role Role, content string) *Message {
	return &Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}
