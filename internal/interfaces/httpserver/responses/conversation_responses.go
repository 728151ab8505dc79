package responses

import (
	"time"

	"genai-studio/chat-api/internal/domain/conversation"
)

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        *string   `json:"title"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageResponse is one turn in a conversation detail or export.
type MessageResponse struct {
	ID        string                   `json:"id"`
	Role      string                   `json:"role"`
	Content   string                   `json:"content"`
	Model     *string                  `json:"model,omitempty"`
	Usage     *conversation.TokenUsage `json:"usage,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	ConversationSummary
	Messages []MessageResponse `json:"messages"`
}

// ListConversationsResponse pages a user's conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int64                 `json:"total"`
}

// ExportResponse is the downloadable conversation document.
type ExportResponse struct {
	Course         string            `json:"course"`
	ConversationID string            `json:"conversation_id"`
	Title          *string           `json:"title"`
	CreatedAt      time.Time         `json:"created_at"`
	Messages       []MessageResponse `json:"messages"`
}

// StatsResponse mirrors the aggregate usage counters.
type StatsResponse struct {
	UserConversations  int64                     `json:"user_conversations"`
	UserMessages       int64                     `json:"user_messages"`
	TotalConversations int64                     `json:"total_conversations"`
	TotalMessages      int64                     `json:"total_messages"`
	MessagesPerDay     []conversation.DailyCount `json:"messages_per_day,omitempty"`
}

func NewConversationSummary(conv *conversation.Conversation) ConversationSummary {
	return ConversationSummary{
		ID:           conv.PublicID,
		Title:        conv.Title,
		MessageCount: conv.MessageCount,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func NewMessageResponse(msg *conversation.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.PublicID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Model:     msg.Model,
		Usage:     msg.Usage,
		CreatedAt: msg.CreatedAt,
	}
}

func NewConversationDetail(export *conversation.Export) ConversationDetail {
	detail := ConversationDetail{
		ConversationSummary: NewConversationSummary(export.Conversation),
		Messages:            make([]MessageResponse, 0, len(export.Messages)),
	}
	for _, msg := range export.Messages {
		detail.Messages = append(detail.Messages, NewMessageResponse(msg))
	}
	return detail
}

func NewExportResponse(course string, export *conversation.Export) ExportResponse {
	resp := ExportResponse{
		Course:         course,
		ConversationID: export.Conversation.PublicID,
		Title:          export.Conversation.Title,
		CreatedAt:      export.Conversation.CreatedAt,
		Messages:       make([]MessageResponse, 0, len(export.Messages)),
	}
	for _, msg := range export.Messages {
		resp.Messages = append(resp.Messages, NewMessageResponse(msg))
	}
	return resp
}

func NewStatsResponse(stats *conversation.Stats) StatsResponse {
	return StatsResponse{
		UserConversations:  stats.UserConversations,
		UserMessages:       stats.UserMessages,
		TotalConversations: stats.TotalConversations,
		TotalMessages:      stats.TotalMessages,
		MessagesPerDay:     stats.MessagesPerDay,
	}
}
