package conversation

import (
	"context"
	"strings"
	"time"

	"genai-studio/chat-api/internal/domain/query"
	"genai-studio/chat-api/internal/infrastructure/metrics"
	"genai-studio/chat-api/internal/utils/idgen"
	"genai-studio/chat-api/internal/utils/platformerrors"
	"genai-studio/chat-api/internal/utils/stringutils"
)

const (
	publicIDLength  = 16
	maxContentBytes = 1 << 20 // 1MB per message after file merge
)

// ConversationService handles business logic for conversations
type ConversationService struct {
	repo          ConversationRepository
	titleMaxChars int
}

// NewConversationService creates a new conversation service
func NewConversationService(repo ConversationRepository, titleMaxChars int) *ConversationService {
	if titleMaxChars <= 0 {
		titleMaxChars = 50
	}
	return &ConversationService{
		repo:          repo,
		titleMaxChars: titleMaxChars,
	}
}

// CreateConversation allocates a public ID and persists a fresh conversation.
func (s *ConversationService) CreateConversation(ctx context.Context, userID string, title *string) (*Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "user identity is required", nil, "7f2a9c41-6d1e-4b8a-9c3f-0e5d2a7b4c1d")
	}

	publicID, err := idgen.GenerateSecureID("conv", publicIDLength)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate conversation ID")
	}

	conv := NewConversation(publicID, userID, title)
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	metrics.ConversationsCreatedTotal.Inc()
	return conv, nil
}

// GetOwnedConversation retrieves a conversation by public ID and validates
// ownership. A foreign owner is indistinguishable from a missing row.
func (s *ConversationService) GetOwnedConversation(ctx context.Context, userID, publicID string) (*Conversation, error) {
	conv, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if conv.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "c5e8d1f2-3a6b-4c9d-8e0f-1b4a7d2c5e8f")
	}
	return conv, nil
}

// ResolveOrCreate fetches an owned conversation when publicID is set, or
// lazily creates one titled from the seed message.
func (s *ConversationService) ResolveOrCreate(ctx context.Context, userID string, publicID *string, seedMessage string) (*Conversation, error) {
	if publicID != nil && strings.TrimSpace(*publicID) != "" {
		return s.GetOwnedConversation(ctx, userID, strings.TrimSpace(*publicID))
	}

	var title *string
	if derived := s.DeriveTitle(seedMessage); derived != "" {
		title = &derived
	}
	return s.CreateConversation(ctx, userID, title)
}

// DeriveTitle builds a conversation title from message content.
func (s *ConversationService) DeriveTitle(content string) string {
	return stringutils.GenerateTitle(content, s.titleMaxChars)
}

// AppendMessage validates and appends a turn, bumping the parent updated_at.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *Conversation, role Role, content string, model *string, usage *TokenUsage) (*Message, error) {
	if !role.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message role", nil, "9d3c6b1a-5e2f-4a8d-b7c0-4f1e8a3d6b9c")
	}
	if strings.TrimSpace(content) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content is empty", nil, "2b8e5d0c-7f4a-4d1b-9e6c-3a0f7c2d5b8e")
	}
	if len(content) > maxContentBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content too large", nil, "6a1d4e7f-0b3c-4f8a-8d5e-2c9b6f1a4d7e")
	}

	publicID, err := idgen.GenerateSecureID("msg", publicIDLength)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	msg := NewMessage(publicID, conv.ID, role, content)
	msg.Model = model
	msg.Usage = usage

	if err := s.repo.AppendMessage(ctx, conv.ID, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append message")
	}
	conv.UpdatedAt = msg.CreatedAt
	return msg, nil
}

// ContextWindow returns the most recent limit messages, oldest first. This
// is the exact window handed to the completion call.
func (s *ConversationService) ContextWindow(ctx context.Context, conv *Conversation, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	messages, err := s.repo.RecentMessages(ctx, conv.ID, limit)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load context window")
	}
	return messages, nil
}

// ListConversations returns a page of the user's conversations ordered by
// updated_at descending, plus the total count.
func (s *ConversationService) ListConversations(ctx context.Context, userID string, pagination *query.Pagination) ([]*Conversation, int64, error) {
	conversations, err := s.repo.FindByUser(ctx, userID, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count conversations")
	}

	return conversations, total, nil
}

// DeleteConversation cascades deletion of an owned conversation.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, publicID string) error {
	conv, err := s.GetOwnedConversation(ctx, userID, publicID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, conv.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// ExportConversation returns metadata plus the full ordered message list.
func (s *ConversationService) ExportConversation(ctx context.Context, userID, publicID string) (*Export, error) {
	conv, err := s.GetOwnedConversation(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	conv.MessageCount = int64(len(messages))

	return &Export{Conversation: conv, Messages: messages}, nil
}

// MessageCount returns the number of messages in a conversation.
func (s *ConversationService) MessageCount(ctx context.Context, conv *Conversation) (int64, error) {
	count, err := s.repo.CountMessages(ctx, conv.ID)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count messages")
	}
	return count, nil
}

// PurgeOlderThan removes conversations idle since before the horizon.
func (s *ConversationService) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	count, err := s.repo.PurgeOlderThan(ctx, horizon)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to purge conversations")
	}
	return count, nil
}

// Stats aggregates the user's and global usage counters.
func (s *ConversationService) Stats(ctx context.Context, userID string) (*Stats, error) {
	userConvs, userMsgs, err := s.repo.UserTotals(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load user totals")
	}
	totalConvs, totalMsgs, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load totals")
	}
	perDay, err := s.repo.DailyMessageCounts(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load per-day volume")
	}

	return &Stats{
		UserConversations:  userConvs,
		UserMessages:       userMsgs,
		TotalConversations: totalConvs,
		TotalMessages:      totalMsgs,
		MessagesPerDay:     perDay,
	}, nil
}
