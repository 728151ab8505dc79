package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"genai-studio/chat-api/internal/domain/query"
	"genai-studio/chat-api/internal/infrastructure/metrics"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

type fakeRepo struct {
	nextID        uint
	conversations []*Conversation
	messages      map[uint][]*Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, messages: make(map[uint][]*Message)}
}

func (r *fakeRepo) Create(ctx context.Context, conv *Conversation) error {
	conv.ID = r.nextID
	r.nextID++
	r.conversations = append(r.conversations, conv)
	return nil
}

func (r *fakeRepo) FindByPublicID(ctx context.Context, publicID string) (*Conversation, error) {
	for _, conv := range r.conversations {
		if conv.PublicID == publicID {
			return conv, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "fake-not-found")
}

func (r *fakeRepo) FindByUser(ctx context.Context, userID string, pagination *query.Pagination) ([]*Conversation, error) {
	var out []*Conversation
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	convs, err := r.FindByUser(ctx, userID, nil)
	return int64(len(convs)), err
}

func (r *fakeRepo) UpdateTitle(ctx context.Context, id uint, title string) error {
	for _, conv := range r.conversations {
		if conv.ID == id {
			conv.Title = &title
		}
	}
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uint) error {
	kept := r.conversations[:0]
	for _, conv := range r.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	r.conversations = kept
	delete(r.messages, id)
	return nil
}

func (r *fakeRepo) AppendMessage(ctx context.Context, conversationID uint, message *Message) error {
	message.ID = r.nextID
	r.nextID++
	r.messages[conversationID] = append(r.messages[conversationID], message)
	return nil
}

func (r *fakeRepo) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]*Message, error) {
	msgs := r.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (r *fakeRepo) ListMessages(ctx context.Context, conversationID uint) ([]*Message, error) {
	return r.messages[conversationID], nil
}

func (r *fakeRepo) CountMessages(ctx context.Context, conversationID uint) (int64, error) {
	return int64(len(r.messages[conversationID])), nil
}

func (r *fakeRepo) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	var purged int64
	kept := r.conversations[:0]
	for _, conv := range r.conversations {
		if conv.UpdatedAt.Before(horizon) {
			delete(r.messages, conv.ID)
			purged++
			continue
		}
		kept = append(kept, conv)
	}
	r.conversations = kept
	return purged, nil
}

func (r *fakeRepo) Totals(ctx context.Context) (int64, int64, error) {
	var messages int64
	for _, msgs := range r.messages {
		messages += int64(len(msgs))
	}
	return int64(len(r.conversations)), messages, nil
}

func (r *fakeRepo) UserTotals(ctx context.Context, userID string) (int64, int64, error) {
	var convs, messages int64
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			convs++
			messages += int64(len(r.messages[conv.ID]))
		}
	}
	return convs, messages, nil
}

func (r *fakeRepo) DailyMessageCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	return nil, nil
}

func TestCreateConversationRequiresUser(t *testing.T) {
	service := NewConversationService(newFakeRepo(), 50)

	_, err := service.CreateConversation(context.Background(), "  ", nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("expected validation error type, got %v", err)
	}
}

func TestCreateConversationAssignsPrefixedID(t *testing.T) {
	service := NewConversationService(newFakeRepo(), 50)

	conv, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(conv.PublicID, "conv_") {
		t.Errorf("expected conv_ prefix, got %q", conv.PublicID)
	}
}

func TestCreateConversationCountsCreation(t *testing.T) {
	service := NewConversationService(newFakeRepo(), 50)

	before := testutil.ToFloat64(metrics.ConversationsCreatedTotal)
	if _, err := service.CreateConversation(context.Background(), "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := testutil.ToFloat64(metrics.ConversationsCreatedTotal)

	if after-before != 1 {
		t.Errorf("expected created counter to advance by 1, got %v", after-before)
	}
}

func TestResolveOrCreateDerivesTitle(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)

	conv, err := service.ResolveOrCreate(context.Background(), "user-1", nil, "Explain confidence intervals to me please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Title == nil || *conv.Title == "" {
		t.Fatal("expected a derived title")
	}
	if !strings.HasPrefix(*conv.Title, "Explain confidence intervals") {
		t.Errorf("unexpected title %q", *conv.Title)
	}
}

func TestGetOwnedConversationHidesForeignOwner(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)

	conv, err := service.CreateConversation(context.Background(), "alice", nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.GetOwnedConversation(context.Background(), "bob", conv.PublicID)
	if err == nil {
		t.Fatal("expected not found for foreign owner")
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("expected not found error type, got %v", err)
	}
}

func TestAppendMessageRejectsInvalidInput(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := service.AppendMessage(context.Background(), conv, Role("system"), "hi", nil, nil); err == nil {
		t.Error("expected rejection of unsupported role")
	}
	if _, err := service.AppendMessage(context.Background(), conv, RoleUser, "   ", nil, nil); err == nil {
		t.Error("expected rejection of empty content")
	}
	if _, err := service.AppendMessage(context.Background(), conv, RoleUser, strings.Repeat("x", maxContentBytes+1), nil, nil); err == nil {
		t.Error("expected rejection of oversized content")
	}
}

func TestContextWindowBoundedOldestFirst(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 6; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := service.AppendMessage(context.Background(), conv, role, strings.Repeat("m", i+1), nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	window, err := service.ContextWindow(context.Background(), conv, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 4 {
		t.Fatalf("expected window of 4, got %d", len(window))
	}
	if window[0].Content != "mmm" {
		t.Errorf("expected window to start at the third message, got %q", window[0].Content)
	}
	if window[3].Content != strings.Repeat("m", 6) {
		t.Errorf("expected the newest message last, got %q", window[3].Content)
	}
}

func TestExportIncludesEveryMessage(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 60; i++ {
		if _, err := service.AppendMessage(context.Background(), conv, RoleUser, "turn", nil, nil); err != nil {
			t.Fatal(err)
		}
	}

	export, err := service.ExportConversation(context.Background(), "user-1", conv.PublicID)
	if err != nil {
		t.Fatal(err)
	}
	if len(export.Messages) != 60 {
		t.Errorf("export must not be window-limited, got %d messages", len(export.Messages))
	}
	if export.Conversation.MessageCount != 60 {
		t.Errorf("expected message count 60, got %d", export.Conversation.MessageCount)
	}
}

func TestDeleteConversationEnforcesOwnership(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "alice", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := service.DeleteConversation(context.Background(), "bob", conv.PublicID); err == nil {
		t.Fatal("expected deletion by a foreign owner to fail")
	}
	if err := service.DeleteConversation(context.Background(), "alice", conv.PublicID); err != nil {
		t.Fatalf("owner deletion failed: %v", err)
	}
	if len(repo.conversations) != 0 {
		t.Error("conversation should be removed")
	}
}

func TestPurgeOlderThanBoundary(t *testing.T) {
	repo := newFakeRepo()
	service := NewConversationService(repo, 50)

	old, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	recent, err := service.CreateConversation(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	horizon := time.Now().AddDate(0, 0, -90)
	old.UpdatedAt = horizon.Add(-time.Minute)
	recent.UpdatedAt = horizon.Add(time.Minute)

	purged, err := service.PurgeOlderThan(context.Background(), horizon)
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Errorf("expected exactly one purge, got %d", purged)
	}
	if len(repo.conversations) != 1 || repo.conversations[0].ID != recent.ID {
		t.Error("recent conversation should survive the purge")
	}
}
