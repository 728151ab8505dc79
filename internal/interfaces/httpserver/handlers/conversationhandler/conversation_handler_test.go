package conversationhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/domain/query"
	"genai-studio/chat-api/internal/interfaces/httpserver/middlewares"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

type stubRepo struct {
	conversations map[string]*conversation.Conversation
	deleted       []uint
}

func newStubRepo() *stubRepo {
	return &stubRepo{conversations: make(map[string]*conversation.Conversation)}
}

func (r *stubRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	conv.ID = uint(len(r.conversations) + 1)
	r.conversations[conv.PublicID] = conv
	return nil
}

func (r *stubRepo) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	if conv, ok := r.conversations[publicID]; ok {
		return conv, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "stub-not-found")
}

func (r *stubRepo) FindByUser(ctx context.Context, userID string, pagination *query.Pagination) ([]*conversation.Conversation, error) {
	return nil, nil
}

func (r *stubRepo) CountByUser(ctx context.Context, userID string) (int64, error) { return 0, nil }

func (r *stubRepo) UpdateTitle(ctx context.Context, id uint, title string) error { return nil }

func (r *stubRepo) Delete(ctx context.Context, id uint) error {
	r.deleted = append(r.deleted, id)
	for publicID, conv := range r.conversations {
		if conv.ID == id {
			delete(r.conversations, publicID)
		}
	}
	return nil
}

func (r *stubRepo) AppendMessage(ctx context.Context, conversationID uint, message *conversation.Message) error {
	return nil
}

func (r *stubRepo) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]*conversation.Message, error) {
	return nil, nil
}

func (r *stubRepo) ListMessages(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	return nil, nil
}

func (r *stubRepo) CountMessages(ctx context.Context, conversationID uint) (int64, error) {
	return 0, nil
}

func (r *stubRepo) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	return 0, nil
}

func (r *stubRepo) Totals(ctx context.Context) (int64, int64, error) { return 0, 0, nil }

func (r *stubRepo) UserTotals(ctx context.Context, userID string) (int64, int64, error) {
	return 0, 0, nil
}

func (r *stubRepo) DailyMessageCounts(ctx context.Context, since time.Time) ([]conversation.DailyCount, error) {
	return nil, nil
}

func newDeleteEngine(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := conversation.NewConversationService(repo, 50)
	handler := NewConversationHandler(service, &config.Config{})

	engine := gin.New()
	engine.Use(middlewares.Session(time.Hour))
	engine.DELETE("/conversations/:id", handler.Delete)
	return engine
}

func TestDeleteRespondsDeletedTrue(t *testing.T) {
	repo := newStubRepo()
	engine := newDeleteEngine(repo)

	service := conversation.NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/conversations/"+conv.PublicID, nil)
	req.Header.Set("Cookie", "assistant_session=session-1")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if deleted, ok := body["deleted"].(bool); !ok || !deleted {
		t.Errorf("expected deleted=true in response, got %v", body)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("expected one repository delete, got %d", len(repo.deleted))
	}
}

func TestDeleteForeignConversationNotFound(t *testing.T) {
	repo := newStubRepo()
	engine := newDeleteEngine(repo)

	service := conversation.NewConversationService(repo, 50)
	conv, err := service.CreateConversation(context.Background(), "owner-session", nil)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/conversations/"+conv.PublicID, nil)
	req.Header.Set("Cookie", "assistant_session=other-session")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign owner, got %d", rec.Code)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("nothing should be deleted, got %v", repo.deleted)
	}
}
