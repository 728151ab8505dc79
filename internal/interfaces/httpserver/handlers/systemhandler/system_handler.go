package systemhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/domain/chat"
	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/infrastructure/database"
	"genai-studio/chat-api/internal/interfaces/httpserver/middlewares"
	"genai-studio/chat-api/internal/interfaces/httpserver/responses"
)

type SystemHandler struct {
	chatService   *chat.Service
	conversations *conversation.ConversationService
	db            *gorm.DB
	cfg           *config.Config
}

func NewSystemHandler(chatService *chat.Service, conversations *conversation.ConversationService, db *gorm.DB, cfg *config.Config) *SystemHandler {
	return &SystemHandler{
		chatService:   chatService,
		conversations: conversations,
		db:            db,
		cfg:           cfg,
	}
}

func healthWord(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}

// Health reports application, upstream API and database health plus totals.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	apiHealthy := h.chatService.Healthy(ctx)
	dbHealthy := database.Ping(ctx, h.db) == nil

	var totalConversations, totalMessages int64
	if stats, err := h.conversations.Stats(ctx, middlewares.UserIDFromContext(c)); err == nil {
		totalConversations = stats.TotalConversations
		totalMessages = stats.TotalMessages
	}

	c.JSON(http.StatusOK, gin.H{
		"app":                 "healthy",
		"api":                 healthWord(apiHealthy),
		"database":            healthWord(dbHealthy),
		"model":               h.cfg.GenAIModel,
		"course":              h.cfg.CourseName,
		"file_upload_enabled": true,
		"total_conversations": totalConversations,
		"total_messages":      totalMessages,
	})
}

// ConfigInfo exposes the public, non-secret configuration.
func (h *SystemHandler) ConfigInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"course": gin.H{
			"name": h.cfg.CourseName,
		},
		"assistant": gin.H{
			"name": h.cfg.AssistantName,
		},
		"model":          h.cfg.GenAIModel,
		"context_window": h.cfg.ContextWindow,
		"retention_days": h.cfg.RetentionDays,
		"file_upload": gin.H{
			"enabled":            true,
			"max_size_mb":        h.cfg.UploadMaxMB,
			"allowed_extensions": h.cfg.UploadAllowedExts,
		},
	})
}

// ClearSession drops the anonymous session cookie.
func (h *SystemHandler) ClearSession(c *gin.Context) {
	middlewares.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats returns usage counters for the caller and globally.
func (h *SystemHandler) Stats(c *gin.Context) {
	stats, err := h.conversations.Stats(c.Request.Context(), middlewares.UserIDFromContext(c))
	if err != nil {
		responses.HandleError(c, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, responses.NewStatsResponse(stats))
}
