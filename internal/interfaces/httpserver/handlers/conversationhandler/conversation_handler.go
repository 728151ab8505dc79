package conversationhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/interfaces/httpserver/middlewares"
	"genai-studio/chat-api/internal/interfaces/httpserver/requests"
	"genai-studio/chat-api/internal/interfaces/httpserver/responses"
)

type ConversationHandler struct {
	conversations *conversation.ConversationService
	cfg           *config.Config
}

func NewConversationHandler(conversations *conversation.ConversationService, cfg *config.Config) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, cfg: cfg}
}

// List returns a page of the caller's conversations, most recent first.
func (h *ConversationHandler) List(c *gin.Context) {
	userID := middlewares.UserIDFromContext(c)
	pagination := requests.PaginationFromQuery(c)

	conversations, total, err := h.conversations.ListConversations(c.Request.Context(), userID, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	resp := responses.ListConversationsResponse{
		Conversations: make([]responses.ConversationSummary, 0, len(conversations)),
		Total:         total,
	}
	for _, conv := range conversations {
		resp.Conversations = append(resp.Conversations, responses.NewConversationSummary(conv))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one owned conversation with its full message history.
func (h *ConversationHandler) Get(c *gin.Context) {
	userID := middlewares.UserIDFromContext(c)

	export, err := h.conversations.ExportConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}

	c.JSON(http.StatusOK, responses.NewConversationDetail(export))
}

// Delete removes an owned conversation and its messages.
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID := middlewares.UserIDFromContext(c)

	if err := h.conversations.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "message": "Conversation deleted"})
}

// Export returns the conversation as a downloadable JSON document.
func (h *ConversationHandler) Export(c *gin.Context) {
	userID := middlewares.UserIDFromContext(c)

	export, err := h.conversations.ExportConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "conversation not found")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=conversation-"+export.Conversation.PublicID+".json")
	c.JSON(http.StatusOK, responses.NewExportResponse(h.cfg.CourseName, export))
}
