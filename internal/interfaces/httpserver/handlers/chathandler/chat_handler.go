package chathandler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"genai-studio/chat-api/internal/config"
	"genai-studio/chat-api/internal/domain/chat"
	"genai-studio/chat-api/internal/interfaces/httpserver/middlewares"
	"genai-studio/chat-api/internal/interfaces/httpserver/requests"
	"genai-studio/chat-api/internal/interfaces/httpserver/responses"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

type ChatHandler struct {
	chatService *chat.Service
	cfg         *config.Config
}

func NewChatHandler(chatService *chat.Service, cfg *config.Config) *ChatHandler {
	return &ChatHandler{chatService: chatService, cfg: cfg}
}

// CompleteTurn accepts either a JSON body or a multipart form with file
// attachments and returns the assistant reply.
func (h *ChatHandler) CompleteTurn(c *gin.Context) {
	req, files, ok := h.parseTurn(c)
	if !ok {
		return
	}

	result, err := h.chatService.CompleteTurn(c.Request.Context(), chat.TurnRequest{
		UserID:         middlewares.UserIDFromContext(c),
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Files:          files,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to complete chat turn")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) parseTurn(c *gin.Context) (*requests.ChatRequest, []chat.File, bool) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipartTurn(c)
	}

	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body: a message is required", "1e8b4d2a-9c5f-4e7a-b0d3-6a2c8f5e1b4d")
		return nil, nil, false
	}
	return &req, nil, true
}

func (h *ChatHandler) parseMultipartTurn(c *gin.Context) (*requests.ChatRequest, []chat.File, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid multipart form", "b9e2c5a8-3d6f-4b1e-8a4c-0f7d2e9b5c3a")
		return nil, nil, false
	}

	req := &requests.ChatRequest{Message: c.PostForm("message")}
	if convID := strings.TrimSpace(c.PostForm("conversation_id")); convID != "" {
		req.ConversationID = &convID
	}

	var files []chat.File
	for _, header := range form.File["files"] {
		if header.Size > h.cfg.UploadMaxBytes() {
			responses.HandleNewError(c, platformerrors.ErrorTypePayloadTooLarge,
				fmt.Sprintf("File too large. Maximum size is %dMB", h.cfg.UploadMaxMB),
				"d4a7f0c3-6b9e-4d2a-8e5f-1c8b4a7d0e3f")
			return nil, nil, false
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !h.cfg.ExtensionAllowed(ext) {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("file type %q is not allowed", ext),
				"7c0e3b6d-9a2f-4c5e-b8d1-4f7a0c3e6b9d")
			return nil, nil, false
		}

		file, err := header.Open()
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("could not read uploaded file %q", header.Filename),
				"2f5b8e1c-4d7a-4f0b-9c6e-8a1d4f7b0c5e")
			return nil, nil, false
		}
		data, err := io.ReadAll(io.LimitReader(file, h.cfg.UploadMaxBytes()+1))
		file.Close()
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("could not read uploaded file %q", header.Filename),
				"5a8d1f4b-7c0e-4a3d-8f2b-0e5c8a1f4d7b")
			return nil, nil, false
		}
		if int64(len(data)) > h.cfg.UploadMaxBytes() {
			responses.HandleNewError(c, platformerrors.ErrorTypePayloadTooLarge,
				fmt.Sprintf("File too large. Maximum size is %dMB", h.cfg.UploadMaxMB),
				"8e1c4a7d-0f3b-4e6c-9a5d-2b8f5c0e3a6d")
			return nil, nil, false
		}

		files = append(files, chat.File{Name: filepath.Base(header.Filename), Data: data})
	}

	return req, files, true
}
