package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/infrastructure/logger"
	"genai-studio/chat-api/internal/infrastructure/metrics"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

const attachmentHeader = "\n\n--- Attached Files ---\n"

// Completer is the upstream completion API surface the orchestrator needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error)
	Model() string
	Healthy(ctx context.Context) bool
}

// TextExtractor turns an uploaded file into plain text for the model.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

// File is one uploaded attachment, already read into memory by the handler.
type File struct {
	Name string
	Data []byte
}

// TurnRequest is one user turn: a message, an optional existing conversation
// and optional attachments.
type TurnRequest struct {
	UserID         string
	ConversationID *string
	Message        string
	Files          []File
}

// TurnResult is the completed turn returned to the client.
type TurnResult struct {
	Content        string                   `json:"content"`
	ConversationID string                   `json:"conversation_id"`
	Model          string                   `json:"model"`
	Usage          *conversation.TokenUsage `json:"usage,omitempty"`
	MessageCount   int64                    `json:"message_count"`
	Warnings       []string                 `json:"warnings,omitempty"`
}

// Config carries the orchestration knobs.
type Config struct {
	ContextWindow    int
	RetentionDays    int
	SweepProbability float64
}

// Service runs the chat turn loop: persist the user message, assemble the
// context window, call the completion API and persist the reply.
type Service struct {
	conversations *conversation.ConversationService
	completer     Completer
	extractor     TextExtractor
	cfg           Config
	rng           func() float64
}

func NewService(conversations *conversation.ConversationService, completer Completer, extractor TextExtractor, cfg Config) *Service {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 50
	}
	return &Service{
		conversations: conversations,
		completer:     completer,
		extractor:     extractor,
		cfg:           cfg,
		rng:           rand.Float64,
	}
}

// CompleteTurn runs one user turn end to end. Extraction failures downgrade
// to warnings so a bad attachment never loses the typed message; an upstream
// failure leaves the stored user message in place.
func (s *Service) CompleteTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	log := logger.WithComponent("chat")
	start := time.Now()

	if strings.TrimSpace(req.Message) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "no message provided", nil, "6f2d8b4a-1e7c-4a9f-b5d0-3c8e6a1f9d2b")
	}

	content, warnings := s.assembleContent(req)

	conv, err := s.conversations.ResolveOrCreate(ctx, req.UserID, req.ConversationID, content)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, conv, conversation.RoleUser, content, nil, nil); err != nil {
		return nil, err
	}

	window, err := s.conversations.ContextWindow(ctx, conv, s.cfg.ContextWindow)
	if err != nil {
		return nil, err
	}

	apiMessages := make([]openai.ChatCompletionMessage, 0, len(window))
	for _, msg := range window {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	response, err := s.completer.CreateChatCompletion(ctx, apiMessages)
	if err != nil {
		metrics.RecordChatTurn(s.completer.Model(), "error", time.Since(start).Seconds())
		return nil, err
	}

	model := response.Model
	if model == "" {
		model = s.completer.Model()
	}
	usage := &conversation.TokenUsage{
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
	}
	assistantContent := response.Choices[0].Message.Content

	if _, err := s.conversations.AppendMessage(ctx, conv, conversation.RoleAssistant, assistantContent, &model, usage); err != nil {
		return nil, err
	}

	count, err := s.conversations.MessageCount(ctx, conv)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.PublicID).Msg("failed to count messages")
		count = 0
	}

	metrics.RecordChatTurn(model, "ok", time.Since(start).Seconds())
	metrics.RecordTokens(model, usage.PromptTokens, usage.CompletionTokens)

	s.maybeSweep()

	return &TurnResult{
		Content:        assistantContent,
		ConversationID: conv.PublicID,
		Model:          model,
		Usage:          usage,
		MessageCount:   count,
		Warnings:       warnings,
	}, nil
}

// assembleContent appends extracted attachment text to the typed message. A
// file that cannot be extracted is replaced by an inline error marker and
// reported as a warning.
func (s *Service) assembleContent(req TurnRequest) (string, []string) {
	if len(req.Files) == 0 {
		return req.Message, nil
	}

	log := logger.WithComponent("chat")
	var warnings []string
	sections := make([]string, 0, len(req.Files))
	for _, file := range req.Files {
		text, err := s.extractor.Extract(file.Name, file.Data)
		if err != nil {
			log.Warn().Err(err).Str("file", file.Name).Msg("attachment extraction failed")
			metrics.RecordExtraction(fileExtension(file.Name), "error")
			warnings = append(warnings, fmt.Sprintf("could not read %s: %v", file.Name, err))
			sections = append(sections, fmt.Sprintf("File: %s\n[Error processing file: %v]", file.Name, err))
			continue
		}
		metrics.RecordExtraction(fileExtension(file.Name), "ok")
		sections = append(sections, text)
	}

	return req.Message + attachmentHeader + strings.Join(sections, "\n\n"), warnings
}

func fileExtension(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return strings.ToLower(name[idx:])
	}
	return ""
}

// maybeSweep runs a retention purge on a small fraction of turns, as a
// backstop for the scheduled sweep.
func (s *Service) maybeSweep() {
	if s.cfg.SweepProbability <= 0 || s.rng() >= s.cfg.SweepProbability {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Sweep(ctx)
	}()
}

// Sweep purges conversations idle past the retention horizon.
func (s *Service) Sweep(ctx context.Context) {
	log := logger.WithComponent("chat")
	horizon := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	purged, err := s.conversations.PurgeOlderThan(ctx, horizon)
	if err != nil {
		log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if purged > 0 {
		metrics.ConversationsPurgedTotal.Add(float64(purged))
		log.Info().Int64("purged", purged).Time("horizon", horizon).Msg("retention sweep completed")
	}
}

// Healthy reports whether the upstream completion API is reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	healthy := s.completer.Healthy(ctx)
	metrics.SetUpstreamHealth(healthy)
	return healthy
}
