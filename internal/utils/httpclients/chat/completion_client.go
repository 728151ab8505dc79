package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"genai-studio/chat-api/internal/infrastructure/logger"
	"genai-studio/chat-api/internal/infrastructure/metrics"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

const healthProbeTimeout = 5 * time.Second

// Config carries the knobs for the upstream completion API.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

// CompletionClient talks to the GenAI chat completion endpoint with a bounded
// retry policy for transient failures.
type CompletionClient struct {
	client *resty.Client
	cfg    Config
}

func NewCompletionClient(client *resty.Client, cfg Config) *CompletionClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &CompletionClient{client: client, cfg: cfg}
}

// Model returns the configured model identifier.
func (c *CompletionClient) Model() string {
	return c.cfg.Model
}

// CreateChatCompletion posts the ordered turn list and returns the upstream
// response. Transport errors, 429 and 5xx are retried with exponential
// backoff; other 4xx fail immediately.
func (c *CompletionClient) CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	log := logger.WithComponent("completion")

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var lastErr *platformerrors.PlatformError
	backoff := c.cfg.Backoff
	attempts := c.cfg.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternalTransient, "completion request cancelled", ctx.Err(), "8d2f5a1c-7e4b-4d9a-b3c6-0f8e5a2d7b4c")
			}
			backoff *= 2
		}

		response, err := c.attempt(ctx, request)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if err.Type != platformerrors.ErrorTypeExternalTransient {
			return nil, err
		}
		metrics.UpstreamErrorsTotal.WithLabelValues("transient").Inc()
		log.Warn().Int("attempt", attempt).Int("max_attempts", attempts).Err(err).Msg("transient completion failure")
	}

	metrics.UpstreamErrorsTotal.WithLabelValues("exhausted").Inc()
	return nil, lastErr
}

func (c *CompletionClient) attempt(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, *platformerrors.PlatformError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var respBody openai.ChatCompletionResponse
	var errBody openai.ErrorResponse

	resp, err := c.client.R().
		SetContext(attemptCtx).
		SetAuthToken(c.cfg.APIKey).
		SetBody(request).
		SetResult(&respBody).
		SetError(&errBody).
		Post(c.cfg.BaseURL + "/api/chat/completions")
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternalTransient, "completion request failed", err, "4b7e1d9a-2c5f-4a8b-9d0e-6f3c8b1a5d7e")
	}

	if resp.IsError() {
		message := fmt.Sprintf("completion API returned %s", resp.Status())
		if errBody.Error != nil && errBody.Error.Message != "" {
			message = errBody.Error.Message
		}
		if isTransientStatus(resp.StatusCode()) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternalTransient, message, nil, "0c6a3f8d-5b2e-4d7a-8e1f-9d4b7c2a6e0f")
		}
		metrics.UpstreamErrorsTotal.WithLabelValues("permanent").Inc()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "5e9c2b7f-1a4d-4f8e-b6a0-3d7f0e5c8a2b")
	}

	if len(respBody.Choices) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "completion API returned no choices", nil, "a3f6d1e8-9b0c-4e5a-8f2d-7c1b4a9e6d3f")
	}

	return &respBody, nil
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Healthy probes the upstream models endpoint, used by the health route.
func (c *CompletionClient) Healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(probeCtx).
		SetAuthToken(c.cfg.APIKey).
		Get(c.cfg.BaseURL + "/api/models")
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}
