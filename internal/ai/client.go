package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"hirescore/internal/config"
	"hirescore/internal/errors"
)

// ChatProvider implements Provider against an OpenAI-style
// chat-completions endpoint. One request per Complete call, fixed
// parameters, no retries; the caller decides whether to retry.
type ChatProvider struct {
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *CompletionBreaker
	logger         *errors.Logger
}

var _ Provider = (*ChatProvider)(nil)

// NewChatProvider creates a chat-completions provider for a specific
// analysis kind.
func NewChatProvider(cfg *config.OperationAIConfig, kind Kind, logger *errors.Logger) (*ChatProvider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"chat provider requires an endpoint", nil)
	}

	return &ChatProvider{
		httpClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:         cfg,
		circuitBreaker: NewCompletionBreaker(kind, cfg, logger),
		logger:         logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one chat-completion request and returns the raw
// completion text.
func (p *ChatProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("hirescore.ai.chat")
	ctx, span := tracer.Start(ctx, "chat.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "chat"),
		attribute.String("ai.model", p.config.Model),
		attribute.Float64("ai.temperature", float64(*p.config.Temperature)),
		attribute.Int("ai.prompt_length", len(userPrompt)),
	)

	var usage *TokenUsage
	content, err := p.circuitBreaker.Execute(func() (string, error) {
		text, u, callErr := p.call(ctx, systemPrompt, userPrompt)
		usage = u
		return text, callErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return content, usage, nil
}

// call performs the single HTTP exchange.
func (p *ChatProvider) call(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	reqBody := chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: *p.config.Temperature,
		MaxTokens:   *p.config.MaxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, errors.NewInternalError(errors.ErrCodeAIServiceFailed,
			"Failed to encode completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", nil, errors.NewInternalError(errors.ErrCodeAIServiceFailed,
			"Failed to build completion request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Transport-level failures are transient upstream faults.
		return "", nil, errors.NewNetworkError(errors.ErrCodeServiceUnavailable,
			"Completion service unreachable", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && p.logger != nil {
			p.logger.Warn("Failed to close completion response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errors.NewNetworkError(errors.ErrCodeServiceUnavailable,
			"Failed to read completion response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, classifyStatus(resp.StatusCode, body)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", nil, errors.NewAIError(errors.ErrCodeUnknown,
			"Completion response is not valid JSON", err)
	}
	if len(result.Choices) == 0 {
		return "", nil, errors.NewAIError(errors.ErrCodeUnknown,
			"Completion response contains no choices", nil)
	}

	usage := &TokenUsage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
	}

	return result.Choices[0].Message.Content, usage, nil
}

// classifyStatus maps an HTTP failure status to the completion-call error
// taxonomy. Only the status is classified; the upstream error message is
// carried through as human-readable detail.
func classifyStatus(status int, body []byte) *errors.AppError {
	detail := extractErrorDetail(body)

	var code string
	switch {
	case status == http.StatusUnauthorized:
		code = errors.ErrCodeUnauthenticated
	case status == http.StatusForbidden:
		code = errors.ErrCodeForbidden
	case status == http.StatusTooManyRequests:
		code = errors.ErrCodeRateLimited
	case status >= 500:
		code = errors.ErrCodeServiceUnavailable
	default:
		code = errors.ErrCodeUnknown
	}

	message := fmt.Sprintf("Completion request failed with status %d", status)
	if detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}

	return errors.NewAIError(code, message, nil).WithContext("status", status)
}

// extractErrorDetail pulls the upstream error message out of a non-2xx
// body when one is present.
func extractErrorDetail(body []byte) string {
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return errResp.Error.Message
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (p *ChatProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"completions":     p.circuitBreaker.GetStats(),
		"overall_healthy": p.circuitBreaker.IsHealthy(),
	}
}

// Close implements Provider
func (p *ChatProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
