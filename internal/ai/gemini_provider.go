package ai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"
)

// GeminiProvider implements Provider for Google Gemini. Like the chat
// provider it performs one call per Complete and never retries.
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	circuitBreaker *CompletionBreaker
	logger         *hirescoreErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific
// analysis kind.
func NewGeminiProvider(cfg *config.OperationAIConfig, kind Kind, logger *hirescoreErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, hirescoreErrors.NewAIError(hirescoreErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewCompletionBreaker(kind, cfg, logger),
		logger:         logger,
	}, nil
}

// Complete sends one generation request and returns the raw completion text.
func (g *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("hirescore.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("ai.prompt_length", len(userPrompt)),
	)

	genConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genConfig.Temperature = g.config.Temperature
	}
	if *g.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(*g.config.MaxTokens)
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var usage *TokenUsage
	content, err := g.circuitBreaker.Execute(func() (string, error) {
		result, genErr := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genConfig)
		if genErr != nil {
			return "", classifyGeminiError(genErr)
		}
		usage = extractTokenUsage(result)
		return result.Text(), nil
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

// classifyGeminiError maps a Gemini API failure to the completion-call
// error taxonomy by its status signal.
func classifyGeminiError(err error) *hirescoreErrors.AppError {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return hirescoreErrors.NewNetworkError(hirescoreErrors.ErrCodeServiceUnavailable,
			"Completion service unreachable", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		var code string
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			code = hirescoreErrors.ErrCodeUnauthenticated
		case apiErr.Code == http.StatusForbidden:
			code = hirescoreErrors.ErrCodeForbidden
		case apiErr.Code == http.StatusTooManyRequests:
			code = hirescoreErrors.ErrCodeRateLimited
		case apiErr.Code >= 500:
			code = hirescoreErrors.ErrCodeServiceUnavailable
		default:
			code = hirescoreErrors.ErrCodeUnknown
		}
		return hirescoreErrors.NewAIError(code, apiErr.Message, err).WithContext("status", apiErr.Code)
	}

	return hirescoreErrors.NewAIError(hirescoreErrors.ErrCodeUnknown,
		"Completion request failed", err)
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"completions":     g.circuitBreaker.GetStats(),
		"overall_healthy": g.circuitBreaker.IsHealthy(),
	}
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}
