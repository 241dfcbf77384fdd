package ai

import (
	"context"
	"fmt"
	"sync"

	"hirescore/internal/config"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
)

// Analyzer runs the four analysis kinds. Each kind has its own provider,
// constructed lazily on first use so that a missing credential surfaces
// as a not-configured state at call time rather than a startup failure.
type Analyzer struct {
	cfg    *config.Config
	logger *errors.Logger

	mu        sync.Mutex
	providers map[Kind]Provider

	onParseFallback func(ctx context.Context, kind Kind)
}

// SetParseFallbackHook registers a callback invoked whenever a completion
// response cannot be parsed and a default analysis is substituted. The
// observability layer uses it to count degraded responses.
func (a *Analyzer) SetParseFallbackHook(fn func(ctx context.Context, kind Kind)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onParseFallback = fn
}

// NewAnalyzer creates an analyzer over the application configuration.
func NewAnalyzer(cfg *config.Config, logger *errors.Logger) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		logger:    logger,
		providers: make(map[Kind]Provider),
	}
}

// operationConfig returns the resolved completion configuration for a kind.
func (a *Analyzer) operationConfig(kind Kind) config.OperationAIConfig {
	switch kind {
	case KindEvaluation:
		return a.cfg.GetEvaluationConfig()
	case KindMatching:
		return a.cfg.GetMatchingConfig()
	case KindQuestions:
		return a.cfg.GetQuestionsConfig()
	case KindTurnover:
		return a.cfg.GetTurnoverConfig()
	default:
		return a.cfg.GetEvaluationConfig()
	}
}

// provider returns the provider for a kind, constructing it on first use.
// The caller must have verified the kind is configured.
func (a *Analyzer) provider(kind Kind, opCfg *config.OperationAIConfig) (Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.providers[kind]; ok {
		return p, nil
	}

	var p Provider
	var err error
	switch opCfg.Provider {
	case "chat":
		p, err = NewChatProvider(opCfg, kind, a.logger)
	case "gemini":
		p, err = NewGeminiProvider(opCfg, kind, a.logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	a.providers[kind] = p
	return p, nil
}

// complete runs the shared request path for a kind: configuration check,
// prompt dispatch, single completion call. The credential check happens
// before any provider or network work.
func (a *Analyzer) complete(ctx context.Context, kind Kind, prompt string) (string, *TokenUsage, error) {
	opCfg := a.operationConfig(kind)
	if !opCfg.Configured() {
		return "", nil, errors.NewConfigError(errors.ErrCodeNotConfigured,
			"No completion API credential is configured", nil)
	}

	p, err := a.provider(kind, &opCfg)
	if err != nil {
		return "", nil, err
	}

	return p.Complete(ctx, systemPrompt(), prompt)
}

// logParseFallback records a parse failure; a degraded default was
// substituted, the caller never sees an error.
func (a *Analyzer) logParseFallback(ctx context.Context, kind Kind, text string) {
	if a.logger != nil {
		a.logger.Warn("Completion response unparseable, using default analysis",
			"kind", string(kind),
			"response_length", len(text))
	}

	a.mu.Lock()
	hook := a.onParseFallback
	a.mu.Unlock()
	if hook != nil {
		hook(ctx, kind)
	}
}

// AnalyzeEvaluation requests the overall fit assessment for a candidate.
func (a *Analyzer) AnalyzeEvaluation(ctx context.Context, in PromptInput) (domain.EvaluationAnalysis, *TokenUsage, error) {
	text, usage, err := a.complete(ctx, KindEvaluation, BuildEvaluationPrompt(in))
	if err != nil {
		return domain.EvaluationAnalysis{}, nil, err
	}
	result, parsed := ParseEvaluation(text)
	if !parsed {
		a.logParseFallback(ctx, KindEvaluation, text)
	}
	return result, usage, nil
}

// AnalyzeMatching requests the per-criterion matching assessment.
func (a *Analyzer) AnalyzeMatching(ctx context.Context, in PromptInput) (domain.MatchingAnalysis, *TokenUsage, error) {
	text, usage, err := a.complete(ctx, KindMatching, BuildMatchingPrompt(in))
	if err != nil {
		return domain.MatchingAnalysis{}, nil, err
	}
	result, parsed := ParseMatching(text)
	if !parsed {
		a.logParseFallback(ctx, KindMatching, text)
	}
	return result, usage, nil
}

// GenerateQuestions requests interview questions for a candidate.
func (a *Analyzer) GenerateQuestions(ctx context.Context, in PromptInput) (domain.QuestionSet, *TokenUsage, error) {
	text, usage, err := a.complete(ctx, KindQuestions, BuildQuestionsPrompt(in))
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	result, parsed := ParseQuestions(text)
	if !parsed {
		a.logParseFallback(ctx, KindQuestions, text)
	}
	return result, usage, nil
}

// AnalyzeTurnover requests the turnover-risk estimate.
func (a *Analyzer) AnalyzeTurnover(ctx context.Context, in PromptInput) (domain.TurnoverAnalysis, *TokenUsage, error) {
	text, usage, err := a.complete(ctx, KindTurnover, BuildTurnoverPrompt(in))
	if err != nil {
		return domain.TurnoverAnalysis{}, nil, err
	}
	result, parsed := ParseTurnover(text)
	if !parsed {
		a.logParseFallback(ctx, KindTurnover, text)
	}
	return result, usage, nil
}

// Stats returns provider statistics for the health endpoint, keyed by kind.
func (a *Analyzer) Stats() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := make(map[string]any, len(a.providers))
	for kind, p := range a.providers {
		switch prov := p.(type) {
		case *ChatProvider:
			stats[string(kind)] = prov.GetCircuitBreakerStats()
		case *GeminiProvider:
			stats[string(kind)] = prov.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close releases every constructed provider.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for kind, p := range a.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(a.providers, kind)
	}
	return firstErr
}
