package ai

import "context"

// Kind identifies one of the four analysis request kinds. Each kind has
// its own prompt template, response schema, and completion configuration.
type Kind string

const (
	KindEvaluation Kind = "evaluation"
	KindMatching   Kind = "matching"
	KindQuestions  Kind = "questions"
	KindTurnover   Kind = "turnover"
)

// Kinds lists every analysis kind.
func Kinds() []Kind {
	return []Kind{KindEvaluation, KindMatching, KindQuestions, KindTurnover}
}

// Provider is a completion backend. It performs a single request and
// returns the raw completion text; prompt construction and response
// parsing live outside the provider. Providers never retry.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error)
	Close() error
}

// TokenUsage represents token usage information from completion responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}
