package ai

import (
	"context"
	"testing"
	"time"

	"hirescore/internal/config"
	"hirescore/internal/errors"
)

// stubProvider returns a canned completion and counts calls, so tests can
// prove whether the analyzer reached a provider at all.
type stubProvider struct {
	response string
	err      error
	usage    *TokenUsage
	calls    int
	closed   bool
}

func (s *stubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return "", nil, s.err
	}
	return s.response, s.usage, nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func testConfig(apiKey string) *config.Config {
	cfg := &config.Config{}
	cfg.AI.Provider = "chat"
	cfg.AI.Endpoint = "http://localhost:1/v1/chat/completions"
	cfg.AI.Model = "gpt-4o-mini"
	cfg.AI.APIKey = apiKey
	cfg.AI.Timeout = 5 * time.Second
	cfg.AI.Temperature = 0.3
	cfg.AI.MaxTokens = 2048
	return cfg
}

func TestAnalyzerNotConfigured(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(""), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	// Even with a live provider already cached, a missing credential must
	// fail before any provider is consulted.
	stub := &stubProvider{response: `{"recommendedScore":4}`}
	analyzer.providers[KindEvaluation] = stub

	_, _, err := analyzer.AnalyzeEvaluation(context.Background(), sampleInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Code(err) != errors.ErrCodeNotConfigured {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeNotConfigured)
	}
	if stub.calls != 0 {
		t.Errorf("provider was called %d times, want 0", stub.calls)
	}
}

func TestAnalyzerEvaluationSuccess(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	stub := &stubProvider{
		response: `{"recommendedScore":4,"confidence":0.8,"reasoning":"strong background","strengths":["go"],"riskFactors":[],"recommendations":["probe depth"]}`,
		usage:    &TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}
	analyzer.providers[KindEvaluation] = stub

	result, usage, err := analyzer.AnalyzeEvaluation(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("AnalyzeEvaluation failed: %v", err)
	}

	if result.RecommendedScore != 4 || result.Confidence != 0.8 {
		t.Errorf("result = %+v", result)
	}
	if result.Reasoning != "strong background" {
		t.Errorf("reasoning = %q", result.Reasoning)
	}
	if usage == nil || usage.TotalTokens != 150 {
		t.Errorf("usage = %+v", usage)
	}
	if stub.calls != 1 {
		t.Errorf("provider calls = %d, want 1", stub.calls)
	}
}

func TestAnalyzerParseFallbackIsNotAnError(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	stub := &stubProvider{response: "I am sorry, I cannot answer in JSON today."}
	analyzer.providers[KindEvaluation] = stub
	analyzer.providers[KindTurnover] = stub

	result, _, err := analyzer.AnalyzeEvaluation(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("unreadable response must not surface as an error, got %v", err)
	}
	if result.RecommendedScore != defaultScore || result.Confidence != defaultConfid {
		t.Errorf("result = %+v, want the default analysis", result)
	}
	if result.Reasoning != fallbackReasoning {
		t.Errorf("reasoning = %q, want the fallback message", result.Reasoning)
	}

	turnover, _, err := analyzer.AnalyzeTurnover(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("AnalyzeTurnover failed: %v", err)
	}
	if turnover.RiskScore != 0.5 {
		t.Errorf("turnover = %+v, want the default analysis", turnover)
	}
}

func TestAnalyzerParseFallbackHook(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	var fallbacks []Kind
	analyzer.SetParseFallbackHook(func(ctx context.Context, kind Kind) {
		fallbacks = append(fallbacks, kind)
	})

	analyzer.providers[KindEvaluation] = &stubProvider{response: "not json"}
	analyzer.providers[KindQuestions] = &stubProvider{
		response: `{"questions":[{"question":"Tell me about a recent project.","purpose":"depth"}]}`,
	}

	if _, _, err := analyzer.AnalyzeEvaluation(context.Background(), sampleInput()); err != nil {
		t.Fatalf("AnalyzeEvaluation failed: %v", err)
	}
	if _, _, err := analyzer.GenerateQuestions(context.Background(), sampleInput()); err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}

	if len(fallbacks) != 1 || fallbacks[0] != KindEvaluation {
		t.Errorf("fallback hook calls = %v, want exactly one for %s", fallbacks, KindEvaluation)
	}
}

func TestAnalyzerProviderErrorPropagates(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	stub := &stubProvider{err: errors.NewAIError(errors.ErrCodeRateLimited, "Completion request failed with status 429", nil)}
	analyzer.providers[KindMatching] = stub

	_, _, err := analyzer.AnalyzeMatching(context.Background(), sampleInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Code(err) != errors.ErrCodeRateLimited {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeRateLimited)
	}
}

func TestAnalyzerGenerateQuestions(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	stub := &stubProvider{
		response: "```json\n" + `{"questions":[{"question":"Describe a hard bug you fixed.","purpose":"depth","targetCriteria":["logical_thinking"],"expectedInsights":["debugging approach"]}]}` + "\n```",
	}
	analyzer.providers[KindQuestions] = stub

	result, _, err := analyzer.GenerateQuestions(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}
	if len(result.Questions) != 1 {
		t.Fatalf("questions = %+v", result.Questions)
	}
	if result.Questions[0].Purpose != "depth" {
		t.Errorf("question = %+v", result.Questions[0])
	}
}

func TestAnalyzerUnknownProvider(t *testing.T) {
	cfg := testConfig("key")
	cfg.AI.Provider = "carrier-pigeon"

	analyzer := NewAnalyzer(cfg, newTestLogger(t))
	defer func() { _ = analyzer.Close() }()

	_, _, err := analyzer.AnalyzeEvaluation(context.Background(), sampleInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeInvalidConfig)
	}
}

func TestAnalyzerCloseReleasesProviders(t *testing.T) {
	analyzer := NewAnalyzer(testConfig("key"), newTestLogger(t))

	stub := &stubProvider{response: "{}"}
	analyzer.providers[KindEvaluation] = stub

	if err := analyzer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !stub.closed {
		t.Error("provider not closed")
	}
	if len(analyzer.providers) != 0 {
		t.Errorf("providers map not cleared: %v", analyzer.providers)
	}
}
