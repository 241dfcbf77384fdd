package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/store"
)

type stubAnalyzer struct {
	err        error
	evaluation domain.EvaluationAnalysis
	matching   domain.MatchingAnalysis
	questions  domain.QuestionSet
	turnover   domain.TurnoverAnalysis
	usage      *ai.TokenUsage
	calls      int
}

func (a *stubAnalyzer) AnalyzeEvaluation(ctx context.Context, in ai.PromptInput) (domain.EvaluationAnalysis, *ai.TokenUsage, error) {
	a.calls++
	return a.evaluation, a.usage, a.err
}

func (a *stubAnalyzer) AnalyzeMatching(ctx context.Context, in ai.PromptInput) (domain.MatchingAnalysis, *ai.TokenUsage, error) {
	a.calls++
	return a.matching, a.usage, a.err
}

func (a *stubAnalyzer) GenerateQuestions(ctx context.Context, in ai.PromptInput) (domain.QuestionSet, *ai.TokenUsage, error) {
	a.calls++
	return a.questions, a.usage, a.err
}

func (a *stubAnalyzer) AnalyzeTurnover(ctx context.Context, in ai.PromptInput) (domain.TurnoverAnalysis, *ai.TokenUsage, error) {
	a.calls++
	return a.turnover, a.usage, a.err
}

func (a *stubAnalyzer) SetParseFallbackHook(fn func(ctx context.Context, kind ai.Kind)) {}

func (a *stubAnalyzer) Stats() map[string]any { return map[string]any{} }
func (a *stubAnalyzer) Close() error          { return nil }

func testServerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.APIKeys = []string{"secret-key-12345"}
	cfg.App.MaxRequestSize = 1 << 20
	return cfg
}

func newTestMux(t *testing.T, cfg *config.Config, analyzer Analyzer) (*http.ServeMux, *store.DomainStore) {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("New(error) returned %v", err)
	}
	domainStore := store.New(store.NewMemoryKV(), logger)
	srv := newServer(cfg, "test", logger, domainStore, analyzer)

	om, err := observability.NewManager(cfg, "test")
	if err != nil {
		t.Fatalf("NewManager returned %v", err)
	}
	return srv.setupRoutes(om), domainStore
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func analysisBody() AnalysisRequest {
	return AnalysisRequest{
		Candidate: domain.Candidate{
			ID:      "cand-1",
			Name:    "Aiko Tanaka",
			JobType: "engineer",
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"valid x-api-key", "X-API-Key", "secret-key-12345", http.StatusOK},
		{"valid bearer", "Authorization", "Bearer secret-key-12345", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/criteria?jobType=engineer", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthNeedsNoAPIKey(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health body: %v", err)
	}
	ops, ok := body["operations"].(map[string]any)
	if !ok {
		t.Fatalf("health body missing operations: %v", body)
	}
	for _, kind := range ai.Kinds() {
		op, ok := ops[string(kind)].(map[string]any)
		if !ok {
			t.Fatalf("operations missing %q", kind)
		}
		if configured, _ := op["configured"].(bool); configured {
			t.Errorf("%s reported configured without an API key", kind)
		}
	}
}

func TestEvaluationAnalysisEndpoint(t *testing.T) {
	analyzer := &stubAnalyzer{
		evaluation: domain.EvaluationAnalysis{
			RecommendedScore: 4,
			Confidence:       0.8,
			Reasoning:        "strong fundamentals",
		},
		usage: &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}
	mux, _ := newTestMux(t, testServerConfig(), analyzer)

	rec := doJSON(t, mux, http.MethodPost, "/analysis/evaluation", "secret-key-12345", analysisBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result domain.EvaluationAnalysis `json:"result"`
		Usage  *ai.TokenUsage            `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Result.RecommendedScore != 4 {
		t.Errorf("RecommendedScore = %d, want 4", resp.Result.RecommendedScore)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 150 {
		t.Errorf("usage = %+v, want total 150", resp.Usage)
	}
	if analyzer.calls != 1 {
		t.Errorf("analyzer calls = %d, want 1", analyzer.calls)
	}
}

func TestAnalysisValidation(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})

	body := analysisBody()
	body.Candidate.Name = "  "
	rec := doJSON(t, mux, http.MethodPost, "/analysis/matching", "secret-key-12345", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if errResp.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", errResp.Code, errors.ErrCodeInvalidRequest)
	}
}

func TestAnalysisErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not configured",
			err:        errors.NewAIError(errors.ErrCodeNotConfigured, "Completion service is not configured", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   errors.ErrCodeNotConfigured,
		},
		{
			name:       "rate limited upstream",
			err:        errors.NewAIError(errors.ErrCodeRateLimited, "Completion request failed with status 429", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   errors.ErrCodeRateLimited,
		},
		{
			name:       "unauthenticated upstream",
			err:        errors.NewAIError(errors.ErrCodeUnauthenticated, "Completion request failed with status 401", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   errors.ErrCodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{err: tt.err})
			rec := doJSON(t, mux, http.MethodPost, "/analysis/turnover", "secret-key-12345", analysisBody())

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestDraftLifecycle(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})
	const key = "secret-key-12345"

	draft := domain.SavedDraft{
		Title: "First interview",
		Evaluation: domain.Evaluation{
			CandidateID: "cand-9",
			JobType:     "sales",
			Scores: map[string]domain.CriterionScore{
				"communication": {Score: 3, Comment: "clear answers"},
			},
		},
	}

	rec := doJSON(t, mux, http.MethodPost, "/drafts", key, draft)
	if rec.Code != http.StatusOK {
		t.Fatalf("save draft status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saved domain.SavedDraft
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decoding saved draft: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("saved draft has no id")
	}
	if !strings.HasPrefix(saved.ID, "cand-9-") {
		t.Errorf("draft id %q does not start with candidate id", saved.ID)
	}

	rec = doJSON(t, mux, http.MethodGet, "/drafts/"+saved.ID, key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get draft status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, fmt.Sprintf("/drafts/%s/finalize", saved.ID), key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var finalized domain.SavedDraft
	if err := json.Unmarshal(rec.Body.Bytes(), &finalized); err != nil {
		t.Fatalf("decoding finalized draft: %v", err)
	}
	if !finalized.Evaluation.Completed || finalized.Evaluation.CompletedAt == nil {
		t.Error("finalized draft is not marked completed")
	}

	// Finalizing twice is refused.
	rec = doJSON(t, mux, http.MethodPost, fmt.Sprintf("/drafts/%s/finalize", saved.ID), key, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second finalize status = %d, want 409", rec.Code)
	}

	// Saving over a finalized draft is refused.
	saved.Evaluation.OverallComment = "late edit"
	rec = doJSON(t, mux, http.MethodPost, "/drafts", key, saved)
	if rec.Code != http.StatusConflict {
		t.Errorf("save over finalized status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/drafts/"+saved.ID, key, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/drafts/"+saved.ID, key, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCompanyOverrideCriteria(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})
	const key = "secret-key-12345"

	rec := doJSON(t, mux, http.MethodGet, "/company", key, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get company before save status = %d, want 404", rec.Code)
	}

	info := domain.CompanyInfo{
		Mission: "Hire for curiosity",
		EvaluationCriteria: []domain.EvaluationCriterion{
			{ID: "curiosity", Name: "Curiosity", Category: domain.CategoryValues, Weight: 10},
		},
	}
	rec = doJSON(t, mux, http.MethodPut, "/company", key, info)
	if rec.Code != http.StatusOK {
		t.Fatalf("put company status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/criteria?jobType=engineer", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get criteria status = %d", rec.Code)
	}
	var resp struct {
		Criteria []domain.EvaluationCriterion `json:"criteria"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding criteria: %v", err)
	}
	if len(resp.Criteria) != 1 || resp.Criteria[0].ID != "curiosity" {
		t.Errorf("criteria = %+v, want the single company override criterion", resp.Criteria)
	}
}

func TestJobTypeRoundTrip(t *testing.T) {
	mux, _ := newTestMux(t, testServerConfig(), &stubAnalyzer{})
	const key = "secret-key-12345"

	// Unknown job types fall back to a built-in configuration.
	rec := doJSON(t, mux, http.MethodGet, "/jobtypes/engineer", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get builtin job type status = %d", rec.Code)
	}

	cfg := domain.JobTypeConfig{
		Name: "Field Sales",
		Criteria: []domain.EvaluationCriterion{
			{ID: "negotiation", Name: "Negotiation", Category: domain.CategoryCapability, Weight: 9},
		},
	}
	rec = doJSON(t, mux, http.MethodPut, "/jobtypes/field-sales", key, cfg)
	if rec.Code != http.StatusOK {
		t.Fatalf("put job type status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/jobtypes/field-sales", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get job type status = %d", rec.Code)
	}
	var got domain.JobTypeConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding job type: %v", err)
	}
	if got.ID != "field-sales" || len(got.Criteria) != 1 {
		t.Errorf("job type = %+v, want id field-sales with 1 criterion", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testServerConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 60,
		BurstCapacity:  1,
		ByIP:           true,
	}
	mux, _ := newTestMux(t, cfg, &stubAnalyzer{})

	first := doJSON(t, mux, http.MethodGet, "/criteria?jobType=engineer", "secret-key-12345", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}
	second := doJSON(t, mux, http.MethodGet, "/criteria?jobType=engineer", "secret-key-12345", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decoding rate limit body: %v", err)
	}
	if errResp.Code != errors.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", errResp.Code, errors.ErrCodeRateLimited)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.App.MaxRequestSize = 64
	mux, _ := newTestMux(t, cfg, &stubAnalyzer{})

	body := analysisBody()
	body.Candidate.SelfPR = strings.Repeat("x", 1024)
	rec := doJSON(t, mux, http.MethodPost, "/analysis/questions", "secret-key-12345", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("body %q does not mention the size limit", rec.Body.String())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:443", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:443", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.8:1234", "192.0.2.8"},
		{"invalid forwarded falls through", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.8:1234", "192.0.2.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("secret-key-12345"); got != "secret-k****" {
		t.Errorf("maskAPIKey(long) = %q", got)
	}
}
