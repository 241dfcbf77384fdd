package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hirescore/internal/config"
	"hirescore/internal/errors"
)

func testOperationConfig(endpoint string) *config.OperationAIConfig {
	timeout := 5 * time.Second
	temperature := float32(0.3)
	maxTokens := 2048
	return &config.OperationAIConfig{
		Provider:    "chat",
		Endpoint:    endpoint,
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		Timeout:     &timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
}

func newTestLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func TestChatProviderRequiresEndpoint(t *testing.T) {
	cfg := testOperationConfig("")
	_, err := NewChatProvider(cfg, KindEvaluation, newTestLogger(t))
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeInvalidConfig)
	}
}

func TestChatProviderComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "{\"recommendedScore\": 4}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160}
		}`))
	}))
	defer server.Close()

	provider, err := NewChatProvider(testOperationConfig(server.URL), KindEvaluation, newTestLogger(t))
	if err != nil {
		t.Fatalf("NewChatProvider failed: %v", err)
	}
	defer func() { _ = provider.Close() }()

	content, usage, err := provider.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if content != `{"recommendedScore": 4}` {
		t.Errorf("content = %q", content)
	}
	if usage == nil || usage.InputTokens != 120 || usage.OutputTokens != 40 || usage.TotalTokens != 160 {
		t.Errorf("usage = %+v", usage)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Messages[0].Content != "system text" || gotReq.Messages[1].Content != "user text" {
		t.Errorf("message contents = %+v", gotReq.Messages)
	}
}

func TestChatProviderStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, errors.ErrCodeUnauthenticated},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"no access"}}`, errors.ErrCodeForbidden},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, errors.ErrCodeRateLimited},
		{"server error", http.StatusInternalServerError, "boom", errors.ErrCodeServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, "", errors.ErrCodeServiceUnavailable},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"invalid model"}}`, errors.ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, err := NewChatProvider(testOperationConfig(server.URL), KindEvaluation, newTestLogger(t))
			if err != nil {
				t.Fatalf("NewChatProvider failed: %v", err)
			}
			defer func() { _ = provider.Close() }()

			_, _, err = provider.Complete(context.Background(), "s", "u")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Code(err) != tt.wantCode {
				t.Errorf("error code = %q, want %q", errors.Code(err), tt.wantCode)
			}
		})
	}
}

func TestChatProviderErrorDetailCarried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer server.Close()

	provider, err := NewChatProvider(testOperationConfig(server.URL), KindMatching, newTestLogger(t))
	if err != nil {
		t.Fatalf("NewChatProvider failed: %v", err)
	}
	defer func() { _ = provider.Close() }()

	_, _, err = provider.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}

	want := "Completion request failed with status 429: quota exhausted"
	if got := err.Error(); !strings.Contains(got, want) {
		t.Errorf("error = %q, want it to contain %q", got, want)
	}
}

func TestChatProviderUnreachableEndpoint(t *testing.T) {
	// A closed server makes the transport fail before any HTTP status.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	provider, err := NewChatProvider(testOperationConfig(server.URL), KindEvaluation, newTestLogger(t))
	if err != nil {
		t.Fatalf("NewChatProvider failed: %v", err)
	}
	defer func() { _ = provider.Close() }()

	_, _, err = provider.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Code(err) != errors.ErrCodeServiceUnavailable {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeServiceUnavailable)
	}
}

func TestChatProviderEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[],"usage":{}}`))
	}))
	defer server.Close()

	provider, err := NewChatProvider(testOperationConfig(server.URL), KindEvaluation, newTestLogger(t))
	if err != nil {
		t.Fatalf("NewChatProvider failed: %v", err)
	}
	defer func() { _ = provider.Close() }()

	_, _, err = provider.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if errors.Code(err) != errors.ErrCodeUnknown {
		t.Errorf("error code = %q, want %q", errors.Code(err), errors.ErrCodeUnknown)
	}
}

func TestChatProviderSingleRequestPerCall(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewChatProvider(testOperationConfig(server.URL), KindEvaluation, newTestLogger(t))
	if err != nil {
		t.Fatalf("NewChatProvider failed: %v", err)
	}
	defer func() { _ = provider.Close() }()

	_, _, err = provider.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Errorf("request count = %d, want 1 (no automatic retry)", requests)
	}
}
