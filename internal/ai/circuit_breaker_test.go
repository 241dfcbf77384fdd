package ai

import (
	"testing"
	"time"

	"hirescore/internal/config"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Each analysis kind gets its own circuit breaker configuration

	evaluationConfig := &config.OperationAIConfig{
		Provider: "chat",
		Model:    "gpt-4o-mini",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	matchingConfig := &config.OperationAIConfig{
		Provider: "chat",
		Model:    "gpt-4o",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,                // Different from evaluation
			Interval:         30 * time.Second, // Different from evaluation
			Timeout:          45 * time.Second, // Different from evaluation
			MinRequests:      2,                // Different from evaluation
			FailureThreshold: 0.7,              // Different from evaluation
		},
	}

	turnoverConfig := &config.OperationAIConfig{
		Provider: "chat",
		Model:    "gpt-4o-mini",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      4,                // Different from others
			Interval:         90 * time.Second, // Different from others
			Timeout:          75 * time.Second, // Different from others
			MinRequests:      5,                // Different from others
			FailureThreshold: 0.5,              // Different from others
		},
	}

	evaluationCB := NewCompletionBreaker(KindEvaluation, evaluationConfig, nil)
	matchingCB := NewCompletionBreaker(KindMatching, matchingConfig, nil)
	turnoverCB := NewCompletionBreaker(KindTurnover, turnoverConfig, nil)

	t.Run("EvaluationCircuitBreaker", func(t *testing.T) {
		stats := evaluationCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-evaluation"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}

		// Verify it's in closed state initially
		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("MatchingCircuitBreaker", func(t *testing.T) {
		stats := matchingCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-matching"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}
	})

	t.Run("IndependentInstances", func(t *testing.T) {
		if evaluationCB == matchingCB {
			t.Error("Evaluation and matching circuit breakers should be different instances")
		}
		if evaluationCB == turnoverCB {
			t.Error("Evaluation and turnover circuit breakers should be different instances")
		}
		if matchingCB == turnoverCB {
			t.Error("Matching and turnover circuit breakers should be different instances")
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		// All should be healthy initially
		if !evaluationCB.IsHealthy() {
			t.Error("Evaluation circuit breaker should be healthy initially")
		}
		if !matchingCB.IsHealthy() {
			t.Error("Matching circuit breaker should be healthy initially")
		}
		if !turnoverCB.IsHealthy() {
			t.Error("Turnover circuit breaker should be healthy initially")
		}
	})
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabledConfig := &config.OperationAIConfig{
		Provider: "chat",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false,
		},
	}

	cb := NewCompletionBreaker(KindQuestions, disabledConfig, nil)

	// Should return nil when disabled
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes the function directly
	result, err := cb.Execute(func() (string, error) {
		return "pass-through", nil
	})
	if err != nil {
		t.Fatalf("Execute on disabled breaker returned error: %v", err)
	}
	if result != "pass-through" {
		t.Errorf("Expected 'pass-through', got '%s'", result)
	}

	if !cb.IsHealthy() {
		t.Error("Disabled circuit breaker should report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Disabled circuit breaker stats should report enabled=false")
	}
}
