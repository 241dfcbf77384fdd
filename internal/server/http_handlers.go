package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	"hirescore/internal/errors"
)

// healthHandler reports service health including per-operation completion
// configuration and circuit breaker state. A missing API key degrades the
// operation, not the service: analysis actions surface a not-configured
// error at call time, so health stays 200 with configured=false.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "hirescore",
		"version": s.Version,
	}

	operations := make(map[string]any)
	for _, kind := range ai.Kinds() {
		opCfg := s.operationConfig(kind)
		operations[string(kind)] = map[string]any{
			"configured": opCfg.Configured(),
			"provider":   opCfg.Provider,
			"model":      opCfg.Model,
		}
	}
	response["operations"] = operations
	response["circuit_breakers"] = s.analyzer.Stats()

	writeJSONResponse(w, http.StatusOK, response)
}

func (s *Server) operationConfig(kind ai.Kind) config.OperationAIConfig {
	switch kind {
	case ai.KindEvaluation:
		return s.AppConfig.GetEvaluationConfig()
	case ai.KindMatching:
		return s.AppConfig.GetMatchingConfig()
	case ai.KindQuestions:
		return s.AppConfig.GetQuestionsConfig()
	default:
		return s.AppConfig.GetTurnoverConfig()
	}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "hirescore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.analyzer != nil {
		response["circuit_breakers"] = s.analyzer.Stats()
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSONResponse(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSONResponse writes v as a JSON response with the given status.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Code:    code,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeAppError maps an application error to an HTTP status by its code
// and writes the standard error body.
func writeAppError(w http.ResponseWriter, summary string, err error) {
	code := errors.Code(err)
	writeErrorResponse(w, summary, code, err.Error(), statusForCode(code))
}

// statusForCode maps application error codes to HTTP statuses. Upstream
// completion failures become 502 so callers can tell them apart from
// failures in this service.
func statusForCode(code string) int {
	switch code {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeFinalized:
		return http.StatusConflict
	case errors.ErrCodeNotConfigured:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnauthenticated, errors.ErrCodeForbidden,
		errors.ErrCodeRateLimited, errors.ErrCodeServiceUnavailable,
		errors.ErrCodeAIServiceFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
