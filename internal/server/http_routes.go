package server

import (
	"net/http"
	"strings"

	"hirescore/internal/errors"
	"hirescore/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.Manager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.rateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	// Analysis actions
	mux.HandleFunc("POST /analysis/evaluation", protected(s.createEvaluationAnalysisHandler(om)))
	mux.HandleFunc("POST /analysis/matching", protected(s.createMatchingAnalysisHandler(om)))
	mux.HandleFunc("POST /analysis/questions", protected(s.createQuestionsHandler(om)))
	mux.HandleFunc("POST /analysis/turnover", protected(s.createTurnoverAnalysisHandler(om)))

	// Company context and evaluation criteria
	mux.HandleFunc("GET /company", protected(s.getCompanyHandler))
	mux.HandleFunc("PUT /company", protected(s.putCompanyHandler))
	mux.HandleFunc("GET /criteria", protected(s.getCriteriaHandler))
	mux.HandleFunc("GET /jobtypes/{id}", protected(s.getJobTypeHandler))
	mux.HandleFunc("PUT /jobtypes/{id}", protected(s.putJobTypeHandler))

	// Evaluation drafts
	mux.HandleFunc("GET /drafts", protected(s.listDraftsHandler))
	mux.HandleFunc("POST /drafts", protected(s.createSaveDraftHandler(om)))
	mux.HandleFunc("GET /drafts/{id}", protected(s.getDraftHandler))
	mux.HandleFunc("DELETE /drafts/{id}", protected(s.deleteDraftHandler))
	mux.HandleFunc("POST /drafts/{id}/finalize", protected(s.createFinalizeHandler(om)))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", errors.ErrCodeUnauthenticated, "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", errors.ErrCodeUnauthenticated, "Unauthorized access", http.StatusUnauthorized)
			return
		}

		// Log successful authentication
		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
