package server

import (
	"context"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/config"
	"hirescore/internal/domain"
	hirescoreErrors "hirescore/internal/errors"
	"hirescore/internal/store"
)

// AnalysisRequest is the request body shared by the four analysis
// endpoints. The server resolves criteria, job-type configuration and
// company context from the store; the caller only supplies the candidate
// and optional posting or in-progress evaluation.
type AnalysisRequest struct {
	Candidate  domain.Candidate   `json:"candidate"`
	JobType    string             `json:"jobType,omitempty"`
	Posting    *domain.JobPosting `json:"posting,omitempty"`
	Evaluation *domain.Evaluation `json:"evaluation,omitempty"`
}

// AnalysisResponse wraps an analysis result with its token usage.
type AnalysisResponse struct {
	Result any            `json:"result"`
	Usage  *ai.TokenUsage `json:"usage,omitempty"`
}

// FinalizeRequest is the request body for draft finalization. An empty
// body finalizes at the server's current time.
type FinalizeRequest struct {
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Analyzer is the completion-service surface the server depends on.
// *ai.Analyzer satisfies it.
type Analyzer interface {
	AnalyzeEvaluation(ctx context.Context, in ai.PromptInput) (domain.EvaluationAnalysis, *ai.TokenUsage, error)
	AnalyzeMatching(ctx context.Context, in ai.PromptInput) (domain.MatchingAnalysis, *ai.TokenUsage, error)
	GenerateQuestions(ctx context.Context, in ai.PromptInput) (domain.QuestionSet, *ai.TokenUsage, error)
	AnalyzeTurnover(ctx context.Context, in ai.PromptInput) (domain.TurnoverAnalysis, *ai.TokenUsage, error)
	SetParseFallbackHook(fn func(ctx context.Context, kind ai.Kind))
	Stats() map[string]any
	Close() error
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *hirescoreErrors.Logger

	analyzer Analyzer
	store    *store.DomainStore
}

// NewServer creates a Server wired to a file-backed domain store and a
// completion analyzer built from the application configuration.
func NewServer(cfg *config.Config, version string, logger *hirescoreErrors.Logger) (*Server, error) {
	kv, err := store.NewFileKV(cfg.Store.Dir)
	if err != nil {
		return nil, err
	}
	domainStore := store.New(kv, logger)
	analyzer := ai.NewAnalyzer(cfg, logger)

	return newServer(cfg, version, logger, domainStore, analyzer), nil
}

func newServer(cfg *config.Config, version string, logger *hirescoreErrors.Logger, domainStore *store.DomainStore, analyzer Analyzer) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.Server.RateLimit.RequestsPerMin,
			cfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AppConfig:      cfg,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		analyzer:       analyzer,
		store:          domainStore,
	}
}
