package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
	"hirescore/internal/observability"
	"hirescore/internal/store"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// resolveAnalysisInput turns an analysis request into a prompt input by
// resolving criteria, job-type configuration and company context from
// the store. Criteria resolution picks exactly one source; sources are
// never merged.
func (s *Server) resolveAnalysisInput(req AnalysisRequest) (ai.PromptInput, error) {
	jobType := req.JobType
	if jobType == "" {
		jobType = req.Candidate.JobType
	}
	if strings.TrimSpace(jobType) == "" {
		return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"A job type is required, either on the request or on the candidate", nil)
	}

	criteria, err := s.store.ResolveCriteria(jobType)
	if err != nil {
		return ai.PromptInput{}, err
	}

	jobCfg, err := s.store.JobTypeConfig(jobType)
	if err != nil {
		return ai.PromptInput{}, err
	}
	resolvedCfg := domain.DefaultJobTypeConfig(jobType)
	if jobCfg != nil {
		resolvedCfg = *jobCfg
	}

	company, err := s.store.CompanyInfo()
	if err != nil {
		return ai.PromptInput{}, err
	}

	return ai.PromptInput{
		Candidate:  req.Candidate,
		Criteria:   criteria,
		JobConfig:  resolvedCfg,
		Company:    company,
		Posting:    req.Posting,
		Evaluation: req.Evaluation,
	}, nil
}

// parseAnalysisRequest parses and validates the shared analysis request
// body. It writes the error response itself and reports success.
func (s *Server) parseAnalysisRequest(w http.ResponseWriter, r *http.Request, span oteltrace.Span) (ai.PromptInput, bool) {
	var req AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return ai.PromptInput{}, false
	}

	if strings.TrimSpace(req.Candidate.Name) == "" {
		err := fmt.Errorf("missing candidate name")
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Missing candidate", errors.ErrCodeInvalidRequest, "candidate.name field is required", http.StatusBadRequest)
		return ai.PromptInput{}, false
	}

	in, err := s.resolveAnalysisInput(req)
	if err != nil {
		span.RecordError(err)
		writeAppError(w, "Failed to resolve analysis context", err)
		return ai.PromptInput{}, false
	}

	span.SetAttributes(
		attribute.String("candidate.id", req.Candidate.ID),
		attribute.String("job_type", in.JobConfig.ID),
		attribute.Int("criteria_count", len(in.Criteria)),
	)
	return in, true
}

// createEvaluationAnalysisHandler wraps the overall-fit analysis with observability
func (s *Server) createEvaluationAnalysisHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("hirescore.api")
		ctx, span := tracer.Start(ctx, "api.analysis.evaluation")
		defer span.End()

		in, ok := s.parseAnalysisRequest(w, r, span)
		if !ok {
			return
		}

		var result domain.EvaluationAnalysis
		var usage *ai.TokenUsage
		err := om.TrackAnalysis(ctx, string(ai.KindEvaluation), func(ctx context.Context) error {
			out, u, aiErr := s.analyzer.AnalyzeEvaluation(ctx, in)
			result, usage = out, u
			return aiErr
		})
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Failed to analyze candidate", err)
			return
		}

		s.recordUsage(ctx, om, ai.KindEvaluation, usage)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("recommended_score", result.RecommendedScore),
			attribute.Float64("confidence", result.Confidence),
		)
		writeJSONResponse(w, http.StatusOK, AnalysisResponse{Result: result, Usage: usage})
	}
}

// createMatchingAnalysisHandler wraps the per-criterion matching analysis
func (s *Server) createMatchingAnalysisHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("hirescore.api")
		ctx, span := tracer.Start(ctx, "api.analysis.matching")
		defer span.End()

		in, ok := s.parseAnalysisRequest(w, r, span)
		if !ok {
			return
		}

		var result domain.MatchingAnalysis
		var usage *ai.TokenUsage
		err := om.TrackAnalysis(ctx, string(ai.KindMatching), func(ctx context.Context) error {
			out, u, aiErr := s.analyzer.AnalyzeMatching(ctx, in)
			result, usage = out, u
			return aiErr
		})
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Failed to run matching analysis", err)
			return
		}

		s.recordUsage(ctx, om, ai.KindMatching, usage)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("overall_matching_score", result.OverallMatchingScore),
			attribute.Int("criteria_analyzed", len(result.CriteriaAnalysis)),
		)
		writeJSONResponse(w, http.StatusOK, AnalysisResponse{Result: result, Usage: usage})
	}
}

// createQuestionsHandler wraps interview question generation
func (s *Server) createQuestionsHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("hirescore.api")
		ctx, span := tracer.Start(ctx, "api.analysis.questions")
		defer span.End()

		in, ok := s.parseAnalysisRequest(w, r, span)
		if !ok {
			return
		}

		var result domain.QuestionSet
		var usage *ai.TokenUsage
		err := om.TrackAnalysis(ctx, string(ai.KindQuestions), func(ctx context.Context) error {
			out, u, aiErr := s.analyzer.GenerateQuestions(ctx, in)
			result, usage = out, u
			return aiErr
		})
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Failed to generate interview questions", err)
			return
		}

		s.recordUsage(ctx, om, ai.KindQuestions, usage)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("question_count", len(result.Questions)),
		)
		writeJSONResponse(w, http.StatusOK, AnalysisResponse{Result: result, Usage: usage})
	}
}

// createTurnoverAnalysisHandler wraps the turnover-risk analysis
func (s *Server) createTurnoverAnalysisHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("hirescore.api")
		ctx, span := tracer.Start(ctx, "api.analysis.turnover")
		defer span.End()

		in, ok := s.parseAnalysisRequest(w, r, span)
		if !ok {
			return
		}

		var result domain.TurnoverAnalysis
		var usage *ai.TokenUsage
		err := om.TrackAnalysis(ctx, string(ai.KindTurnover), func(ctx context.Context) error {
			out, u, aiErr := s.analyzer.AnalyzeTurnover(ctx, in)
			result, usage = out, u
			return aiErr
		})
		if err != nil {
			span.RecordError(err)
			writeAppError(w, "Failed to run turnover analysis", err)
			return
		}

		s.recordUsage(ctx, om, ai.KindTurnover, usage)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("risk_level", string(result.RiskLevel)),
			attribute.Float64("risk_score", result.RiskScore),
		)
		writeJSONResponse(w, http.StatusOK, AnalysisResponse{Result: result, Usage: usage})
	}
}

func (s *Server) recordUsage(ctx context.Context, om *observability.Manager, kind ai.Kind, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	om.GetMetrics().RecordTokenUsage(ctx, string(kind),
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}

// getCompanyHandler returns the stored company context record.
func (s *Server) getCompanyHandler(w http.ResponseWriter, r *http.Request) {
	company, err := s.store.CompanyInfo()
	if err != nil {
		writeAppError(w, "Failed to load company info", err)
		return
	}
	if company == nil {
		writeErrorResponse(w, "Company info not configured", errors.ErrCodeNotFound, "No company info has been saved", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, company)
}

// putCompanyHandler replaces the company context record.
func (s *Server) putCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var info domain.CompanyInfo
	if err := parseJSONRequest(r, &info); err != nil {
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.SaveCompanyInfo(info); err != nil {
		writeAppError(w, "Failed to save company info", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}

// getCriteriaHandler returns the resolved criteria for a job type.
func (s *Server) getCriteriaHandler(w http.ResponseWriter, r *http.Request) {
	jobType := r.URL.Query().Get("jobType")
	if jobType == "" {
		writeErrorResponse(w, "Missing job type", errors.ErrCodeInvalidRequest, "jobType query parameter is required", http.StatusBadRequest)
		return
	}
	criteria, err := s.store.ResolveCriteria(jobType)
	if err != nil {
		writeAppError(w, "Failed to resolve criteria", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"jobType":  jobType,
		"criteria": criteria,
	})
}

// getJobTypeHandler returns a stored job-type configuration, falling back
// to the built-in configuration for known job types.
func (s *Server) getJobTypeHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cfg, err := s.store.JobTypeConfig(id)
	if err != nil {
		writeAppError(w, "Failed to load job type", err)
		return
	}
	if cfg == nil {
		builtin := domain.DefaultJobTypeConfig(id)
		cfg = &builtin
	}
	writeJSONResponse(w, http.StatusOK, cfg)
}

// putJobTypeHandler stores a job-type configuration under the path id.
func (s *Server) putJobTypeHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var cfg domain.JobTypeConfig
	if err := parseJSONRequest(r, &cfg); err != nil {
		writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.ID == "" {
		cfg.ID = id
	}
	if cfg.ID != id {
		writeErrorResponse(w, "Job type id mismatch", errors.ErrCodeInvalidRequest,
			fmt.Sprintf("body id %q does not match path id %q", cfg.ID, id), http.StatusBadRequest)
		return
	}
	if err := s.store.SaveJobTypeConfig(cfg); err != nil {
		writeAppError(w, "Failed to save job type", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cfg)
}

// listDraftsHandler lists saved drafts, optionally filtered by candidate.
func (s *Server) listDraftsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		drafts []domain.SavedDraft
		err    error
	)
	if candidateID := r.URL.Query().Get("candidateId"); candidateID != "" {
		drafts, err = s.store.DraftsForCandidate(candidateID)
	} else {
		drafts, err = s.store.ListDrafts()
	}
	if err != nil {
		writeAppError(w, "Failed to list drafts", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"drafts": drafts})
}

// createSaveDraftHandler upserts an evaluation draft. A missing id gets a
// fresh one; the client must reuse the returned id for later saves so
// the whole editing session stays on one draft.
func (s *Server) createSaveDraftHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft domain.SavedDraft
		if err := parseJSONRequest(r, &draft); err != nil {
			writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(draft.Evaluation.CandidateID) == "" {
			writeErrorResponse(w, "Missing candidate id", errors.ErrCodeInvalidRequest, "evaluation.candidateId field is required", http.StatusBadRequest)
			return
		}

		if draft.ID == "" {
			draft.ID = store.NewDraftID(draft.Evaluation.CandidateID)
		} else {
			existing, err := s.store.Draft(draft.ID)
			if err != nil {
				writeAppError(w, "Failed to load draft", err)
				return
			}
			if existing != nil && existing.Evaluation.Completed {
				writeErrorResponse(w, "Evaluation already finalized", errors.ErrCodeFinalized,
					fmt.Sprintf("draft %s is finalized and cannot be changed", draft.ID), http.StatusConflict)
				return
			}
		}

		if err := s.store.SaveDraft(draft); err != nil {
			writeAppError(w, "Failed to save draft", err)
			return
		}
		om.GetMetrics().RecordDraftSaved(r.Context())

		saved, err := s.store.Draft(draft.ID)
		if err != nil || saved == nil {
			writeJSONResponse(w, http.StatusOK, draft)
			return
		}
		writeJSONResponse(w, http.StatusOK, saved)
	}
}

// getDraftHandler returns one draft by id.
func (s *Server) getDraftHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft, err := s.store.Draft(id)
	if err != nil {
		writeAppError(w, "Failed to load draft", err)
		return
	}
	if draft == nil {
		writeErrorResponse(w, "Draft not found", errors.ErrCodeNotFound,
			fmt.Sprintf("no draft with id %s", id), http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, draft)
}

// deleteDraftHandler removes a draft. Deleting an absent draft succeeds.
func (s *Server) deleteDraftHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteDraft(id); err != nil {
		writeAppError(w, "Failed to delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createFinalizeHandler finalizes a draft's evaluation, making it immutable.
func (s *Server) createFinalizeHandler(om *observability.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		now := time.Now().UTC()
		if r.ContentLength > 0 {
			var req FinalizeRequest
			if err := parseJSONRequest(r, &req); err != nil {
				writeErrorResponse(w, "Invalid request body", errors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
				return
			}
			if req.FinalizedAt != nil {
				now = *req.FinalizedAt
			}
		}

		draft, err := s.store.FinalizeEvaluation(id, now)
		if err != nil {
			writeAppError(w, "Failed to finalize evaluation", err)
			return
		}
		om.GetMetrics().RecordEvaluationFinalized(r.Context())
		writeJSONResponse(w, http.StatusOK, draft)
	}
}
