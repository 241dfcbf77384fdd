package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hirescore/internal/ai"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
	"hirescore/internal/store"
)

// Status is the lifecycle state of one analysis action slot.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Slot is the per-kind action state the UI renders from. ErrorCode and
// ErrorMessage are set only in StatusFailed.
type Slot struct {
	Status       Status
	ErrorCode    string
	ErrorMessage string
}

// Analyzer is the analysis surface the session drives. *ai.Analyzer
// satisfies it; tests substitute stubs.
type Analyzer interface {
	AnalyzeEvaluation(ctx context.Context, in ai.PromptInput) (domain.EvaluationAnalysis, *ai.TokenUsage, error)
	AnalyzeMatching(ctx context.Context, in ai.PromptInput) (domain.MatchingAnalysis, *ai.TokenUsage, error)
	GenerateQuestions(ctx context.Context, in ai.PromptInput) (domain.QuestionSet, *ai.TokenUsage, error)
	AnalyzeTurnover(ctx context.Context, in ai.PromptInput) (domain.TurnoverAnalysis, *ai.TokenUsage, error)
}

// DefaultAutosaveDelay is the debounce window between the last edit and
// the draft write.
const DefaultAutosaveDelay = 3 * time.Second

// Session is one candidate-evaluation editing session. It owns the draft
// id for its whole lifetime, so every autosave upserts the same draft
// instead of piling up new ones. All methods are safe for concurrent use;
// the analysis actions run independently, one outstanding request per
// kind at a time.
type Session struct {
	mu sync.Mutex

	store    *store.DomainStore
	analyzer Analyzer
	logger   *errors.Logger

	candidate domain.Candidate
	jobConfig domain.JobTypeConfig
	criteria  []domain.EvaluationCriterion
	company   *domain.CompanyInfo
	posting   *domain.JobPosting

	draftID    string
	title      string
	evaluation domain.Evaluation

	autosaveDelay time.Duration
	autosaveTimer *time.Timer
	saveGen       uint64

	slots     map[ai.Kind]*Slot
	evalRes   *domain.EvaluationAnalysis
	matchRes  *domain.MatchingAnalysis
	questions *domain.QuestionSet
	turnover  *domain.TurnoverAnalysis

	closed bool
}

// Option configures a session at creation time.
type Option func(*Session)

// WithAutosaveDelay overrides the debounce window. Zero disables
// autosave entirely; edits then persist only via Save.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Session) { s.autosaveDelay = d }
}

// WithJobPosting attaches a job posting to the analysis prompts.
func WithJobPosting(p domain.JobPosting) Option {
	return func(s *Session) { s.posting = &p }
}

// WithDraftID resumes an existing draft instead of generating a fresh id.
func WithDraftID(id string) Option {
	return func(s *Session) { s.draftID = id }
}

// New opens an editing session for a candidate. Criteria are resolved
// once at open time (company override, then stored job criteria, then
// built-ins) and stay fixed for the session.
func New(st *store.DomainStore, analyzer Analyzer, logger *errors.Logger, candidate domain.Candidate, jobType string, opts ...Option) (*Session, error) {
	criteria, err := st.ResolveCriteria(jobType)
	if err != nil {
		return nil, err
	}
	company, err := st.CompanyInfo()
	if err != nil {
		return nil, err
	}
	jobCfg, err := st.JobTypeConfig(jobType)
	if err != nil {
		return nil, err
	}
	if jobCfg == nil {
		builtin := domain.DefaultJobTypeConfig(jobType)
		jobCfg = &builtin
	}

	s := &Session{
		store:     st,
		analyzer:  analyzer,
		logger:    logger,
		candidate: candidate,
		jobConfig: *jobCfg,
		criteria:  criteria,
		company:   company,
		title:     fmt.Sprintf("%s (%s)", candidate.Name, jobType),
		evaluation: domain.Evaluation{
			CandidateID: candidate.ID,
			JobType:     jobType,
			Scores:      make(map[string]domain.CriterionScore),
		},
		autosaveDelay: DefaultAutosaveDelay,
		slots:         make(map[ai.Kind]*Slot, len(ai.Kinds())),
	}
	for _, kind := range ai.Kinds() {
		s.slots[kind] = &Slot{Status: StatusIdle}
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.draftID != "" {
		draft, err := st.Draft(s.draftID)
		if err != nil {
			return nil, err
		}
		if draft != nil {
			s.evaluation = draft.Evaluation
			s.title = draft.Title
			if s.evaluation.Scores == nil {
				s.evaluation.Scores = make(map[string]domain.CriterionScore)
			}
		}
	} else {
		s.draftID = store.NewDraftID(candidate.ID)
	}

	return s, nil
}

// DraftID returns the draft id held for this session.
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// Criteria returns the criteria resolved at open time.
func (s *Session) Criteria() []domain.EvaluationCriterion {
	return s.criteria
}

// Evaluation returns a snapshot of the current scorecard.
func (s *Session) Evaluation() domain.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Evaluation {
	e := s.evaluation
	scores := make(map[string]domain.CriterionScore, len(e.Scores))
	for k, v := range e.Scores {
		scores[k] = v
	}
	e.Scores = scores
	return e
}

// WeightedScore returns the weighted average over the entered scores.
func (s *Session) WeightedScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.WeightedScore(s.criteria, s.evaluation.Scores)
}

// SetScore records a score (1-4) and comment for a criterion and arms the
// autosave debounce.
func (s *Session) SetScore(criterionID string, score int, comment string) error {
	if score < 1 || score > domain.ScoreLevels {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Score %d is outside the 1-%d scale", score, domain.ScoreLevels), nil)
	}
	known := false
	for _, c := range s.criteria {
		if c.ID == criterionID {
			known = true
			break
		}
	}
	if !known {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown criterion %q", criterionID), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.evaluation.Scores[criterionID] = domain.CriterionScore{Score: score, Comment: comment}
	s.armAutosaveLocked()
	return nil
}

// SetOverallComment records the overall free-text comment.
func (s *Session) SetOverallComment(comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.evaluation.OverallComment = comment
	s.armAutosaveLocked()
	return nil
}

// SetRecommendation records the evaluator's verdict.
func (s *Session) SetRecommendation(r domain.Recommendation) error {
	if !r.IsValid() {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown recommendation %q", r), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.evaluation.Recommendation = r
	s.armAutosaveLocked()
	return nil
}

func (s *Session) editableLocked() error {
	if s.closed {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Session is closed", nil)
	}
	if s.evaluation.Completed {
		return errors.NewValidationError(errors.ErrCodeFinalized,
			"Evaluation is finalized and cannot change", nil)
	}
	return nil
}

// armAutosaveLocked resets the debounce: a new edit supersedes the
// pending write rather than queueing another one.
func (s *Session) armAutosaveLocked() {
	if s.autosaveDelay <= 0 {
		return
	}
	s.saveGen++
	gen := s.saveGen
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
	}
	s.autosaveTimer = time.AfterFunc(s.autosaveDelay, func() {
		s.autosave(gen)
	})
}

// autosave persists the draft if the triggering edit is still the latest
// one and the session is still open.
func (s *Session) autosave(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.saveGen || s.evaluation.Completed {
		s.mu.Unlock()
		return
	}
	draft := s.draftLocked()
	s.mu.Unlock()

	if err := s.store.SaveDraft(draft); err != nil {
		s.logger.Warn("Autosave failed",
			"draft_id", draft.ID,
			"error", err.Error())
	}
}

func (s *Session) draftLocked() domain.SavedDraft {
	return domain.SavedDraft{
		ID:         s.draftID,
		Title:      s.title,
		Evaluation: s.snapshotLocked(),
		SavedAt:    time.Now().UTC(),
	}
}

// Save persists the draft immediately and disarms any pending autosave.
func (s *Session) Save() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Session is closed", nil)
	}
	s.saveGen++
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
		s.autosaveTimer = nil
	}
	draft := s.draftLocked()
	s.mu.Unlock()

	return s.store.SaveDraft(draft)
}

// Submit finalizes the evaluation: the draft is persisted, marked
// completed with a timestamp, and refuses further edits.
func (s *Session) Submit(now time.Time) (*domain.SavedDraft, error) {
	if err := s.Save(); err != nil {
		return nil, err
	}

	draft, err := s.store.FinalizeEvaluation(s.draftID, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.evaluation = draft.Evaluation
	if s.evaluation.Scores == nil {
		s.evaluation.Scores = make(map[string]domain.CriterionScore)
	}
	s.mu.Unlock()
	return draft, nil
}

// Close ends the session. Pending autosaves are disarmed and analysis
// responses that arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.saveGen++
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
		s.autosaveTimer = nil
	}
}

// Slot returns the current state of one analysis action.
func (s *Session) Slot(kind ai.Kind) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[kind]; ok {
		return *slot
	}
	return Slot{Status: StatusIdle}
}

// EvaluationResult returns the last successful fit analysis, or nil.
func (s *Session) EvaluationResult() *domain.EvaluationAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evalRes
}

// MatchingResult returns the last successful matching analysis, or nil.
func (s *Session) MatchingResult() *domain.MatchingAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchRes
}

// QuestionsResult returns the last generated question set, or nil.
func (s *Session) QuestionsResult() *domain.QuestionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// TurnoverResult returns the last successful turnover analysis, or nil.
func (s *Session) TurnoverResult() *domain.TurnoverAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnover
}

// promptInputLocked assembles the analysis input from the session state.
func (s *Session) promptInputLocked() ai.PromptInput {
	eval := s.snapshotLocked()
	return ai.PromptInput{
		Candidate:  s.candidate,
		Criteria:   s.criteria,
		JobConfig:  s.jobConfig,
		Company:    s.company,
		Posting:    s.posting,
		Evaluation: &eval,
	}
}

// begin transitions a slot Idle/Success/Failed -> Loading. It refuses a
// second trigger while one request is outstanding.
func (s *Session) begin(kind ai.Kind) (ai.PromptInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Session is closed", nil)
	}
	slot := s.slots[kind]
	if slot.Status == StatusLoading {
		return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("A %s analysis is already in progress", kind), nil)
	}
	*slot = Slot{Status: StatusLoading}
	return s.promptInputLocked(), nil
}

// finish applies the outcome unless the session closed while the request
// was in flight; late responses are dropped.
func (s *Session) finish(kind ai.Kind, apply func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	slot := s.slots[kind]
	if err != nil {
		*slot = Slot{
			Status:       StatusFailed,
			ErrorCode:    errors.Code(err),
			ErrorMessage: err.Error(),
		}
		return
	}
	apply()
	*slot = Slot{Status: StatusSuccess}
}

// RunEvaluation requests the overall fit analysis.
func (s *Session) RunEvaluation(ctx context.Context) (*domain.EvaluationAnalysis, error) {
	in, err := s.begin(ai.KindEvaluation)
	if err != nil {
		return nil, err
	}
	result, _, err := s.analyzer.AnalyzeEvaluation(ctx, in)
	s.finish(ai.KindEvaluation, func() { s.evalRes = &result }, err)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunMatching requests the per-criterion matching analysis.
func (s *Session) RunMatching(ctx context.Context) (*domain.MatchingAnalysis, error) {
	in, err := s.begin(ai.KindMatching)
	if err != nil {
		return nil, err
	}
	result, _, err := s.analyzer.AnalyzeMatching(ctx, in)
	s.finish(ai.KindMatching, func() { s.matchRes = &result }, err)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunQuestions requests interview question generation.
func (s *Session) RunQuestions(ctx context.Context) (*domain.QuestionSet, error) {
	in, err := s.begin(ai.KindQuestions)
	if err != nil {
		return nil, err
	}
	result, _, err := s.analyzer.GenerateQuestions(ctx, in)
	s.finish(ai.KindQuestions, func() { s.questions = &result }, err)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RunTurnover requests the turnover-risk analysis.
func (s *Session) RunTurnover(ctx context.Context) (*domain.TurnoverAnalysis, error) {
	in, err := s.begin(ai.KindTurnover)
	if err != nil {
		return nil, err
	}
	result, _, err := s.analyzer.AnalyzeTurnover(ctx, in)
	s.finish(ai.KindTurnover, func() { s.turnover = &result }, err)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
