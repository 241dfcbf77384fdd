package domain

import "time"

// Recommendation is the evaluator's overall verdict.
type Recommendation string

const (
	RecommendHire     Recommendation = "hire"
	RecommendConsider Recommendation = "consider"
	RecommendReject   Recommendation = "reject"
)

// IsValid reports whether the recommendation is one of the known values.
func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendHire, RecommendConsider, RecommendReject:
		return true
	}
	return false
}

// CriterionScore is the entered score and comment for one criterion.
// Score is on the 1-4 scale defined by the criterion's score descriptions.
type CriterionScore struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// Evaluation is one scorecard for a candidate. Drafts are mutable; once
// submitted the evaluation is finalized and must not change.
type Evaluation struct {
	CandidateID    string                    `json:"candidateId"`
	JobType        string                    `json:"jobType"`
	Scores         map[string]CriterionScore `json:"scores"`
	OverallComment string                    `json:"overallComment,omitempty"`
	Recommendation Recommendation            `json:"recommendation,omitempty"`
	Completed      bool                      `json:"completed"`
	CompletedAt    *time.Time                `json:"completedAt,omitempty"`
}

// SavedDraft wraps a partial evaluation for persistence.
type SavedDraft struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Evaluation Evaluation `json:"evaluation"`
	SavedAt    time.Time  `json:"savedAt"`
}

// WeightedScore computes the weighted average of the entered scores over
// the given criteria: sum(score*weight)/sum(weight), counting only
// criteria that have a score entered. Returns 0 when nothing is scored.
func WeightedScore(criteria []EvaluationCriterion, scores map[string]CriterionScore) float64 {
	var weighted, totalWeight float64
	for _, c := range criteria {
		entered, ok := scores[c.ID]
		if !ok || entered.Score == 0 {
			continue
		}
		weighted += float64(entered.Score) * float64(c.Weight)
		totalWeight += float64(c.Weight)
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// Finalize marks the evaluation completed and stamps the completion time.
func (e *Evaluation) Finalize(now time.Time) {
	e.Completed = true
	e.CompletedAt = &now
}
