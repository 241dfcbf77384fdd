package domain

// CriterionCategory groups evaluation criteria for display. The set is
// closed; anything else is rejected at validation time.
type CriterionCategory string

const (
	CategoryCapability  CriterionCategory = "capability"
	CategoryValues      CriterionCategory = "values"
	CategoryOrientation CriterionCategory = "orientation"
)

// IsValid reports whether the category is one of the three known values.
func (c CriterionCategory) IsValid() bool {
	switch c {
	case CategoryCapability, CategoryValues, CategoryOrientation:
		return true
	}
	return false
}

// ScoreLevels is the fixed number of discrete score levels per criterion.
const ScoreLevels = 4

// ScoreDescription describes what one score level (1-4) means for a criterion.
type ScoreDescription struct {
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// EvaluationCriterion is a single named, weighted axis of candidate
// evaluation. Weight is in percentage points and need not sum to 100
// across a config; consumers average using weight as a proportion.
type EvaluationCriterion struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Category          CriterionCategory  `json:"category"`
	Weight            int                `json:"weight"`
	ScoreDescriptions []ScoreDescription `json:"scoreDescriptions"`
}

// IsFullySpecified reports whether the criterion carries a non-empty
// description for every one of the 4 fixed score levels. An evaluation
// UI must not treat a criterion as complete otherwise.
func (c EvaluationCriterion) IsFullySpecified() bool {
	if len(c.ScoreDescriptions) != ScoreLevels {
		return false
	}
	seen := make(map[int]bool, ScoreLevels)
	for _, sd := range c.ScoreDescriptions {
		if sd.Score < 1 || sd.Score > ScoreLevels || sd.Description == "" {
			return false
		}
		seen[sd.Score] = true
	}
	return len(seen) == ScoreLevels
}

// JobTypeConfig holds the evaluation setup for one job type.
type JobTypeConfig struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	Criteria         []EvaluationCriterion `json:"criteria"`
	InterviewProcess string                `json:"interviewProcess,omitempty"`
}

// CompanyInfo is the singleton company context record. When
// EvaluationCriteria is non-empty it overrides any job-type criteria.
type CompanyInfo struct {
	Mission              string                `json:"mission,omitempty"`
	Vision               string                `json:"vision,omitempty"`
	Culture              string                `json:"culture,omitempty"`
	Philosophy           string                `json:"philosophy,omitempty"`
	Values               []string              `json:"values,omitempty"`
	BehavioralGuidelines []string              `json:"behavioralGuidelines,omitempty"`
	HiringCriteria       []string              `json:"hiringCriteria,omitempty"`
	AdditionalContext    string                `json:"additionalContext,omitempty"`
	EvaluationCriteria   []EvaluationCriterion `json:"evaluationCriteria,omitempty"`
}

// ResolveCriteria returns the criteria an evaluation of the given job type
// scores against. Exactly one source wins, never merged:
//  1. company-level override criteria, if present and non-empty
//  2. job-type-specific stored criteria, if present and non-empty
//  3. built-in defaults for the job type
func ResolveCriteria(company *CompanyInfo, stored *JobTypeConfig, jobType string) []EvaluationCriterion {
	if company != nil && len(company.EvaluationCriteria) > 0 {
		return company.EvaluationCriteria
	}
	if stored != nil && len(stored.Criteria) > 0 {
		return stored.Criteria
	}
	return DefaultJobTypeConfig(jobType).Criteria
}
