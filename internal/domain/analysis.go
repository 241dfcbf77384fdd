package domain

// AI-analysis result types. These are transient: never persisted,
// recomputed on demand. Field names and ranges match the JSON the
// completion model is instructed to return.

// EvaluationAnalysis is the overall AI fit assessment of a candidate.
type EvaluationAnalysis struct {
	RecommendedScore int      `json:"recommendedScore"` // 1-5
	Confidence       float64  `json:"confidence"`       // 0-1
	Reasoning        string   `json:"reasoning"`
	Strengths        []string `json:"strengths"`
	RiskFactors      []string `json:"riskFactors"`
	Recommendations  []string `json:"recommendations"`
}

// CriterionAnalysis is the per-criterion slice of a matching analysis.
type CriterionAnalysis struct {
	CriterionID     string   `json:"criterionId"`
	CriterionName   string   `json:"criterionName"`
	MatchingScore   int      `json:"matchingScore"` // 1-5
	Confidence      float64  `json:"confidence"`    // 0-1
	Reasoning       string   `json:"reasoning"`
	Evidences       []string `json:"evidences"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// MatchingAnalysis assesses how well a candidate satisfies each criterion.
type MatchingAnalysis struct {
	OverallMatchingScore int                 `json:"overallMatchingScore"` // 1-5
	OverallConfidence    float64             `json:"overallConfidence"`    // 0-1
	OverallReasoning     string              `json:"overallReasoning"`
	CriteriaAnalysis     []CriterionAnalysis `json:"criteriaAnalysis"`
	Strengths            []string            `json:"strengths"`
	Weaknesses           []string            `json:"weaknesses"`
	Recommendations      []string            `json:"recommendations"`
	RiskFactors          []string            `json:"riskFactors"`
}

// InterviewQuestion is a single AI-suggested interview question.
type InterviewQuestion struct {
	Question         string   `json:"question"`
	Purpose          string   `json:"purpose"`
	TargetCriteria   []string `json:"targetCriteria"`
	ExpectedInsights []string `json:"expectedInsights"`
}

// QuestionSet is the AI-generated interview question list.
type QuestionSet struct {
	Questions []InterviewQuestion `json:"questions"`
}

// RiskLevel is the coarse turnover-risk bucket.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid reports whether the level is one of the known buckets.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// TurnoverAnalysis estimates the likelihood a hired candidate leaves
// within one year.
type TurnoverAnalysis struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	RiskScore       float64   `json:"riskScore"` // 0-1
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}
