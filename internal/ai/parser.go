package ai

import (
	"encoding/json"
	"math"
	"strings"

	"hirescore/internal/domain"
)

// Parser limits and fallbacks. The parser is a hard boundary: it never
// returns an error, it degrades to a kind-specific default struct.
const (
	minScore      = 1
	maxScore      = 5
	maxListItems  = 5
	maxSubItems   = 3
	defaultScore  = 3
	defaultConfid = 0.5

	fallbackReasoning = "The analysis could not be read from the model response. Please run the analysis again."
)

// ExtractJSON locates the JSON payload inside completion text: a fenced
// code block labeled json first, then the first top-level {...} span,
// then the whole text as-is.
func ExtractJSON(text string) string {
	if fenced, ok := extractFencedJSON(text); ok {
		return fenced
	}
	if span, ok := extractBraceSpan(text); ok {
		return span
	}
	return strings.TrimSpace(text)
}

func extractFencedJSON(text string) (string, bool) {
	lower := strings.ToLower(text)
	start := strings.Index(lower, "```json")
	if start < 0 {
		return "", false
	}
	rest := text[start+len("```json"):]
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

func extractBraceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	// Unbalanced; let the JSON decoder reject it.
	return text[start:], true
}

// Wire structs use pointers for scalars so a missing field (falls back to
// the documented default) is distinguishable from an out-of-range value
// (clamped).

type evaluationWire struct {
	RecommendedScore *float64 `json:"recommendedScore"`
	Confidence       *float64 `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	Strengths        []string `json:"strengths"`
	RiskFactors      []string `json:"riskFactors"`
	Recommendations  []string `json:"recommendations"`
}

type criterionAnalysisWire struct {
	CriterionID     string   `json:"criterionId"`
	CriterionName   string   `json:"criterionName"`
	MatchingScore   *float64 `json:"matchingScore"`
	Confidence      *float64 `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	Evidences       []string `json:"evidences"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

type matchingWire struct {
	OverallMatchingScore *float64                `json:"overallMatchingScore"`
	OverallConfidence    *float64                `json:"overallConfidence"`
	OverallReasoning     string                  `json:"overallReasoning"`
	CriteriaAnalysis     []criterionAnalysisWire `json:"criteriaAnalysis"`
	Strengths            []string                `json:"strengths"`
	Weaknesses           []string                `json:"weaknesses"`
	Recommendations      []string                `json:"recommendations"`
	RiskFactors          []string                `json:"riskFactors"`
}

type questionWire struct {
	Question         string   `json:"question"`
	Purpose          string   `json:"purpose"`
	TargetCriteria   []string `json:"targetCriteria"`
	ExpectedInsights []string `json:"expectedInsights"`
}

type questionsWire struct {
	Questions []questionWire `json:"questions"`
}

type turnoverWire struct {
	RiskLevel       string   `json:"riskLevel"`
	RiskScore       *float64 `json:"riskScore"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// ParseEvaluation parses completion text into an overall evaluation
// analysis. The second return is false when the default struct was
// substituted for an unparseable response.
func ParseEvaluation(text string) (domain.EvaluationAnalysis, bool) {
	var wire evaluationWire
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &wire); err != nil {
		return DefaultEvaluationAnalysis(), false
	}

	return domain.EvaluationAnalysis{
		RecommendedScore: clampScore(wire.RecommendedScore),
		Confidence:       clampConfidence(wire.Confidence),
		Reasoning:        stringOr(wire.Reasoning, fallbackReasoning),
		Strengths:        truncateList(wire.Strengths, maxListItems),
		RiskFactors:      truncateList(wire.RiskFactors, maxListItems),
		Recommendations:  truncateList(wire.Recommendations, maxListItems),
	}, true
}

// ParseMatching parses completion text into a criteria-matching analysis.
func ParseMatching(text string) (domain.MatchingAnalysis, bool) {
	var wire matchingWire
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &wire); err != nil {
		return DefaultMatchingAnalysis(), false
	}

	analyses := make([]domain.CriterionAnalysis, 0, len(wire.CriteriaAnalysis))
	for _, ca := range wire.CriteriaAnalysis {
		analyses = append(analyses, domain.CriterionAnalysis{
			CriterionID:     ca.CriterionID,
			CriterionName:   ca.CriterionName,
			MatchingScore:   clampScore(ca.MatchingScore),
			Confidence:      clampConfidence(ca.Confidence),
			Reasoning:       ca.Reasoning,
			Evidences:       truncateList(ca.Evidences, maxSubItems),
			Concerns:        truncateList(ca.Concerns, maxSubItems),
			Recommendations: truncateList(ca.Recommendations, maxSubItems),
		})
	}

	return domain.MatchingAnalysis{
		OverallMatchingScore: clampScore(wire.OverallMatchingScore),
		OverallConfidence:    clampConfidence(wire.OverallConfidence),
		OverallReasoning:     stringOr(wire.OverallReasoning, fallbackReasoning),
		CriteriaAnalysis:     analyses,
		Strengths:            truncateList(wire.Strengths, maxListItems),
		Weaknesses:           truncateList(wire.Weaknesses, maxListItems),
		Recommendations:      truncateList(wire.Recommendations, maxListItems),
		RiskFactors:          truncateList(wire.RiskFactors, maxListItems),
	}, true
}

// ParseQuestions parses completion text into an interview question set.
func ParseQuestions(text string) (domain.QuestionSet, bool) {
	var wire questionsWire
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &wire); err != nil {
		return DefaultQuestionSet(), false
	}

	questions := make([]domain.InterviewQuestion, 0, len(wire.Questions))
	for _, q := range wire.Questions {
		questions = append(questions, domain.InterviewQuestion{
			Question:         q.Question,
			Purpose:          q.Purpose,
			TargetCriteria:   emptyIfNil(q.TargetCriteria),
			ExpectedInsights: emptyIfNil(q.ExpectedInsights),
		})
	}

	return domain.QuestionSet{Questions: questions}, true
}

// ParseTurnover parses completion text into a turnover-risk analysis.
func ParseTurnover(text string) (domain.TurnoverAnalysis, bool) {
	var wire turnoverWire
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &wire); err != nil {
		return DefaultTurnoverAnalysis(), false
	}

	level := domain.RiskLevel(wire.RiskLevel)
	if !level.IsValid() {
		level = domain.RiskMedium
	}

	return domain.TurnoverAnalysis{
		RiskLevel:       level,
		RiskScore:       clampConfidence(wire.RiskScore),
		Factors:         truncateList(wire.Factors, maxListItems),
		Recommendations: truncateList(wire.Recommendations, maxListItems),
	}, true
}

// DefaultEvaluationAnalysis is the safe fallback for an unparseable
// evaluation response.
func DefaultEvaluationAnalysis() domain.EvaluationAnalysis {
	return domain.EvaluationAnalysis{
		RecommendedScore: defaultScore,
		Confidence:       defaultConfid,
		Reasoning:        fallbackReasoning,
		Strengths:        []string{},
		RiskFactors:      []string{},
		Recommendations:  []string{},
	}
}

// DefaultMatchingAnalysis is the safe fallback for an unparseable
// matching response.
func DefaultMatchingAnalysis() domain.MatchingAnalysis {
	return domain.MatchingAnalysis{
		OverallMatchingScore: defaultScore,
		OverallConfidence:    defaultConfid,
		OverallReasoning:     fallbackReasoning,
		CriteriaAnalysis:     []domain.CriterionAnalysis{},
		Strengths:            []string{},
		Weaknesses:           []string{},
		Recommendations:      []string{},
		RiskFactors:          []string{},
	}
}

// DefaultQuestionSet is the safe fallback for an unparseable questions
// response.
func DefaultQuestionSet() domain.QuestionSet {
	return domain.QuestionSet{Questions: []domain.InterviewQuestion{}}
}

// DefaultTurnoverAnalysis is the safe fallback for an unparseable
// turnover response.
func DefaultTurnoverAnalysis() domain.TurnoverAnalysis {
	return domain.TurnoverAnalysis{
		RiskLevel:       domain.RiskMedium,
		RiskScore:       defaultConfid,
		Factors:         []string{fallbackReasoning},
		Recommendations: []string{},
	}
}

// clampScore rounds a score into the 1-5 range; a missing score falls
// back to the midpoint default.
func clampScore(v *float64) int {
	if v == nil {
		return defaultScore
	}
	score := int(math.Round(*v))
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// clampConfidence clamps a 0-1 value; missing falls back to 0.5.
func clampConfidence(v *float64) float64 {
	if v == nil {
		return defaultConfid
	}
	if *v < 0 {
		return 0
	}
	if *v > 1 {
		return 1
	}
	return *v
}

// truncateList caps a list at max entries and maps nil to empty.
func truncateList(list []string, max int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > max {
		return list[:max]
	}
	return list
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
