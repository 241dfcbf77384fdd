package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"hirescore/internal/domain"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "EvaluationAnalysis", &EvaluationTextFormatter{})
	registry.RegisterFormatter("markdown", "EvaluationAnalysis", &EvaluationMarkdownFormatter{})
	registry.RegisterFormatter("text", "MatchingAnalysis", &MatchingTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchingAnalysis", &MatchingMarkdownFormatter{})
	registry.RegisterFormatter("text", "QuestionSet", &QuestionsTextFormatter{})
	registry.RegisterFormatter("markdown", "QuestionSet", &QuestionsMarkdownFormatter{})
	registry.RegisterFormatter("text", "TurnoverAnalysis", &TurnoverTextFormatter{})
	registry.RegisterFormatter("markdown", "TurnoverAnalysis", &TurnoverMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case domain.EvaluationAnalysis:
		return "EvaluationAnalysis"
	case domain.MatchingAnalysis:
		return "MatchingAnalysis"
	case domain.QuestionSet:
		return "QuestionSet"
	case domain.TurnoverAnalysis:
		return "TurnoverAnalysis"
	default:
		return "any"
	}
}

func writeBulletList(output *strings.Builder, heading string, items []string, markdown bool) {
	if len(items) == 0 {
		return
	}
	if markdown {
		output.WriteString("### " + heading + "\n")
	} else {
		output.WriteString(heading + ":\n")
	}
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// EvaluationTextFormatter handles text formatting for overall fit results
type EvaluationTextFormatter struct{}

func (etf *EvaluationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.EvaluationAnalysis)
	if !ok {
		return "", fmt.Errorf("expected EvaluationAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CANDIDATE EVALUATION ===\n\n")
	output.WriteString(fmt.Sprintf("Recommended Score: %d/5\n", result.RecommendedScore))
	output.WriteString(fmt.Sprintf("Confidence: %.2f\n\n", result.Confidence))
	output.WriteString("Reasoning:\n")
	output.WriteString(result.Reasoning)
	output.WriteString("\n\n")

	writeBulletList(&output, "Strengths", result.Strengths, false)
	writeBulletList(&output, "Risk Factors", result.RiskFactors, false)
	writeBulletList(&output, "Recommendations", result.Recommendations, false)

	return output.String(), nil
}

func (etf *EvaluationTextFormatter) SupportedType() string {
	return "EvaluationAnalysis"
}

// EvaluationMarkdownFormatter handles markdown formatting for overall fit results
type EvaluationMarkdownFormatter struct{}

func (emf *EvaluationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.EvaluationAnalysis)
	if !ok {
		return "", fmt.Errorf("expected EvaluationAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Candidate Evaluation\n\n")
	output.WriteString(fmt.Sprintf("**Recommended Score:** %d/5\n\n", result.RecommendedScore))
	output.WriteString(fmt.Sprintf("**Confidence:** %.2f\n\n", result.Confidence))
	output.WriteString("## Reasoning\n\n")
	output.WriteString(result.Reasoning)
	output.WriteString("\n\n")

	writeBulletList(&output, "Strengths", result.Strengths, true)
	writeBulletList(&output, "Risk Factors", result.RiskFactors, true)
	writeBulletList(&output, "Recommendations", result.Recommendations, true)

	return output.String(), nil
}

func (emf *EvaluationMarkdownFormatter) SupportedType() string {
	return "EvaluationAnalysis"
}

// MatchingTextFormatter handles text formatting for criteria matching results
type MatchingTextFormatter struct{}

func (mtf *MatchingTextFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.MatchingAnalysis)
	if !ok {
		return "", fmt.Errorf("expected MatchingAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CRITERIA MATCHING ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Matching Score: %d/5\n", result.OverallMatchingScore))
	output.WriteString(fmt.Sprintf("Overall Confidence: %.2f\n\n", result.OverallConfidence))
	output.WriteString("Overall Reasoning:\n")
	output.WriteString(result.OverallReasoning)
	output.WriteString("\n\n")

	if len(result.CriteriaAnalysis) > 0 {
		output.WriteString("=== PER-CRITERION RESULTS ===\n\n")
		for i, ca := range result.CriteriaAnalysis {
			name := ca.CriterionName
			if name == "" {
				name = ca.CriterionID
			}
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
			output.WriteString(fmt.Sprintf("   Score: %d/5 (confidence %.2f)\n", ca.MatchingScore, ca.Confidence))
			if ca.Reasoning != "" {
				output.WriteString("   Reasoning: ")
				output.WriteString(ca.Reasoning)
				output.WriteString("\n")
			}
			for _, evidence := range ca.Evidences {
				output.WriteString(fmt.Sprintf("   Evidence: %s\n", evidence))
			}
			for _, concern := range ca.Concerns {
				output.WriteString(fmt.Sprintf("   Concern: %s\n", concern))
			}
			output.WriteString("\n")
		}
	}

	writeBulletList(&output, "Strengths", result.Strengths, false)
	writeBulletList(&output, "Weaknesses", result.Weaknesses, false)
	writeBulletList(&output, "Risk Factors", result.RiskFactors, false)
	writeBulletList(&output, "Recommendations", result.Recommendations, false)

	return output.String(), nil
}

func (mtf *MatchingTextFormatter) SupportedType() string {
	return "MatchingAnalysis"
}

// MatchingMarkdownFormatter handles markdown formatting for criteria matching results
type MatchingMarkdownFormatter struct{}

func (mmf *MatchingMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.MatchingAnalysis)
	if !ok {
		return "", fmt.Errorf("expected MatchingAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Criteria Matching Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Overall Matching Score:** %d/5\n\n", result.OverallMatchingScore))
	output.WriteString(fmt.Sprintf("**Overall Confidence:** %.2f\n\n", result.OverallConfidence))
	output.WriteString("## Overall Reasoning\n\n")
	output.WriteString(result.OverallReasoning)
	output.WriteString("\n\n")

	if len(result.CriteriaAnalysis) > 0 {
		output.WriteString("## Per-Criterion Results\n\n")
		for i, ca := range result.CriteriaAnalysis {
			name := ca.CriterionName
			if name == "" {
				name = ca.CriterionID
			}
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, name))
			output.WriteString(fmt.Sprintf("**Score:** %d/5 (confidence %.2f)\n\n", ca.MatchingScore, ca.Confidence))
			if ca.Reasoning != "" {
				output.WriteString(ca.Reasoning)
				output.WriteString("\n\n")
			}
			writeBulletList(&output, "Evidence", ca.Evidences, false)
			writeBulletList(&output, "Concerns", ca.Concerns, false)
		}
	}

	writeBulletList(&output, "Strengths", result.Strengths, true)
	writeBulletList(&output, "Weaknesses", result.Weaknesses, true)
	writeBulletList(&output, "Risk Factors", result.RiskFactors, true)
	writeBulletList(&output, "Recommendations", result.Recommendations, true)

	return output.String(), nil
}

func (mmf *MatchingMarkdownFormatter) SupportedType() string {
	return "MatchingAnalysis"
}

// QuestionsTextFormatter handles text formatting for generated interview questions
type QuestionsTextFormatter struct{}

func (qtf *QuestionsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.QuestionSet)
	if !ok {
		return "", fmt.Errorf("expected QuestionSet, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SUGGESTED INTERVIEW QUESTIONS ===\n\n")
	if len(result.Questions) == 0 {
		output.WriteString("No questions generated.\n")
		return output.String(), nil
	}

	for i, q := range result.Questions {
		output.WriteString(fmt.Sprintf("%d. %s\n", i+1, q.Question))
		if q.Purpose != "" {
			output.WriteString("   Purpose: ")
			output.WriteString(q.Purpose)
			output.WriteString("\n")
		}
		if len(q.TargetCriteria) > 0 {
			output.WriteString(fmt.Sprintf("   Target criteria: %s\n", strings.Join(q.TargetCriteria, ", ")))
		}
		for _, insight := range q.ExpectedInsights {
			output.WriteString(fmt.Sprintf("   Expected insight: %s\n", insight))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (qtf *QuestionsTextFormatter) SupportedType() string {
	return "QuestionSet"
}

// QuestionsMarkdownFormatter handles markdown formatting for generated interview questions
type QuestionsMarkdownFormatter struct{}

func (qmf *QuestionsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.QuestionSet)
	if !ok {
		return "", fmt.Errorf("expected QuestionSet, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Suggested Interview Questions\n\n")
	if len(result.Questions) == 0 {
		output.WriteString("No questions generated.\n")
		return output.String(), nil
	}

	for i, q := range result.Questions {
		output.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, q.Question))
		if q.Purpose != "" {
			output.WriteString("**Purpose:** ")
			output.WriteString(q.Purpose)
			output.WriteString("\n\n")
		}
		if len(q.TargetCriteria) > 0 {
			output.WriteString(fmt.Sprintf("**Target criteria:** %s\n\n", strings.Join(q.TargetCriteria, ", ")))
		}
		writeBulletList(&output, "Expected Insights", q.ExpectedInsights, false)
	}

	return output.String(), nil
}

func (qmf *QuestionsMarkdownFormatter) SupportedType() string {
	return "QuestionSet"
}

// TurnoverTextFormatter handles text formatting for turnover risk results
type TurnoverTextFormatter struct{}

func (ttf *TurnoverTextFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.TurnoverAnalysis)
	if !ok {
		return "", fmt.Errorf("expected TurnoverAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TURNOVER RISK ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Risk Level: %s\n", strings.ToUpper(string(result.RiskLevel))))
	output.WriteString(fmt.Sprintf("Risk Score: %.2f\n\n", result.RiskScore))

	writeBulletList(&output, "Risk Factors", result.Factors, false)
	writeBulletList(&output, "Recommendations", result.Recommendations, false)

	return output.String(), nil
}

func (ttf *TurnoverTextFormatter) SupportedType() string {
	return "TurnoverAnalysis"
}

// TurnoverMarkdownFormatter handles markdown formatting for turnover risk results
type TurnoverMarkdownFormatter struct{}

func (tmf *TurnoverMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(domain.TurnoverAnalysis)
	if !ok {
		return "", fmt.Errorf("expected TurnoverAnalysis, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Turnover Risk Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Risk Level:** %s\n\n", strings.ToUpper(string(result.RiskLevel))))
	output.WriteString(fmt.Sprintf("**Risk Score:** %.2f\n\n", result.RiskScore))

	writeBulletList(&output, "Risk Factors", result.Factors, true)
	writeBulletList(&output, "Recommendations", result.Recommendations, true)

	return output.String(), nil
}

func (tmf *TurnoverMarkdownFormatter) SupportedType() string {
	return "TurnoverAnalysis"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
