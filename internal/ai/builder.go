package ai

import (
	"fmt"
	"strings"

	"hirescore/internal/domain"
)

// Prompt assembly limits. Document excerpts are cut to a fixed character
// budget; the question-generation and turnover prompts use the shorter
// budget since they need context, not full documents.
const (
	docExcerptBudget      = 1000
	shortDocExcerptBudget = 500
	truncationMarker      = "…"

	maxMinutesRecords = 3
	maxQAPairs        = 3
)

// PromptInput carries the domain data a prompt is assembled from. All
// fields except Candidate and Criteria are optional.
type PromptInput struct {
	Candidate  domain.Candidate
	Criteria   []domain.EvaluationCriterion
	JobConfig  domain.JobTypeConfig
	Company    *domain.CompanyInfo
	Posting    *domain.JobPosting
	Evaluation *domain.Evaluation
}

// BuildEvaluationPrompt assembles the overall-fit evaluation prompt.
func BuildEvaluationPrompt(in PromptInput) string {
	return buildPrompt(KindEvaluation, in)
}

// BuildMatchingPrompt assembles the per-criterion matching prompt.
func BuildMatchingPrompt(in PromptInput) string {
	return buildPrompt(KindMatching, in)
}

// BuildQuestionsPrompt assembles the interview-question generation prompt.
func BuildQuestionsPrompt(in PromptInput) string {
	return buildPrompt(KindQuestions, in)
}

// BuildTurnoverPrompt assembles the turnover-risk prompt.
func BuildTurnoverPrompt(in PromptInput) string {
	return buildPrompt(KindTurnover, in)
}

// buildPrompt is a pure function of its inputs: it renders every present
// piece of domain data into instruction text and ends with the JSON
// schema the model must answer with. It never mutates the input.
func buildPrompt(kind Kind, in PromptInput) string {
	budget := docExcerptBudget
	if kind == KindQuestions || kind == KindTurnover {
		budget = shortDocExcerptBudget
	}

	var b strings.Builder
	b.WriteString(instructionsFor(kind))
	b.WriteString("\n")

	writeJobTypeSection(&b, in.JobConfig)
	if in.Company != nil {
		writeCompanySection(&b, *in.Company)
	}
	if in.Posting != nil {
		writePostingSection(&b, *in.Posting)
	}
	writeCandidateSection(&b, in.Candidate, budget)
	writeCriteriaSection(&b, in.Criteria)
	if in.Evaluation != nil {
		writeCurrentEvaluationSection(&b, *in.Evaluation, in.Criteria)
	}

	b.WriteString("\nRespond with ONLY a JSON object in exactly this form, with no text outside it:\n")
	b.WriteString(schemaFor(kind))
	b.WriteString("\n")

	return b.String()
}

func writeJobTypeSection(b *strings.Builder, cfg domain.JobTypeConfig) {
	if cfg.Name == "" && cfg.Description == "" && cfg.InterviewProcess == "" {
		return
	}
	b.WriteString("\n## Position\n")
	writeField(b, "Job type", cfg.Name)
	writeField(b, "Description", cfg.Description)
	writeField(b, "Interview process", cfg.InterviewProcess)
}

func writeCompanySection(b *strings.Builder, c domain.CompanyInfo) {
	b.WriteString("\n## Company\n")
	writeField(b, "Mission", c.Mission)
	writeField(b, "Vision", c.Vision)
	writeField(b, "Culture", c.Culture)
	writeField(b, "Philosophy", c.Philosophy)
	writeList(b, "Values", c.Values)
	writeList(b, "Behavioral guidelines", c.BehavioralGuidelines)
	writeList(b, "Hiring criteria", c.HiringCriteria)
	writeField(b, "Additional context", c.AdditionalContext)
}

func writePostingSection(b *strings.Builder, p domain.JobPosting) {
	b.WriteString("\n## Job posting\n")
	writeField(b, "Title", p.Title)
	writeField(b, "Requirements", p.Requirements)
	writeField(b, "Responsibilities", p.Responsibilities)
	writeField(b, "Conditions", p.Conditions)
	writeField(b, "Career path", p.CareerPath)
}

func writeCandidateSection(b *strings.Builder, c domain.Candidate, budget int) {
	b.WriteString("\n## Candidate\n")
	writeField(b, "Name", c.Name)
	if c.Age > 0 {
		fmt.Fprintf(b, "Age: %d\n", c.Age)
	}
	writeField(b, "Education", c.Education)
	writeField(b, "University", c.University)
	writeField(b, "Experience", c.Experience)
	writeField(b, "Self-PR", c.SelfPR)
	writeField(b, "Interview notes", c.InterviewLog)

	if c.ResumeText != "" {
		b.WriteString("\n### Resume (excerpt)\n")
		b.WriteString(truncate(c.ResumeText, budget))
		b.WriteString("\n")
	}
	if c.CareerHistoryText != "" {
		b.WriteString("\n### Career history (excerpt)\n")
		b.WriteString(truncate(c.CareerHistoryText, budget))
		b.WriteString("\n")
	}

	if c.AptitudeTest != nil {
		writeAptitudeSection(b, *c.AptitudeTest)
	}
	if len(c.InterviewMinutes) > 0 {
		writeMinutesSection(b, c.InterviewMinutes)
	}
}

func writeAptitudeSection(b *strings.Builder, t domain.AptitudeTestResult) {
	b.WriteString("\n### Aptitude test (SPI)\n")
	fmt.Fprintf(b, "Language score: %d\n", t.LanguageScore)
	fmt.Fprintf(b, "Non-language score: %d\n", t.NonLanguageScore)
	fmt.Fprintf(b, "Total score: %d\n", t.TotalScore)
	writeField(b, "Personality summary", t.PersonalitySummary)
}

func writeMinutesSection(b *strings.Builder, minutes []domain.InterviewMinutes) {
	b.WriteString("\n### Interview minutes\n")
	for i, m := range minutes {
		if i >= maxMinutesRecords {
			break
		}
		fmt.Fprintf(b, "Session %d (interviewer: %s)\n", i+1, m.Interviewer)
		for j, qa := range m.QAPairs {
			if j >= maxQAPairs {
				break
			}
			fmt.Fprintf(b, "  Q: %s\n  A: %s\n", qa.Question, qa.Answer)
		}
		for _, insight := range m.KeyInsights {
			fmt.Fprintf(b, "  Insight: %s\n", insight)
		}
	}
}

func writeCriteriaSection(b *strings.Builder, criteria []domain.EvaluationCriterion) {
	if len(criteria) == 0 {
		return
	}
	b.WriteString("\n## Evaluation criteria\n")
	b.WriteString("Score the candidate against exactly these criteria, referenced by id:\n")
	for _, c := range criteria {
		fmt.Fprintf(b, "- id: %s | %s (weight %d, category %s): %s\n",
			c.ID, c.Name, c.Weight, c.Category, c.Description)
	}
}

func writeCurrentEvaluationSection(b *strings.Builder, e domain.Evaluation, criteria []domain.EvaluationCriterion) {
	if len(e.Scores) == 0 && e.OverallComment == "" {
		return
	}
	b.WriteString("\n## Scores already entered by the evaluator\n")
	// Walk criteria in order so the rendering is deterministic.
	for _, c := range criteria {
		entered, ok := e.Scores[c.ID]
		if !ok || entered.Score == 0 {
			continue
		}
		fmt.Fprintf(b, "- %s: %d", c.Name, entered.Score)
		if entered.Comment != "" {
			fmt.Fprintf(b, " (%s)", entered.Comment)
		}
		b.WriteString("\n")
	}
	writeField(b, "Overall comment", e.OverallComment)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}

// truncate cuts s to at most budget characters, appending a marker when
// anything was cut. Counted in runes so multibyte text is not split.
func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + truncationMarker
}
