package ai

import (
	"fmt"
	"strings"
	"testing"

	"hirescore/internal/domain"
)

func sampleInput() PromptInput {
	return PromptInput{
		Candidate: domain.Candidate{
			ID:         "cand-1",
			Name:       "Taro Yamada",
			Age:        29,
			Education:  "BSc Computer Science",
			Experience: "5 years backend development",
		},
		Criteria: []domain.EvaluationCriterion{
			{ID: "logical_thinking", Name: "Logical thinking", Description: "Structures problems clearly", Category: domain.CategoryCapability, Weight: 11},
			{ID: "culture_fit", Name: "Culture fit", Description: "Shares company values", Category: domain.CategoryValues, Weight: 8},
		},
		JobConfig: domain.JobTypeConfig{
			ID:          "engineer",
			Name:        "Engineer",
			Description: "Backend engineering role",
		},
	}
}

func TestBuildPromptRendersCriteriaByID(t *testing.T) {
	prompt := BuildEvaluationPrompt(sampleInput())

	for _, want := range []string{
		"id: logical_thinking | Logical thinking (weight 11, category capability)",
		"id: culture_fit | Culture fit (weight 8, category values)",
		"Taro Yamada",
		"Backend engineering role",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptEndsWithSchema(t *testing.T) {
	tests := []struct {
		name   string
		build  func(PromptInput) string
		schema string
	}{
		{"evaluation", BuildEvaluationPrompt, `"recommendedScore"`},
		{"matching", BuildMatchingPrompt, `"criteriaAnalysis"`},
		{"questions", BuildQuestionsPrompt, `"questions"`},
		{"turnover", BuildTurnoverPrompt, `"riskLevel"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := tt.build(sampleInput())
			marker := "Respond with ONLY a JSON object"
			idx := strings.Index(prompt, marker)
			if idx < 0 {
				t.Fatal("prompt missing response-format instruction")
			}
			tail := prompt[idx:]
			if !strings.Contains(tail, tt.schema) {
				t.Errorf("schema tail missing %q", tt.schema)
			}
		})
	}
}

func TestBuildPromptDocumentTruncation(t *testing.T) {
	long := strings.Repeat("x", 5000)
	in := sampleInput()
	in.Candidate.ResumeText = long
	in.Candidate.CareerHistoryText = long

	t.Run("evaluation uses full budget", func(t *testing.T) {
		prompt := BuildEvaluationPrompt(in)
		want := strings.Repeat("x", 1000) + truncationMarker
		if !strings.Contains(prompt, want) {
			t.Error("resume excerpt not truncated to 1000 characters")
		}
		if strings.Contains(prompt, strings.Repeat("x", 1001)) {
			t.Error("excerpt exceeds the 1000 character budget")
		}
	})

	t.Run("turnover uses short budget", func(t *testing.T) {
		prompt := BuildTurnoverPrompt(in)
		want := strings.Repeat("x", 500) + truncationMarker
		if !strings.Contains(prompt, want) {
			t.Error("resume excerpt not truncated to 500 characters")
		}
		if strings.Contains(prompt, strings.Repeat("x", 501)) {
			t.Error("excerpt exceeds the 500 character budget")
		}
	})

	t.Run("short documents kept verbatim without marker", func(t *testing.T) {
		in := sampleInput()
		in.Candidate.ResumeText = "short resume"
		prompt := BuildEvaluationPrompt(in)
		if !strings.Contains(prompt, "short resume\n") {
			t.Error("short resume not included verbatim")
		}
		if strings.Contains(prompt, "short resume"+truncationMarker) {
			t.Error("marker appended to untruncated text")
		}
	})
}

func TestTruncateIsRuneSafe(t *testing.T) {
	s := strings.Repeat("日", 600)
	out := truncate(s, 500)
	want := strings.Repeat("日", 500) + truncationMarker
	if out != want {
		t.Errorf("truncate produced %d runes, want 500 plus marker", len([]rune(out))-1)
	}
}

func TestBuildPromptMinutesLimits(t *testing.T) {
	in := sampleInput()
	for i := 0; i < 5; i++ {
		m := domain.InterviewMinutes{
			ID:          fmt.Sprintf("m-%d", i),
			Interviewer: fmt.Sprintf("interviewer-%d", i),
		}
		for j := 0; j < 6; j++ {
			m.QAPairs = append(m.QAPairs, domain.QAPair{
				Question: fmt.Sprintf("question-%d-%d", i, j),
				Answer:   "answer",
			})
		}
		in.Candidate.InterviewMinutes = append(in.Candidate.InterviewMinutes, m)
	}

	prompt := BuildEvaluationPrompt(in)

	if !strings.Contains(prompt, "interviewer-2") {
		t.Error("third interview session missing")
	}
	if strings.Contains(prompt, "interviewer-3") {
		t.Error("fourth interview session should be dropped")
	}
	if !strings.Contains(prompt, "question-0-2") {
		t.Error("third question of a session missing")
	}
	if strings.Contains(prompt, "question-0-3") {
		t.Error("fourth question of a session should be dropped")
	}
}

func TestBuildPromptIncludesEnteredScores(t *testing.T) {
	in := sampleInput()
	in.Evaluation = &domain.Evaluation{
		CandidateID: "cand-1",
		JobType:     "engineer",
		Scores: map[string]domain.CriterionScore{
			"logical_thinking": {Score: 4, Comment: "structured answers"},
			"culture_fit":      {Score: 0},
		},
		OverallComment: "promising",
	}

	prompt := BuildEvaluationPrompt(in)

	if !strings.Contains(prompt, "Logical thinking: 4 (structured answers)") {
		t.Error("entered score not rendered")
	}
	if strings.Contains(prompt, "Culture fit: 0") {
		t.Error("zero score must be treated as not entered")
	}
	if !strings.Contains(prompt, "Overall comment: promising") {
		t.Error("overall comment missing")
	}
}

func TestBuildPromptOmitsAbsentSections(t *testing.T) {
	prompt := BuildEvaluationPrompt(sampleInput())

	if strings.Contains(prompt, "## Company") {
		t.Error("company section rendered without company info")
	}
	if strings.Contains(prompt, "## Job posting") {
		t.Error("posting section rendered without a posting")
	}
	if strings.Contains(prompt, "Scores already entered") {
		t.Error("current-scores section rendered without an evaluation")
	}
}

func TestBuildPromptDoesNotMutateInput(t *testing.T) {
	in := sampleInput()
	in.Company = &domain.CompanyInfo{Mission: "Build useful software", Values: []string{"honesty"}}
	in.Candidate.InterviewMinutes = []domain.InterviewMinutes{
		{Interviewer: "a", QAPairs: []domain.QAPair{{Question: "q", Answer: "a"}}},
	}

	before := fmt.Sprintf("%+v", in)
	_ = BuildEvaluationPrompt(in)
	_ = BuildMatchingPrompt(in)
	after := fmt.Sprintf("%+v", in)

	if before != after {
		t.Error("prompt building mutated its input")
	}
}
