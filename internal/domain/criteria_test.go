package domain

import (
	"testing"
)

func namedCriterion(id string, weight int) EvaluationCriterion {
	return EvaluationCriterion{
		ID:       id,
		Name:     id,
		Category: CategoryCapability,
		Weight:   weight,
		ScoreDescriptions: scoreScale(
			[ScoreLevels]string{"1", "2", "3", "4"},
			[ScoreLevels]string{"d1", "d2", "d3", "d4"},
		),
	}
}

func TestResolveCriteria(t *testing.T) {
	companyCriteria := []EvaluationCriterion{namedCriterion("company_fit", 20)}
	storedCriteria := []EvaluationCriterion{namedCriterion("stored_skill", 30)}

	tests := []struct {
		name    string
		company *CompanyInfo
		stored  *JobTypeConfig
		jobType string
		wantID  string
	}{
		{
			name:    "company override wins over everything",
			company: &CompanyInfo{EvaluationCriteria: companyCriteria},
			stored:  &JobTypeConfig{ID: "engineer", Criteria: storedCriteria},
			jobType: "engineer",
			wantID:  "company_fit",
		},
		{
			name:    "empty company override falls through to stored",
			company: &CompanyInfo{EvaluationCriteria: nil},
			stored:  &JobTypeConfig{ID: "engineer", Criteria: storedCriteria},
			jobType: "engineer",
			wantID:  "stored_skill",
		},
		{
			name:    "nil company falls through to stored",
			company: nil,
			stored:  &JobTypeConfig{ID: "sales", Criteria: storedCriteria},
			jobType: "sales",
			wantID:  "stored_skill",
		},
		{
			name:    "empty stored config falls through to built-in defaults",
			company: &CompanyInfo{},
			stored:  &JobTypeConfig{ID: "engineer"},
			jobType: "engineer",
			wantID:  "logical_thinking",
		},
		{
			name:    "nothing stored uses built-in defaults",
			company: nil,
			stored:  nil,
			jobType: "engineer",
			wantID:  "logical_thinking",
		},
		{
			name:    "unknown job type falls back to engineer defaults",
			company: nil,
			stored:  nil,
			jobType: "astronaut",
			wantID:  "logical_thinking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCriteria(tt.company, tt.stored, tt.jobType)
			if len(got) == 0 {
				t.Fatalf("ResolveCriteria returned no criteria")
			}
			if got[0].ID != tt.wantID {
				t.Errorf("ResolveCriteria first criterion = %q, want %q", got[0].ID, tt.wantID)
			}
		})
	}
}

func TestResolveCriteriaNeverMerges(t *testing.T) {
	company := &CompanyInfo{EvaluationCriteria: []EvaluationCriterion{namedCriterion("a", 10)}}
	stored := &JobTypeConfig{ID: "engineer", Criteria: []EvaluationCriterion{namedCriterion("b", 10)}}

	got := ResolveCriteria(company, stored, "engineer")
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected only company criteria, got %d criteria", len(got))
	}
}

func TestDefaultEngineerLogicalThinkingWeight(t *testing.T) {
	cfg := DefaultJobTypeConfig("engineer")
	for _, c := range cfg.Criteria {
		if c.ID == "logical_thinking" {
			if c.Weight != 11 {
				t.Errorf("logical_thinking weight = %d, want 11", c.Weight)
			}
			return
		}
	}
	t.Fatal("engineer defaults missing logical_thinking criterion")
}

func TestDefaultCriteriaFullySpecified(t *testing.T) {
	for _, jobType := range DefaultJobTypes() {
		cfg := DefaultJobTypeConfig(jobType)
		if len(cfg.Criteria) == 0 {
			t.Errorf("job type %q has no default criteria", jobType)
		}
		for _, c := range cfg.Criteria {
			if !c.IsFullySpecified() {
				t.Errorf("default criterion %s/%s is not fully specified", jobType, c.ID)
			}
			if !c.Category.IsValid() {
				t.Errorf("default criterion %s/%s has invalid category %q", jobType, c.ID, c.Category)
			}
		}
	}
}

func TestIsFullySpecified(t *testing.T) {
	tests := []struct {
		name      string
		criterion EvaluationCriterion
		want      bool
	}{
		{
			name:      "complete criterion",
			criterion: namedCriterion("ok", 10),
			want:      true,
		},
		{
			name: "missing one level",
			criterion: EvaluationCriterion{
				ID: "short",
				ScoreDescriptions: []ScoreDescription{
					{Score: 1, Description: "a"},
					{Score: 2, Description: "b"},
					{Score: 3, Description: "c"},
				},
			},
			want: false,
		},
		{
			name: "empty description body",
			criterion: EvaluationCriterion{
				ID: "hollow",
				ScoreDescriptions: []ScoreDescription{
					{Score: 1, Description: "a"},
					{Score: 2, Description: ""},
					{Score: 3, Description: "c"},
					{Score: 4, Description: "d"},
				},
			},
			want: false,
		},
		{
			name: "duplicate score level",
			criterion: EvaluationCriterion{
				ID: "dup",
				ScoreDescriptions: []ScoreDescription{
					{Score: 1, Description: "a"},
					{Score: 2, Description: "b"},
					{Score: 2, Description: "b again"},
					{Score: 4, Description: "d"},
				},
			},
			want: false,
		},
		{
			name: "score out of range",
			criterion: EvaluationCriterion{
				ID: "range",
				ScoreDescriptions: []ScoreDescription{
					{Score: 1, Description: "a"},
					{Score: 2, Description: "b"},
					{Score: 3, Description: "c"},
					{Score: 5, Description: "e"},
				},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criterion.IsFullySpecified(); got != tt.want {
				t.Errorf("IsFullySpecified() = %v, want %v", got, tt.want)
			}
		})
	}
}
