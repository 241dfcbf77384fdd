package store

import (
	"strings"
	"testing"
	"time"

	"hirescore/internal/domain"
	"hirescore/internal/errors"
)

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func testStore(t *testing.T) *DomainStore {
	t.Helper()
	return New(NewMemoryKV(), testLogger(t))
}

func TestCompanyInfoRoundTrip(t *testing.T) {
	s := testStore(t)

	got, err := s.CompanyInfo()
	if err != nil {
		t.Fatalf("CompanyInfo() error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent company info, got %+v", got)
	}

	info := domain.CompanyInfo{
		Mission: "Hire well",
		Values:  []string{"candor", "craft"},
	}
	if err := s.SaveCompanyInfo(info); err != nil {
		t.Fatalf("SaveCompanyInfo() error: %v", err)
	}

	got, err = s.CompanyInfo()
	if err != nil {
		t.Fatalf("CompanyInfo() error: %v", err)
	}
	if got == nil || got.Mission != "Hire well" || len(got.Values) != 2 {
		t.Errorf("CompanyInfo() = %+v, want stored record", got)
	}
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	kv := NewMemoryKV()
	s := New(kv, testLogger(t))

	if err := kv.Set(keyCompanyInfo, []byte("{not json")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := s.CompanyInfo()
	if err != nil {
		t.Fatalf("corrupt record must not surface an error, got: %v", err)
	}
	if got != nil {
		t.Errorf("corrupt record must read as absent, got %+v", got)
	}
}

func TestResolveCriteriaFromStore(t *testing.T) {
	s := testStore(t)

	// Nothing stored: built-in defaults win.
	criteria, err := s.ResolveCriteria("engineer")
	if err != nil {
		t.Fatalf("ResolveCriteria() error: %v", err)
	}
	if len(criteria) == 0 || criteria[0].ID != "logical_thinking" {
		t.Errorf("expected built-in engineer defaults, got %+v", criteria)
	}

	// Stored job-type criteria take over.
	jobCfg := domain.JobTypeConfig{
		ID: "engineer",
		Criteria: []domain.EvaluationCriterion{
			{ID: "stored", Name: "Stored", Category: domain.CategoryCapability, Weight: 10},
		},
	}
	if err := s.SaveJobTypeConfig(jobCfg); err != nil {
		t.Fatalf("SaveJobTypeConfig() error: %v", err)
	}
	criteria, err = s.ResolveCriteria("engineer")
	if err != nil {
		t.Fatalf("ResolveCriteria() error: %v", err)
	}
	if len(criteria) != 1 || criteria[0].ID != "stored" {
		t.Errorf("expected stored criteria, got %+v", criteria)
	}

	// Company override wins over stored criteria.
	company := domain.CompanyInfo{
		EvaluationCriteria: []domain.EvaluationCriterion{
			{ID: "company", Name: "Company", Category: domain.CategoryValues, Weight: 20},
		},
	}
	if err := s.SaveCompanyInfo(company); err != nil {
		t.Fatalf("SaveCompanyInfo() error: %v", err)
	}
	criteria, err = s.ResolveCriteria("engineer")
	if err != nil {
		t.Fatalf("ResolveCriteria() error: %v", err)
	}
	if len(criteria) != 1 || criteria[0].ID != "company" {
		t.Errorf("expected company override criteria, got %+v", criteria)
	}
}

func TestSaveJobTypeConfigRejectsUnknownCategory(t *testing.T) {
	s := testStore(t)

	err := s.SaveJobTypeConfig(domain.JobTypeConfig{
		ID: "engineer",
		Criteria: []domain.EvaluationCriterion{
			{ID: "x", Category: domain.CriterionCategory("charisma"), Weight: 5},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for unknown category")
	}
	if errors.Code(err) != errors.ErrCodeInvalidRequest {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeInvalidRequest)
	}
}

func TestDraftLifecycle(t *testing.T) {
	s := testStore(t)

	id := NewDraftID("cand-1")
	if !strings.HasPrefix(id, "cand-1-") {
		t.Errorf("draft id %q missing candidate prefix", id)
	}

	draft := domain.SavedDraft{
		ID:    id,
		Title: "First interview",
		Evaluation: domain.Evaluation{
			CandidateID: "cand-1",
			JobType:     "engineer",
			Scores: map[string]domain.CriterionScore{
				"logical_thinking": {Score: 3, Comment: "clear reasoning"},
			},
		},
	}
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft() error: %v", err)
	}

	// Saving under the same id upserts, not duplicates.
	draft.Title = "First interview (updated)"
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft() upsert error: %v", err)
	}

	drafts, err := s.ListDrafts()
	if err != nil {
		t.Fatalf("ListDrafts() error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("ListDrafts() = %d drafts, want 1", len(drafts))
	}
	if drafts[0].Title != "First interview (updated)" {
		t.Errorf("draft title = %q, want updated title", drafts[0].Title)
	}
	if drafts[0].SavedAt.IsZero() {
		t.Error("SavedAt was not stamped")
	}

	if err := s.DeleteDraft(id); err != nil {
		t.Fatalf("DeleteDraft() error: %v", err)
	}
	got, err := s.Draft(id)
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if got != nil {
		t.Errorf("draft still present after delete: %+v", got)
	}
}

func TestFinalizeEvaluation(t *testing.T) {
	s := testStore(t)

	id := NewDraftID("cand-2")
	draft := domain.SavedDraft{
		ID: id,
		Evaluation: domain.Evaluation{
			CandidateID:    "cand-2",
			JobType:        "sales",
			Recommendation: domain.RecommendHire,
		},
	}
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft() error: %v", err)
	}

	now := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	finalized, err := s.FinalizeEvaluation(id, now)
	if err != nil {
		t.Fatalf("FinalizeEvaluation() error: %v", err)
	}
	if !finalized.Evaluation.Completed {
		t.Error("evaluation not marked completed")
	}
	if finalized.Evaluation.CompletedAt == nil || !finalized.Evaluation.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", finalized.Evaluation.CompletedAt, now)
	}

	// Completion timestamp survives the round trip as a time.Time.
	reloaded, err := s.Draft(id)
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if reloaded.Evaluation.CompletedAt == nil || !reloaded.Evaluation.CompletedAt.Equal(now) {
		t.Errorf("reloaded CompletedAt = %v, want %v", reloaded.Evaluation.CompletedAt, now)
	}

	// Finalized evaluations are immutable.
	if _, err := s.FinalizeEvaluation(id, now.Add(time.Hour)); err == nil {
		t.Fatal("expected error finalizing twice")
	} else if errors.Code(err) != errors.ErrCodeFinalized {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeFinalized)
	}

	if _, err := s.FinalizeEvaluation("missing", now); err == nil {
		t.Fatal("expected error finalizing missing draft")
	} else if errors.Code(err) != errors.ErrCodeNotFound {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeNotFound)
	}
}

func TestFileKVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV() error: %v", err)
	}

	if _, ok, err := kv.Get("hirescore:missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := kv.Set("hirescore:draft:a", []byte(`{"id":"a"}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := kv.Set("hirescore:draft:b", []byte(`{"id":"b"}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := kv.Set("hirescore:companyInfo", []byte(`{}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	raw, ok, err := kv.Get("hirescore:draft:a")
	if err != nil || !ok {
		t.Fatalf("Get() = ok=%v err=%v", ok, err)
	}
	if string(raw) != `{"id":"a"}` {
		t.Errorf("Get() = %s", raw)
	}

	keys, err := kv.Keys("hirescore:draft:")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys() = %v, want 2 draft keys", keys)
	}

	if err := kv.Delete("hirescore:draft:a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := kv.Delete("hirescore:draft:a"); err != nil {
		t.Fatalf("Delete() of absent key should be a no-op, got: %v", err)
	}
	if _, ok, _ := kv.Get("hirescore:draft:a"); ok {
		t.Error("key still readable after delete")
	}
}

func TestFileKVStoreIntegration(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV() error: %v", err)
	}
	s := New(kv, testLogger(t))

	applied := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	draft := domain.SavedDraft{
		ID:    NewDraftID("cand-3"),
		Title: "file-backed",
		Evaluation: domain.Evaluation{
			CandidateID: "cand-3",
			JobType:     "engineer",
		},
		SavedAt: applied,
	}
	if err := s.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft() error: %v", err)
	}

	got, err := s.Draft(draft.ID)
	if err != nil {
		t.Fatalf("Draft() error: %v", err)
	}
	if got == nil {
		t.Fatal("draft not found after save")
	}
	if !got.SavedAt.Equal(applied) {
		t.Errorf("SavedAt = %v, want re-hydrated %v", got.SavedAt, applied)
	}
}
