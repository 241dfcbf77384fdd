package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"hirescore/internal/domain"
	"hirescore/internal/errors"

	"github.com/google/uuid"
)

// KV is the persistence contract the domain store runs on. Values are
// raw JSON documents. The store is single-writer, single-reader within
// one session; implementations need no transaction support.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys returns all keys with the given prefix.
	Keys(prefix string) ([]string, error)
}

// Key namespaces. Dates inside values are serialized as ISO strings and
// re-hydrated into time.Time on every read.
const (
	keyCompanyInfo   = "hirescore:companyInfo"
	keyJobTypePrefix = "hirescore:jobType:"
	keyDraftPrefix   = "hirescore:draft:"
)

// DomainStore persists job-type configs, company info and evaluation
// drafts over a KV backend. Malformed stored JSON is treated as absent
// (logged, never propagated); callers fall back to defaults.
type DomainStore struct {
	kv     KV
	logger *errors.Logger
}

// New creates a domain store over the given KV backend.
func New(kv KV, logger *errors.Logger) *DomainStore {
	return &DomainStore{kv: kv, logger: logger}
}

// getJSON reads and decodes a single record. A decode failure is logged
// and reported as absent so corrupt records degrade to defaults.
func (s *DomainStore) getJSON(key string, out any) (bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return false, errors.NewStoreError(errors.ErrCodeStoreIO,
			fmt.Sprintf("Failed to read key %s", key), err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("Discarding corrupt stored record",
			"key", key,
			"error", err.Error())
		return false, nil
	}
	return true, nil
}

func (s *DomainStore) setJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreIO,
			fmt.Sprintf("Failed to encode value for key %s", key), err)
	}
	if err := s.kv.Set(key, raw); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreIO,
			fmt.Sprintf("Failed to write key %s", key), err)
	}
	return nil
}

// CompanyInfo returns the stored company record, or nil when absent or
// corrupt.
func (s *DomainStore) CompanyInfo() (*domain.CompanyInfo, error) {
	var info domain.CompanyInfo
	ok, err := s.getJSON(keyCompanyInfo, &info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// SaveCompanyInfo stores the singleton company record.
func (s *DomainStore) SaveCompanyInfo(info domain.CompanyInfo) error {
	return s.setJSON(keyCompanyInfo, info)
}

// JobTypeConfig returns the stored config for a job type, or nil when
// absent or corrupt.
func (s *DomainStore) JobTypeConfig(jobType string) (*domain.JobTypeConfig, error) {
	var cfg domain.JobTypeConfig
	ok, err := s.getJSON(keyJobTypePrefix+jobType, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

// SaveJobTypeConfig stores criteria overrides for a job type.
func (s *DomainStore) SaveJobTypeConfig(cfg domain.JobTypeConfig) error {
	if cfg.ID == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job type config requires an id", nil)
	}
	for _, c := range cfg.Criteria {
		if !c.Category.IsValid() {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("Criterion %s has unknown category %q", c.ID, c.Category), nil)
		}
	}
	return s.setJSON(keyJobTypePrefix+cfg.ID, cfg)
}

// ResolveCriteria applies the resolution order using stored records:
// company override, then stored job-type criteria, then built-ins.
func (s *DomainStore) ResolveCriteria(jobType string) ([]domain.EvaluationCriterion, error) {
	company, err := s.CompanyInfo()
	if err != nil {
		return nil, err
	}
	stored, err := s.JobTypeConfig(jobType)
	if err != nil {
		return nil, err
	}
	return domain.ResolveCriteria(company, stored, jobType), nil
}

// NewDraftID generates a draft id from the candidate id and a random
// component. Callers that autosave must hold on to the id for the whole
// editing session; generating a fresh id per save creates a new draft
// each time.
func NewDraftID(candidateID string) string {
	return fmt.Sprintf("%s-%s", candidateID, uuid.NewString())
}

// SaveDraft upserts a draft under its id and stamps the save time.
func (s *DomainStore) SaveDraft(draft domain.SavedDraft) error {
	if draft.ID == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Draft requires an id", nil)
	}
	if draft.SavedAt.IsZero() {
		draft.SavedAt = time.Now().UTC()
	}
	return s.setJSON(keyDraftPrefix+draft.ID, draft)
}

// Draft returns a draft by id, or nil when absent or corrupt.
func (s *DomainStore) Draft(id string) (*domain.SavedDraft, error) {
	var draft domain.SavedDraft
	ok, err := s.getJSON(keyDraftPrefix+id, &draft)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &draft, nil
}

// DeleteDraft removes a draft. Deleting an absent draft is not an error.
func (s *DomainStore) DeleteDraft(id string) error {
	if err := s.kv.Delete(keyDraftPrefix + id); err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreIO,
			fmt.Sprintf("Failed to delete draft %s", id), err)
	}
	return nil
}

// ListDrafts returns all readable drafts, newest first. Corrupt drafts
// are skipped.
func (s *DomainStore) ListDrafts() ([]domain.SavedDraft, error) {
	keys, err := s.kv.Keys(keyDraftPrefix)
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreIO,
			"Failed to list drafts", err)
	}

	drafts := make([]domain.SavedDraft, 0, len(keys))
	for _, key := range keys {
		var draft domain.SavedDraft
		ok, err := s.getJSON(key, &draft)
		if err != nil {
			return nil, err
		}
		if ok {
			drafts = append(drafts, draft)
		}
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
	return drafts, nil
}

// FinalizeEvaluation marks the draft's evaluation as completed and
// persists it. A finalized evaluation is immutable: finalizing twice or
// saving over a completed draft is refused.
func (s *DomainStore) FinalizeEvaluation(draftID string, now time.Time) (*domain.SavedDraft, error) {
	draft, err := s.Draft(draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, errors.NewStoreError(errors.ErrCodeNotFound,
			fmt.Sprintf("Draft %s not found", draftID), nil)
	}
	if draft.Evaluation.Completed {
		return nil, errors.NewValidationError(errors.ErrCodeFinalized,
			fmt.Sprintf("Evaluation for draft %s is already finalized", draftID), nil)
	}

	draft.Evaluation.Finalize(now)
	draft.SavedAt = now
	if err := s.setJSON(keyDraftPrefix+draft.ID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// DraftsForCandidate returns drafts whose id starts with the candidate
// id, used by UIs that list a candidate's autosave history.
func (s *DomainStore) DraftsForCandidate(candidateID string) ([]domain.SavedDraft, error) {
	all, err := s.ListDrafts()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if strings.HasPrefix(d.ID, candidateID+"-") || d.Evaluation.CandidateID == candidateID {
			out = append(out, d)
		}
	}
	return out, nil
}
