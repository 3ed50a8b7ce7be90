// Package memory provides an in-memory store.Store for tests and local
// runs without Postgres.
package memory

import (
	"context"
	"sync"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/store"
)

// Store implements store.Store with maps. Thread-safe.
type Store struct {
	mu         sync.RWMutex
	interviews map[string]models.InterviewRecord
	feedback   map[string]models.FeedbackRecord

	// FailWrites makes every write return the given error. Test hook.
	FailWrites error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		interviews: make(map[string]models.InterviewRecord),
		feedback:   make(map[string]models.FeedbackRecord),
	}
}

// PutInterview seeds an interview document.
func (s *Store) PutInterview(rec models.InterviewRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interviews[rec.ID] = rec
}

// GetInterview fetches one interview by id.
func (s *Store) GetInterview(_ context.Context, id string) (*models.InterviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.interviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := rec
	return &out, nil
}

// MarkFinalized sets the finalized flag. Idempotent.
func (s *Store) MarkFinalized(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	rec, ok := s.interviews[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Finalized = true
	s.interviews[id] = rec
	return nil
}

// UpsertFeedback creates or overwrites the record addressed by its ID.
func (s *Store) UpsertFeedback(_ context.Context, rec *models.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.feedback[rec.ID] = *rec
	return nil
}

// GetFeedback fetches one feedback record by id.
func (s *Store) GetFeedback(_ context.Context, id string) (*models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.feedback[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := rec
	return &out, nil
}

// FindFeedback returns the latest feedback for an interview+user pair.
func (s *Store) FindFeedback(_ context.Context, interviewID, userID string) (*models.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.FeedbackRecord
	for id := range s.feedback {
		rec := s.feedback[id]
		if rec.InterviewID != interviewID || rec.UserID != userID {
			continue
		}
		if found == nil || rec.CreatedAt.After(found.CreatedAt) {
			out := rec
			found = &out
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

// FeedbackCount returns the number of stored feedback records. Test helper.
func (s *Store) FeedbackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}
