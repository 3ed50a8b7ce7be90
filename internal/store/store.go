// Package store defines the document-store interfaces for interview
// metadata and feedback records. Implementations: memory (tests, local
// runs) and postgres.
package store

import (
	"context"
	"errors"

	"ai-interview-orchestrator/internal/models"
)

// Store errors.
var (
	ErrNotFound = errors.New("document not found")
)

// InterviewStore reads interview metadata and flips the finalized flag.
type InterviewStore interface {
	// GetInterview fetches one interview by id. ErrNotFound if absent.
	GetInterview(ctx context.Context, id string) (*models.InterviewRecord, error)

	// MarkFinalized sets the interview's finalized flag. Idempotent:
	// setting an already-true flag is harmless.
	MarkFinalized(ctx context.Context, id string) error
}

// FeedbackStore persists feedback records with upsert-by-identity
// semantics.
type FeedbackStore interface {
	// UpsertFeedback creates or overwrites the record addressed by its ID.
	UpsertFeedback(ctx context.Context, rec *models.FeedbackRecord) error

	// GetFeedback fetches one feedback record by id. ErrNotFound if absent.
	GetFeedback(ctx context.Context, id string) (*models.FeedbackRecord, error)

	// FindFeedback queries the latest feedback for an interview+user pair.
	// ErrNotFound when none exists.
	FindFeedback(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error)
}

// Store combines both collections.
type Store interface {
	InterviewStore
	FeedbackStore
}
