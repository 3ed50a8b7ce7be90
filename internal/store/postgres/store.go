// Package postgres provides a store.Store backed by Postgres. Documents are
// stored as JSONB so the schema stays aligned with the document-store
// contract rather than a relational model.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/store"
)

// Schema for both collections. Applied idempotently at startup.
const ddl = `
CREATE TABLE IF NOT EXISTS interviews (
	id  TEXT PRIMARY KEY,
	doc JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS feedback (
	id           TEXT PRIMARY KEY,
	interview_id TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	doc          JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS feedback_interview_user_idx
	ON feedback (interview_id, user_id, created_at DESC);
`

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// GetInterview fetches one interview document by id.
func (s *Store) GetInterview(ctx context.Context, id string) (*models.InterviewRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM interviews WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}

	var rec models.InterviewRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode interview %s: %w", id, err)
	}
	return &rec, nil
}

// MarkFinalized flips the finalized flag inside the document. Setting an
// already-true flag rewrites the same value, so retries are harmless.
func (s *Store) MarkFinalized(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE interviews SET doc = jsonb_set(doc, '{finalized}', 'true') WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark finalized: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpsertFeedback creates or overwrites the record addressed by its ID.
func (s *Store) UpsertFeedback(ctx context.Context, rec *models.FeedbackRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO feedback (id, interview_id, user_id, doc, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			interview_id = EXCLUDED.interview_id,
			user_id      = EXCLUDED.user_id,
			doc          = EXCLUDED.doc,
			created_at   = EXCLUDED.created_at`,
		rec.ID, rec.InterviewID, rec.UserID, doc, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert feedback %s: %w", rec.ID, err)
	}
	return nil
}

// GetFeedback fetches one feedback document by id.
func (s *Store) GetFeedback(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM feedback WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}

	var rec models.FeedbackRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode feedback %s: %w", id, err)
	}
	return &rec, nil
}

// FindFeedback returns the latest feedback for an interview+user pair.
func (s *Store) FindFeedback(ctx context.Context, interviewID, userID string) (*models.FeedbackRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT doc FROM feedback
		WHERE interview_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, interviewID, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}

	var rec models.FeedbackRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return &rec, nil
}
