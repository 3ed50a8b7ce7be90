package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/store"
)

func TestStore_GetInterview(t *testing.T) {
	s := New()
	s.PutInterview(models.InterviewRecord{ID: "int-1", UserID: "user-1", Role: "Backend Engineer"})

	rec, err := s.GetInterview(context.Background(), "int-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Role != "Backend Engineer" {
		t.Errorf("unexpected role %q", rec.Role)
	}

	if _, err := s.GetInterview(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_MarkFinalized_Idempotent(t *testing.T) {
	s := New()
	s.PutInterview(models.InterviewRecord{ID: "int-1"})

	ctx := context.Background()
	if err := s.MarkFinalized(ctx, "int-1"); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}
	if err := s.MarkFinalized(ctx, "int-1"); err != nil {
		t.Fatalf("second mark should be harmless: %v", err)
	}

	rec, _ := s.GetInterview(ctx, "int-1")
	if !rec.Finalized {
		t.Error("expected interview to be finalized")
	}

	if err := s.MarkFinalized(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpsertFeedback_OverwritesSameID(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := &models.FeedbackRecord{ID: "fb-1", InterviewID: "int-1", UserID: "user-1", TotalScore: 60}
	if err := s.UpsertFeedback(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &models.FeedbackRecord{ID: "fb-1", InterviewID: "int-1", UserID: "user-1", TotalScore: 85}
	if err := s.UpsertFeedback(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.FeedbackCount(); got != 1 {
		t.Errorf("expected 1 record after upsert with same id, got %d", got)
	}
	rec, err := s.GetFeedback(ctx, "fb-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.TotalScore != 85 {
		t.Errorf("expected overwrite to win, got score %d", rec.TotalScore)
	}
}

func TestStore_FindFeedback_LatestWins(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.UpsertFeedback(ctx, &models.FeedbackRecord{
		ID: "fb-old", InterviewID: "int-1", UserID: "user-1", TotalScore: 50, CreatedAt: base,
	})
	s.UpsertFeedback(ctx, &models.FeedbackRecord{
		ID: "fb-new", InterviewID: "int-1", UserID: "user-1", TotalScore: 90, CreatedAt: base.Add(time.Hour),
	})
	s.UpsertFeedback(ctx, &models.FeedbackRecord{
		ID: "fb-other", InterviewID: "int-2", UserID: "user-1", TotalScore: 70, CreatedAt: base.Add(2 * time.Hour),
	})

	rec, err := s.FindFeedback(ctx, "int-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "fb-new" {
		t.Errorf("expected latest record fb-new, got %s", rec.ID)
	}

	if _, err := s.FindFeedback(ctx, "int-1", "user-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestStore_FailWrites(t *testing.T) {
	s := New()
	s.PutInterview(models.InterviewRecord{ID: "int-1"})
	boom := errors.New("disk on fire")
	s.FailWrites = boom

	if err := s.MarkFinalized(context.Background(), "int-1"); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if err := s.UpsertFeedback(context.Background(), &models.FeedbackRecord{ID: "fb-1"}); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
}
