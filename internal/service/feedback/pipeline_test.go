package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/schema"
	scoringmock "ai-interview-orchestrator/internal/service/scoring/mock"
	"ai-interview-orchestrator/internal/store/memory"
)

func testTranscript() []models.TranscriptLine {
	return []models.TranscriptLine{
		{Speaker: models.SpeakerInterviewer, Text: "Tell me about yourself", Finalized: true},
		{Speaker: models.SpeakerCandidate, Text: "I am a backend engineer", Finalized: true},
		{Speaker: models.SpeakerInterviewer, Text: "What is your biggest strength", Finalized: true},
		{Speaker: models.SpeakerCandidate, Text: "Debugging distributed systems", Finalized: true},
	}
}

func conformingPayload(total int) []byte {
	p := schema.Payload{
		TotalScore:          &total,
		Strengths:           []string{"clarity"},
		AreasForImprovement: []string{"depth"},
		FinalAssessment:     "Good.",
	}
	for _, name := range schema.ExpectedCategories {
		s := total
		p.CategoryScores = append(p.CategoryScores, schema.CategoryPayload{Name: name, Score: &s, Comment: "ok"})
	}
	raw, _ := json.Marshal(p)
	return raw
}

func newTestPipeline(scorer *scoringmock.Adapter, st *memory.Store) *Pipeline {
	return NewPipeline(scorer, "mock", st, zerolog.Nop())
}

func TestSynthesize_PersistsAndReturnsIdentity(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = conformingPayload(82)
	st := memory.New()
	p := newTestPipeline(scorer, st)

	id, err := p.Synthesize(context.Background(), Input{
		InterviewID: "int-1",
		UserID:      "user-1",
		Transcript:  testTranscript(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a feedback identity")
	}

	rec, err := st.GetFeedback(context.Background(), id)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.TotalScore != 82 {
		t.Errorf("expected totalScore 82, got %d", rec.TotalScore)
	}
	if len(rec.CategoryScores) != 5 {
		t.Errorf("expected 5 categories, got %d", len(rec.CategoryScores))
	}
	if rec.InterviewID != "int-1" || rec.UserID != "user-1" {
		t.Errorf("identity fields wrong: %+v", rec)
	}
}

func TestSynthesize_ValidationFailsFast(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"empty transcript", Input{InterviewID: "int-1", UserID: "user-1"}, ErrEmptyTranscript},
		{"missing interview", Input{UserID: "user-1", Transcript: testTranscript()}, ErrMissingInterviewID},
		{"missing user", Input{InterviewID: "int-1", Transcript: testTranscript()}, ErrMissingUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := scoringmock.New()
			p := newTestPipeline(scorer, memory.New())

			_, err := p.Synthesize(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if kind, ok := KindOf(err); !ok || kind != KindValidation {
				t.Errorf("expected KindValidation, got %v", err)
			}
			// No external call attempted
			if scorer.CallCount() != 0 {
				t.Errorf("expected 0 scoring calls, got %d", scorer.CallCount())
			}
		})
	}
}

func TestSynthesize_MissingTotalScoreRejected(t *testing.T) {
	scorer := scoringmock.New()
	var payload map[string]any
	json.Unmarshal(conformingPayload(70), &payload)
	delete(payload, "totalScore")
	scorer.Response, _ = json.Marshal(payload)

	st := memory.New()
	p := newTestPipeline(scorer, st)

	_, err := p.Synthesize(context.Background(), Input{
		InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript(),
	})
	if kind, ok := KindOf(err); !ok || kind != KindSynthesis {
		t.Fatalf("expected KindSynthesis, got %v", err)
	}
	// Nothing persisted
	if st.FeedbackCount() != 0 {
		t.Errorf("expected nothing persisted, got %d records", st.FeedbackCount())
	}
}

func TestSynthesize_BackendErrorIsSynthesisError(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Err = errors.New("model overloaded")
	p := newTestPipeline(scorer, memory.New())

	_, err := p.Synthesize(context.Background(), Input{
		InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript(),
	})
	if kind, ok := KindOf(err); !ok || kind != KindSynthesis {
		t.Fatalf("expected KindSynthesis, got %v", err)
	}
}

func TestSynthesize_StoreFailureIsPersistenceError(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = conformingPayload(75)
	st := memory.New()
	st.FailWrites = errors.New("connection reset")
	p := newTestPipeline(scorer, st)

	_, err := p.Synthesize(context.Background(), Input{
		InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript(),
	})
	if kind, ok := KindOf(err); !ok || kind != KindPersistence {
		t.Fatalf("expected KindPersistence, got %v", err)
	}
}

func TestSynthesize_UpsertByFeedbackID(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = conformingPayload(60)
	st := memory.New()
	p := newTestPipeline(scorer, st)

	ctx := context.Background()
	in := Input{
		InterviewID: "int-1",
		UserID:      "user-1",
		FeedbackID:  "fb-retry",
		Transcript:  testTranscript(),
	}

	id1, err := p.Synthesize(ctx, in)
	if err != nil {
		t.Fatalf("first synthesis failed: %v", err)
	}

	scorer.Response = conformingPayload(90)
	id2, err := p.Synthesize(ctx, in)
	if err != nil {
		t.Fatalf("second synthesis failed: %v", err)
	}

	if id1 != "fb-retry" || id2 != "fb-retry" {
		t.Errorf("expected supplied identity to be used, got %q and %q", id1, id2)
	}
	if st.FeedbackCount() != 1 {
		t.Errorf("expected 1 record after resubmission, got %d", st.FeedbackCount())
	}
	rec, _ := st.GetFeedback(ctx, "fb-retry")
	if rec.TotalScore != 90 {
		t.Errorf("expected overwrite, got score %d", rec.TotalScore)
	}
}

func TestSynthesize_FreshIdentityPerRun(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = conformingPayload(70)
	st := memory.New()
	p := newTestPipeline(scorer, st)

	ctx := context.Background()
	in := Input{InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript()}

	id1, _ := p.Synthesize(ctx, in)
	id2, _ := p.Synthesize(ctx, in)
	if id1 == id2 {
		t.Errorf("expected distinct identities without a feedbackId, got %q twice", id1)
	}
	if st.FeedbackCount() != 2 {
		t.Errorf("expected 2 records, got %d", st.FeedbackCount())
	}
}

func TestSynthesize_CodeFencedResponseAccepted(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = []byte("```json\n" + string(conformingPayload(68)) + "\n```")
	p := newTestPipeline(scorer, memory.New())

	id, err := p.Synthesize(context.Background(), Input{
		InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript(),
	})
	if err != nil {
		t.Fatalf("fenced payload should be extracted: %v", err)
	}
	if id == "" {
		t.Error("expected identity")
	}
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]models.TranscriptLine{
		{Speaker: models.SpeakerInterviewer, Text: "Hello", Finalized: true},
		{Speaker: models.SpeakerCandidate, Text: "Hi there", Finalized: true},
	})
	want := "- interviewer: Hello\n- candidate: Hi there\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTranscript_PromptContainsLines(t *testing.T) {
	scorer := scoringmock.New()
	scorer.Response = conformingPayload(50)
	p := newTestPipeline(scorer, memory.New())

	p.Synthesize(context.Background(), Input{
		InterviewID: "int-1", UserID: "user-1", Transcript: testTranscript(),
	})

	if scorer.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", scorer.CallCount())
	}
	prompt := scorer.Calls[0].Prompt
	for _, want := range []string{"- interviewer: Tell me about yourself", "- candidate: Debugging distributed systems"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
