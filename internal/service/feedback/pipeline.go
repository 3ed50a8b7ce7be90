// Package feedback converts a finalized interview transcript into a
// validated, persisted scoring record.
//
// Pipeline: validate input → format prompt → structured-generation call →
// schema validation → upsert by feedback identity. Retrying with the same
// feedbackId overwrites the same record, so the whole flow is idempotent
// from the caller's perspective.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/observability/metrics"
	"ai-interview-orchestrator/internal/schema"
	"ai-interview-orchestrator/internal/service/scoring"
	"ai-interview-orchestrator/internal/store"
)

const systemPrompt = "You are a professional interviewer analyzing a mock interview."

const promptTemplate = `You are an AI interviewer analyzing a mock interview.

Transcript:
%s
Score the candidate from 0 to 100 in the following areas:
- Communication Skills
- Technical Knowledge
- Problem-Solving
- Cultural & Role Fit
- Confidence & Clarity
`

// Input carries everything needed for one synthesis run.
type Input struct {
	InterviewID string
	UserID      string
	// FeedbackID, when set, addresses an existing record to overwrite
	// (regeneration / retry). Empty means create a new identity.
	FeedbackID string
	Transcript []models.TranscriptLine
}

// Pipeline is the feedback synthesis pipeline. Safe for concurrent use.
type Pipeline struct {
	scorer    scoring.Adapter
	backend   string
	validator *schema.Validator
	feedback  store.FeedbackStore
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline. backend names the scoring adapter for
// metrics labels ("openai", "mock").
func NewPipeline(scorer scoring.Adapter, backend string, fs store.FeedbackStore, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		scorer:    scorer,
		backend:   backend,
		validator: schema.New(),
		feedback:  fs,
		metrics:   metrics.DefaultMetrics,
		logger:    logger.With().Str("component", "feedback").Logger(),
		now:       time.Now,
	}
}

// Synthesize runs the pipeline and returns the persisted record's identity.
// Failures carry a Kind (validation / synthesis / persistence); nothing
// malformed is ever persisted.
func (p *Pipeline) Synthesize(ctx context.Context, in Input) (string, error) {
	if err := p.validateInput(in); err != nil {
		return "", validationErr(err)
	}

	prompt := fmt.Sprintf(promptTemplate, FormatTranscript(in.Transcript))

	start := time.Now()
	raw, err := p.scorer.Generate(ctx, scoring.Request{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
	})
	p.metrics.RecordScoring(p.backend, err, time.Since(start).Seconds())
	if err != nil {
		return "", synthesisErr(fmt.Errorf("scoring call: %w", err))
	}

	payload, err := p.decode(raw)
	if err != nil {
		p.metrics.RecordScoringSchemaViolation(p.backend)
		p.logger.Warn().Err(err).
			Str("interviewId", in.InterviewID).
			Msg("Scoring response rejected")
		return "", synthesisErr(err)
	}

	rec := p.buildRecord(in, payload)

	opStart := time.Now()
	err = p.feedback.UpsertFeedback(ctx, rec)
	p.metrics.RecordStoreOp("upsert_feedback", err, time.Since(opStart).Seconds())
	if err != nil {
		return "", persistenceErr(fmt.Errorf("upsert feedback: %w", err))
	}

	p.logger.Info().
		Str("interviewId", in.InterviewID).
		Str("feedbackId", rec.ID).
		Int("totalScore", rec.TotalScore).
		Msg("Feedback persisted")

	return rec.ID, nil
}

func (p *Pipeline) validateInput(in Input) error {
	if in.InterviewID == "" {
		return ErrMissingInterviewID
	}
	if in.UserID == "" {
		return ErrMissingUserID
	}
	if len(in.Transcript) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// decode parses and validates the backend's raw response. The backend is
// fallible: the payload may be wrapped in code fences or surrounded by
// prose, so the outermost JSON object is extracted before parsing. A payload
// that still fails validation is rejected, never repaired into scores.
func (p *Pipeline) decode(raw []byte) (*schema.Payload, error) {
	doc := extractJSON(raw)

	var payload schema.Payload
	if err := json.Unmarshal(doc, &payload); err != nil {
		return nil, fmt.Errorf("parse scoring response: %w", err)
	}
	if err := p.validator.Validate(&payload); err != nil {
		return nil, fmt.Errorf("scoring response schema: %w", err)
	}
	return &payload, nil
}

func (p *Pipeline) buildRecord(in Input, payload *schema.Payload) *models.FeedbackRecord {
	id := in.FeedbackID
	if id == "" {
		id = uuid.NewString()
	}

	rec := &models.FeedbackRecord{
		ID:                  id,
		InterviewID:         in.InterviewID,
		UserID:              in.UserID,
		TotalScore:          *payload.TotalScore,
		Strengths:           payload.Strengths,
		AreasForImprovement: payload.AreasForImprovement,
		FinalAssessment:     payload.FinalAssessment,
		CreatedAt:           p.now().UTC(),
	}
	for _, c := range payload.CategoryScores {
		rec.CategoryScores = append(rec.CategoryScores, models.CategoryScore{
			Name:    c.Name,
			Score:   *c.Score,
			Comment: c.Comment,
		})
	}
	return rec
}

// FormatTranscript renders speaker-labeled lines, order preserved, one per
// utterance.
func FormatTranscript(lines []models.TranscriptLine) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %s\n", l.Speaker, l.Text)
	}
	return b.String()
}

// extractJSON returns the outermost JSON object in raw, tolerating markdown
// code fences and surrounding prose. Returns raw unchanged when no object
// boundaries are found, leaving the parse error to the caller.
func extractJSON(raw []byte) []byte {
	s := string(raw)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return raw
	}
	return []byte(s[start : end+1])
}
