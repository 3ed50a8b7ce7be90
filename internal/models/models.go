// Package models defines the data structures shared across the interview
// orchestrator: transcript events and lines, interview metadata, feedback
// records and session results.
package models

import "time"

// Speaker identifies who produced a transcript event.
type Speaker string

const (
	SpeakerCandidate   Speaker = "candidate"
	SpeakerInterviewer Speaker = "interviewer"
)

// Known returns true if the speaker tag is one the orchestrator tracks.
// Events from any other speaker are ignored.
func (s Speaker) Known() bool {
	return s == SpeakerCandidate || s == SpeakerInterviewer
}

// Finality marks whether a transcript event is still subject to revision.
type Finality string

const (
	FinalityPartial Finality = "partial"
	FinalityFinal   Finality = "final"
)

// TranscriptEvent is a single speech-recognition result as delivered by the
// voice channel. Ephemeral: consumed immediately by the reconciler.
type TranscriptEvent struct {
	Speaker  Speaker  `json:"speaker"`
	Text     string   `json:"text"`
	Finality Finality `json:"finality"`
	Sequence uint64   `json:"sequence"`
}

// TranscriptLine is one utterance in the reconciled transcript. A line is
// mutable while Finalized is false (replaced in place by newer partials from
// the same speaker) and immutable once finalized.
type TranscriptLine struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Finalized bool    `json:"finalized"`
}

// SessionMode distinguishes scored interviews from question-generation runs.
type SessionMode string

const (
	// ModeInterview is a live interview whose transcript is scored.
	ModeInterview SessionMode = "interview"
	// ModeGenerate is a question-generation session; no candidate is being
	// scored, so finalization skips feedback synthesis entirely.
	ModeGenerate SessionMode = "generate"
)

// InterviewRecord is the externally owned interview metadata document.
// The orchestrator only reads it by id and flips Finalized exactly once.
type InterviewRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	Questions []string  `json:"questions"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryScore is one entry of the five-category scoring breakdown.
type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// FeedbackRecord is the structured scoring artifact produced by the feedback
// synthesis pipeline. Immutable after persistence except for re-synthesis
// under the same feedback id, which overwrites in place.
type FeedbackRecord struct {
	ID                  string          `json:"id"`
	InterviewID         string          `json:"interviewId"`
	UserID              string          `json:"userId"`
	TotalScore          int             `json:"totalScore"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	Strengths           []string        `json:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement"`
	FinalAssessment     string          `json:"finalAssessment"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// CompletionReason explains why a session completed without feedback.
type CompletionReason string

const (
	// ReasonScored - feedback was synthesized and persisted.
	ReasonScored CompletionReason = "scored"
	// ReasonGenerateOnly - question-generation session, nothing to score.
	ReasonGenerateOnly CompletionReason = "generate_only"
	// ReasonTooShort - fewer than the minimum finalized lines, treated as
	// abandoned and never sent to scoring.
	ReasonTooShort CompletionReason = "too_short"
)

// SessionResult is the single outward report delivered to the host when a
// session reaches its terminal state.
type SessionResult struct {
	SessionID  string           `json:"sessionId"`
	FeedbackID string           `json:"feedbackId,omitempty"`
	Reason     CompletionReason `json:"reason,omitempty"`
	Err        error            `json:"-"`
}

// Succeeded returns true if the session completed without error.
func (r SessionResult) Succeeded() bool {
	return r.Err == nil
}
