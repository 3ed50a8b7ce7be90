// Package voice defines the interface to the bidirectional voice channel
// (speech platform). Implementations deliver call signals and transcript
// events on a single ordered stream per session.
package voice

import (
	"context"

	"ai-interview-orchestrator/internal/models"
)

// EventType discriminates channel events.
type EventType string

const (
	// EventEstablished - the call connected and audio is flowing.
	EventEstablished EventType = "call-established"
	// EventTerminated - the channel ended the call.
	EventTerminated EventType = "call-terminated"
	// EventTranscript - a partial or final speech-recognition result.
	EventTranscript EventType = "transcript"
	// EventError - a runtime channel error. Does not itself end the call.
	EventError EventType = "error"
)

// Event is one item on the channel's ordered event stream.
type Event struct {
	Type       EventType
	Transcript models.TranscriptEvent // set when Type == EventTranscript
	Err        error                  // set when Type == EventError
}

// StartParams carries the session parameters handed to the channel on start.
type StartParams struct {
	SessionID string
	Mode      models.SessionMode
	// Assistant configuration forwarded verbatim to the platform.
	WorkflowID string
	Questions  []string
}

// Channel is a bidirectional voice stream. One channel instance serves one
// session. Events() yields a single ordered stream; the channel closes it
// after the terminate event has been delivered and the stream is torn down.
type Channel interface {
	// Start begins the call. Non-blocking; connection progress is reported
	// as events.
	Start(ctx context.Context, params StartParams) error

	// Stop ends the call from the user side. Idempotent. The channel's own
	// terminate event may still arrive afterward.
	Stop() error

	// Events returns the ordered event stream for this session.
	Events() <-chan Event
}
