// Package mock provides a scripted voice channel for testing and local runs
// without a live speech platform. It simulates a realistic interview call:
// connection, alternating interviewer/candidate turns with progressive
// partial transcripts, exactly one final per turn, then termination.
package mock

import (
	"context"
	"sync"
	"time"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/voice"
)

// ScriptedTurn is one conversational turn with progressive transcripts.
type ScriptedTurn struct {
	Speaker  models.Speaker
	Partials []string // Progressive partial transcripts
	Final    string   // Final transcript text
}

// DefaultScript provides a short sample interview for simulation.
var DefaultScript = []ScriptedTurn{
	{
		Speaker:  models.SpeakerInterviewer,
		Partials: []string{"Tell me", "Tell me about a project"},
		Final:    "Tell me about a project you are proud of",
	},
	{
		Speaker:  models.SpeakerCandidate,
		Partials: []string{"I built", "I built a streaming", "I built a streaming pipeline"},
		Final:    "I built a streaming pipeline that handles a million events a day",
	},
	{
		Speaker:  models.SpeakerInterviewer,
		Partials: []string{"What was", "What was the hardest"},
		Final:    "What was the hardest problem you hit",
	},
	{
		Speaker:  models.SpeakerCandidate,
		Partials: []string{"Backpressure", "Backpressure under burst"},
		Final:    "Backpressure under burst traffic without dropping data",
	},
}

// Channel implements voice.Channel with scripted events.
// It delivers:
//   - call-established after a short connect delay
//   - each turn's partials then final, in order
//   - call-terminated once the script is exhausted (or Stop is called)
type Channel struct {
	mu      sync.Mutex
	script  []ScriptedTurn
	delay   time.Duration
	events  chan voice.Event
	stopped bool
	started bool
	seq     uint64
}

// New creates a mock channel playing DefaultScript.
func New() *Channel {
	return NewWithScript(DefaultScript, 10*time.Millisecond)
}

// NewWithScript creates a mock channel playing the given turns with the
// given inter-event delay.
func NewWithScript(script []ScriptedTurn, delay time.Duration) *Channel {
	return &Channel{
		script: script,
		delay:  delay,
		events: make(chan voice.Event, 64),
	}
}

// Start plays the script on a background goroutine.
func (c *Channel) Start(ctx context.Context, params voice.StartParams) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	go c.play(ctx)
	return nil
}

// Stop ends the call early. The termination event is still delivered, once.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	return nil
}

// Events returns the ordered event stream.
func (c *Channel) Events() <-chan voice.Event {
	return c.events
}

func (c *Channel) play(ctx context.Context) {
	defer close(c.events)

	if !c.emit(ctx, voice.Event{Type: voice.EventEstablished}) {
		return
	}

	for _, turn := range c.script {
		for _, p := range turn.Partials {
			if !c.emitTranscript(ctx, turn.Speaker, p, models.FinalityPartial) {
				return
			}
		}
		if !c.emitTranscript(ctx, turn.Speaker, turn.Final, models.FinalityFinal) {
			return
		}
	}

	c.emit(ctx, voice.Event{Type: voice.EventTerminated})
}

func (c *Channel) emitTranscript(ctx context.Context, speaker models.Speaker, text string, fin models.Finality) bool {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	return c.emit(ctx, voice.Event{
		Type: voice.EventTranscript,
		Transcript: models.TranscriptEvent{
			Speaker:  speaker,
			Text:     text,
			Finality: fin,
			Sequence: seq,
		},
	})
}

// emit delivers one event after the configured delay. Returns false when the
// call was stopped or the context cancelled; in that case a final terminate
// event is delivered before the stream closes.
func (c *Channel) emit(ctx context.Context, ev voice.Event) bool {
	select {
	case <-ctx.Done():
		c.events <- voice.Event{Type: voice.EventTerminated}
		return false
	case <-time.After(c.delay):
	}

	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped {
		c.events <- voice.Event{Type: voice.EventTerminated}
		return false
	}

	c.events <- ev
	return true
}
