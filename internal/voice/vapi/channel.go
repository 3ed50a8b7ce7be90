// Package vapi provides a voice.Channel backed by a realtime voice-platform
// websocket. The platform runs the interviewer assistant and speech
// recognition; this client only forwards control messages and maps the
// platform's event stream onto voice.Event values.
package vapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/voice"
)

// Config holds platform connection settings.
type Config struct {
	URL       string // wss endpoint
	APIKey    string
	PublicKey string
}

// platformMessage is the wire shape of messages from the platform.
type platformMessage struct {
	Type           string `json:"type"` // "call-start", "call-end", "transcript", "error"
	Role           string `json:"role"` // "assistant" or "user"
	TranscriptType string `json:"transcriptType"`
	Transcript     string `json:"transcript"`
	Message        string `json:"message"`
}

// controlMessage is the wire shape of messages to the platform.
type controlMessage struct {
	Type       string   `json:"type"` // "start", "stop"
	SessionID  string   `json:"sessionId,omitempty"`
	WorkflowID string   `json:"workflowId,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Questions  []string `json:"questions,omitempty"`
}

// Channel implements voice.Channel over the platform websocket.
type Channel struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	conn    *gws.Conn
	stopped bool
	seq     uint64

	events chan voice.Event
}

// New creates an unconnected channel.
func New(cfg Config, logger zerolog.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		logger: logger.With().Str("component", "voice.vapi").Logger(),
		events: make(chan voice.Event, 256),
	}
}

// Start dials the platform, sends the start control message and begins the
// read loop. Connection progress arrives as events.
func (c *Channel) Start(ctx context.Context, params voice.StartParams) error {
	header := http.Header{
		"Authorization": {fmt.Sprintf("Bearer %s", c.cfg.APIKey)},
	}

	conn, _, err := gws.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial voice platform: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	start := controlMessage{
		Type:       "start",
		SessionID:  params.SessionID,
		WorkflowID: params.WorkflowID,
		Mode:       string(params.Mode),
		Questions:  params.Questions,
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return fmt.Errorf("send start message: %w", err)
	}

	c.logger.Info().Str("sessionId", params.SessionID).Msg("Voice channel started")

	go c.readLoop()
	return nil
}

// Stop sends the stop control message and closes the websocket. Idempotent.
// The platform's own call-end may still arrive before the socket drops; the
// read loop forwards whichever comes first and the lifecycle ignores the rest.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.conn == nil {
		return nil
	}
	c.stopped = true

	if err := c.conn.WriteJSON(controlMessage{Type: "stop"}); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send stop message")
	}
	return c.conn.WriteMessage(gws.CloseMessage,
		gws.FormatCloseMessage(gws.CloseNormalClosure, "user stop"))
}

// Events returns the ordered event stream.
func (c *Channel) Events() <-chan voice.Event {
	return c.events
}

// readLoop maps platform messages onto voice events. It guarantees that a
// terminate event is the last event before the stream closes, so downstream
// never observes events after teardown.
func (c *Channel) readLoop() {
	defer close(c.events)

	conn := c.conn
	terminated := false
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !terminated {
				if !gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
					c.logger.Warn().Err(err).Msg("Voice websocket read error")
				}
				c.events <- voice.Event{Type: voice.EventTerminated}
			}
			return
		}

		var msg platformMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Warn().Err(err).Msg("Unparseable platform message")
			continue
		}

		switch msg.Type {
		case "call-start":
			c.events <- voice.Event{Type: voice.EventEstablished}

		case "call-end":
			terminated = true
			c.events <- voice.Event{Type: voice.EventTerminated}
			conn.Close()
			return

		case "transcript":
			if msg.Transcript == "" {
				continue
			}
			c.events <- voice.Event{
				Type:       voice.EventTranscript,
				Transcript: c.transcriptEvent(msg),
			}

		case "error":
			c.events <- voice.Event{
				Type: voice.EventError,
				Err:  fmt.Errorf("voice platform: %s", msg.Message),
			}

		default:
			c.logger.Debug().Str("type", msg.Type).Msg("Ignoring platform message")
		}
	}
}

func (c *Channel) transcriptEvent(msg platformMessage) models.TranscriptEvent {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	speaker := models.SpeakerCandidate
	if msg.Role == "assistant" {
		speaker = models.SpeakerInterviewer
	}

	fin := models.FinalityPartial
	if msg.TranscriptType == "final" {
		fin = models.FinalityFinal
	}

	return models.TranscriptEvent{
		Speaker:  speaker,
		Text:     msg.Transcript,
		Finality: fin,
		Sequence: seq,
	}
}
