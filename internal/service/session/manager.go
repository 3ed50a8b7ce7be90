package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/events"
	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/service/feedback"
	"ai-interview-orchestrator/internal/store"
	"ai-interview-orchestrator/internal/voice"
)

// Manager errors.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// ChannelFactory builds a fresh voice channel for each session.
type ChannelFactory func() voice.Channel

// CreateRequest carries the host's parameters for a new session.
type CreateRequest struct {
	Mode        models.SessionMode
	InterviewID string
	UserID      string
	FeedbackID  string
	WorkflowID  string
}

// Manager creates sessions and tracks them until their result has been
// reported. A session is removed once its pipeline completes; finished
// results remain queryable for the retention window of the host's choice
// via the store, not the manager.
type Manager struct {
	channels    ChannelFactory
	st          store.Store
	pipeline    *feedback.Pipeline
	publisher   *events.Publisher
	settleDelay time.Duration
	logger      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Orchestrator
	finished map[string]models.SessionResult
}

// NewManager creates a manager.
func NewManager(
	channels ChannelFactory,
	st store.Store,
	pipeline *feedback.Pipeline,
	publisher *events.Publisher,
	settleDelay time.Duration,
	logger zerolog.Logger,
) *Manager {
	return &Manager{
		channels:    channels,
		st:          st,
		pipeline:    pipeline,
		publisher:   publisher,
		settleDelay: settleDelay,
		logger:      logger,
		sessions:    make(map[string]*Orchestrator),
		finished:    make(map[string]models.SessionResult),
	}
}

// Create builds and starts a new session, returning its orchestrator.
// Interview sessions resolve their questions from the interview document;
// a missing document fails creation before any call is placed.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Orchestrator, error) {
	cfg := Config{
		SessionID:   uuid.NewString(),
		Mode:        req.Mode,
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		FeedbackID:  req.FeedbackID,
		WorkflowID:  req.WorkflowID,
		SettleDelay: m.settleDelay,
	}

	if req.Mode == models.ModeInterview {
		rec, err := m.st.GetInterview(ctx, req.InterviewID)
		if err != nil {
			return nil, err
		}
		cfg.Questions = rec.Questions
	}

	o := New(cfg, m.channels(), m.st, m.pipeline, m.publisher, m.release(cfg.SessionID), m.logger)
	if err := o.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[cfg.SessionID] = o
	m.mu.Unlock()

	return o, nil
}

// release returns the completion callback that moves the session from the
// active set to the finished results once its result is reported.
func (m *Manager) release(sessionID string) CompleteFunc {
	return func(res models.SessionResult) {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.finished[sessionID] = res
		m.mu.Unlock()
	}
}

// Result returns the reported result of a finished session.
func (m *Manager) Result(sessionID string) (models.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.finished[sessionID]
	if !ok {
		return models.SessionResult{}, ErrSessionNotFound
	}
	return res, nil
}

// Forget discards a finished session's result (the user navigated away).
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.finished, sessionID)
}

// Get returns an active session.
func (m *Manager) Get(sessionID string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return o, nil
}

// Stop stops an active session. The session leaves the active set when its
// result is reported, not when this call returns.
func (m *Manager) Stop(sessionID string) error {
	o, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	o.Stop()
	return nil
}

// Active returns the number of sessions still running.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
