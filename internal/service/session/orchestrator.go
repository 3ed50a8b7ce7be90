// Package session provides the interview session orchestrator: it owns one
// call's lifecycle, reconciles its transcript stream, and runs the post-call
// finalization sequence exactly once.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-orchestrator/internal/events"
	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/observability/metrics"
	"ai-interview-orchestrator/internal/service/call"
	"ai-interview-orchestrator/internal/service/feedback"
	"ai-interview-orchestrator/internal/service/transcript"
	"ai-interview-orchestrator/internal/store"
	"ai-interview-orchestrator/internal/voice"
)

// MinTranscriptLines is the minimum number of finalized lines (both speakers
// combined) required before a transcript is sent to scoring. Shorter
// interviews are treated as abandoned.
const MinTranscriptLines = 4

// Config holds per-session parameters.
type Config struct {
	SessionID   string
	Mode        models.SessionMode
	InterviewID string
	UserID      string
	// FeedbackID, when set, regenerates that exact record (upsert).
	FeedbackID string
	WorkflowID string
	Questions  []string
	// SettleDelay is a grace period between call end and finalization, so
	// the host-visible transition is not abrupt. Zero means immediate.
	SettleDelay time.Duration
}

// CompleteFunc is the orchestrator's sole outward contract: it receives the
// session's single terminal result.
type CompleteFunc func(models.SessionResult)

// Orchestrator drives one session end to end. It owns the session state
// exclusively; one instance per call, never shared across sessions.
type Orchestrator struct {
	cfg        Config
	channel    voice.Channel
	interviews store.InterviewStore
	pipeline   *feedback.Pipeline
	publisher  *events.Publisher
	onComplete CompleteFunc
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// mu guards the reconciler: the event loop writes it, finalization and
	// live-transcript reads snapshot it.
	mu         sync.Mutex
	reconciler *transcript.Reconciler

	lifecycle *call.Lifecycle

	// finalized is the one-shot latch: claimed atomically before any
	// asynchronous finalization work begins, so duplicate completion
	// signals can never run the pipeline twice.
	finalized atomic.Bool

	startTime time.Time
	endedAt   time.Time

	done   chan struct{}
	result models.SessionResult
}

// New creates an orchestrator for one session.
func New(
	cfg Config,
	channel voice.Channel,
	interviews store.InterviewStore,
	pipeline *feedback.Pipeline,
	publisher *events.Publisher,
	onComplete CompleteFunc,
	logger zerolog.Logger,
) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		channel:    channel,
		interviews: interviews,
		pipeline:   pipeline,
		publisher:  publisher,
		onComplete: onComplete,
		metrics:    metrics.DefaultMetrics,
		logger:     logger.With().Str("component", "session").Str("sessionId", cfg.SessionID).Logger(),
		reconciler: transcript.NewReconciler(),
		done:       make(chan struct{}),
	}
	o.lifecycle = call.NewLifecycle(o.onCallEnded)
	return o
}

// ID returns the session identity.
func (o *Orchestrator) ID() string {
	return o.cfg.SessionID
}

// Start begins the call and the event loop. Rejected if the session was
// already started.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.lifecycle.Start(); err != nil {
		return err
	}

	err := o.channel.Start(ctx, voice.StartParams{
		SessionID:  o.cfg.SessionID,
		Mode:       o.cfg.Mode,
		WorkflowID: o.cfg.WorkflowID,
		Questions:  o.cfg.Questions,
	})
	if err != nil {
		// The call never connected. The caller gets the error synchronously;
		// the completion path stays silent so no phantom result is reported
		// or published for a session that never started.
		o.finalized.Store(true)
		o.lifecycle.Abort()
		return fmt.Errorf("start voice channel: %w", err)
	}

	o.startTime = time.Now()
	o.metrics.RecordSessionStart()
	o.logger.Info().Str("mode", string(o.cfg.Mode)).Msg("Session started")

	go o.eventLoop()
	return nil
}

// Stop is the user-initiated cancellation path. It tears the stream down
// request-side first, then forces the terminal transition without waiting
// for the channel's own terminate signal.
func (o *Orchestrator) Stop() {
	if err := o.channel.Stop(); err != nil {
		o.logger.Warn().Err(err).Msg("Voice channel stop failed")
	}
	o.lifecycle.Stop()
}

// State returns the current call state.
func (o *Orchestrator) State() call.State {
	return o.lifecycle.State()
}

// Transcript returns a snapshot of the full line sequence, open partials
// included. Live-display view only.
func (o *Orchestrator) Transcript() []models.TranscriptLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reconciler.Lines()
}

// Done is closed once the session's result has been reported.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Result returns the reported result. Valid only after Done is closed.
func (o *Orchestrator) Result() models.SessionResult {
	return o.result
}

// eventLoop drains the channel's ordered event stream. All transcript
// mutation happens here, strictly in arrival order.
func (o *Orchestrator) eventLoop() {
	for ev := range o.channel.Events() {
		switch ev.Type {
		case voice.EventEstablished:
			if err := o.lifecycle.Established(); err == nil {
				o.logger.Info().Msg("Call established")
			}

		case voice.EventTerminated:
			o.lifecycle.Terminated()

		case voice.EventTranscript:
			o.consumeTranscript(ev.Transcript)

		case voice.EventError:
			// Channel errors do not terminate the call by themselves.
			o.metrics.RecordChannelError()
			o.logger.Warn().Err(ev.Err).Msg("Voice channel error")
		}
	}

	// Stream closed without a terminate event (abnormal teardown). The
	// session still reaches a terminal state.
	o.lifecycle.Terminated()
}

func (o *Orchestrator) consumeTranscript(ev models.TranscriptEvent) {
	// Transcript events after the terminal transition are dropped; the
	// finalized snapshot never changes once the call has ended.
	if o.lifecycle.IsEnded() {
		o.metrics.RecordEventDropped()
		return
	}

	o.mu.Lock()
	o.reconciler.Consume(ev)
	o.mu.Unlock()

	ctx := context.Background()
	wire := events.TranscriptEvent{
		SessionID: o.cfg.SessionID,
		Speaker:   string(ev.Speaker),
		Text:      ev.Text,
		Sequence:  ev.Sequence,
		Timestamp: time.Now().UnixMilli(),
	}
	switch ev.Finality {
	case models.FinalityPartial:
		o.metrics.RecordPartialTranscript()
		wire.EventType = "interview.transcript.partial"
		if err := o.publisher.PublishPartial(ctx, o.cfg.SessionID, wire); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to publish partial transcript")
		}
	case models.FinalityFinal:
		o.metrics.RecordFinalTranscript()
		wire.EventType = "interview.transcript.final"
		if err := o.publisher.PublishFinal(ctx, o.cfg.SessionID, wire); err != nil {
			o.logger.Warn().Err(err).Msg("Failed to publish final transcript")
		}
	}
}

// onCallEnded is the lifecycle-completion notification. The latch is
// claimed before any asynchronous work so the post-call sequence runs at
// most once per session no matter how often the signal is delivered.
func (o *Orchestrator) onCallEnded() {
	if !o.finalized.CompareAndSwap(false, true) {
		o.metrics.RecordDuplicateCompletion()
		return
	}
	o.endedAt = time.Now()
	o.logger.Info().Msg("Call ended, finalizing")

	// Each session's pipeline is its own independently schedulable task;
	// the scoring call may take seconds.
	go o.finalize(context.Background())
}

// finalize runs the post-call sequence and reports exactly one result.
func (o *Orchestrator) finalize(ctx context.Context) {
	if o.cfg.SettleDelay > 0 {
		time.Sleep(o.cfg.SettleDelay)
	}

	if o.cfg.Mode == models.ModeGenerate {
		o.report(ctx, models.SessionResult{
			SessionID: o.cfg.SessionID,
			Reason:    models.ReasonGenerateOnly,
		})
		return
	}

	o.mu.Lock()
	lines := o.reconciler.Finalized()
	o.mu.Unlock()

	if len(lines) < MinTranscriptLines {
		o.logger.Info().Int("lines", len(lines)).Msg("Transcript too short to score")
		o.report(ctx, models.SessionResult{
			SessionID: o.cfg.SessionID,
			Reason:    models.ReasonTooShort,
		})
		return
	}

	start := time.Now()
	err := o.interviews.MarkFinalized(ctx, o.cfg.InterviewID)
	o.metrics.RecordStoreOp("mark_finalized", err, time.Since(start).Seconds())
	if err != nil {
		o.report(ctx, models.SessionResult{
			SessionID: o.cfg.SessionID,
			Err:       fmt.Errorf("mark interview finalized: %w", err),
		})
		return
	}

	feedbackID, err := o.pipeline.Synthesize(ctx, feedback.Input{
		InterviewID: o.cfg.InterviewID,
		UserID:      o.cfg.UserID,
		FeedbackID:  o.cfg.FeedbackID,
		Transcript:  lines,
	})
	if err != nil {
		o.report(ctx, models.SessionResult{
			SessionID: o.cfg.SessionID,
			Err:       err,
		})
		return
	}

	o.report(ctx, models.SessionResult{
		SessionID:  o.cfg.SessionID,
		FeedbackID: feedbackID,
		Reason:     models.ReasonScored,
	})
}

// report delivers the single terminal result: metrics, the session-completed
// event, and the host callback.
func (o *Orchestrator) report(ctx context.Context, res models.SessionResult) {
	o.result = res

	outcome := string(res.Reason)
	if res.Err != nil {
		outcome = "failed"
	}
	o.metrics.RecordFinalization(outcome, time.Since(o.endedAt).Seconds())
	if !o.startTime.IsZero() {
		o.metrics.RecordSessionEnd(time.Since(o.startTime).Seconds())
	}

	wire := events.CompletedEvent{
		EventType:  "interview.session.completed",
		SessionID:  res.SessionID,
		FeedbackID: res.FeedbackID,
		Reason:     string(res.Reason),
		Timestamp:  time.Now().UnixMilli(),
	}
	if res.Err != nil {
		wire.Error = res.Err.Error()
	}
	if err := o.publisher.PublishCompleted(ctx, o.cfg.SessionID, wire); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to publish session completed event")
	}

	if res.Err != nil {
		o.logger.Error().Err(res.Err).Msg("Session failed")
	} else {
		o.logger.Info().
			Str("feedbackId", res.FeedbackID).
			Str("reason", string(res.Reason)).
			Msg("Session completed")
	}

	if o.onComplete != nil {
		o.onComplete(res)
	}
	close(o.done)
}
