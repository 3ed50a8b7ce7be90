package mock

import (
	"context"
	"testing"
	"time"

	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/voice"
)

func collect(t *testing.T, ch *Channel) []voice.Event {
	t.Helper()
	var events []voice.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("stream did not close; got %d events so far", len(events))
		}
	}
}

func TestChannel_PlaysFullScript(t *testing.T) {
	script := []ScriptedTurn{
		{Speaker: models.SpeakerInterviewer, Partials: []string{"Tell"}, Final: "Tell me about yourself"},
		{Speaker: models.SpeakerCandidate, Partials: []string{"I am", "I am a"}, Final: "I am a backend engineer"},
	}
	ch := NewWithScript(script, time.Millisecond)

	if err := ch.Start(context.Background(), voice.StartParams{SessionID: "s1"}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	events := collect(t, ch)

	if events[0].Type != voice.EventEstablished {
		t.Errorf("expected call-established first, got %s", events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != voice.EventTerminated {
		t.Errorf("expected call-terminated last, got %s", last.Type)
	}

	// 3 partials + 2 finals between the call signals.
	var partials, finals int
	var lastSeq uint64
	for _, ev := range events {
		if ev.Type != voice.EventTranscript {
			continue
		}
		if ev.Transcript.Sequence <= lastSeq {
			t.Errorf("sequence not increasing: %d after %d", ev.Transcript.Sequence, lastSeq)
		}
		lastSeq = ev.Transcript.Sequence
		switch ev.Transcript.Finality {
		case models.FinalityPartial:
			partials++
		case models.FinalityFinal:
			finals++
		}
	}
	if partials != 3 {
		t.Errorf("expected 3 partials, got %d", partials)
	}
	if finals != 2 {
		t.Errorf("expected 2 finals, got %d", finals)
	}
}

func TestChannel_StopTerminatesEarly(t *testing.T) {
	// Long script; stop before it can finish.
	var script []ScriptedTurn
	for i := 0; i < 50; i++ {
		script = append(script, DefaultScript...)
	}
	ch := NewWithScript(script, time.Millisecond)

	ch.Start(context.Background(), voice.StartParams{SessionID: "s1"})
	time.Sleep(10 * time.Millisecond)
	if err := ch.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	events := collect(t, ch)

	if last := events[len(events)-1]; last.Type != voice.EventTerminated {
		t.Errorf("expected call-terminated last, got %s", last.Type)
	}
	// Far fewer events than the full script would produce.
	if len(events) >= 50*len(DefaultScript) {
		t.Errorf("expected early termination, got %d events", len(events))
	}
}

func TestChannel_ContextCancelTerminates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := NewWithScript(DefaultScript, 50*time.Millisecond)

	ch.Start(ctx, voice.StartParams{SessionID: "s1"})
	cancel()

	events := collect(t, ch)
	if last := events[len(events)-1]; last.Type != voice.EventTerminated {
		t.Errorf("expected call-terminated last, got %s", last.Type)
	}
}

func TestChannel_StartIdempotent(t *testing.T) {
	ch := NewWithScript(DefaultScript[:1], time.Millisecond)

	ch.Start(context.Background(), voice.StartParams{SessionID: "s1"})
	if err := ch.Start(context.Background(), voice.StartParams{SessionID: "s1"}); err != nil {
		t.Fatalf("second start errored: %v", err)
	}

	events := collect(t, ch)

	// One established, one terminated: the script played exactly once.
	var established, terminated int
	for _, ev := range events {
		switch ev.Type {
		case voice.EventEstablished:
			established++
		case voice.EventTerminated:
			terminated++
		}
	}
	if established != 1 || terminated != 1 {
		t.Errorf("expected 1 established and 1 terminated, got %d and %d", established, terminated)
	}
}
