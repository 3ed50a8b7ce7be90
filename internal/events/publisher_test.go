package events

import (
	"context"
	"testing"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
			if p.writerCompleted != nil {
				t.Error("expected nil completed writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:        false,
		Brokers:        []string{"localhost:9092"},
		TopicPartial:   "interview.transcript.partial",
		TopicFinal:     "interview.transcript.final",
		TopicCompleted: "interview.session.completed",
		Principal:      "svc-interview-orchestrator",
	}

	p := New(cfg)

	if p.principal != "svc-interview-orchestrator" {
		t.Errorf("expected principal 'svc-interview-orchestrator', got %s", p.principal)
	}
	if p.topicPartial != "interview.transcript.partial" {
		t.Errorf("unexpected partial topic %s", p.topicPartial)
	}
	if p.topicFinal != "interview.transcript.final" {
		t.Errorf("unexpected final topic %s", p.topicFinal)
	}
	if p.topicCompleted != "interview.session.completed" {
		t.Errorf("unexpected completed topic %s", p.topicCompleted)
	}
}

func TestPublisher_PublishDisabledIsNoOp(t *testing.T) {
	p := New(&Config{Enabled: false})
	ctx := context.Background()

	ev := TranscriptEvent{
		EventType: "interview.transcript.final",
		SessionID: "sess-1",
		Speaker:   "candidate",
		Text:      "hello",
	}
	if err := p.PublishPartial(ctx, "sess-1", ev); err != nil {
		t.Errorf("disabled partial publish should not error: %v", err)
	}
	if err := p.PublishFinal(ctx, "sess-1", ev); err != nil {
		t.Errorf("disabled final publish should not error: %v", err)
	}
	if err := p.PublishCompleted(ctx, "sess-1", CompletedEvent{SessionID: "sess-1"}); err != nil {
		t.Errorf("disabled completed publish should not error: %v", err)
	}
}

func TestPublisher_PublishUnmarshalableEvent(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be JSON-marshaled
	bad := map[string]any{"ch": make(chan int)}
	if err := p.PublishFinal(context.Background(), "sess-1", bad); err == nil {
		t.Error("expected marshal error")
	}
}

func TestPublisher_CloseDisabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("close on disabled publisher should not error: %v", err)
	}
}
