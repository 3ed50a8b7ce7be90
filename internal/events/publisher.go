// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interview-orchestrator/internal/observability/metrics"
)

// Publisher publishes session events to separate Kafka topics.
type Publisher struct {
	writerPartial   *kafka.Writer
	writerFinal     *kafka.Writer
	writerCompleted *kafka.Writer
	principal       string
	topicPartial    string
	topicFinal      string
	topicCompleted  string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicPartial   string
	TopicFinal     string
	TopicCompleted string
	Principal      string
	Enabled        bool
}

// TranscriptEvent is the wire shape of transcript partial/final events.
type TranscriptEvent struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Sequence  uint64 `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

// CompletedEvent is the wire shape of the session-completed event.
type CompletedEvent struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	FeedbackID string `json:"feedbackId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// New creates a new Kafka event publisher with separate topics for partial
// transcripts, final transcripts and session completions.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicPartial:   cfg.TopicPartial,
			topicFinal:     cfg.TopicFinal,
			topicCompleted: cfg.TopicCompleted,
			enabled:        false,
			metrics:        m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Str("topicCompleted", cfg.TopicCompleted).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPartial:   newWriter(cfg.TopicPartial),
		writerFinal:     newWriter(cfg.TopicFinal),
		writerCompleted: newWriter(cfg.TopicCompleted),
		principal:       cfg.Principal,
		topicPartial:    cfg.TopicPartial,
		topicFinal:      cfg.TopicFinal,
		topicCompleted:  cfg.TopicCompleted,
		enabled:         true,
		metrics:         m,
	}
}

// PublishPartial publishes a partial transcript event.
func (p *Publisher) PublishPartial(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerPartial, p.topicPartial, "partial", key, event)
}

// PublishFinal publishes a final transcript event.
func (p *Publisher) PublishFinal(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerFinal, p.topicFinal, "final", key, event)
}

// PublishCompleted publishes a session-completed event.
func (p *Publisher) PublishCompleted(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerCompleted, p.topicCompleted, "completed", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes all Kafka writers.
func (p *Publisher) Close() error {
	var err error
	for _, w := range []*kafka.Writer{p.writerPartial, p.writerFinal, p.writerCompleted} {
		if w != nil {
			if e := w.Close(); e != nil {
				log.Error().Err(e).Str("topic", w.Topic).Msg("Error closing Kafka writer")
				err = e
			}
		}
	}
	return err
}
