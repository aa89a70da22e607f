// Package events publishes committed utterances to a Kafka archive topic.
// The live caption feed never depends on the archive; publish failures are
// logged and dropped.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-caption-room-service/internal/observability/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled   bool     `yaml:"enabled"`
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Principal string   `yaml:"principal"`
}

// UtteranceEvent is the archive record for one committed utterance.
type UtteranceEvent struct {
	EventType   string    `json:"eventType"`
	RoomID      string    `json:"roomId"`
	UtteranceID int64     `json:"utteranceId"`
	Text        string    `json:"text"`
	CommittedAt time.Time `json:"committedAt"`
}

// Publisher writes utterance events to Kafka, or only logs them when
// disabled (the default for local development).
type Publisher struct {
	writer    *kafka.Writer
	topic     string
	principal string
	enabled   bool
	metrics   *metrics.Metrics
}

// New creates a publisher. A nil config, Enabled=false, or an empty broker
// list all select log-only mode.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("kafka archive disabled, using log-only mode")
		p := &Publisher{enabled: false, metrics: m}
		if cfg != nil {
			p.topic = cfg.Topic
			p.principal = cfg.Principal
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("principal", cfg.Principal).
		Msg("kafka archive publisher initialized")

	return &Publisher{
		writer:    writer,
		topic:     cfg.Topic,
		principal: cfg.Principal,
		enabled:   true,
		metrics:   m,
	}
}

// PublishUtterance records one committed utterance, keyed by room id so a
// room's transcript stays ordered within a partition.
func (p *Publisher) PublishUtterance(ctx context.Context, roomID string, utteranceID int64, text string) error {
	payload, err := json.Marshal(UtteranceEvent{
		EventType:   "caption.utterance.committed",
		RoomID:      roomID,
		UtteranceID: utteranceID,
		Text:        text,
		CommittedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("topic", p.topic).
		Str("roomId", roomID).
		Int64("utteranceId", utteranceID).
		RawJSON("payload", payload).
		Msg("publishing utterance")

	if !p.enabled || p.writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(roomID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte("caption.utterance.committed")},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.ArchivePublishErrors.Inc()
		log.Error().Err(err).Str("topic", p.topic).Str("roomId", roomID).Msg("failed to write to kafka")
		return err
	}

	p.metrics.ArchivePublishTotal.Inc()
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
