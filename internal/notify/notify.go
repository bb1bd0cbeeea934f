// Package notify announces freshly written feeds on Kafka.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/list-digest/internal/config"
)

// EventFeedUpdated is the type header of every published event.
const EventFeedUpdated = "feed.updated"

// Event describes a feed file that has just been (re)generated.
type Event struct {
	ID          string    `json:"id"`
	Feed        string    `json:"feed"`
	Path        string    `json:"path"`
	Items       int       `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewEvent stamps a feed update with a fresh id and the current time.
func NewEvent(feed, path string, items int) Event {
	return Event{
		ID:          uuid.NewString(),
		Feed:        feed,
		Path:        path,
		Items:       items,
		GeneratedAt: time.Now().UTC(),
	}
}

// Publisher delivers feed events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are set.
func New(cfg config.Notify, log *slog.Logger) Publisher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Debug("no kafka brokers configured, feed events disabled")
		return Nop{}
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		MaxAttempts: 3,
	})
	return NewKafka(w, cfg.KafkaTopic, log)
}

// MessageWriter is the subset of *kafka.Writer used by Kafka.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes JSON-encoded events keyed by feed name.
type Kafka struct {
	w     MessageWriter
	topic string
	log   *slog.Logger
}

// NewKafka wraps w.
func NewKafka(w MessageWriter, topic string, log *slog.Logger) *Kafka {
	return &Kafka{w: w, topic: topic, log: log}
}

// Publish writes ev to the topic.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Feed),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventFeedUpdated)},
			{Key: "timestamp", Value: []byte(ev.GeneratedAt.Format(time.RFC3339))},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", EventFeedUpdated, err)
	}

	k.log.Info("feed event published",
		slog.String("topic", k.topic),
		slog.String("feed", ev.Feed),
		slog.String("id", ev.ID),
	)
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.w.Close()
}

// Nop drops every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
