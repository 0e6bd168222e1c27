// Package kafka ships audit events to a Kafka topic for downstream SIEM
// and compliance consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "pkdconsole/pkg/platform/audit"
)

// Sink produces audit events to a single topic. Production is
// fire-and-forget; delivery failures are logged, never propagated into
// domain paths.
type Sink struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewSink connects to the given seed brokers and produces to topic.
func NewSink(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, logger: logger}, nil
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	buf, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.SessionID),
		Value: buf,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("audit event not delivered", "action", event.Action, "error", err)
		}
	})
	return nil
}

// Close flushes outstanding records and closes the client.
func (s *Sink) Close() {
	_ = s.client.Flush(context.Background())
	s.client.Close()
}
