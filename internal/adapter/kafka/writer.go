// Package kafka publishes resolved reaches to a Kafka topic so downstream
// consumers (search indexers, map tile refreshers) see resolution results
// without polling the feature layers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/reach-hydroline-service/internal/domain"
)

// Writer produces resolved-reach messages to a Kafka topic.
// It implements pipeline.ReachSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishResolved serializes and publishes one resolved reach.
func (w *Writer) PublishResolved(ctx context.Context, reach *domain.Reach) error {
	msg, err := serializeToMessage(reach)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Reach into a Kafka message keyed by reach id.
func serializeToMessage(reach *domain.Reach) (kafkago.Message, error) {
	data, err := json.Marshal(reach)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reach: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(reach.ReachID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tracing_method", Value: []byte(reach.TracingMethod)},
			{Key: "resolved_at", Value: []byte(reach.UpdatedExport.Format(time.RFC3339))},
		},
	}, nil
}
