package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

// publishBatchSize bounds the number of messages per WriteMessages call.
const publishBatchSize = 500

// Writer publishes cleaned records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    publishBatchSize,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Load serializes and publishes records in chunks of publishBatchSize.
// Records sharing a station and hour hash to the same partition.
func (w *Writer) Load(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	cleanedAt := domain.Now()
	for start := 0; start < len(records); start += publishBatchSize {
		end := min(start+publishBatchSize, len(records))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(records[i], cleanedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish records: %w", err)
		}
		w.metrics.RecordsPublished.Add(float64(len(msgs)))
	}

	w.logger.Info("cleaned records published", "topic", w.writer.Topic, "count", len(records))
	return nil
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies one observation: station and hour.
func messageKey(r domain.Record) []byte {
	return []byte(r.StationID + "|" + r.Datetime.UTC().Format(domain.TimestampLayout))
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(r domain.Record, cleanedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   messageKey(r),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "departement", Value: []byte(r.Departement)},
			{Key: "cleaned_at", Value: []byte(cleanedAt.Format(time.RFC3339))},
		},
	}, nil
}
