package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

func TestSerializeToMessage(t *testing.T) {
	temp := 15.2
	rec := domain.Record{
		StationID:   "75114001",
		StationName: "PARIS",
		Datetime:    time.Date(1905, time.June, 1, 12, 0, 0, 0, time.UTC),
		Temperature: &temp,
		Departement: "75",
		Hour:        12,
		Year:        1905,
		Month:       6,
	}
	cleanedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	msg, err := serializeToMessage(rec, cleanedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("75114001|1905060112"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "departement", msg.Headers[0].Key)
	assert.Equal(t, []byte("75"), msg.Headers[0].Value)
	assert.Equal(t, "cleaned_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(cleanedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "PARIS", body["station_name"])
	assert.InDelta(t, 15.2, body["temperature"], 1e-9)
	assert.Nil(t, body["humidity"])
	assert.Equal(t, "1905-06-01T12:00:00Z", body["datetime"])
}

func TestNewWriter_Config(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaSinkTopic: "meteo-cleaned-records"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "meteo-cleaned-records", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
	assert.Equal(t, publishBatchSize, w.writer.BatchSize)
}

func TestLoad_EmptyIsNoop(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	w := NewWriter(&config.Config{KafkaBrokers: []string{"unreachable:9092"}, KafkaSinkTopic: "t"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Load(context.Background(), nil))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RecordsPublished), 0)
}
