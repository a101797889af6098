//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteo-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/meteo-etl/internal/adapter/kafka"
	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
	"github.com/couchcryptid/meteo-etl/internal/pipeline"
)

const testSinkTopic = "test-meteo-cleaned"

// TestCleanWithKafkaSink runs the normalization pipeline with both the CSV
// writer and the Kafka sink and checks that every cleaned row is published.
func TestCleanWithKafkaSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	rawDir := t.TempDir()
	writeArchive(t, rawDir, domain.ArchiveFilename("75", "1900-1909"),
		"NUM_POSTE;NOM_USUEL;LAT;LON;ALTI;AAAAMMJJHH;FF;DD;T;TD;U;PMER;PSTAT",
		"75114001;PARIS;48.8;2.3;35;1905060112;3.2;180;152;90;65;1013;1010",
		"75114001;PARIS;48.8;2.3;35;1905060113;2.9;190;160;95;62;1013;1010",
		"75114001;PARIS;48.8;2.3;35;not-a-date;2.9;190;160;95;62;1013;1010",
	)
	out := filepath.Join(t.TempDir(), "meteo_cleaned.csv")

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	metrics := observability.NewMetricsForTesting()
	sink := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = sink.Close() })

	p := pipeline.New(
		archive.NewReader(rawDir, discardLogger()),
		pipeline.NewCleaner(),
		discardLogger(),
		metrics,
		csvstore.NewWriter(out, discardLogger()),
		sink,
	)
	summary, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Cleaned)
	assert.Equal(t, 1, summary.Dropped)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	wantKeys := []string{"75114001|1905060112", "75114001|1905060113"}
	for i, want := range wantKeys {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read message %d", i)

		assert.Equal(t, want, string(msg.Key))
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "75", headers["departement"])
		assert.NotEmpty(t, headers["cleaned_at"])

		var rec domain.Record
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		assert.Equal(t, "PARIS", rec.StationName)
		assert.Equal(t, 1905, rec.Year)
	}

	records, err := csvstore.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, records, 2, "the flat file remains the system of record")
}
