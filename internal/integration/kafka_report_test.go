//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/adapter/kafka"
	"github.com/couchcryptid/neo-approach-service/internal/adapter/neows"
	"github.com/couchcryptid/neo-approach-service/internal/config"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/couchcryptid/neo-approach-service/internal/pipeline"
	"github.com/couchcryptid/neo-approach-service/internal/report"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportTopic = "test-neo-closest-approaches"

type publishedEntry struct {
	ScanID string       `json:"scan_id"`
	Entry  report.Entry `json:"entry"`
}

// TestScanPublishesRankedReport runs a full scan against a fake NeoWs API and
// a real broker, then reads the ranked entries back from the report topic.
func TestScanPublishesRankedReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	now := time.Now().UTC()
	baseURL := startFakeNeoWs(t, []fakeObject{
		{ID: "3542519", Name: "(2010 PK9)", When: now.Add(48 * time.Hour), Km: 7644137.5},
		{ID: "2465633", Name: "465633 (2009 JR5)", Hazardous: true, When: now.Add(2 * time.Hour), Km: 5390966.1},
		{ID: "3726710", Name: "(2015 RC)", When: now.AddDate(0, 0, 30), Km: 1000},
	})

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}
	metrics := observability.NewMetricsForTesting()
	client := neows.NewClient("TEST_KEY", baseURL, 5*time.Second, 0, metrics, discardLogger())
	detector := pipeline.NewDetector(neows.NewCachedRepository(client, 16, time.Hour, metrics), discardLogger(), metrics,
		pipeline.WithConcurrency(2),
		pipeline.WithFetchTimeout(5*time.Second),
	)
	writer := kafka.NewReportWriter(cfg, discardLogger())
	defer writer.Close()

	scanner := pipeline.NewScanner(client, detector, writer, discardLogger(), metrics, pipeline.ScanOptions{Limit: 10})

	rep, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Requested)
	require.Len(t, rep.Entries, 2, "the object 30 days out is outside the window")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer consumer.Close()

	var got []publishedEntry
	keys := make([]string, 0, 2)
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from report topic")

		var entry publishedEntry
		require.NoError(t, json.Unmarshal(msg.Value, &entry))
		got = append(got, entry)
		keys = append(keys, string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, rep.ScanID, headers["scan_id"])
	}

	assert.Equal(t, []string{"2465633", "3542519"}, keys)
	assert.Equal(t, 1, got[0].Entry.Rank)
	assert.True(t, got[0].Entry.PotentiallyHazardous)
	assert.InDelta(t, 5390966.1, got[0].Entry.MissDistanceKm, 0.001)
	assert.Equal(t, 2, got[1].Entry.Rank)
	assert.Equal(t, rep.ScanID, got[1].ScanID)
}
