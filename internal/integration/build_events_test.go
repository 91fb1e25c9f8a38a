//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkaadapter "github.com/couchcryptid/hazard-tile-service/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-tile-service/internal/config"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

const testEventsTopic = "test-hazard-tile-events"

// TestPublishBuildEvents verifies the writer round-trips build events through
// a real broker with the run ID as partition key and the dataset header set.
func TestPublishBuildEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaEventsTopic: testEventsTopic,
	}

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	events := []domain.BuildEvent{
		newEvent("run-1", domain.DatasetFloodzone, "floodzone/tiles", "success", "NFHL_12_20250811.pmtiles"),
		newEvent("run-1", domain.DatasetFloodzone, "combine/nfhl", "built", "NFHL_combined.pmtiles"),
	}
	require.NoError(t, writer.PublishBatch(ctx, events))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testEventsTopic,
		GroupID:     fmt.Sprintf("test-events-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i := 0; i < len(events); i++ {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err)

		assert.Equal(t, "run-1", string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(domain.DatasetFloodzone), headers["dataset"])
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be RFC3339")

		var got domain.BuildEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, events[i].Step, got.Step)
		assert.Equal(t, events[i].OutputFile, got.OutputFile)
		assert.Equal(t, events[i].Status, got.Status)
	}
}

func newEvent(runID string, dataset domain.Dataset, step, status, output string) domain.BuildEvent {
	ev := domain.NewBuildEvent(runID, dataset, step, status)
	ev.OutputFile = output
	return ev
}
