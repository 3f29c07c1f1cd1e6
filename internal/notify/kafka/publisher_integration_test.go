//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"homeward/internal/notify"
	"homeward/internal/notify/kafka"
	"homeward/internal/platform/config"
	"homeward/internal/platform/logger"
	"homeward/pkg/testutil/containers"
)

func TestPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.GetManager().GetRedpanda(t)

	cfg := config.KafkaConfig{
		Brokers: redpanda.Brokers,
		Topic:   "homeward.status-events.test",
	}

	publisher, err := kafka.NewPublisher(ctx, cfg, logger.New())
	require.NoError(t, err)
	defer publisher.Close()

	event := notify.Event{
		Type:           notify.ApplicationStatusChanged,
		EntityID:       "app-123",
		PreviousStatus: "pending",
		NewStatus:      "reviewing",
		ActorID:        "org-1",
		OccurredAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)

	record := records[0]
	require.Equal(t, event.EntityID, string(record.Key))

	var got notify.Event
	require.NoError(t, json.Unmarshal(record.Value, &got))
	require.Equal(t, event, got)

	var eventType string
	for _, h := range record.Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}
	require.Equal(t, string(notify.ApplicationStatusChanged), eventType)
}
