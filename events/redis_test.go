package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kova98/gigscout.api/models"
)

func TestRedisPublisher_Publish(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "redis://"+server.Addr())
	require.NoError(t, err)
	publisher := NewRedisPublisher(client)
	defer publisher.Close()

	sub := client.Subscribe(ctx, ScrapeRunsChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	summary := models.ScrapeRunSummary{
		Timestamp:    time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		TotalScanned: 23,
		TotalSaved:   4,
		Sources:      map[string]int{"Indeed": 20, "RemoteOK": 3},
	}
	require.NoError(t, publisher.Publish(ctx, summary))

	select {
	case msg := <-sub.Channel():
		var got models.ScrapeRunSummary
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, summary, got)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisher_Nil(t *testing.T) {
	var publisher *RedisPublisher
	assert.NoError(t, publisher.Publish(context.Background(), models.ScrapeRunSummary{}))
	assert.NoError(t, publisher.Close())
}

func TestRedisPublisher_ServerGone(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	publisher := NewRedisPublisher(client)
	defer publisher.Close()

	server.Close()
	err := publisher.Publish(context.Background(), models.ScrapeRunSummary{})
	assert.ErrorContains(t, err, "publish scrape run")
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.ErrorContains(t, err, "parse redis url")

	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()
	_, err = NewRedisClient(context.Background(), "redis://"+addr)
	assert.ErrorContains(t, err, "redis ping")
}
