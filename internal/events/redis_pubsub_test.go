package events

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/maumercado/anticaptcha-go/internal/config"
)

func TestNewRedisPubSub(t *testing.T) {
	// Construction works without a live client
	pubsub := NewRedisPubSub(nil)

	assert.NotNil(t, pubsub)
	assert.Nil(t, pubsub.client)
	assert.NotNil(t, pubsub.subscribers)
	assert.Len(t, pubsub.subscribers, 0)
}

func TestRedisPubSub_channelName(t *testing.T) {
	pubsub := NewRedisPubSub(nil)

	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventSolveSubmitted, "anticaptcha:events:solve.submitted"},
		{EventSolveCreated, "anticaptcha:events:solve.created"},
		{EventSolveCompleted, "anticaptcha:events:solve.completed"},
		{EventSolveFailed, "anticaptcha:events:solve.failed"},
		{EventBalance, "anticaptcha:events:account.balance"},
	}

	for _, tc := range tests {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.expected, pubsub.channelName(tc.eventType))
		})
	}
}

func TestRedisPubSub_Close_EmptySubscribers(t *testing.T) {
	pubsub := NewRedisPubSub(nil)

	err := pubsub.Close()
	assert.NoError(t, err)
	assert.Len(t, pubsub.subscribers, 0)
}

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisPubSub_Publish_Unreachable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	pubsub := NewRedisPubSub(client)
	err := pubsub.Publish(context.Background(), NewEvent(EventSolveSubmitted, nil))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event")
}

func TestRedisPubSub_SubscribeAll_Unreachable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	pubsub := NewRedisPubSub(client)
	ch, err := pubsub.SubscribeAll(context.Background())

	assert.Error(t, err)
	assert.Nil(t, ch)
	assert.Len(t, pubsub.subscribers, 0)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(&config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestChannelPrefix(t *testing.T) {
	assert.Equal(t, "anticaptcha:events:", channelPrefix)
}

func TestDialRedisPubSub_Unreachable(t *testing.T) {
	pubsub, err := DialRedisPubSub(&config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, pubsub)
}
