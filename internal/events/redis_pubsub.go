package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/logger"
)

const (
	channelPrefix = "anticaptcha:events:"

	subscriberBuffer = 100
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisPubSub implements Publisher using Redis Pub/Sub
type RedisPubSub struct {
	client      *redis.Client
	ownsClient  bool
	subscribers map[string]*redis.PubSub
	mu          sync.RWMutex
}

// DialRedisPubSub connects to Redis and returns a publisher that closes the
// connection on Close.
func DialRedisPubSub(cfg *config.RedisConfig) (*RedisPubSub, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	r := NewRedisPubSub(client)
	r.ownsClient = true
	return r, nil
}

// NewRedisPubSub creates a new Redis Pub/Sub publisher
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client:      client,
		subscribers: make(map[string]*redis.PubSub),
	}
}

// Publish publishes an event to Redis
func (r *RedisPubSub) Publish(ctx context.Context, event *Event) error {
	channel := r.channelName(event.Type)
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := r.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Debug().
		Str("event_type", string(event.Type)).
		Str("channel", channel).
		Msg("event published")

	return nil
}

// Subscribe subscribes to events of the specified types
func (r *RedisPubSub) Subscribe(ctx context.Context, eventTypes ...EventType) (<-chan *Event, error) {
	channels := make([]string, len(eventTypes))
	for i, et := range eventTypes {
		channels[i] = r.channelName(et)
	}

	return r.listen(ctx, r.client.Subscribe(ctx, channels...))
}

// SubscribeAll subscribes to all event types
func (r *RedisPubSub) SubscribeAll(ctx context.Context) (<-chan *Event, error) {
	return r.listen(ctx, r.client.PSubscribe(ctx, channelPrefix+"*"))
}

func (r *RedisPubSub) listen(ctx context.Context, pubsub *redis.PubSub) (<-chan *Event, error) {
	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.subscribers[id] = pubsub
	r.mu.Unlock()

	eventCh := make(chan *Event, subscriberBuffer)

	go func() {
		defer close(eventCh)
		defer r.forget(id)
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := FromJSON([]byte(msg.Payload))
				if err != nil {
					logger.Error().Err(err).Msg("failed to parse event")
					continue
				}

				select {
				case eventCh <- event:
				default:
					// Channel full, drop event
					logger.Warn().
						Str("event_type", string(event.Type)).
						Msg("event channel full, dropping event")
				}
			}
		}
	}()

	return eventCh, nil
}

func (r *RedisPubSub) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pubsub, ok := r.subscribers[id]; ok {
		_ = pubsub.Close()
		delete(r.subscribers, id)
	}
}

// Close closes all subscriptions, and the connection when it was dialed
// by DialRedisPubSub.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pubsub := range r.subscribers {
		_ = pubsub.Close()
	}
	r.subscribers = make(map[string]*redis.PubSub)

	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}

func (r *RedisPubSub) channelName(eventType EventType) string {
	return channelPrefix + string(eventType)
}
