package docstore

import (
	"context"
	"sync"

	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Notifier fans document writes out to subscribers. The Redis
// implementation crosses process boundaries; the in-memory one is for
// tests and single-node setups.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) (func(), error)
}

// RedisNotifier broadcasts through Redis pub/sub
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, channel string, payload []byte) error {
	return n.client.Publish(ctx, channel, payload).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) (func(), error) {
	pubsub := n.client.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed before returning so
	// callers never miss writes made right after subscribing
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
		logger.Debug("Redis subscription closed", map[string]interface{}{
			"channel": channel,
		})
	}()

	return func() { _ = pubsub.Close() }, nil
}

// MemoryNotifier delivers notifications synchronously within the
// process. Handlers run on the publisher's goroutine, so publishers
// must not hold locks that handlers also take.
type MemoryNotifier struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]func(payload []byte)
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{handlers: make(map[string]map[int]func(payload []byte))}
}

func (n *MemoryNotifier) Publish(_ context.Context, channel string, payload []byte) error {
	n.mu.Lock()
	targets := make([]func([]byte), 0, len(n.handlers[channel]))
	for _, handler := range n.handlers[channel] {
		targets = append(targets, handler)
	}
	n.mu.Unlock()

	for _, handler := range targets {
		handler(payload)
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(_ context.Context, channel string, handler func(payload []byte)) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	if n.handlers[channel] == nil {
		n.handlers[channel] = make(map[int]func(payload []byte))
	}
	n.handlers[channel][id] = handler

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.handlers[channel], id)
	}, nil
}
