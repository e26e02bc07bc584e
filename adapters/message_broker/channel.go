package message_broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
	"go.uber.org/zap"
)

var ErrBrokerClosed = errors.New("message broker is closed")

const subscriberBuffer = 100

type subscriber struct {
	ch chan domain.Message
}

// ChannelMessageBroker implements MessageBroker using Go channels. Every
// subscriber of a topic/routingKey gets its own copy of each message.
type ChannelMessageBroker struct {
	subscribers map[string]map[*subscriber]struct{}
	mu          sync.RWMutex
	closed      bool
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		subscribers: make(map[string]map[*subscriber]struct{}),
		done:        make(chan struct{}),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// Publish fans message out to the current subscribers of topic and
// routingKey. Messages with no subscriber are dropped; a subscriber whose
// buffer is full misses the message.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	subs := b.subscribers[makeKey(topic, routingKey)]
	for sub := range subs {
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		default:
			log.WithCtx(ctx).Warn("subscriber buffer full, dropping message",
				zap.String("topic", topic),
				zap.String("routingKey", routingKey))
		}
	}

	log.WithCtx(ctx).Debug("message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("subscribers", len(subs)),
		zap.Int("payload_size", len(message)))
	return nil
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	key := makeKey(topic, routingKey)
	sub := &subscriber{ch: make(chan domain.Message, subscriberBuffer)}
	if b.subscribers[key] == nil {
		b.subscribers[key] = make(map[*subscriber]struct{})
	}
	b.subscribers[key][sub] = struct{}{}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		select {
		case <-ctx.Done():
			b.remove(key, sub)
		case <-b.done:
		}
	}()

	log.WithCtx(ctx).Debug("subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return sub.ch, nil
}

func (b *ChannelMessageBroker) remove(key string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[key]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.subscribers, key)
	}
}

// Close closes the message broker and all subscriber channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)

	for key, subs := range b.subscribers {
		for sub := range subs {
			close(sub.ch)
		}
		log.With().Debug("closed topic subscribers", zap.String("key", key), zap.Int("count", len(subs)))
	}
	b.subscribers = make(map[string]map[*subscriber]struct{})
	b.mu.Unlock()

	b.wg.Wait()
	log.With().Info("message broker closed")
	return nil
}

// SubscriberCount returns the number of subscribers of topic and routingKey.
func (b *ChannelMessageBroker) SubscriberCount(topic, routingKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[makeKey(topic, routingKey)])
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
