package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	redisclient "github.com/zatekoja/clinicportal/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 64

// channelFeed is one Redis subscription fanned out to local subscribers.
type channelFeed struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.PrescriptionEvent]struct{}
}

// RedisEventBus implements EventBus over Redis pub/sub. Prescription events
// are JSON encoded; slow subscribers miss events rather than block the feed.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.Mutex
	feeds  map[string]*channelFeed
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		feeds:  make(map[string]*channelFeed),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish sends an event to every subscriber of channel.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.PrescriptionEvent) error {
	if event == nil {
		return errors.New("event is nil")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("type", string(event.Type)).Msg("published event")
	return nil
}

// Subscribe returns a channel of events that stays open until ctx is done,
// Unsubscribe is called for the channel, or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PrescriptionEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return nil, errors.New("event bus is closed")
	}

	feed, ok := b.feeds[channel]
	if !ok {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		feed = &channelFeed{
			pubsub:      pubsub,
			subscribers: make(map[chan *entities.PrescriptionEvent]struct{}),
		}
		b.feeds[channel] = feed
		go b.pump(channel, feed)
	}

	sub := make(chan *entities.PrescriptionEvent, subscriberBuffer)
	feed.subscribers[sub] = struct{}{}
	log.Debug().Str("channel", channel).Int("subscribers", len(feed.subscribers)).Msg("subscribed")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, sub)
	}()

	return sub, nil
}

func (b *RedisEventBus) pump(channel string, feed *channelFeed) {
	for msg := range feed.pubsub.Channel() {
		event, err := decodeEvent(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
			continue
		}

		b.mu.Lock()
		for sub := range feed.subscribers {
			select {
			case sub <- event:
			default:
				log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber full, event skipped")
			}
		}
		b.mu.Unlock()
	}
}

func decodeEvent(payload string) (*entities.PrescriptionEvent, error) {
	var event entities.PrescriptionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, errors.New("event has no type")
	}
	return &event, nil
}

func (b *RedisEventBus) removeSubscriber(channel string, sub chan *entities.PrescriptionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	feed, ok := b.feeds[channel]
	if !ok {
		return
	}
	if _, ok := feed.subscribers[sub]; !ok {
		return
	}
	delete(feed.subscribers, sub)
	close(sub)

	if len(feed.subscribers) == 0 {
		_ = feed.pubsub.Close()
		delete(b.feeds, channel)
	}
}

// closeFeed must be called with b.mu held.
func (b *RedisEventBus) closeFeed(channel string) error {
	feed, ok := b.feeds[channel]
	if !ok {
		return nil
	}
	for sub := range feed.subscribers {
		close(sub)
		delete(feed.subscribers, sub)
	}
	delete(b.feeds, channel)
	if err := feed.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe closes every local subscriber of channel.
func (b *RedisEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeFeed(channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel := range b.feeds {
		if err := b.closeFeed(channel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
