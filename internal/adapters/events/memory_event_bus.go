package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
)

// MemoryEventBus delivers events to subscribers in the same process. It is
// used when Redis is not configured.
type MemoryEventBus struct {
	mu     sync.Mutex
	subs   map[string]map[chan *entities.PrescriptionEvent]struct{}
	closed bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: make(map[string]map[chan *entities.PrescriptionEvent]struct{})}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.PrescriptionEvent) error {
	if event == nil {
		return errors.New("event is nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("event bus is closed")
	}
	for sub := range b.subs[channel] {
		select {
		case sub <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber full, event skipped")
		}
	}
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PrescriptionEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("event bus is closed")
	}

	sub := make(chan *entities.PrescriptionEvent, subscriberBuffer)
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan *entities.PrescriptionEvent]struct{})
	}
	b.subs[channel][sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(channel, sub)
	}()
	return sub, nil
}

func (b *MemoryEventBus) remove(channel string, sub chan *entities.PrescriptionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[channel][sub]; !ok {
		return
	}
	delete(b.subs[channel], sub)
	close(sub)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// Unsubscribe closes every subscriber of channel.
func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[channel] {
		close(sub)
	}
	delete(b.subs, channel)
	return nil
}

func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for channel, subs := range b.subs {
		for sub := range subs {
			close(sub)
		}
		delete(b.subs, channel)
	}
	return nil
}
