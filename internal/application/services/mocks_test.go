package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
)

// Mocks

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg providers.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Index(ctx context.Context, doc *entities.PrescriptionDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockSearchProvider) Search(ctx context.Context, query, doctorUsername string, limit int) ([]*entities.PrescriptionDocument, error) {
	args := m.Called(ctx, query, doctorUsername, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PrescriptionDocument), args.Error(1)
}

func (m *MockSearchProvider) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingBus keeps published events per channel.
type recordingBus struct {
	mu        sync.Mutex
	published map[string][]*entities.PrescriptionEvent
}

func newRecordingBus() *recordingBus {
	return &recordingBus{published: map[string][]*entities.PrescriptionEvent{}}
}

func (b *recordingBus) Publish(_ context.Context, channel string, event *entities.PrescriptionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], event)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan *entities.PrescriptionEvent, error) {
	return make(chan *entities.PrescriptionEvent), nil
}

func (b *recordingBus) Unsubscribe(context.Context, string) error { return nil }
func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) events(channel string) []*entities.PrescriptionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[channel]
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
