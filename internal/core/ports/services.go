package ports

import (
	"context"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

// EventPublisher publishes dataset events to a message broker.
type EventPublisher interface {
	PublishIngested(ctx context.Context, event domain.IngestEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to dataset events from a message broker.
type EventSubscriber interface {
	SubscribeIngested(ctx context.Context, handler func(ctx context.Context, event domain.IngestEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
