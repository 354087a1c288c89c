package services

import (
	"context"

	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
)

// publish sends an event keyed by key. Failures are logged; the mutation that raised the
// event has already been committed.
func publish(ctx context.Context, producer queue.EventPublisher, logger *logger.Logger, key string, event queue.Event) {
	if err := producer.Publish(ctx, key, event); err != nil {
		logger.WithError(err).WithField("event", event.Type).Error("Failed to publish event")
	}
}
