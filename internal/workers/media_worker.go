package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/sirupsen/logrus"
)

// EventSource delivers domain events; *queue.KafkaConsumer is the production source.
type EventSource interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error) error
	Close() error
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event *queue.RawEvent) error
}

// MediaWorker removes stored images that recipes and users no longer reference.
type MediaWorker struct {
	source  EventSource
	cleaner EventHandler
	logger  *logger.Logger
}

func NewMediaWorker(source EventSource, cleaner EventHandler, logger *logger.Logger) *MediaWorker {
	return &MediaWorker{
		source:  source,
		cleaner: cleaner,
		logger:  logger,
	}
}

// Start blocks until ctx is cancelled or the source fails.
func (w *MediaWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting media worker...")

	err := w.source.Subscribe(ctx, w.handleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *MediaWorker) handleMessage(ctx context.Context, msg queue.Message) error {
	event, err := queue.DecodeEvent(msg)
	if err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"key":        msg.Key,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	return w.cleaner.HandleEvent(ctx, event)
}

func (w *MediaWorker) Stop() error {
	w.logger.Info("Stopping media worker...")
	return w.source.Close()
}
