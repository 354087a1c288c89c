package services

import (
	"context"
	"fmt"

	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/maxim190404/foodgram-st/pkg/storage"
	"github.com/sirupsen/logrus"
)

// MediaCleaner removes images that recipes and users no longer reference.
type MediaCleaner struct {
	storage storage.ObjectStorage
	logger  *logger.Logger
}

func NewMediaCleaner(storage storage.ObjectStorage, logger *logger.Logger) *MediaCleaner {
	return &MediaCleaner{storage: storage, logger: logger}
}

// HandleEvent deletes the stale object carried by a recipe or avatar event. Other event
// types are ignored.
func (c *MediaCleaner) HandleEvent(ctx context.Context, event *queue.RawEvent) error {
	var stale string
	switch event.Type {
	case queue.EventRecipeUpdated, queue.EventRecipeDeleted:
		var data queue.RecipeEventData
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		stale = data.StaleImage
	case queue.EventAvatarUpdated, queue.EventAvatarDeleted:
		var data queue.AvatarEventData
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		stale = data.StaleAvatar
	default:
		return nil
	}

	if stale == "" {
		return nil
	}
	if err := c.storage.Delete(ctx, stale); err != nil {
		return fmt.Errorf("failed to delete stale media: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"event": event.Type,
		"uri":   stale,
	}).Info("Stale media deleted")
	return nil
}
