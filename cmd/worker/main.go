package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maxim190404/foodgram-st/internal/config"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/internal/workers"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/maxim190404/foodgram-st/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Foodgram media worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objectStorage, err := storage.Open(ctx, storage.Options{
		Driver:    cfg.Storage.Driver,
		MediaRoot: cfg.Storage.MediaRoot,
		MediaURL:  cfg.Storage.MediaURL,
		S3: storage.S3Options{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			PublicURL: cfg.Storage.S3.PublicURL,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize media storage")
	}

	recipeEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RecipeEvents, cfg.Kafka.GroupID, logger)
	mediaWorker := workers.NewMediaWorker(recipeEventsConsumer, services.NewMediaCleaner(objectStorage, logger), logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mediaWorker.Start(ctx); err != nil {
			logger.WithError(err).Error("Media worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")

	cancel()
	<-done
	if err := mediaWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop media worker")
	}

	logger.Info("Worker exited")
}
