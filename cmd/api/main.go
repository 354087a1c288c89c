package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxim190404/foodgram-st/internal/config"
	"github.com/maxim190404/foodgram-st/internal/handlers"
	"github.com/maxim190404/foodgram-st/internal/middleware"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/internal/workers"
	"github.com/maxim190404/foodgram-st/pkg/cache"
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
	logger.Info("Starting Foodgram API server...")

	db, err := repository.NewDatabase(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

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

	recipeEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RecipeEvents)
	defer recipeEventsProducer.Close()

	recipeEventsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RecipeEvents, cfg.Kafka.GroupID, logger)

	// repositories
	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	ingredientRepo := repository.NewIngredientRepository(db.DB)
	recipeRepo := repository.NewRecipeRepository(db.DB)
	favoriteRepo := repository.NewFavoriteRepository(db.DB)
	cartRepo := repository.NewShoppingCartRepository(db.DB)

	// services
	userService := services.NewUserService(userRepo, followRepo, objectStorage, recipeEventsProducer, logger)
	followService := services.NewFollowService(userRepo, followRepo, recipeRepo, recipeEventsProducer, logger)
	recipeService := services.NewRecipeService(recipeRepo, ingredientRepo, followRepo, favoriteRepo, cartRepo, objectStorage, recipeEventsProducer, logger)
	favoriteService := services.NewFavoriteService(favoriteRepo, recipeRepo, recipeEventsProducer, logger)
	cartService := services.NewShoppingCartService(cartRepo, recipeRepo, recipeEventsProducer, logger)
	shoppingListService := services.NewShoppingListService(cartRepo, recipeRepo, logger)
	ingredientService := services.NewIngredientService(ingredientRepo, redisClient, cfg.Catalog.CacheTTL, logger)

	mediaWorker := workers.NewMediaWorker(recipeEventsConsumer, services.NewMediaCleaner(objectStorage, logger), logger)
	go func() {
		if err := mediaWorker.Start(ctx); err != nil {
			logger.WithError(err).Error("Media worker stopped with error")
		}
	}()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		logger.WithError(err).Fatal("Failed to register validators")
	}

	denylist := cache.NewTokenDenylist(redisClient)
	paginator := handlers.Paginator{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}

	router := &handlers.Router{
		Users: handlers.NewUserHandler(userService, followService, denylist,
			cfg.JWT.Secret, cfg.JWT.ExpireTime, paginator, cfg.Server.BaseURL, logger),
		Recipes: handlers.NewRecipeHandler(recipeService, favoriteService, cartService, shoppingListService,
			paginator, cfg.Server.BaseURL, logger),
		Ingredients: handlers.NewIngredientHandler(ingredientService, logger),
		Auth:        &middleware.JWTConfig{Secret: cfg.JWT.Secret, Denylist: denylist},
		Logger:      logger,
	}
	engine := router.Engine()
	if local, ok := objectStorage.(*storage.LocalStorage); ok {
		engine.Static(cfg.Storage.MediaURL, local.Root())
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	stopWorkers()
	if err := mediaWorker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop media worker")
	}

	logger.Info("Server exited")
}

func init() {
	dirs := []string{"configs", "media"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("Failed to create directory %s: %v", dir, err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  base_url: ""
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "foodgram"
  password: "foodgram"
  dbname: "foodgram"
  sslmode: "disable"
  max_open_conns: 50
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 20
  min_idle_conns: 5

kafka:
  brokers:
    - "localhost:9092"
  group_id: "foodgram-media-worker"
  topics:
    recipe_events: "recipe-events"

jwt:
  secret: "change-me-in-production"
  expire_time: 24h

storage:
  driver: "local"   # local or s3
  media_root: "media"
  media_url: "/media"
  s3:
    bucket: ""
    region: "auto"
    endpoint: ""
    access_key: ""
    secret_key: ""
    public_url: ""

catalog:
  cache_ttl: 1h

pagination:
  default_limit: 6
  max_limit: 100

log:
  level: "info"`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
