package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/config"
	"github.com/aryan-vats/tubescribe-backend/internal/database"
	"github.com/aryan-vats/tubescribe-backend/internal/generator"
	"github.com/aryan-vats/tubescribe-backend/internal/handlers"
	"github.com/aryan-vats/tubescribe-backend/internal/llm"
	"github.com/aryan-vats/tubescribe-backend/internal/logging"
	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
	"github.com/aryan-vats/tubescribe-backend/internal/progress"
	"github.com/aryan-vats/tubescribe-backend/internal/routes"
	"github.com/aryan-vats/tubescribe-backend/internal/storage/mongostore"
	"github.com/aryan-vats/tubescribe-backend/internal/storage/redisstore"
	"github.com/aryan-vats/tubescribe-backend/internal/tempstore"
	"github.com/aryan-vats/tubescribe-backend/internal/transcript"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger, closeLogger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
		LokiURL:     cfg.LokiURL,
		Labels:      map[string]string{"service": "tubescribe-backend", "env": cfg.Environment},
	})
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer closeLogger()

	metrics.Init()

	logger.Info("connecting to MongoDB")
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongodb connect failed", zap.Error(err))
	}
	defer func() {
		if err := database.DisconnectMongo(mongoClient); err != nil {
			logger.Warn("mongodb disconnect", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		cancel()
		logger.Fatal("ensure indexes failed", zap.Error(err))
	}
	cancel()

	logger.Info("connecting to Redis")
	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}
	defer redisClient.Close()

	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	metrics.StartSystemPoller(pollerCtx, 30*time.Second)

	limiter := middleware.NewSlidingWindowLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerHour)
	limiter.StartSweep()
	defer limiter.StopSweep()

	sessions := redisstore.NewSessionStore(redisClient)
	users := mongostore.NewUserStore(db)
	posts := mongostore.NewPostStore(db)

	transcripts := transcript.NewService(
		transcript.NewSupadataClient(cfg.SupadataURL, cfg.SupadataKey, cfg.RequestTimeout),
		transcript.NewScraper(cfg.RequestTimeout),
		logger,
	)
	writer := llm.NewWriter(cfg.OpenAIKey, cfg.OpenAIModel)
	gen := generator.New(transcripts, writer, logger)
	hub := progress.NewHub(logger)

	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Logger:    logger,
		Users:     users,
		Posts:     posts,
		Sessions:  sessions,
		Generator: gen,
		Drafts:    tempstore.New(),
		Hub:       hub,
		MongoPing: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		RedisPing: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	authn := middleware.NewAuthenticator([]byte(cfg.JWTSecret), sessions)
	router := routes.New(cfg, logger, h, authn, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
