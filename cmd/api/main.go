package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/config"
	"github.com/nextelBIS/minubo-event-ingest/internal/handler"
	"github.com/nextelBIS/minubo-event-ingest/internal/logger"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository/redshift"
	"github.com/nextelBIS/minubo-event-ingest/internal/secrets"
	"github.com/nextelBIS/minubo-event-ingest/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting ingest API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize credential resolver
	resolver, err := secrets.NewResolver(ctx, cfg.AWS, log)
	if err != nil {
		log.Fatal("Failed to create credential resolver", zap.Error(err))
	}

	// Initialize Redshift Data API client
	redshiftClient, err := redshift.NewClient(ctx, cfg.AWS, log)
	if err != nil {
		log.Fatal("Failed to create Redshift client", zap.Error(err))
	}

	// Initialize repository
	repo := redshift.NewRepository(redshiftClient, redshift.PollPolicy{
		Timeout:  time.Duration(cfg.Redshift.PersistTimeoutSec) * time.Second,
		Interval: time.Duration(cfg.Redshift.PollIntervalMs) * time.Millisecond,
	}, log)

	// Initialize event service
	eventService := service.NewEventService(resolver, repo, cfg.Redshift, log)

	// Initialize handler
	h := handler.NewHandler(eventService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
