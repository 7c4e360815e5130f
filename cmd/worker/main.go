package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/config"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/services"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/workers"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/cache"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting notification worker...")

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RelationshipEvents, "notification-worker-group")
	defer consumer.Close()

	statusCache := services.NewRedisStatusCache(redisClient, cfg.Graph.StatusCacheTTL, logger)
	worker := workers.NewNotificationWorker(consumer, statusCache, logger)

	go func() {
		if err := worker.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("Notification worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	if err := worker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop notification worker")
	}

	logger.Info("Worker exited")
}
