package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fpattend/internal/config"
	"fpattend/internal/logging"
	"fpattend/internal/queue"
	"fpattend/internal/scanfeed"
	"fpattend/internal/store"
)

// Worker consumes accepted-scan events from Redis and keeps the scan feed current.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{JSON: cfg.LogJSON, Level: cfg.LogLevel, Service: "worker"})

	if cfg.QueueBackend != config.BackendRedis {
		log.Error("worker requires QUEUE_BACKEND=redis; the memory queue is consumed inside the api process")
		os.Exit(1)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		log.Error("redis config invalid", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	if err := redisClient.WaitReady(ctx, 10, time.Second); err != nil {
		log.Error("redis unavailable", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	feed := scanfeed.NewRedisFeed(redisClient.Client, "")

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Error("queue consume init failed", "err", err)
		os.Exit(1)
	}

	log.Info("worker started, waiting for messages", "queue", cfg.QueueKey)
	if err := scanfeed.NewConsumer(feed, log, nil).Run(ctx, messages); err != nil {
		log.Error("worker failed", "err", err)
	}
	log.Info("worker stopped")
}
