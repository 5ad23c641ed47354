package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/config"
	"github.com/pawkart/backend/internal/db"
	"github.com/pawkart/backend/internal/notify"
	"github.com/pawkart/backend/internal/obs"
	"github.com/pawkart/backend/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("component", "worker").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "pawkart-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	taskRedis := asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB}

	worker := notify.Worker{
		Mail:    common.NopEmailSender{},
		Carts:   repo.CartsRepo{Pool: pool},
		CartTTL: cfg.CartTTL,
		Logger:  logger,
	}
	mux := asynq.NewServeMux()
	worker.Register(mux)

	srv := asynq.NewServer(taskRedis, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"default": 1},
	})

	scheduler := asynq.NewScheduler(taskRedis, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(notify.TaskPurgeCarts, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register cart purge schedule")
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal().Err(err).Msg("scheduler stopped")
		}
	}()

	go func() {
		logger.Info().Msg("worker starting")
		if err := srv.Run(mux); err != nil {
			logger.Fatal().Err(err).Msg("worker stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
