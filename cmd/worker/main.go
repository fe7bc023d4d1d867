package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/logger"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	cfg := config.Load()
	zlog := logger.Must(cfg.Server.Env)
	defer zlog.Sync()

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Server.Env,
		Release:     cfg.Sentry.Release,
	}); err != nil {
		zlog.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()
	kv, closeKV, err := services.NewKeyValueStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("[Queue] failed to open key-value store", zap.Error(err))
	}
	defer closeKV()

	images, err := services.NewImageStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("[Queue] failed to initialize image store", zap.Error(err))
	}
	llm, err := services.NewStylistLLM(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("[Queue] failed to initialize gemini client", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(cfg.Server.WorkerMetricsAddr, mux); err != nil {
			zlog.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	workflows := services.NewWorkflowStore(kv, cfg.Workflow.StaleAfter)
	processor := tasks.NewProcessor(kv, workflows, images, llm, cfg.Gemini.ImageMaxSide, metrics, zlog)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.BrokerAddr, Password: cfg.Redis.Password},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueName: 7,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				sentry.CaptureException(err)
				zlog.Error("[Queue] task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)
	if err := srv.Run(tasks.NewServeMux(processor)); err != nil {
		zlog.Fatal("[Queue] worker stopped", zap.Error(err))
	}
}
