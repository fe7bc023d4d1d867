package main

import (
	"context"
	"log"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/controllers"
	"wardrobeapi/logger"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	cfg := config.Load()
	zlog := logger.Must(cfg.Server.Env)
	defer zlog.Sync()

	if cfg.JWT.Secret == "" {
		zlog.Fatal("JWT_SECRET environment variable is not set!")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Server.Env,
		Release:          cfg.Sentry.Release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		zlog.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()
	kv, closeKV, err := services.NewKeyValueStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("failed to open key-value store", zap.Error(err))
	}
	defer closeKV()

	images, err := services.NewImageStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize image store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)
	workflows := services.NewWorkflowStore(kv, cfg.Workflow.StaleAfter)

	var dispatcher tasks.Dispatcher
	switch cfg.Server.DispatchMode {
	case "inline":
		llm, err := services.NewStylistLLM(ctx, cfg, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize gemini client", zap.Error(err))
		}
		processor := tasks.NewProcessor(kv, workflows, images, llm, cfg.Gemini.ImageMaxSide, metrics, zlog)
		inline := &tasks.InlineDispatcher{Handler: tasks.NewServeMux(processor), Async: true, Logger: zlog}
		defer inline.Wait()
		dispatcher = inline
	default:
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.BrokerAddr, Password: cfg.Redis.Password})
		defer asynqClient.Close()
		dispatcher = &tasks.AsynqDispatcher{Client: asynqClient, Logger: zlog}
	}

	e := controllers.SetupServer(controllers.Services{
		KV:         kv,
		Accounts:   services.NewAccountService(kv, cfg.JWT.BcryptCost),
		Workflows:  workflows,
		Images:     images,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Gatherer:   registry,
		Logger:     zlog,
		JWTSecret:  cfg.JWT.Secret,
		JWTExpiry:  cfg.JWT.Expiry,
	})
	e.Debug = !cfg.IsProduction()
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	zlog.Info("starting api", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Server.StorageBackend), zap.String("dispatch", cfg.Server.DispatchMode))
	e.Logger.Fatal(e.Start(":" + cfg.Server.Port))
}
