package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/backoffice/internal/app"
	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/observability"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
	"github.com/odyssey-erp/backoffice/internal/platform/db"
	"github.com/odyssey-erp/backoffice/internal/platform/money"
	"github.com/odyssey-erp/backoffice/internal/savedfilters"
	"github.com/odyssey-erp/backoffice/internal/view"
	"github.com/odyssey-erp/backoffice/internal/views"
	"github.com/odyssey-erp/backoffice/internal/views/logger"
	"github.com/odyssey-erp/backoffice/internal/views/payments"
	"github.com/odyssey-erp/backoffice/internal/views/stats"
	"github.com/odyssey-erp/backoffice/jobs"
)

// closingView is a mounted view whose sessions are swept and closed.
type closingView interface {
	app.ViewRoutes
	Run(ctx context.Context, interval time.Duration)
	Sessions() int
	Close() error
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "warmup" {
		if err := enqueueWarmup(ctx, cfg); err != nil {
			log.Error("enqueue warmup", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		log.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	templates, err := view.NewEngine()
	if err != nil {
		log.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	formatter, err := money.NewFormatter(cfg.Locale)
	if err != nil {
		log.Error("locale", slog.Any("error", err))
		os.Exit(1)
	}

	validate := validator.New()
	metrics := observability.NewMetrics()
	saved := savedfilters.NewService(savedfilters.NewPGStore(pool), validate)

	statsService := stats.NewService(stats.NewRepository(pool), cache.NewJSONCache(redisClient, "stats", cfg.StatsCacheTTL))
	nav := []string{stats.Name, logger.Name, payments.Name}
	handlerCfg := views.HandlerConfig{
		Options: views.Options{
			Retry:     filterview.RetryPolicy{MaxAttempts: cfg.LoadRetryAttempts},
			Debounce:  cfg.LoadDebounce,
			Validator: validate,
			Metrics:   metrics.Views(),
		},
		Templates:  templates,
		Saved:      saved,
		Logger:     log,
		SessionTTL: cfg.ViewSessionTTL,
		Wait:       cfg.LoadWait,
		Nav:        nav,
	}
	handlers := []closingView{
		views.NewHandler(stats.Definition(statsService, time.Now, formatter), handlerCfg),
		views.NewHandler(logger.Definition(logger.NewService(logger.NewRepository(pool), cfg.RowLimit)), handlerCfg),
		views.NewHandler(payments.Definition(payments.NewService(payments.NewRepository(pool), cfg.RowLimit), formatter), handlerCfg),
	}
	routes := make([]app.ViewRoutes, 0, len(handlers))
	for _, h := range handlers {
		routes = append(routes, h)
		metrics.TrackSessions(h.Name(), h.Sessions)
		go h.Run(ctx, time.Minute)
	}
	defer func() {
		for _, h := range handlers {
			if err := h.Close(); err != nil {
				log.Warn("close view sessions", slog.String("view", h.Name()), slog.Any("error", err))
			}
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			log.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:     log,
		Config:     cfg,
		Views:      routes,
		JobHandler: jobs.NewHandler(inspector, log),
		Metrics:    metrics,
		Auth:       app.BasicAuth(cfg.AdminUser, []byte(cfg.AdminPasswordHash), log),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		log.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", slog.Any("error", err))
	}
}

func enqueueWarmup(ctx context.Context, cfg *app.Config) error {
	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer client.Close()
	info, err := client.EnqueueStatsWarmup(ctx, jobs.StatsWarmupPayload{Days: 1})
	if err != nil {
		return err
	}
	slog.Default().Info("enqueued stats warmup", slog.String("id", info.ID))
	return nil
}
