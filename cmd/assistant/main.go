package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/aadee-assistant/internal/availability"
	"github.com/Proton-105/aadee-assistant/internal/backend"
	"github.com/Proton-105/aadee-assistant/internal/booking"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/health"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/internal/lifecycle"
	"github.com/Proton-105/aadee-assistant/internal/middleware"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/internal/widget"
	"github.com/Proton-105/aadee-assistant/pkg/config"
	"github.com/Proton-105/aadee-assistant/pkg/graceful"
	"github.com/Proton-105/aadee-assistant/pkg/logger"
	"github.com/Proton-105/aadee-assistant/pkg/metrics"
	redisclient "github.com/Proton-105/aadee-assistant/pkg/redis"
)

const (
	shutdownTimeout  = 15 * time.Second
	cleanupInterval  = time.Minute
	idempotencyTTL   = 24 * time.Hour
	rateLimitMaxAge  = time.Hour
	stateMetricsTick = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aadee assistant: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load(config.DefaultDir)
	if err != nil {
		return err
	}

	// The console owns stdout, so its logs go to stderr.
	var logOut io.Writer = os.Stdout
	if cfg.Widget.Frontend == "console" {
		logOut = os.Stderr
	}

	logs := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Sentry:     cfg.Sentry.Enabled,
		Output:     logOut,
	})
	log := logs.Logger
	slog.SetDefault(log)

	log.Info("starting aadee assistant",
		slog.String("env", cfg.AppEnv),
		slog.String("frontend", cfg.Widget.Frontend),
		slog.String("backend", cfg.Backend.URL),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			log.Warn("sentry init failed", slog.Any("error", err))
		}
	}

	config.Watch(v, log, func(next *config.Config) {
		logs.SetLevel(next.Log.Level)
	})

	loc, err := time.LoadLocation(cfg.Widget.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using local", slog.String("timezone", cfg.Widget.Timezone))
		loc = time.Local
	}

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	var rc *redisclient.Client
	if cfg.Redis.Enabled {
		rc, err = redisclient.New(ctx, redisclient.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		shutdown.Register("redis", func(context.Context) error { return rc.Close() })
	}

	var redisMetrics *redisclient.MetricsClient
	if rc != nil {
		redisMetrics = redisclient.NewMetricsClient(rc)
		checker.AddCheck("redis", health.NewPingChecker(redisMetrics))
	}

	client := backend.NewClient(backend.Options{
		BaseURL:        cfg.Backend.URL,
		Timeout:        cfg.Backend.Timeout,
		BreakerEnabled: cfg.Backend.BreakerEnabled,
	}, log)
	checker.AddCheck("backend", health.NewPingChecker(client))

	catalog, err := i18n.Load(cfg.Widget.Language)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	tr := catalog.Translator(cfg.Widget.Language)

	var idemStore idempotency.Store
	var idemCleaner *idempotency.Cleaner
	if rc != nil {
		idemStore = idempotency.NewRedisStore(rc.Client, log)
		idemCleaner = idempotency.NewCleaner(rc.Client, log, cleanupInterval, idempotencyTTL)
	} else {
		memStore := idempotency.NewMemoryStore()
		idemStore = memStore
		idemCleaner = idempotency.NewMemoryCleaner(memStore, log, cleanupInterval)
	}
	idem := idempotency.NewManager(idemStore, log)

	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)
	flow.RegisterTransitionRecorder(metrics.RecordStateTransition)

	machine := flow.NewMachine(flow.Config{
		Prompts:    flow.NewPrompts(tr),
		Location:   loc,
		WindowDays: cfg.Widget.AvailabilityDays,
	}, log)

	services := widget.Services{
		Availability: availability.NewGrouper(client, loc, log),
		Chat:         client,
		Booking:      booking.NewSubmitter(client, idem, log),
		Errors:       errHandler,
	}

	registry := widget.NewRegistry(newWidgetFactory(cfg, machine, services, redisMetrics, log), log)

	limiter, limitCleaner := newLimiter(rc, log)
	guard := ratelimit.NewGuard(limiter, cfg.RateLimit, log)

	go idemCleaner.Run(ctx)
	go limitCleaner.Run(ctx)
	go widget.NewCleaner(registry, log, cfg.Widget.IdleTTL, cleanupInterval).Run(ctx)
	go metrics.NewStateCollector(registry, stateMetricsTick).Run(ctx)

	probes := lifecycle.NewProbes(checker, log)
	shutdown.Register("probes", func(context.Context) error {
		probes.Drain()
		return nil
	})

	ops := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           opsRouter(probes, log),
		ReadHeaderTimeout: 5 * time.Second,
	}, shutdownTimeout)
	go func() {
		if err := ops.ListenAndServe(ctx); err != nil {
			log.Error("ops server failed", slog.Any("error", err))
		}
	}()

	app := frontendDeps{
		cfg:        cfg,
		registry:   registry,
		guard:      guard,
		idem:       idem,
		translator: tr,
		errors:     errHandler,
		loc:        loc,
		checker:    checker,
		shutdown:   shutdown,
		log:        log,
	}
	runErr := runFrontend(ctx, stop, app)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}
	if cfg.Sentry.Enabled {
		sentry.Flush(2 * time.Second)
	}

	log.Info("aadee assistant stopped")
	if err := logs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close logs: %v\n", err)
	}

	return runErr
}

// newLimiter prefers Redis with an in-memory fallback, or memory alone without Redis.
func newLimiter(rc *redisclient.Client, log *slog.Logger) (ratelimit.Limiter, *ratelimit.Cleaner) {
	memory := ratelimit.NewMemoryLimiter(log)
	if rc == nil {
		return memory, ratelimit.NewCleaner(nil, memory, log, cleanupInterval, rateLimitMaxAge)
	}

	primary := ratelimit.NewRedisLimiter(rc.Client, log)
	return ratelimit.NewAdaptiveLimiter(primary, memory, log),
		ratelimit.NewCleaner(rc.Client, memory, log, cleanupInterval, rateLimitMaxAge)
}

func opsRouter(probes *lifecycle.Probes, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.Middleware)
	r.Use(middleware.Logging(log))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", probes.LivenessHandler)
	r.Get("/readyz", probes.ReadinessHandler)
	return r
}
