package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Proton-105/aadee-assistant/internal/bot"
	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	"github.com/Proton-105/aadee-assistant/internal/console"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/flow"
	"github.com/Proton-105/aadee-assistant/internal/health"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/internal/lifecycle"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/internal/session"
	"github.com/Proton-105/aadee-assistant/internal/webchat"
	"github.com/Proton-105/aadee-assistant/internal/widget"
	"github.com/Proton-105/aadee-assistant/pkg/config"
	"github.com/Proton-105/aadee-assistant/pkg/graceful"
	redisclient "github.com/Proton-105/aadee-assistant/pkg/redis"
)

const consoleProfile = "console"

type frontendDeps struct {
	cfg        *config.Config
	registry   *widget.Registry
	guard      *ratelimit.Guard
	idem       idempotency.Manager
	translator i18n.Translator
	errors     *errors.Handler
	loc        *time.Location
	checker    *health.Checker
	shutdown   *lifecycle.Shutdown
	log        *slog.Logger
}

// runFrontend serves the configured front end until ctx ends or the console user quits.
func runFrontend(ctx context.Context, stop context.CancelFunc, d frontendDeps) error {
	switch d.cfg.Widget.Frontend {
	case "telegram":
		return runTelegram(ctx, d)
	case "web":
		return runWeb(ctx, d)
	default:
		defer stop()
		w := d.registry.Get(ctx, consoleProfile)
		return console.New(w, os.Stdin, os.Stdout, d.loc, d.translator, d.log).Run(ctx)
	}
}

func runTelegram(ctx context.Context, d frontendDeps) error {
	b, err := bot.New(d.cfg.Bot, bot.Deps{
		Conversations: d.registry,
		Guard:         d.guard,
		Idempotency:   d.idem,
		Translator:    d.translator,
		Keyboard:      keyboard.NewBuilder(d.loc, d.log),
		Errors:        d.errors,
	}, d.log)
	if err != nil {
		return err
	}

	d.checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	d.shutdown.Register("telegram", func(context.Context) error {
		b.Stop()
		return nil
	})

	go b.Start()
	d.log.Info("telegram bot started", slog.String("mode", d.cfg.Bot.Mode))

	<-ctx.Done()
	return nil
}

func runWeb(ctx context.Context, d frontendDeps) error {
	h := webchat.NewHandler(webchat.Options{
		Registry:       d.registry,
		Guard:          d.guard,
		Translator:     d.translator,
		Errors:         d.errors,
		AllowedOrigins: d.cfg.Web.AllowedOrigins,
	}, d.log)

	srv := graceful.NewServer(d.log, &http.Server{
		Addr:              d.cfg.Web.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}, shutdownTimeout)

	d.log.Info("web chat listening", slog.String("addr", d.cfg.Web.Addr))
	return srv.ListenAndServe(ctx)
}

// newWidgetFactory gives each profile its own session id store. Browser sessions reuse the id
// the browser presents; other profiles persist theirs in the configured backend.
func newWidgetFactory(
	cfg *config.Config,
	machine *flow.Machine,
	services widget.Services,
	rc *redisclient.MetricsClient,
	log *slog.Logger,
) widget.Factory {
	kv := sessionKV(cfg.Session, rc, log)

	return func(profile string) *widget.Widget {
		if id, ok := strings.CutPrefix(profile, webchat.ProfilePrefix); ok {
			browser := session.NewMemoryKV()
			_ = browser.Set(context.Background(), cfg.Session.Key, id)
			return widget.New(machine, services, session.NewStore(browser, cfg.Session.Key, log), "web", log)
		}

		key, frontend := cfg.Session.Key, consoleProfile
		if profile != consoleProfile {
			key = cfg.Session.Key + ":" + profile
			frontend = "telegram"
		}
		return widget.New(machine, services, session.NewStore(kv, key, log), frontend, log)
	}
}

func sessionKV(cfg config.SessionConfig, rc *redisclient.MetricsClient, log *slog.Logger) session.KV {
	switch cfg.Backend {
	case "redis":
		if rc != nil {
			return session.NewRedisKV(rc, "session:", log)
		}
		log.Warn("session backend is redis but redis is disabled, keeping ids in memory")
		return session.NewMemoryKV()
	case "memory":
		return session.NewMemoryKV()
	default:
		path := cfg.Path
		if path == "" {
			path = fmt.Sprintf(".aadee/%s.json", cfg.Key)
		}
		return session.NewFileKV(path)
	}
}
