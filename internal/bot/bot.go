// Package bot serves the scheduling assistant over Telegram.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/aadee-assistant/internal/bot/handlers"
	"github.com/Proton-105/aadee-assistant/internal/bot/keyboard"
	errors "github.com/Proton-105/aadee-assistant/internal/errors"
	"github.com/Proton-105/aadee-assistant/internal/i18n"
	"github.com/Proton-105/aadee-assistant/internal/idempotency"
	"github.com/Proton-105/aadee-assistant/internal/middleware"
	"github.com/Proton-105/aadee-assistant/internal/ratelimit"
	"github.com/Proton-105/aadee-assistant/pkg/config"
)

// Deps are the collaborators the bot routes updates to.
type Deps struct {
	Conversations handlers.Conversations
	Guard         *ratelimit.Guard
	Idempotency   idempotency.Manager
	Translator    i18n.Translator
	Keyboard      *keyboard.Builder
	Errors        *errors.Handler
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	router  *Router
	log     *slog.Logger
}

// New builds a telegram bot configured for long polling or a webhook.
func New(cfg config.BotConfig, deps Deps, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{Token: cfg.Token}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Webhook.Listen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot: tb,
		router:  NewRouter(log),
		log:     log,
	}
	registerRoutes(b.router, deps, log)

	tb.Handle(telebot.OnText, b.router.Route)
	tb.Handle(telebot.OnCallback, b.router.Route)

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// registerRoutes wires middlewares and handlers onto r.
func registerRoutes(r *Router, deps Deps, log *slog.Logger) {
	presenter := NewPresenter(deps.Keyboard, deps.Translator, log)

	r.Use(RecoveryMiddleware(log, deps.Errors))
	r.Use(middleware.Idempotency(deps.Idempotency, log))
	r.Use(ErrorHandlingMiddleware(deps.Errors))
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.RateLimit(deps.Guard, deps.Translator, log))
	r.Use(middleware.Metrics)

	start := handlers.NewStartHandler(deps.Conversations, presenter, log)
	schedule := handlers.NewScheduleHandler(deps.Conversations, presenter)

	r.RegisterCommand(CommandStart, start)
	r.RegisterCommand(CommandCancel, start)
	r.RegisterCommand(CommandSchedule, schedule)
	r.RegisterCommand(CommandHelp, handlers.NewHelpHandler(deps.Translator))

	r.RegisterCallback(keyboard.ActionSchedule, handlers.CallbackHandler(schedule))
	r.RegisterCallback(keyboard.ActionSlot, handlers.NewSlotHandler(deps.Conversations, presenter, deps.Translator, log))
	r.RegisterCallback(keyboard.ActionTimes, handlers.NewTimesHandler(deps.Conversations, presenter))
	r.RegisterCallback(keyboard.ActionDay, handlers.NewDayHandler(deps.Conversations, presenter))

	r.SetDefault(handlers.NewTextHandler(deps.Conversations, presenter, keyboard.ScheduleLabel(deps.Translator)))
}
