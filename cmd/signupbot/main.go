package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/karimelhady/signupbot/bot"
	"github.com/karimelhady/signupbot/core/config"
	"github.com/karimelhady/signupbot/core/database"
	"github.com/karimelhady/signupbot/core/logger"
	coretelegram "github.com/karimelhady/signupbot/core/telegram"
	"github.com/karimelhady/signupbot/registration"
	regpostgres "github.com/karimelhady/signupbot/registration/postgres"
	"github.com/karimelhady/signupbot/stats"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("signupbot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := stats.New()
	store := regpostgres.New(db)
	machine := registration.NewMachine(store, collector)
	router := registration.NewRouter(registration.RouterOptions{
		Machine:    machine,
		CatchAll:   registration.NewCatchAll(store),
		SessionTTL: time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		Window:     time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		MaxStarts:  cfg.RateLimit.MaxStarts,
		Stats:      collector,
	})
	app := bot.New(router, collector, cfg.Telegram.AdminID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	return coretelegram.Run(ctx, coretelegram.RunOptions{
		Config:      cfg,
		Middlewares: app.Middlewares(),
		Routes:      app.Routes(),
		Commands:    app.Commands(),
		OnStart: func(context.Context, *tele.Bot) error {
			logger.L.Info("bot ready",
				slog.String("event", "ready"),
				slog.Duration("startup_duration", time.Since(startedAt)),
			)
			return nil
		},
		OnStop: func(context.Context, *tele.Bot) error {
			logger.L.Info("shutting down",
				slog.String("event", "shutdown"),
			)
			return nil
		},
	})
}
