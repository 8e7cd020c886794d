package main

import (
	"context"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/damione1/recording-view/internal/cli"
	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/handlers"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/services"
	_ "github.com/damione1/recording-view/pb_migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.WithError(err).Fatal("Failed to load config")
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Logger.WithError(err).Fatal("Failed to configure logger")
	}

	app := pocketbase.New()
	cli.Register(app.RootCmd)

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	store := services.NewSessionStore(app)
	manager := services.NewSessionManager(store, hub, metrics, cfg.CoalesceWindow)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := &handlers.Dependencies{
		Store:   store,
		Manager: manager,
		Hub:     hub,
		Metrics: metrics,
		Config:  cfg,
	}

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		go hub.Run(ctx)

		handlers.RegisterRoutes(se, deps)

		logger.Logger.WithField("coalesce_window", cfg.CoalesceWindow).Info("🎬 Recording view routes registered")
		return se.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		manager.CloseAll()
		cancel()
		return e.Next()
	})

	if err := app.Start(); err != nil {
		logger.Logger.WithError(err).Fatal("Server stopped")
	}
}
