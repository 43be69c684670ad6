package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrJamesThe3rd/doctrack/internal/config"
	"github.com/MrJamesThe3rd/doctrack/internal/database"
	"github.com/MrJamesThe3rd/doctrack/internal/export"
	doctrackHttp "github.com/MrJamesThe3rd/doctrack/internal/http"
	documentHandler "github.com/MrJamesThe3rd/doctrack/internal/http/document"
	exportHandler "github.com/MrJamesThe3rd/doctrack/internal/http/export"
	libraryHandler "github.com/MrJamesThe3rd/doctrack/internal/http/library"
	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	txHandler "github.com/MrJamesThe3rd/doctrack/internal/http/transaction"
	"github.com/MrJamesThe3rd/doctrack/internal/library"
	libraryStore "github.com/MrJamesThe3rd/doctrack/internal/library/store"
	"github.com/MrJamesThe3rd/doctrack/internal/notify"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	routingStore "github.com/MrJamesThe3rd/doctrack/internal/routing/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), database.DefaultPool)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	var sender notify.Sender = notify.LogSender{Logger: logger}
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret, cfg.Notify.Timeout)
	}

	dispatcher := notify.NewDispatcher(sender, notify.Config{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
		Timeout:   cfg.Notify.Timeout,
	})

	var (
		libraryService = library.NewService(libraryStore.New(db))
		routingService = routing.NewService(
			routingStore.New(db, cfg.DB.LockTimeout),
			libraryService,
			dispatcher,
			routing.WithMaxAttempts(cfg.Workflow.MaxAttempts),
		)
		exportService = export.NewService(routingService, cfg.Storage.Token)
	)

	limiter, err := middleware.NewLimiter(cfg.Server.RateLimit)
	if err != nil {
		slog.Error("invalid rate limit", "error", err)
		os.Exit(1)
	}

	router := doctrackHttp.New(
		doctrackHttp.Config{
			JWTSecret:      cfg.Auth.JWTSecret,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Limiter:        limiter,
			Logger:         logger,
		},
		txHandler.NewHandler(routingService),
		documentHandler.NewHandler(routingService),
		libraryHandler.NewHandler(libraryService),
		exportHandler.NewHandler(exportService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Warn("notifications still queued at shutdown", "error", err)
	}
}
