package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/doctrack/internal/config"
	"github.com/MrJamesThe3rd/doctrack/internal/database"
	"github.com/MrJamesThe3rd/doctrack/internal/library"
	libraryStore "github.com/MrJamesThe3rd/doctrack/internal/library/store"
	"github.com/MrJamesThe3rd/doctrack/internal/notify"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
	routingStore "github.com/MrJamesThe3rd/doctrack/internal/routing/store"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "doctrack",
	Short: "Doctrack administration CLI",
	Long: `Doctrack routes documents between offices.
This CLI covers the operator side: schema migrations, action library imports,
overdue reports and sweeps, document archives and local API tokens.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(libraryCmd())
	rootCmd.AddCommand(overdueCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// app holds the services a command needs. withApp drains pending
// notifications before the database closes.
type app struct {
	cfg        *config.Config
	db         *sql.DB
	dispatcher *notify.Dispatcher
	library    *library.Service
	routing    *routing.Service
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.ConnectionString(), database.DefaultPool)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var sender notify.Sender = notify.LogSender{Logger: logger}
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret, cfg.Notify.Timeout)
	}

	dispatcher := notify.NewDispatcher(sender, notify.Config{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
		Timeout:   cfg.Notify.Timeout,
	})

	libraryService := library.NewService(libraryStore.New(db))

	a := &app{
		cfg:        cfg,
		db:         db,
		dispatcher: dispatcher,
		library:    libraryService,
		routing: routing.NewService(
			routingStore.New(db, cfg.DB.LockTimeout),
			libraryService,
			dispatcher,
			routing.WithMaxAttempts(cfg.Workflow.MaxAttempts),
		),
	}

	runErr := fn(ctx, a)

	if err := dispatcher.Close(ctx); err != nil {
		logger.Warn("notifications still queued", "error", err)
	}

	return runErr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
