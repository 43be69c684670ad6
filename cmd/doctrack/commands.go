package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/doctrack/internal/config"
	"github.com/MrJamesThe3rd/doctrack/internal/database"
	"github.com/MrJamesThe3rd/doctrack/internal/export"
	"github.com/MrJamesThe3rd/doctrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/doctrack/internal/routing"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(_ context.Context, a *app) error {
				if err := database.Migrate(a.db); err != nil {
					return err
				}

				fmt.Println("migrations applied")

				return nil
			})
		},
	}
}

func libraryCmd() *cobra.Command {
	lib := &cobra.Command{Use: "library", Short: "Manage the action library"}

	imp := &cobra.Command{Use: "import", Short: "Import library rows from CSV"}
	imp.AddCommand(libraryImportCmd("actions", "Import actions from CSV",
		func(ctx context.Context, a *app, r io.Reader) (int, error) {
			return a.library.ImportActions(ctx, r)
		}))
	imp.AddCommand(libraryImportCmd("document-types", "Import document types from CSV",
		func(ctx context.Context, a *app, r io.Reader) (int, error) {
			return a.library.ImportDocumentTypes(ctx, r)
		}))

	lib.AddCommand(imp)
	lib.AddCommand(libraryListCmd())

	return lib
}

func libraryImportCmd(use, short string, fn func(context.Context, *app, io.Reader) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				n, err := fn(ctx, a, f)
				if err != nil {
					return err
				}

				fmt.Printf("imported %d %s\n", n, use)

				return nil
			})
		},
	}
}

func libraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				actions, err := a.library.Actions(ctx)
				if err != nil {
					return err
				}

				if jsonOutput {
					return printJSON(actions)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Action", "Type", "Terminal Reply", "Proof"})

				for _, act := range actions {
					tw.AppendRow(table.Row{act.Name, act.Type, act.ReplyIsTerminal, act.RequiresProof})
				}

				tw.Render()

				return nil
			})
		},
	}
}

func overdueCmd() *cobra.Command {
	var (
		officeID string
		sweep    bool
	)

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List overdue recipients",
		Long:  "List recipients past their due date. With --sweep, notify each overdue office and the originating office.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sweep && officeID != "" {
				return errors.New("--sweep covers every office; drop --office")
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				var (
					items []routing.OverdueItem
					err   error
				)

				if sweep {
					items, err = a.routing.SweepOverdue(ctx)
				} else {
					items, err = a.routing.ListOverdue(ctx, officeID)
				}

				if err != nil {
					return err
				}

				return printOverdue(items)
			})
		},
	}

	cmd.Flags().StringVar(&officeID, "office", "", "only this office")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "send overdue notifications")

	return cmd
}

type overdueRow struct {
	TransactionNo string    `json:"transaction_no"`
	DocumentNo    string    `json:"document_no"`
	OfficeID      string    `json:"office_id"`
	OfficeName    string    `json:"office_name"`
	DueDate       time.Time `json:"due_date"`
	DaysOverdue   int       `json:"days_overdue"`
}

func printOverdue(items []routing.OverdueItem) error {
	rows := make([]overdueRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, overdueRow{
			TransactionNo: it.Transaction.No,
			DocumentNo:    it.Transaction.DocumentNo,
			OfficeID:      it.Status.OfficeID,
			OfficeName:    it.Status.OfficeName,
			DueDate:       it.Status.DueDate,
			DaysOverdue:   -it.Status.DaysUntilDue,
		})
	}

	if jsonOutput {
		return printJSON(rows)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Transaction", "Document", "Office", "Due", "Days Overdue"})

	for _, r := range rows {
		tw.AppendRow(table.Row{r.TransactionNo, r.DocumentNo, r.OfficeName, r.DueDate.Format(time.DateOnly), r.DaysOverdue})
	}

	tw.AppendFooter(table.Row{"", "", "", "Total", len(rows)})
	tw.Render()

	return nil
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <document-no>",
		Short: "Download a document's attachments and routing slip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if out == "" {
					out = args[0]
				}

				archive, err := export.NewService(a.routing, a.cfg.Storage.Token).Export(ctx, args[0], out)
				if err != nil {
					return err
				}

				if jsonOutput {
					return printJSON(archive.Items)
				}

				fmt.Print(export.RoutingSlip(archive))

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (defaults to the document number)")

	return cmd
}

// tokenCmd issues a bearer token for local testing against the API.
func tokenCmd() *cobra.Command {
	var (
		actor routing.Actor
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an office user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := middleware.IssueToken(cfg.Auth.JWTSecret, actor, ttl)
			if err != nil {
				return err
			}

			fmt.Println(token)

			return nil
		},
	}

	cmd.Flags().StringVar(&actor.UserID, "user-id", "", "user id")
	cmd.Flags().StringVar(&actor.UserName, "user-name", "", "user display name")
	cmd.Flags().StringVar(&actor.Office.ID, "office-id", "", "office id")
	cmd.Flags().StringVar(&actor.Office.Name, "office-name", "", "office name")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("office-id")

	return cmd
}
