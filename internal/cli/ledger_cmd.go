package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
)

func newLedgerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the validation audit trail",
	}

	cmd.AddCommand(
		newLedgerHistoryCmd(app),
		newLedgerVerifyCmd(app),
	)

	return cmd
}

func newLedgerHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <declaration-id>",
		Short: "Show all decisions recorded for a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := app.Progress.LedgerHistory(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatLedger(records))
			return nil
		},
	}
}

func newLedgerVerifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <project>",
		Short: "Recompute integrity hashes across the project's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			issues, err := app.Progress.VerifyLedger(ctx, projectID)
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Println(formatter.StyleGreen.Render("Ledger intact: all records verify."))
				return nil
			}
			fmt.Println(formatter.StyleRed.Render(fmt.Sprintf("%d corrupt record(s):", len(issues))))
			for _, issue := range issues {
				rec := issue.Record
				fmt.Printf("  %s  declaration %s  decided %s\n",
					rec.ID(), rec.DeclarationID(), rec.DecidedAt().Format("2006-01-02 15:04"))
			}
			return fmt.Errorf("ledger verification failed")
		},
	}
}
