package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
	"github.com/lbenicio/sitetrack/internal/domain"
)

func newDeclareCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "declare",
		Short: "Record and submit progress declarations",
	}

	cmd.AddCommand(
		newDeclareAddCmd(app),
		newDeclareAttachCmd(app),
		newDeclareSubmitCmd(app),
		newDeclareResubmitCmd(app),
		newDeclareResetCmd(app),
		newDeclareListCmd(app),
	)

	return cmd
}

func newDeclareAddCmd(app *App) *cobra.Command {
	var taskID, execDate, comment string
	var pct float64
	var proofs int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Declare cumulative progress on a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag("date", execDate)
			if err != nil {
				return err
			}
			d := &domain.ProgressDeclaration{
				TaskID:        taskID,
				DeclaredPct:   pct,
				ExecutionDate: date,
				Comment:       comment,
				ProofCount:    proofs,
				DeclaredBy:    actorFromFlags(cmd).ID,
			}
			if err := app.Declarations.Create(context.Background(), d); err != nil {
				return err
			}
			fmt.Printf("Declared %.1f%% on task %s (declaration %s)\n", d.DeclaredPct, taskID, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "Task ID")
	cmd.Flags().Float64Var(&pct, "pct", 0, "Cumulative completion percentage")
	cmd.Flags().StringVar(&execDate, "date", "", "Execution date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&comment, "comment", "", "Justification comment")
	cmd.Flags().IntVar(&proofs, "proofs", 0, "Number of attached proof documents")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("pct")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newDeclareAttachCmd(app *App) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "attach <declaration-id>",
		Short: "Record attached proof documents on a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Declarations.AttachProof(context.Background(), args[0], count); err != nil {
				return err
			}
			fmt.Printf("Recorded %d proof document(s).\n", count)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "Number of proof documents to record")
	return cmd
}

func newDeclareSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <declaration-id>",
		Short: "Submit a declaration for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Declarations.Submit(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Declaration submitted.")
			return nil
		},
	}
}

func newDeclareResubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <declaration-id>",
		Short: "Resubmit a corrected declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Declarations.ResubmitAfterCorrection(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Declaration resubmitted.")
			return nil
		},
	}
}

func newDeclareResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <declaration-id>",
		Short: "Return a rejected or corrected declaration to draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Declarations.ResetDraft(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Declaration back in draft.")
			return nil
		},
	}
}

func newDeclareListCmd(app *App) *cobra.Command {
	var taskID string

	cmd := &cobra.Command{
		Use:   "list <project>",
		Short: "List declarations for a project or task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var decls []*domain.ProgressDeclaration
			if taskID != "" {
				var err error
				decls, err = app.Declarations.ListByTask(ctx, taskID)
				if err != nil {
					return err
				}
			} else {
				projectID, err := resolveProjectID(ctx, app, args[0])
				if err != nil {
					return err
				}
				decls, err = app.Declarations.ListByProject(ctx, projectID)
				if err != nil {
					return err
				}
			}
			fmt.Print(formatter.FormatDeclarationList(decls))
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "Filter by task ID")
	return cmd
}
