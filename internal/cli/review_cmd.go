package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
	"github.com/lbenicio/sitetrack/internal/domain"
)

func newReviewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review submitted progress declarations",
	}

	cmd.AddCommand(
		newReviewPendingCmd(app),
		newReviewStartCmd(app),
		newReviewDecideCmd(app),
	)

	return cmd
}

func newReviewPendingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <project>",
		Short: "List declarations awaiting a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			decls, err := app.Declarations.ListPendingByProject(ctx, projectID)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatDeclarationList(decls))
			return nil
		},
	}
}

func newReviewStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <declaration-id>",
		Short: "Take a submitted declaration under review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Declarations.StartReview(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Declaration under review.")
			return nil
		},
	}
}

func newReviewDecideCmd(app *App) *cobra.Command {
	var decision, comment string

	cmd := &cobra.Command{
		Use:   "decide <declaration-id>",
		Short: "Validate, reject, or request correction of a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id := args[0]
			actor := actorFromFlags(cmd)

			d := domain.Decision(decision)
			switch d {
			case domain.DecisionValidated, domain.DecisionRejected, domain.DecisionCorrectionRequested:
			default:
				return fmt.Errorf("unknown decision %q (validated, rejected, correction_requested)", decision)
			}

			if comment == "" && app.IsInteractive != nil && app.IsInteractive() {
				if err := runDecisionForm(d, &comment); err != nil {
					return err
				}
			}

			var err error
			switch d {
			case domain.DecisionValidated:
				err = app.Declarations.Validate(ctx, id, actor, comment)
			case domain.DecisionRejected:
				err = app.Declarations.Reject(ctx, id, actor, comment)
			default:
				err = app.Declarations.RequestCorrection(ctx, id, actor, comment)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Decision recorded: %s\n", decision)
			return nil
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "validated, rejected, or correction_requested")
	cmd.Flags().StringVar(&comment, "comment", "", "Decision comment (mandatory for rejections and corrections)")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

// runDecisionForm collects the decision comment interactively.
func runDecisionForm(decision domain.Decision, comment *string) error {
	title := "Comment (optional)"
	if decision.RequiresComment() {
		title = fmt.Sprintf("Comment (min %d characters)", domain.MinDecisionCommentLen)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Value(comment).
				Validate(func(s string) error {
					if decision.RequiresComment() && len(s) < domain.MinDecisionCommentLen {
						return fmt.Errorf("at least %d characters required", domain.MinDecisionCommentLen)
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return form.Run()
}
