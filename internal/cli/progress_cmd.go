package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
)

func newProgressCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Progress reports and S-curves",
	}

	cmd.AddCommand(
		newProgressProjectCmd(app),
		newProgressTaskCmd(app),
	)

	return cmd
}

func newProgressProjectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "project <project>",
		Short: "Full progress report with planned and actual curves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			report, err := app.Progress.ProjectReport(ctx, projectID)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatProjectReport(report))
			return nil
		},
	}
}

func newProgressTaskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "task <task-id>",
		Short: "Per-task progress detail and declaration history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Progress.TaskReport(context.Background(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(formatter.Header(report.Task.Name))
			fmt.Printf("%s %s\n", formatter.StyleDim.Render("done:   "),
				formatter.RenderProgress(report.Progress.ValidatedPct, 30))
			fmt.Printf("%s %s\n", formatter.StyleDim.Render("planned:"),
				formatter.RenderProgress(report.Progress.PlannedPct, 30))
			fmt.Printf("%s %s\n", formatter.StyleDim.Render("dev:    "),
				formatter.DeviationText(report.Progress.DeviationPct))
			if report.Progress.DelayDays > 0 {
				fmt.Printf("%s %d days\n", formatter.StyleRed.Render("late:"), report.Progress.DelayDays)
			}
			fmt.Println()
			fmt.Print(formatter.FormatDeclarationList(report.History))
			return nil
		},
	}
}
