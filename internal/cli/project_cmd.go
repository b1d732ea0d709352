package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
	"github.com/lbenicio/sitetrack/internal/domain"
)

// resolveProjectID accepts a project code, full ID, or unambiguous ID prefix.
func resolveProjectID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project is required")
	}

	projects, err := app.Projects.List(ctx)
	if err != nil {
		return "", err
	}

	for _, p := range projects {
		if strings.EqualFold(p.Code, input) {
			return p.ID, nil
		}
	}
	for _, p := range projects {
		if p.ID == input {
			return p.ID, nil
		}
	}

	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and their lifecycle",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectInspectCmd(app),
		newProjectTransitionCmd(app, "plan", "Mark the project as planned", func(ctx context.Context, id string, actor domain.Actor, _ string) error {
			return app.Projects.MarkPlanned(ctx, id, actor)
		}, false),
		newProjectTransitionCmd(app, "start", "Start project execution", func(ctx context.Context, id string, actor domain.Actor, _ string) error {
			return app.Projects.Start(ctx, id, actor)
		}, false),
		newProjectTransitionCmd(app, "at-risk", "Flag the project as at risk", func(ctx context.Context, id string, actor domain.Actor, reason string) error {
			return app.Projects.FlagAtRisk(ctx, id, actor, reason)
		}, true),
		newProjectTransitionCmd(app, "suspend", "Suspend project execution", func(ctx context.Context, id string, actor domain.Actor, reason string) error {
			return app.Projects.Suspend(ctx, id, actor, reason)
		}, true),
		newProjectTransitionCmd(app, "resume", "Resume a suspended or at-risk project", func(ctx context.Context, id string, actor domain.Actor, _ string) error {
			return app.Projects.Resume(ctx, id, actor)
		}, false),
		newProjectTransitionCmd(app, "close", "Close a completed project", func(ctx context.Context, id string, actor domain.Actor, _ string) error {
			return app.Projects.Close(ctx, id, actor)
		}, false),
		newProjectRemoveCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var name, code, start, end string
	var budget float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Project{
				Name:   name,
				Code:   strings.ToUpper(code),
				State:  domain.ProjectDraft,
				Budget: budget,
			}
			if start != "" {
				d, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
				p.PlannedStart = &d
			}
			if end != "" {
				d, err := time.Parse("2006-01-02", end)
				if err != nil {
					return fmt.Errorf("invalid end date %q: %w", end, err)
				}
				p.PlannedEnd = &d
			}

			if err := app.Projects.Create(context.Background(), p); err != nil {
				return err
			}
			fmt.Printf("Created project %s [%s]\n", p.Name, p.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&code, "code", "", "Short project code, e.g. RR2025")
	cmd.Flags().StringVar(&start, "start", "", "Planned start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Planned end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Contract budget")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newProjectInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project>",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Projects.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatProject(p))
			return nil
		},
	}
}

func newProjectTransitionCmd(app *App, use, short string, apply func(ctx context.Context, id string, actor domain.Actor, reason string) error, needsReason bool) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   use + " <project>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := apply(ctx, id, actorFromFlags(cmd), reason); err != nil {
				return err
			}
			p, err := app.Projects.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", p.Name, p.State)
			return nil
		},
	}
	if needsReason {
		cmd.Flags().StringVar(&reason, "reason", "", "Reason for the state change")
	}
	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete a draft project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Println("Project removed.")
			return nil
		},
	}
}
