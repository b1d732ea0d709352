package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lbenicio/sitetrack/internal/cli/formatter"
	"github.com/lbenicio/sitetrack/internal/domain"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build and approve planning documents",
	}

	cmd.AddCommand(
		newPlanCreateCmd(app),
		newPlanShowCmd(app),
		newPlanAddLotCmd(app),
		newPlanAddTaskCmd(app),
		newPlanSubmitCmd(app),
		newPlanApproveCmd(app),
		newPlanRejectCmd(app),
		newPlanResetCmd(app),
	)

	return cmd
}

func parseDateFlag(name, value string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return d, nil
}

func newPlanCreateCmd(app *App) *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Create a new plan revision for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			plan, err := app.Plans.CreatePlan(ctx, projectID, reference)
			if err != nil {
				return err
			}
			fmt.Printf("Created plan %s (%s)\n", plan.Reference, plan.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "ref", "", "Plan reference (generated when omitted)")
	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a plan with its lots and weighted tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			structure, err := app.Plans.GetPlan(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatPlanStructure(structure))
			return nil
		},
	}
}

func newPlanAddLotCmd(app *App) *cobra.Command {
	var name, start, end string

	cmd := &cobra.Command{
		Use:   "add-lot <plan-id>",
		Short: "Add a work lot to a draft plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStart, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			dateEnd, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}
			lot := &domain.Lot{
				PlanID:    args[0],
				Name:      name,
				DateStart: dateStart,
				DateEnd:   dateEnd,
			}
			if err := app.Plans.AddLot(context.Background(), lot); err != nil {
				return err
			}
			fmt.Printf("Added lot %s (%s)\n", lot.Name, lot.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Lot name")
	cmd.Flags().StringVar(&start, "start", "", "Lot start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Lot end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newPlanAddTaskCmd(app *App) *cobra.Command {
	var name, lotID, start, end, parent string
	var weight float64

	cmd := &cobra.Command{
		Use:   "add-task <plan-id>",
		Short: "Add a weighted task to a draft plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStart, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			dateEnd, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}
			task := &domain.Task{
				PlanID:    args[0],
				LotID:     lotID,
				Name:      name,
				Weight:    weight,
				DateStart: dateStart,
				DateEnd:   dateEnd,
			}
			if parent != "" {
				task.ParentTaskID = &parent
			}
			if err := app.Plans.AddTask(context.Background(), task); err != nil {
				return err
			}
			fmt.Printf("Added task %s (%s) weight %.1f\n", task.Name, task.ID, task.Weight)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&lotID, "lot", "", "Owning lot ID")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Contribution to project completion, in percentage points")
	cmd.Flags().StringVar(&start, "start", "", "Task start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Task end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task ID")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("lot")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newPlanSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <plan-id>",
		Short: "Submit a balanced plan for approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Plans.Submit(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Plan submitted for approval.")
			return nil
		},
	}
}

func newPlanApproveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <plan-id>",
		Short: "Approve a submitted plan, replacing any prior active revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Plans.Approve(context.Background(), args[0], actorFromFlags(cmd)); err != nil {
				return err
			}
			fmt.Println("Plan approved and activated.")
			return nil
		},
	}
}

func newPlanRejectCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <plan-id>",
		Short: "Reject a submitted plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Plans.Reject(context.Background(), args[0], actorFromFlags(cmd), reason); err != nil {
				return err
			}
			fmt.Println("Plan rejected.")
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason (min 10 characters)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newPlanResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <plan-id>",
		Short: "Return a rejected plan to draft for rework",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Plans.ResetDraft(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("Plan back in draft.")
			return nil
		},
	}
}
