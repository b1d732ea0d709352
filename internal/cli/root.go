package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects     service.ProjectService
	Plans        service.PlanService
	Declarations service.DeclarationService
	Progress     service.ProgressService

	// IsInteractive reports whether stdin is an interactive terminal;
	// interactive review prompts are only offered when it returns true.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "sitetrack" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sitetrack",
		Short: "Track execution progress of infrastructure projects",
	}

	root.PersistentFlags().String("actor", "", "Acting user ID (defaults to $SITETRACK_ACTOR)")
	root.PersistentFlags().String("role", "", "Acting user role")

	// Accept snake_case flag spellings alongside the kebab-case defaults.
	root.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.AddCommand(
		newProjectCmd(app),
		newPlanCmd(app),
		newDeclareCmd(app),
		newReviewCmd(app),
		newProgressCmd(app),
		newLedgerCmd(app),
	)

	return root
}

// actorFromFlags resolves the acting user for audit stamping.
func actorFromFlags(cmd *cobra.Command) domain.Actor {
	id, _ := cmd.Flags().GetString("actor")
	role, _ := cmd.Flags().GetString("role")
	if id == "" {
		id = os.Getenv("SITETRACK_ACTOR")
	}
	if id == "" {
		id = "operator"
	}
	if role == "" {
		role = os.Getenv("SITETRACK_ROLE")
	}
	return domain.Actor{ID: id, Name: id, Role: role}
}
