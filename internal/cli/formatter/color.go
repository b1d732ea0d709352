package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lbenicio/sitetrack/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ProjectStateBadge renders a colored project lifecycle badge.
func ProjectStateBadge(state domain.ProjectState) string {
	label := strings.ToUpper(strings.ReplaceAll(string(state), "_", " "))
	switch state {
	case domain.ProjectRunning:
		return StyleGreen.Render("● " + label)
	case domain.ProjectAtRisk:
		return StyleYellow.Render("● " + label)
	case domain.ProjectSuspended:
		return StyleRed.Render("● " + label)
	case domain.ProjectClosed:
		return StyleBlue.Render("● " + label)
	case domain.ProjectPlanned:
		return StylePurple.Render("● " + label)
	default:
		return StyleDim.Render("● " + label)
	}
}

// DeclarationStateBadge renders a colored declaration state badge.
func DeclarationStateBadge(state domain.DeclarationState) string {
	label := strings.ToUpper(strings.ReplaceAll(string(state), "_", " "))
	switch state {
	case domain.DeclarationValidated:
		return StyleGreen.Render(label)
	case domain.DeclarationSubmitted, domain.DeclarationUnderReview:
		return StyleYellow.Render(label)
	case domain.DeclarationRejected:
		return StyleRed.Render(label)
	case domain.DeclarationCorrectionRequested:
		return StylePurple.Render(label)
	default:
		return StyleDim.Render(label)
	}
}

// DeviationText colors a plan deviation: green when ahead, red when behind.
func DeviationText(deviation float64) string {
	text := fmt.Sprintf("%+.1f%%", deviation)
	switch {
	case deviation >= 0:
		return StyleGreen.Render(text)
	case deviation > -10:
		return StyleYellow.Render(text)
	default:
		return StyleRed.Render(text)
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}
