package formatter

import (
	"fmt"
	"strings"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/service"
)

// FormatProject renders a single project summary block.
func FormatProject(p *domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StyleBold.Render(p.Name), ProjectStateBadge(p.State))
	if p.Code != "" {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("code:"), p.Code)
	}
	fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("id:"), p.ID)
	if p.PlannedStart != nil && p.PlannedEnd != nil {
		fmt.Fprintf(&b, "%s %s → %s\n", StyleDim.Render("window:"),
			p.PlannedStart.Format("2006-01-02"), p.PlannedEnd.Format("2006-01-02"))
	}
	if p.Budget > 0 {
		fmt.Fprintf(&b, "%s %.2f\n", StyleDim.Render("budget:"), p.Budget)
	}
	fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("progress:"), RenderProgress(p.ComputedProgress, 30))
	if p.StateReason != "" {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("reason:"), p.StateReason)
	}
	return b.String()
}

// FormatProjectList renders the project table.
func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return StyleDim.Render("No projects yet.") + "\n"
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.Code,
			p.Name,
			ProjectStateBadge(p.State),
			fmt.Sprintf("%.1f%%", p.ComputedProgress),
		})
	}
	return RenderTable([]string{"CODE", "NAME", "STATE", "PROGRESS"}, rows)
}

// FormatPlanStructure renders a plan with its lots and tasks.
func FormatPlanStructure(s *service.PlanStructure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StyleBold.Render(s.Plan.Reference), StyleDim.Render(string(s.Plan.State)))
	if s.Plan.ApprovedAt != nil {
		fmt.Fprintf(&b, "%s %s by %s\n", StyleDim.Render("approved:"),
			s.Plan.ApprovedAt.Format("2006-01-02"), s.Plan.ApprovedBy)
	}
	if s.Plan.RejectionReason != "" {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render("rejected:"), s.Plan.RejectionReason)
	}

	tasksByLot := make(map[string][]int)
	for i, t := range s.Tasks {
		tasksByLot[t.LotID] = append(tasksByLot[t.LotID], i)
	}

	var total float64
	for _, l := range s.Lots {
		fmt.Fprintf(&b, "\n%s  %s → %s\n", StyleHeader.Render(l.Name),
			l.DateStart.Format("2006-01-02"), l.DateEnd.Format("2006-01-02"))
		for _, i := range tasksByLot[l.ID] {
			t := s.Tasks[i]
			total += t.Weight
			ref := ""
			if t.TrackerRef != "" {
				ref = "  " + StyleDim.Render(t.TrackerRef)
			}
			fmt.Fprintf(&b, "  %s  %5.1f%%  %s → %s%s\n",
				StyleFg.Render(t.Name), t.Weight,
				t.DateStart.Format("2006-01-02"), t.DateEnd.Format("2006-01-02"), ref)
		}
	}
	fmt.Fprintf(&b, "\n%s %.2f / 100\n", StyleDim.Render("weight total:"), total)
	return b.String()
}

// FormatProjectReport renders the full progress report with both S-curves.
func FormatProjectReport(r *service.ProjectProgressReport) string {
	var b strings.Builder
	b.WriteString(Header(r.Project.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n", ProjectStateBadge(r.Project.State),
		StyleDim.Render("as of "+r.AsOf.Format("2006-01-02")))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("actual: "), RenderProgress(r.OverallPct, 30))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("planned:"), RenderProgress(r.PlannedPct, 30))
	fmt.Fprintf(&b, "%s  %s\n\n", StyleDim.Render("deviation:"), DeviationText(r.DeviationPct))

	rows := make([][]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		delay := ""
		if t.DelayDays > 0 {
			delay = StyleRed.Render(fmt.Sprintf("%dd late", t.DelayDays))
		}
		rows = append(rows, []string{
			t.TaskName,
			fmt.Sprintf("%.1f", t.Weight),
			fmt.Sprintf("%.1f%%", t.ValidatedPct),
			fmt.Sprintf("%.1f%%", t.PlannedPct),
			DeviationText(t.DeviationPct),
			delay,
		})
	}
	b.WriteString(RenderTable([]string{"TASK", "WEIGHT", "DONE", "PLANNED", "DEV", ""}, rows))

	b.WriteString("\n" + Header("planned curve") + "\n")
	b.WriteString(RenderCurve(r.PlannedCurve, 12))
	b.WriteString("\n" + Header("actual curve") + "\n")
	b.WriteString(RenderCurve(r.ActualCurve, 12))
	return b.String()
}

// FormatDeclarationList renders declarations as a table.
func FormatDeclarationList(decls []*domain.ProgressDeclaration) string {
	if len(decls) == 0 {
		return StyleDim.Render("No declarations.") + "\n"
	}
	rows := make([][]string, 0, len(decls))
	for _, d := range decls {
		rows = append(rows, []string{
			shortID(d.ID),
			shortID(d.TaskID),
			fmt.Sprintf("%.1f%%", d.DeclaredPct),
			d.ExecutionDate.Format("2006-01-02"),
			DeclarationStateBadge(d.State),
			d.DeclaredBy,
		})
	}
	return RenderTable([]string{"ID", "TASK", "DECLARED", "EXECUTED", "STATE", "BY"}, rows)
}

// FormatLedger renders the validation history of a declaration.
func FormatLedger(records []*domain.ValidationRecord) string {
	if len(records) == 0 {
		return StyleDim.Render("No validation records.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		integrity := StyleGreen.Render("ok")
		if !rec.Verify() {
			integrity = StyleRed.Render("CORRUPT")
		}
		rows = append(rows, []string{
			rec.DecidedAt().Format("2006-01-02 15:04"),
			string(rec.Decision()),
			rec.ValidatorID(),
			fmt.Sprintf("%.1f%% (%+.1f)", rec.DeclaredPct(), rec.IncrementalPct()),
			rec.Comment(),
			integrity,
		})
	}
	return RenderTable([]string{"DECIDED", "DECISION", "BY", "PROGRESS", "COMMENT", "HASH"}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
