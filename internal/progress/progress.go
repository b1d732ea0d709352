// Package progress computes completion figures from validated declarations
// and the planned schedule. Everything here is pure: callers load the plan
// hierarchy and validated declarations, this package only does arithmetic,
// so results are reproducible from the same inputs.
package progress

import (
	"time"

	"github.com/lbenicio/sitetrack/internal/domain"
)

// TaskProgress is the per-task progress snapshot.
type TaskProgress struct {
	TaskID       string
	TaskName     string
	Weight       float64
	ValidatedPct float64
	PlannedPct   float64
	DeviationPct float64
	Contribution float64
	DelayDays    int
}

// PlannedToDate returns the task's expected completion percentage at the
// given date under linear progression across the planned window. Dates before
// the window give 0, dates after give 100. The denominator is floored at one
// day so single-day tasks do not divide by zero.
func PlannedToDate(task *domain.Task, asOf time.Time) float64 {
	if !asOf.After(task.DateStart) {
		return 0
	}
	if !asOf.Before(task.DateEnd) {
		return 100
	}
	elapsed := asOf.Sub(task.DateStart).Hours() / 24
	duration := task.DateEnd.Sub(task.DateStart).Hours() / 24
	if duration < 1 {
		duration = 1
	}
	pct := elapsed / duration * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// WeightedContribution converts a task completion percentage into project
// percentage points.
func WeightedContribution(validatedPct, weight float64) float64 {
	return validatedPct * weight / 100
}

// Overall is the project completion percentage: the weight-scaled sum of each
// task's validated percentage. Tasks absent from validated contribute zero.
func Overall(tasks []*domain.Task, validated map[string]float64) float64 {
	var total float64
	for _, t := range tasks {
		total += WeightedContribution(validated[t.ID], t.Weight)
	}
	return total
}

// PlannedOverall is the expected project completion at the given date,
// aggregating each task's linear planned percentage by weight.
func PlannedOverall(tasks []*domain.Task, asOf time.Time) float64 {
	var total float64
	for _, t := range tasks {
		total += WeightedContribution(PlannedToDate(t, asOf), t.Weight)
	}
	return total
}

// Snapshot builds the per-task progress table for reporting. validated maps
// task ID to the latest validated percentage.
func Snapshot(tasks []*domain.Task, validated map[string]float64, asOf time.Time) []TaskProgress {
	out := make([]TaskProgress, 0, len(tasks))
	for _, t := range tasks {
		v := validated[t.ID]
		planned := PlannedToDate(t, asOf)
		tp := TaskProgress{
			TaskID:       t.ID,
			TaskName:     t.Name,
			Weight:       t.Weight,
			ValidatedPct: v,
			PlannedPct:   planned,
			DeviationPct: v - planned,
			Contribution: WeightedContribution(v, t.Weight),
		}
		// A task past its planned end and not yet complete is late.
		if asOf.After(t.DateEnd) && v < 100-domain.CompletionTolerance {
			tp.DelayDays = int(asOf.Sub(t.DateEnd).Hours() / 24)
		}
		out = append(out, tp)
	}
	return out
}

// LatestValidated folds a replay-ordered validated declaration list into the
// per-task latest percentage map and the matching execution dates.
func LatestValidated(decls []*domain.ProgressDeclaration) (map[string]float64, map[string]time.Time) {
	pcts := make(map[string]float64, len(decls))
	dates := make(map[string]time.Time, len(decls))
	for _, d := range decls {
		pcts[d.TaskID] = d.DeclaredPct
		dates[d.TaskID] = d.ExecutionDate
	}
	return pcts, dates
}

// EffectiveDate is the date a validated declaration takes effect in replay:
// the validation day when recorded, the execution date otherwise.
func EffectiveDate(d *domain.ProgressDeclaration) time.Time {
	if d.ValidatedAt != nil {
		v := d.ValidatedAt.UTC()
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
	}
	return d.ExecutionDate
}
