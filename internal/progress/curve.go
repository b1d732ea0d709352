package progress

import (
	"time"

	"github.com/lbenicio/sitetrack/internal/domain"
)

// Point is one sample of an S-curve.
type Point struct {
	Date time.Time
	Pct  float64
}

// maxCurveSamples caps planned curve resolution so long projects stay
// renderable in a terminal-width chart.
const maxCurveSamples = 52

// PlannedCurve samples the expected project completion across the window
// [start, end]. Long windows are downsampled to at most maxCurveSamples
// points; the final point always lands exactly on the end date.
func PlannedCurve(tasks []*domain.Task, start, end time.Time) []Point {
	if end.Before(start) || len(tasks) == 0 {
		return nil
	}

	totalDays := int(end.Sub(start).Hours()/24) + 1
	step := 1
	if totalDays > maxCurveSamples {
		step = (totalDays + maxCurveSamples - 1) / maxCurveSamples
	}

	var points []Point
	for d := start; d.Before(end); d = d.AddDate(0, 0, step) {
		points = append(points, Point{Date: d, Pct: PlannedOverall(tasks, d)})
	}
	points = append(points, Point{Date: end, Pct: PlannedOverall(tasks, end)})
	return points
}

// ActualCurve replays validated declarations into the realized S-curve over
// the window starting at start. decls must be in replay order (effective
// date, then id); each declaration overwrites its task's running percentage
// and emits a recomputed overall. The curve opens with a zero point at the
// window start when the first declaration lands later. Samples landing on the
// same day collapse to the day's final value. When history ends before today,
// a carry-forward point extends the curve to today at the last value.
func ActualCurve(tasks []*domain.Task, decls []*domain.ProgressDeclaration, start, today time.Time) []Point {
	if len(decls) == 0 {
		return nil
	}

	running := make(map[string]float64, len(tasks))
	var points []Point
	if start.Before(EffectiveDate(decls[0])) {
		points = append(points, Point{Date: start, Pct: 0})
	}
	for _, d := range decls {
		running[d.TaskID] = d.DeclaredPct
		pt := Point{Date: EffectiveDate(d), Pct: Overall(tasks, running)}
		if n := len(points); n > 0 && points[n-1].Date.Equal(pt.Date) {
			points[n-1] = pt
			continue
		}
		points = append(points, pt)
	}

	if last := points[len(points)-1]; last.Date.Before(today) {
		points = append(points, Point{Date: today, Pct: last.Pct})
	}
	return points
}
