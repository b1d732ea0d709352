package formatter

import (
	"fmt"
	"strings"

	"github.com/lbenicio/sitetrack/internal/progress"
)

// RenderCurve renders S-curve samples as one bar row per point. Dense curves
// are thinned to at most maxRows rows, always keeping the last point.
func RenderCurve(points []progress.Point, maxRows int) string {
	if len(points) == 0 {
		return StyleDim.Render("(no data)") + "\n"
	}
	if maxRows < 2 {
		maxRows = 2
	}

	step := 1
	if len(points) > maxRows {
		step = (len(points) + maxRows - 1) / maxRows
	}

	var b strings.Builder
	for i := 0; i < len(points); i += step {
		writeCurveRow(&b, points[i])
	}
	if (len(points)-1)%step != 0 {
		writeCurveRow(&b, points[len(points)-1])
	}
	return b.String()
}

func writeCurveRow(b *strings.Builder, p progress.Point) {
	const barWidth = 40
	filled := int(p.Pct / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)
	fmt.Fprintf(b, "%s  %s %5.1f%%\n",
		StyleDim.Render(p.Date.Format("2006-01-02")),
		StyleBlue.Render(bar),
		p.Pct)
}
