package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lbenicio/sitetrack/internal/domain"
	"github.com/lbenicio/sitetrack/internal/progress"
)

func TestRenderProgress_Bounds(t *testing.T) {
	full := RenderProgress(100, 10)
	assert.Contains(t, full, strings.Repeat(filledBlock, 10))
	assert.Contains(t, full, "100.0%")

	empty := RenderProgress(0, 10)
	assert.Contains(t, empty, strings.Repeat(emptyBlock, 10))

	clamped := RenderProgress(250, 10)
	assert.Contains(t, clamped, "100.0%")
}

func TestRenderTable_Alignment(t *testing.T) {
	out := RenderTable([]string{"NAME", "STATE"}, [][]string{
		{"Earthworks", "validated"},
		{"Paving", "draft"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4, "header, separator, two rows")
	assert.Contains(t, lines[2], "Earthworks")
	assert.Contains(t, lines[3], "Paving")
}

func TestRenderCurve_ThinsDensePoints(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]progress.Point, 100)
	for i := range points {
		points[i] = progress.Point{Date: base.AddDate(0, 0, i), Pct: float64(i)}
	}

	out := RenderCurve(points, 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.LessOrEqual(t, len(lines), 12)
	assert.Contains(t, lines[len(lines)-1], "2025-04-10", "last point is always kept")
}

func TestBadges(t *testing.T) {
	assert.Contains(t, ProjectStateBadge(domain.ProjectAtRisk), "AT RISK")
	assert.Contains(t, DeclarationStateBadge(domain.DeclarationCorrectionRequested), "CORRECTION REQUESTED")
}
