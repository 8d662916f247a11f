package calendar

import (
	"context"
	"fmt"
	"time"

	"bnbflow/internal/browser"
)

const dayCellPattern = "[data-testid='calendar-day-%s']"

// SurfaceGrid reads day state out of the availability calendar rendered on
// a listing page.
type SurfaceGrid struct {
	surface browser.Surface
}

func NewSurfaceGrid(surface browser.Surface) *SurfaceGrid {
	return &SurfaceGrid{surface: surface}
}

func (g *SurfaceGrid) DayState(ctx context.Context, day Day) (DayState, error) {
	selector := fmt.Sprintf(dayCellPattern, day.GridKey())

	count, err := g.surface.Count(ctx, selector)
	if err != nil {
		return DayState{Day: day}, err
	}
	if count == 0 {
		return DayState{Day: day}, nil
	}

	blocked, err := g.surface.GetAttribute(ctx, selector, "data-is-day-blocked")
	if err != nil {
		return DayState{Day: day}, err
	}
	return DayState{Day: day, Known: true, Blocked: blocked == "true"}, nil
}

func (g *SurfaceGrid) SelectAnchors(ctx context.Context, start, end Day) error {
	startSel := fmt.Sprintf(dayCellPattern, start.GridKey())
	endSel := fmt.Sprintf(dayCellPattern, end.GridKey())

	if err := g.surface.Click(ctx, startSel); err != nil {
		return fmt.Errorf("start anchor %s: %w", start.ISO(), err)
	}
	if err := g.surface.Click(ctx, endSel); err != nil {
		return fmt.Errorf("end anchor %s: %w", end.ISO(), err)
	}
	g.surface.Settle(500 * time.Millisecond)
	return nil
}
