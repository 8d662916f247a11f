package calendar

import (
	"context"

	"go.uber.org/zap"
)

// DayState is what the rendered grid knows about one day. Known is false
// while the day's cell has not been rendered yet (a render gap).
type DayState struct {
	Day     Day
	Known   bool
	Blocked bool
}

// Grid is the rendered availability calendar.
type Grid interface {
	DayState(ctx context.Context, day Day) (DayState, error)
	// SelectAnchors clicks the range endpoints to force lazily rendered
	// cells to materialize.
	SelectAnchors(ctx context.Context, start, end Day) error
}

// ScanResult reports the earliest blocked day in chronological order, or
// that the whole range is clear.
type ScanResult struct {
	Blocked bool
	Day     Day
}

type Scanner struct {
	log *zap.Logger
}

func NewScanner(log *zap.Logger) *Scanner {
	return &Scanner{log: log}
}

// Scan walks every day of r in chronological order and short-circuits on
// the first blocked one. Days the grid has not rendered are a render gap:
// the scanner tries once to materialize the grid via the range anchors and
// keeps going, never treating the gap itself as blocked.
func (s *Scanner) Scan(ctx context.Context, grid Grid, r Range) (ScanResult, error) {
	if err := r.Validate(); err != nil {
		return ScanResult{}, err
	}

	anchored := false
	for day := r.Start; !day.After(r.End); day = day.Next() {
		state, err := grid.DayState(ctx, day)
		if err != nil {
			// A transiently absent cell reads as unknown, not as a
			// scan failure.
			s.log.Debug("day lookup failed", zap.String("day", day.ISO()), zap.Error(err))
			state = DayState{Day: day}
		}

		switch {
		case state.Known && state.Blocked:
			s.log.Info("blocked day found", zap.String("day", day.ISO()))
			return ScanResult{Blocked: true, Day: day}, nil
		case state.Known:
			continue
		default:
			if anchored {
				continue
			}
			anchored = true
			s.log.Info("render gap, selecting anchors",
				zap.String("day", day.ISO()),
				zap.String("start", r.Start.ISO()),
				zap.String("end", r.End.ISO()))
			if err := grid.SelectAnchors(ctx, r.Start, r.End); err != nil {
				s.log.Warn("anchor selection failed", zap.Error(err))
			}
		}
	}

	s.log.Info("range clear", zap.String("start", r.Start.ISO()), zap.String("end", r.End.ISO()))
	return ScanResult{}, nil
}
