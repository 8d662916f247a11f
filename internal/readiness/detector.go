package readiness

import (
	"context"
	"time"

	"bnbflow/internal/probe"

	"go.uber.org/zap"
)

// DetectorSurface is the slice of the driver a readiness check needs.
type DetectorSurface interface {
	probe.VisibilityChecker
	WaitLoadState(ctx context.Context, state string, timeout time.Duration) error
	CurrentURL() string
}

type Status int

const (
	Ready Status = iota
	Degraded
)

// Outcome is created fresh per readiness check and consumed immediately by
// the caller. Degraded is not an error: downstream assertions decide
// whether the page is usable anyway.
type Outcome struct {
	Status    Status
	Indicator string
	Reason    string
}

// LoadState is one soft wait. Timing out on it is logged and skipped, not
// fatal; the indicators are what actually prove the page is usable.
type LoadState struct {
	State   string
	Timeout time.Duration
}

type Detector struct {
	resolver *probe.Resolver
	log      *zap.Logger
}

func NewDetector(log *zap.Logger) *Detector {
	return &Detector{
		resolver: probe.NewResolver(log),
		log:      log,
	}
}

// anyContent is the last-resort indicator: something, anything, rendered
// under body.
var anyContent = probe.MustChain("any-visible-content",
	probe.ByCSS("body > *", 5*time.Second),
)

// AwaitReady runs the soft load-state waits, then walks the indicator
// chains in priority order. The first resolved chain wins and later chains
// are never tried. Site chrome legitimately differs between A/B renders,
// so an unresolved page degrades instead of failing.
func (d *Detector) AwaitReady(ctx context.Context, s DetectorSurface, softWaits []LoadState, indicators []probe.Chain, hardTimeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, hardTimeout)
	defer cancel()

	for _, wait := range softWaits {
		if err := s.WaitLoadState(ctx, wait.State, wait.Timeout); err != nil {
			d.log.Warn("load state wait timed out",
				zap.String("state", wait.State),
				zap.Duration("timeout", wait.Timeout),
				zap.Error(err))
		}
	}

	for _, chain := range indicators {
		if ctx.Err() != nil {
			return Outcome{Status: Degraded, Reason: "readiness deadline exceeded"}
		}
		if res := d.resolver.Resolve(ctx, s, chain); res.Found {
			return Outcome{Status: Ready, Indicator: res.Target}
		}
	}

	if res := d.resolver.Resolve(ctx, s, anyContent); res.Found {
		return Outcome{Status: Ready, Indicator: res.Target}
	}

	d.log.Warn("no readiness indicator resolved", zap.String("url", s.CurrentURL()))
	return Outcome{Status: Degraded, Reason: "no readiness indicator resolved"}
}
