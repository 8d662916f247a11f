package probe

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// VisibilityChecker is the single driver capability the resolver needs.
type VisibilityChecker interface {
	QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
}

// Resolution is the outcome of resolving one chain. NotFound is an
// expected state, not an error: the zero value means no candidate matched.
type Resolution struct {
	Found    bool
	Target   string
	Selector string
	Index    int
}

type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{log: log}
}

// Resolve walks the chain in declaration order and stops at the first
// candidate that becomes visible within its own timeout. A candidate that
// errors is treated the same as one that never shows up.
func (r *Resolver) Resolve(ctx context.Context, s VisibilityChecker, chain Chain) Resolution {
	for i, candidate := range chain.candidates {
		selector := candidate.Selector()
		visible, err := s.QueryVisible(ctx, selector, candidate.Timeout)
		if err != nil {
			r.log.Debug("candidate check errored",
				zap.String("target", chain.target),
				zap.String("selector", selector),
				zap.Error(err))
			continue
		}
		if visible {
			r.log.Info("resolved target",
				zap.String("target", chain.target),
				zap.String("selector", selector),
				zap.Int("index", i))
			return Resolution{Found: true, Target: chain.target, Selector: selector, Index: i}
		}
	}

	r.log.Debug("chain exhausted", zap.String("target", chain.target),
		zap.Int("candidates", len(chain.candidates)))
	return Resolution{Target: chain.target}
}
