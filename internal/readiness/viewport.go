package readiness

import (
	"context"
	"time"

	"bnbflow/internal/browser"

	"go.uber.org/zap"
)

// ViewportSurface is the slice of the driver the guard touches.
type ViewportSurface interface {
	ViewportSize() (browser.Size, error)
	SetViewportSize(size browser.Size) error
	BringToFront() error
	Settle(d time.Duration)
}

type GuardResult int

const (
	AlreadySatisfied GuardResult = iota
	Corrected
)

func (r GuardResult) String() string {
	if r == Corrected {
		return "corrected"
	}
	return "already-satisfied"
}

// ViewportGuard holds the automation surface to one rendering size. A
// mismatch is drift, not an error: the guard sets the size back, refocuses
// the surface and waits for the change to take effect.
type ViewportGuard struct {
	expected browser.Size
	settle   time.Duration
	log      *zap.Logger
}

func NewViewportGuard(expected browser.Size, log *zap.Logger) *ViewportGuard {
	return &ViewportGuard{
		expected: expected,
		settle:   500 * time.Millisecond,
		log:      log,
	}
}

// Ensure is idempotent: when the size already matches it touches nothing,
// so checkpoint calls can be sprinkled around navigation freely.
func (g *ViewportGuard) Ensure(ctx context.Context, s ViewportSurface) (GuardResult, error) {
	current, err := s.ViewportSize()
	if err != nil {
		return AlreadySatisfied, err
	}

	if current == g.expected {
		g.log.Debug("viewport check ok",
			zap.Int("width", current.Width), zap.Int("height", current.Height))
		return AlreadySatisfied, nil
	}

	g.log.Warn("viewport drift, resetting",
		zap.Int("actual_width", current.Width),
		zap.Int("actual_height", current.Height),
		zap.Int("expected_width", g.expected.Width),
		zap.Int("expected_height", g.expected.Height))

	if err := s.SetViewportSize(g.expected); err != nil {
		return AlreadySatisfied, err
	}
	if err := s.BringToFront(); err != nil {
		g.log.Debug("bring to front failed", zap.Error(err))
	}
	s.Settle(g.settle)

	return Corrected, nil
}
