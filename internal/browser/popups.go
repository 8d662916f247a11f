package browser

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cookie banners first, generic modal close buttons second. Order matters:
// a consent banner can sit on top of everything else.
var overlaySelectors = []string{
	"[data-testid='accept-btn']",
	"[data-testid='accept-cookies']",
	"[data-testid='cookie-policy-manage-button']",
	"[data-testid='main-cookies-bar-agree']",
	"button[aria-label*='Accept']",
	"button[aria-label*='accept']",
	"button[aria-label*='Cookie']",
	"[data-testid='close']",
	"[data-testid='modal-close-button']",
	"button[aria-label='Close']",
	"button[aria-label='close']",
	"button.close",
}

const (
	overlayProbeTimeout = 1 * time.Second
	overlaySettleDelay  = 1 * time.Second
)

type overlaySurface interface {
	QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	Click(ctx context.Context, selector string) error
	Settle(d time.Duration)
}

// DismissOverlays clicks through known popup close buttons. It never fails:
// a popup that refuses to close is left for the flow's own probes to work
// around.
func DismissOverlays(ctx context.Context, s overlaySurface, log *zap.Logger) {
	for _, selector := range overlaySelectors {
		visible, err := s.QueryVisible(ctx, selector, overlayProbeTimeout)
		if err != nil || !visible {
			continue
		}
		if err := s.Click(ctx, selector); err != nil {
			log.Debug("overlay close click failed",
				zap.String("selector", selector), zap.Error(err))
			continue
		}
		log.Info("dismissed overlay", zap.String("selector", selector))
		s.Settle(overlaySettleDelay)
	}
}
