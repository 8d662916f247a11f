package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// pageSurface adapts one playwright page to the Surface interface the flow
// components consume.
type pageSurface struct {
	page playwright.Page
	cfg  Config
}

func (s *pageSurface) QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if s.page == nil {
		return false, ErrNotLaunched
	}
	if timeout == 0 {
		timeout = s.cfg.ActionTimeout
	}

	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		// Not visible within the deadline, detached node, malformed
		// selector: all the same answer for the caller.
		return false, nil
	}
	return true, nil
}

func (s *pageSurface) Click(ctx context.Context, selector string) error {
	return s.ClickNth(ctx, selector, 0)
}

func (s *pageSurface) ClickNth(ctx context.Context, selector string, index int) error {
	if s.page == nil {
		return ErrNotLaunched
	}
	return s.page.Locator(selector).Nth(index).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(s.cfg.ActionTimeout.Milliseconds())),
	})
}

func (s *pageSurface) Fill(ctx context.Context, selector, text string) error {
	if s.page == nil {
		return ErrNotLaunched
	}
	return s.page.Locator(selector).First().Fill(text)
}

func (s *pageSurface) ReadText(ctx context.Context, selector string) (string, error) {
	if s.page == nil {
		return "", ErrNotLaunched
	}
	return s.page.Locator(selector).First().InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(s.cfg.ActionTimeout.Milliseconds())),
	})
}

func (s *pageSurface) GetAttribute(ctx context.Context, selector, name string) (string, error) {
	if s.page == nil {
		return "", ErrNotLaunched
	}
	return s.page.Locator(selector).First().GetAttribute(name)
}

func (s *pageSurface) Count(ctx context.Context, selector string) (int, error) {
	if s.page == nil {
		return 0, ErrNotLaunched
	}
	return s.page.Locator(selector).Count()
}

func (s *pageSurface) CurrentURL() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

func (s *pageSurface) Title() (string, error) {
	if s.page == nil {
		return "", ErrNotLaunched
	}
	return s.page.Title()
}

func (s *pageSurface) ViewportSize() (Size, error) {
	if s.page == nil {
		return Size{}, ErrNotLaunched
	}
	vs := s.page.ViewportSize()
	if vs == nil {
		return Size{}, nil
	}
	return Size{Width: vs.Width, Height: vs.Height}, nil
}

func (s *pageSurface) SetViewportSize(size Size) error {
	if s.page == nil {
		return ErrNotLaunched
	}
	return s.page.SetViewportSize(size.Width, size.Height)
}

func (s *pageSurface) BringToFront() error {
	if s.page == nil {
		return ErrNotLaunched
	}
	return s.page.BringToFront()
}

func (s *pageSurface) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if s.page == nil {
		return nil, ErrNotLaunched
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

func (s *pageSurface) WaitLoadState(ctx context.Context, state string, timeout time.Duration) error {
	if s.page == nil {
		return ErrNotLaunched
	}
	if timeout == 0 {
		timeout = s.cfg.ActionTimeout
	}

	var loadState *playwright.LoadState
	switch state {
	case "load":
		loadState = playwright.LoadStateLoad
	case "domcontentloaded":
		loadState = playwright.LoadStateDomcontentloaded
	case "networkidle":
		loadState = playwright.LoadStateNetworkidle
	default:
		loadState = playwright.LoadStateLoad
	}

	return s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (s *pageSurface) Settle(d time.Duration) {
	if s.page == nil {
		return
	}
	s.page.WaitForTimeout(float64(d.Milliseconds()))
}
