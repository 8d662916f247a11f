package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type PlaywrightBrowser struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	cfg     Config
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *PlaywrightBrowser {
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 30 * time.Second
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = 60 * time.Second // navigation is usually slower
	}
	if cfg.Viewport == (Size{}) {
		cfg.Viewport = Size{Width: 1920, Height: 1080}
	}

	return &PlaywrightBrowser{
		cfg: cfg,
		log: log,
	}
}

// getPage safely returns the current page under a read lock.
func (b *PlaywrightBrowser) getPage() playwright.Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	return []string{
		"--no-sandbox",
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	pw, err := playwright.Run()
	if err != nil {
		return err
	}
	b.pw = pw

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}
	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		return err
	}

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  b.cfg.Viewport.Width,
			Height: b.cfg.Viewport.Height,
		},
		UserAgent:   playwright.String(b.cfg.UserAgent),
		Locale:      playwright.String(b.cfg.Locale),
		TimezoneId:  playwright.String(b.cfg.TimezoneID),
		Permissions: []string{"geolocation"},
	})
	if err != nil {
		return err
	}

	page, err := browserContext.NewPage()
	if err != nil {
		return err
	}
	page.SetDefaultTimeout(float64(b.cfg.ActionTimeout.Milliseconds()))

	b.mu.Lock()
	b.browser = browser
	b.context = browserContext
	b.page = page
	b.mu.Unlock()

	return nil
}

func (b *PlaywrightBrowser) Navigate(ctx context.Context, url string) error {
	page := b.getPage()
	if page == nil {
		return ErrNotLaunched
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(b.cfg.NavTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("navigate timeout after %v", b.cfg.NavTimeout)
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Cookie banners and modals show up right after navigation; clearing
	// them is best effort and never fails the flow.
	DismissOverlays(ctx, b.Primary(), b.log)

	return nil
}

func (b *PlaywrightBrowser) Primary() Surface {
	return &pageSurface{page: b.getPage(), cfg: b.cfg}
}

// ExpectNewSurface runs trigger (typically a click on a listing card) and
// waits for the page it opens in the same browser context.
func (b *PlaywrightBrowser) ExpectNewSurface(ctx context.Context, trigger func() error) (Surface, error) {
	b.mu.RLock()
	browserContext := b.context
	b.mu.RUnlock()
	if browserContext == nil {
		return nil, ErrNotLaunched
	}

	newPage, err := browserContext.ExpectPage(trigger, playwright.BrowserContextExpectPageOptions{
		Timeout: playwright.Float(float64(b.cfg.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("no page opened: %w", err)
	}
	newPage.SetDefaultTimeout(float64(b.cfg.ActionTimeout.Milliseconds()))

	return &pageSurface{page: newPage, cfg: b.cfg}, nil
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			return err
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.pw != nil {
		return b.pw.Stop()
	}
	return nil
}
