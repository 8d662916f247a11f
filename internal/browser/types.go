package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotLaunched is returned by every driver operation invoked before Launch.
var ErrNotLaunched = errors.New("browser not launched")

// Size is the rendering size of an automation surface in pixels.
type Size struct {
	Width  int
	Height int
}

// Driver owns the browser lifecycle and the primary page.
type Driver interface {
	Launch(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	Primary() Surface
	// ExpectNewSurface runs trigger and returns the page it opened.
	ExpectNewSurface(ctx context.Context, trigger func() error) (Surface, error)
	Close() error
}

// Surface is one page the flow interacts with. The listing detail view,
// once opened, is a second Surface with its own handle.
type Surface interface {
	QueryVisible(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	Click(ctx context.Context, selector string) error
	ClickNth(ctx context.Context, selector string, index int) error
	Fill(ctx context.Context, selector, text string) error
	ReadText(ctx context.Context, selector string) (string, error)
	GetAttribute(ctx context.Context, selector, name string) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	CurrentURL() string
	Title() (string, error)
	ViewportSize() (Size, error)
	SetViewportSize(size Size) error
	BringToFront() error
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	WaitLoadState(ctx context.Context, state string, timeout time.Duration) error
	Settle(d time.Duration)
}

type Config struct {
	Headless      bool
	Display       string
	UserAgent     string
	Locale        string
	TimezoneID    string
	Viewport      Size
	ActionTimeout time.Duration
	NavTimeout    time.Duration
}
