package flow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bnbflow/internal/browser"
	"bnbflow/internal/calendar"
	"bnbflow/internal/diagnostics"
	"bnbflow/internal/probe"
	"bnbflow/internal/readiness"

	"go.uber.org/zap"
)

// Driver is the slice of the browser layer the orchestrator needs.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Primary() browser.Surface
	ExpectNewSurface(ctx context.Context, trigger func() error) (browser.Surface, error)
}

type Config struct {
	BaseURL      string
	Viewport     browser.Size
	ReadyTimeout time.Duration
}

// Orchestrator walks one scenario through its stages in strict order.
// Every navigation-class action is bracketed by a viewport checkpoint and
// a readiness check; every stage asserts an observable effect before the
// next one runs.
type Orchestrator struct {
	cfg      Config
	driver   Driver
	resolver *probe.Resolver
	guard    *readiness.ViewportGuard
	detector *readiness.Detector
	scanner  *calendar.Scanner
	sink     diagnostics.Sink
	log      *zap.Logger

	stage    Stage
	criteria SearchCriteria
	listing  browser.Surface
}

func NewOrchestrator(cfg Config, driver Driver, sink diagnostics.Sink, log *zap.Logger) *Orchestrator {
	if cfg.ReadyTimeout == 0 {
		cfg.ReadyTimeout = 60 * time.Second
	}
	if cfg.Viewport == (browser.Size{}) {
		cfg.Viewport = browser.Size{Width: 1920, Height: 1080}
	}

	return &Orchestrator{
		cfg:      cfg,
		driver:   driver,
		resolver: probe.NewResolver(log),
		guard:    readiness.NewViewportGuard(cfg.Viewport, log),
		detector: readiness.NewDetector(log),
		scanner:  calendar.NewScanner(log),
		sink:     sink,
		log:      log,
	}
}

func (o *Orchestrator) Stage() Stage { return o.stage }

// Run drives the full scenario. It stops at the first failing stage and
// returns that stage's error.
func (o *Orchestrator) Run(ctx context.Context, criteria SearchCriteria, newChildCount, dateShiftDays int) error {
	if err := o.OpenHome(ctx); err != nil {
		return err
	}
	if err := o.SetDestination(ctx, criteria); err != nil {
		return err
	}
	if err := o.SetDates(ctx); err != nil {
		return err
	}
	if err := o.SetGuests(ctx); err != nil {
		return err
	}
	if err := o.Submit(ctx); err != nil {
		return err
	}
	if err := o.ValidateResults(ctx); err != nil {
		return err
	}
	if err := o.OpenListing(ctx); err != nil {
		return err
	}
	if err := o.ValidateListing(ctx); err != nil {
		return err
	}
	if err := o.SetListingChildren(ctx, newChildCount); err != nil {
		return err
	}
	return o.ShiftListingDates(ctx, dateShiftDays)
}

// OpenHome navigates to the base URL and waits for the homepage to become
// usable. A degraded readiness outcome is tolerated here: the destination
// field probe in the next stage independently confirms the page works.
func (o *Orchestrator) OpenHome(ctx context.Context) error {
	home := o.driver.Primary()

	if _, err := o.guard.Ensure(ctx, home); err != nil {
		return o.fail(home, StageIdle, fmt.Errorf("viewport checkpoint: %w", err))
	}

	o.log.Info("navigating to homepage", zap.String("url", o.cfg.BaseURL))
	if err := o.driver.Navigate(ctx, o.cfg.BaseURL); err != nil {
		return o.fail(home, StageIdle, err)
	}

	if _, err := o.guard.Ensure(ctx, home); err != nil {
		return o.fail(home, StageIdle, fmt.Errorf("viewport checkpoint: %w", err))
	}

	outcome := o.detector.AwaitReady(ctx, home, homeSoftWaits, homeIndicators, o.cfg.ReadyTimeout)
	if outcome.Status == readiness.Degraded {
		o.log.Warn("homepage readiness degraded, continuing", zap.String("reason", outcome.Reason))
	} else {
		o.log.Info("homepage ready", zap.String("indicator", outcome.Indicator))
	}

	o.attachScreenshot(ctx, home, "homepage")
	return nil
}

// SetDestination types the destination into the search bar and picks the
// first suggestion when one shows up.
func (o *Orchestrator) SetDestination(ctx context.Context, criteria SearchCriteria) error {
	o.criteria = criteria
	home := o.driver.Primary()

	res := o.resolver.Resolve(ctx, home, searchBoxChain)
	if !res.Found {
		return o.fail(home, StageIdle, fmt.Errorf("search box not found: %w", ErrStageFailed))
	}
	if err := home.Click(ctx, res.Selector); err != nil {
		return o.fail(home, StageIdle, err)
	}

	if err := home.Fill(ctx, selDestinationInput, criteria.Destination); err != nil {
		return o.fail(home, StageIdle, err)
	}

	// The suggestion list is optional chrome; typing alone is enough for
	// the search to work.
	if visible, _ := home.QueryVisible(ctx, selFirstSuggestion, 3*time.Second); visible {
		if err := home.Click(ctx, selFirstSuggestion); err != nil {
			o.log.Debug("suggestion click failed", zap.Error(err))
		}
	}

	o.log.Info("destination set", zap.String("destination", criteria.Destination))
	o.stage = StageDestinationSet
	return nil
}

// SetDates picks the check-in and check-out days on the search calendar.
// An inverted range is a correctness failure and aborts immediately.
func (o *Orchestrator) SetDates(ctx context.Context) error {
	if err := o.criteria.Stay.Validate(); err != nil {
		return err
	}
	home := o.driver.Primary()

	for _, day := range []calendar.Day{o.criteria.Stay.Start, o.criteria.Stay.End} {
		cell := fmt.Sprintf("[data-testid='calendar-day-%s']", day.GridKey())
		if err := home.Click(ctx, cell); err != nil {
			return o.fail(home, StageDestinationSet, fmt.Errorf("calendar day %s: %w", day.ISO(), err))
		}
	}

	o.log.Info("trip dates set",
		zap.String("check_in", o.criteria.Stay.Start.ISO()),
		zap.String("check_out", o.criteria.Stay.End.ISO()))
	o.stage = StageDatesSet
	return nil
}

// SetGuests opens the guest picker and steps the adult and child counters
// up from zero.
func (o *Orchestrator) SetGuests(ctx context.Context) error {
	home := o.driver.Primary()

	if err := home.Click(ctx, selGuestsButton); err != nil {
		return o.fail(home, StageDatesSet, err)
	}
	for i := 0; i < o.criteria.Adults; i++ {
		if err := home.Click(ctx, selAdultsIncrease); err != nil {
			return o.fail(home, StageDatesSet, fmt.Errorf("adults stepper: %w", err))
		}
	}
	for i := 0; i < o.criteria.Children; i++ {
		if err := home.Click(ctx, selChildrenIncrease); err != nil {
			return o.fail(home, StageDatesSet, fmt.Errorf("children stepper: %w", err))
		}
	}

	o.log.Info("guests set",
		zap.Int("adults", o.criteria.Adults),
		zap.Int("children", o.criteria.Children))
	o.stage = StageGuestsSet
	return nil
}

// Submit clicks search and waits for the results page. Degraded readiness
// is acceptable here: ValidateResults independently confirms the search
// through the URL and the result count.
func (o *Orchestrator) Submit(ctx context.Context) error {
	home := o.driver.Primary()
	urlBefore := home.CurrentURL()

	if err := home.Click(ctx, selSearchButton); err != nil {
		return o.fail(home, StageGuestsSet, err)
	}

	if _, err := o.guard.Ensure(ctx, home); err != nil {
		return o.fail(home, StageGuestsSet, fmt.Errorf("viewport checkpoint: %w", err))
	}

	outcome := o.detector.AwaitReady(ctx, home, resultsSoftWaits, resultsIndicators, o.cfg.ReadyTimeout)
	if outcome.Status == readiness.Degraded {
		o.log.Warn("results readiness degraded, continuing", zap.String("reason", outcome.Reason))
	}

	urlAfter := home.CurrentURL()
	if urlAfter == urlBefore && !looksLikeResultsURL(urlAfter) {
		return o.fail(home, StageGuestsSet,
			fmt.Errorf("url unchanged after search submit: %w", ErrStageFailed))
	}

	o.attachScreenshot(ctx, home, "search-results")
	o.stage = StageSubmitted
	return nil
}

// ValidateResults asserts that the results are for the requested
// destination and that at least one listing rendered.
func (o *Orchestrator) ValidateResults(ctx context.Context) error {
	home := o.driver.Primary()

	if !o.destinationVisible(ctx, home) {
		return o.fail(home, StageSubmitted,
			fmt.Errorf("destination %q not reflected in results: %w", o.criteria.Destination, ErrStageFailed))
	}

	if visible, _ := home.QueryVisible(ctx, selNoResults, 1*time.Second); visible {
		return o.fail(home, StageSubmitted, fmt.Errorf("empty result set: %w", ErrStageFailed))
	}

	count, err := home.Count(ctx, selCardContainer)
	if err != nil || count == 0 {
		return o.fail(home, StageSubmitted, fmt.Errorf("no result cards rendered: %w", ErrStageFailed))
	}

	o.log.Info("results validated",
		zap.String("destination", o.criteria.Destination),
		zap.Int("count", count))
	o.stage = StageResultsValidated
	return nil
}

// OpenListing picks the highest-rated card and opens its detail view,
// which the site spawns as a second page.
func (o *Orchestrator) OpenListing(ctx context.Context) error {
	home := o.driver.Primary()

	index, err := o.bestRatedCard(ctx, home)
	if err != nil {
		return o.fail(home, StageResultsValidated, err)
	}

	listing, err := o.driver.ExpectNewSurface(ctx, func() error {
		return home.ClickNth(ctx, selCardContainer, index)
	})
	if err != nil {
		return o.fail(home, StageResultsValidated, fmt.Errorf("listing did not open: %w", err))
	}
	o.listing = listing

	outcome := o.detector.AwaitReady(ctx, listing, listingSoftWaits, listingIndicators, o.cfg.ReadyTimeout)
	if outcome.Status == readiness.Degraded {
		return o.fail(listing, StageResultsValidated,
			fmt.Errorf("listing page never became ready (%s): %w", outcome.Reason, ErrStageFailed))
	}

	o.attachScreenshot(ctx, listing, "listing-detail")
	o.log.Info("listing opened", zap.Int("card_index", index), zap.String("url", listing.CurrentURL()))
	o.stage = StageListingOpened
	return nil
}

// ValidateListing checks that the opened listing shows exactly the
// requested dates and guest count.
func (o *Orchestrator) ValidateListing(ctx context.Context) error {
	listing := o.listing

	checkIn, err := o.readListingDay(ctx, listing, selListingCheckIn)
	if err != nil {
		return o.fail(listing, StageListingOpened, err)
	}
	checkOut, err := o.readListingDay(ctx, listing, selListingCheckOut)
	if err != nil {
		return o.fail(listing, StageListingOpened, err)
	}

	if checkIn != o.criteria.Stay.Start {
		return o.fail(listing, StageListingOpened,
			fmt.Errorf("check-in %s, wanted %s: %w", checkIn.ISO(), o.criteria.Stay.Start.ISO(), ErrStageFailed))
	}
	if checkOut != o.criteria.Stay.End {
		return o.fail(listing, StageListingOpened,
			fmt.Errorf("check-out %s, wanted %s: %w", checkOut.ISO(), o.criteria.Stay.End.ISO(), ErrStageFailed))
	}

	guests, err := o.readGuestTotal(ctx, listing)
	if err != nil {
		return o.fail(listing, StageListingOpened, err)
	}
	if guests != o.criteria.TotalGuests() {
		return o.fail(listing, StageListingOpened,
			fmt.Errorf("guest count %d, wanted %d: %w", guests, o.criteria.TotalGuests(), ErrStageFailed))
	}

	o.log.Info("listing validated",
		zap.String("check_in", checkIn.ISO()),
		zap.String("check_out", checkOut.ISO()),
		zap.Int("guests", guests))
	o.stage = StageListingValidated
	return nil
}

// SetListingChildren steps the child counter on the opened listing to the
// requested value and asserts both the child control and the total.
func (o *Orchestrator) SetListingChildren(ctx context.Context, want int) error {
	listing := o.listing

	totalBefore, err := o.readGuestTotal(ctx, listing)
	if err != nil {
		return o.fail(listing, StageListingValidated, err)
	}

	if err := listing.Click(ctx, selListingGuests); err != nil {
		return o.fail(listing, StageListingValidated, err)
	}

	current, err := o.readChildCount(ctx, listing)
	if err != nil {
		return o.fail(listing, StageListingValidated, err)
	}

	stepper, steps := selChildIncrease, want-current
	if current > want {
		stepper, steps = selChildDecrease, current-want
	}
	for i := 0; i < steps; i++ {
		if err := listing.Click(ctx, stepper); err != nil {
			return o.fail(listing, StageListingValidated, fmt.Errorf("child stepper: %w", err))
		}
	}

	after, err := o.readChildCount(ctx, listing)
	if err != nil {
		return o.fail(listing, StageListingValidated, err)
	}
	if after != want {
		return o.fail(listing, StageListingValidated,
			fmt.Errorf("child count %d, wanted %d: %w", after, want, ErrStageFailed))
	}

	totalAfter, err := o.readGuestTotal(ctx, listing)
	if err != nil {
		return o.fail(listing, StageListingValidated, err)
	}
	if wantTotal := totalBefore - (current - want); totalAfter != wantTotal {
		return o.fail(listing, StageListingValidated,
			fmt.Errorf("guest total %d, wanted %d: %w", totalAfter, wantTotal, ErrStageFailed))
	}

	o.attachScreenshot(ctx, listing, "guests-updated")
	o.log.Info("listing guests updated", zap.Int("children", want), zap.Int("total", totalAfter))
	o.criteria.Children = want
	o.stage = StageListingModifiedGuests
	return nil
}

// ShiftListingDates moves the stay by deltaDays, scans the availability
// grid for the new range and completes the reservation click either way:
// on a blocked range the calendar is closed and the original dates are
// kept.
func (o *Orchestrator) ShiftListingDates(ctx context.Context, deltaDays int) error {
	listing := o.listing
	newRange := o.criteria.Stay.Shift(deltaDays)

	if err := listing.Click(ctx, selListingCheckIn); err != nil {
		return o.fail(listing, StageListingModifiedGuests, err)
	}

	grid := calendar.NewSurfaceGrid(listing)
	result, err := o.scanner.Scan(ctx, grid, newRange)
	if err != nil {
		return o.fail(listing, StageListingModifiedGuests, err)
	}

	if result.Blocked {
		o.log.Info("new range blocked, keeping current dates",
			zap.String("blocked_day", result.Day.ISO()))
		if err := listing.Click(ctx, selCalendarSave); err != nil {
			return o.fail(listing, StageListingModifiedGuests, fmt.Errorf("close calendar: %w", err))
		}
	} else {
		o.log.Info("new range available",
			zap.String("check_in", newRange.Start.ISO()),
			zap.String("check_out", newRange.End.ISO()))
		o.criteria.Stay = newRange
	}

	if err := o.reserveAndValidate(ctx, listing); err != nil {
		return err
	}

	o.stage = StageListingModifiedDates
	return nil
}

// reserveAndValidate clicks the sticky reserve CTA (the second instance on
// the page) and asserts the navigation into the booking flow.
func (o *Orchestrator) reserveAndValidate(ctx context.Context, listing browser.Surface) error {
	urlBefore := listing.CurrentURL()

	if err := listing.ClickNth(ctx, selReserveButton, 1); err != nil {
		return o.fail(listing, StageListingModifiedGuests, fmt.Errorf("reserve click: %w", err))
	}
	listing.Settle(time.Second)

	urlAfter := listing.CurrentURL()
	if urlAfter == urlBefore {
		return o.fail(listing, StageListingModifiedGuests,
			fmt.Errorf("url unchanged after reserve click: %w", ErrStageFailed))
	}

	wantAdults := fmt.Sprintf("numberOfAdults=%d", o.criteria.Adults)
	if !strings.Contains(urlAfter, "book") || !strings.Contains(urlAfter, wantAdults) {
		return o.fail(listing, StageListingModifiedGuests,
			fmt.Errorf("booking url %q missing %q: %w", urlAfter, wantAdults, ErrStageFailed))
	}

	o.log.Info("reservation validated", zap.String("url", urlAfter))
	return nil
}

func (o *Orchestrator) destinationVisible(ctx context.Context, s browser.Surface) bool {
	want := strings.ToLower(o.criteria.Destination)

	if strings.Contains(strings.ToLower(s.CurrentURL()), want) {
		return true
	}
	if title, err := s.Title(); err == nil && strings.Contains(strings.ToLower(title), want) {
		return true
	}
	for _, selector := range destinationTextSelectors {
		visible, _ := s.QueryVisible(ctx, selector, 1*time.Second)
		if !visible {
			continue
		}
		if text, err := s.ReadText(ctx, selector); err == nil &&
			strings.Contains(strings.ToLower(text), want) {
			return true
		}
	}
	return false
}

var ratingPattern = regexp.MustCompile(`(\d\.\d{1,2})`)

// bestRatedCard reads the visible result cards and returns the index of
// the one with the highest rating. Cards without a parseable rating score
// zero, so something always gets picked.
func (o *Orchestrator) bestRatedCard(ctx context.Context, s browser.Surface) (int, error) {
	count, err := s.Count(ctx, selCardContainer)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("no result cards: %w", ErrStageFailed)
	}
	if count > 8 {
		count = 8
	}

	best, bestRating := 0, -1.0
	for i := 0; i < count; i++ {
		text, err := s.ReadText(ctx, fmt.Sprintf("%s >> nth=%d", selCardContainer, i))
		if err != nil {
			continue
		}
		rating := 0.0
		if m := ratingPattern.FindString(text); m != "" {
			rating, _ = strconv.ParseFloat(m, 64)
		}
		if rating > bestRating {
			best, bestRating = i, rating
		}
	}

	o.log.Info("picked highest-rated card",
		zap.Int("index", best), zap.Float64("rating", bestRating))
	return best, nil
}

func (o *Orchestrator) readListingDay(ctx context.Context, s browser.Surface, selector string) (calendar.Day, error) {
	text, err := s.ReadText(ctx, selector)
	if err != nil {
		return calendar.Day{}, fmt.Errorf("read %s: %w", selector, err)
	}
	return calendar.ParseListingDate(text)
}

func (o *Orchestrator) readGuestTotal(ctx context.Context, s browser.Surface) (int, error) {
	text, err := s.ReadText(ctx, selListingGuests)
	if err != nil {
		return 0, fmt.Errorf("read guest trigger: %w", err)
	}
	return parseLeadingInt(text)
}

func (o *Orchestrator) readChildCount(ctx context.Context, s browser.Surface) (int, error) {
	text, err := s.ReadText(ctx, selChildCountLabel)
	if err != nil {
		return 0, fmt.Errorf("read child counter: %w", err)
	}
	return parseLeadingInt(text)
}

var leadingIntPattern = regexp.MustCompile(`\d+`)

func parseLeadingInt(s string) (int, error) {
	m := leadingIntPattern.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", s)
	}
	return strconv.Atoi(m)
}

func looksLikeResultsURL(url string) bool {
	url = strings.ToLower(url)
	return strings.Contains(url, "/s/") || strings.Contains(url, "search_type")
}

// fail captures diagnostics for the failing stage and wraps the cause.
// Capture problems are logged, never allowed to mask the original error.
func (o *Orchestrator) fail(s browser.Surface, stage Stage, cause error) error {
	url := s.CurrentURL()

	o.sink.Attach(fmt.Sprintf("%s-error", stage), diagnostics.KindText, []byte(cause.Error()))
	o.sink.Attach(fmt.Sprintf("%s-url", stage), diagnostics.KindURI, []byte(url))
	if shot, err := s.Screenshot(context.Background(), true); err == nil {
		o.sink.Attach(fmt.Sprintf("%s-screenshot", stage), diagnostics.KindPNG, shot)
	} else {
		o.log.Warn("failure screenshot not captured", zap.Error(err))
	}

	o.log.Error("stage failed",
		zap.Stringer("stage", stage), zap.String("url", url), zap.Error(cause))
	return &StageError{Stage: stage, URL: url, Err: cause}
}

func (o *Orchestrator) attachScreenshot(ctx context.Context, s browser.Surface, name string) {
	shot, err := s.Screenshot(ctx, true)
	if err != nil {
		o.log.Debug("checkpoint screenshot failed", zap.String("name", name), zap.Error(err))
		return
	}
	o.sink.Attach(name, diagnostics.KindPNG, shot)
}
