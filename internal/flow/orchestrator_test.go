package flow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bnbflow/internal/browser"
	"bnbflow/internal/calendar"
	"bnbflow/internal/diagnostics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSurface scripts one page: what is visible, what text elements carry,
// and what clicking does to the page state.
type fakeSurface struct {
	visible  map[string]bool
	texts    map[string]string
	attrs    map[string]map[string]string
	counts   map[string]int
	url      string
	title    string
	viewport browser.Size
	clicks   []string
	onClick  map[string]func(*fakeSurface)
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		visible:  map[string]bool{},
		texts:    map[string]string{},
		attrs:    map[string]map[string]string{},
		counts:   map[string]int{},
		viewport: browser.Size{Width: 1920, Height: 1080},
		onClick:  map[string]func(*fakeSurface){},
	}
}

func (f *fakeSurface) doClick(key string) error {
	f.clicks = append(f.clicks, key)
	if fn, ok := f.onClick[key]; ok {
		fn(f)
	}
	return nil
}

func (f *fakeSurface) QueryVisible(_ context.Context, selector string, _ time.Duration) (bool, error) {
	return f.visible[selector], nil
}

func (f *fakeSurface) Click(_ context.Context, selector string) error {
	return f.doClick(selector)
}

func (f *fakeSurface) ClickNth(_ context.Context, selector string, index int) error {
	return f.doClick(fmt.Sprintf("%s#%d", selector, index))
}

func (f *fakeSurface) Fill(_ context.Context, selector, text string) error {
	f.texts[selector] = text
	return nil
}

func (f *fakeSurface) ReadText(_ context.Context, selector string) (string, error) {
	text, ok := f.texts[selector]
	if !ok {
		return "", fmt.Errorf("no text scripted for %s", selector)
	}
	return text, nil
}

func (f *fakeSurface) GetAttribute(_ context.Context, selector, name string) (string, error) {
	return f.attrs[selector][name], nil
}

func (f *fakeSurface) Count(_ context.Context, selector string) (int, error) {
	return f.counts[selector], nil
}

func (f *fakeSurface) CurrentURL() string { return f.url }

func (f *fakeSurface) Title() (string, error) { return f.title, nil }

func (f *fakeSurface) ViewportSize() (browser.Size, error) { return f.viewport, nil }

func (f *fakeSurface) SetViewportSize(size browser.Size) error {
	f.viewport = size
	return nil
}

func (f *fakeSurface) BringToFront() error { return nil }

func (f *fakeSurface) Screenshot(context.Context, bool) ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeSurface) WaitLoadState(context.Context, string, time.Duration) error { return nil }

func (f *fakeSurface) Settle(time.Duration) {}

type fakeDriver struct {
	home      *fakeSurface
	listing   *fakeSurface
	navigated []string
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	d.home.url = url
	return nil
}

func (d *fakeDriver) Primary() browser.Surface { return d.home }

func (d *fakeDriver) ExpectNewSurface(_ context.Context, trigger func() error) (browser.Surface, error) {
	if err := trigger(); err != nil {
		return nil, err
	}
	return d.listing, nil
}

type recordingSink struct {
	names []string
}

func (s *recordingSink) Attach(name string, _ diagnostics.Kind, _ []byte) {
	s.names = append(s.names, name)
}

func testCriteria() SearchCriteria {
	return SearchCriteria{
		Destination: "Amsterdam",
		Stay: calendar.Range{
			Start: calendar.NewDay(2025, time.June, 10),
			End:   calendar.NewDay(2025, time.June, 11),
		},
		Adults:   2,
		Children: 1,
	}
}

// scriptedScenario wires a home and listing surface that walk the whole
// flow through successfully.
func scriptedScenario() *fakeDriver {
	home := newFakeSurface()
	home.visible["[data-testid='header-logo']"] = true
	home.visible["[data-testid='little-search']"] = true
	home.visible["[data-testid='option-0']"] = true
	home.onClick[selSearchButton] = func(s *fakeSurface) {
		s.url = "https://www.airbnb.com/s/Amsterdam--Netherlands/homes?search_type=filter_change"
		s.visible["[data-testid='card-container']"] = true
	}
	home.counts[selCardContainer] = 3
	home.texts[selCardContainer+" >> nth=0"] = "Canal apartment 4.52 (131)"
	home.texts[selCardContainer+" >> nth=1"] = "Jordaan loft 4.95 (87)"
	home.texts[selCardContainer+" >> nth=2"] = "Houseboat, new listing"

	listing := newFakeSurface()
	listing.url = "https://www.airbnb.com/rooms/4242"
	listing.visible["[data-testid='change-dates-checkIn']"] = true
	listing.texts[selListingCheckIn] = "6/10/2025"
	listing.texts[selListingCheckOut] = "6/11/2025"
	listing.texts[selListingGuests] = "3 guests"
	listing.texts[selChildCountLabel] = "1 child"
	listing.onClick[selChildDecrease] = func(s *fakeSurface) {
		s.texts[selChildCountLabel] = "0 children"
		s.texts[selListingGuests] = "2 guests"
	}
	listing.onClick[selReserveButton+"#1"] = func(s *fakeSurface) {
		s.url = "https://www.airbnb.com/book/stays/4242?numberOfAdults=2&numberOfChildren=0"
	}
	// Shifted range 2025-06-17..18, both rendered and clear.
	for _, key := range []string{"17/06/2025", "18/06/2025"} {
		cell := fmt.Sprintf("[data-testid='calendar-day-%s']", key)
		listing.counts[cell] = 1
		listing.attrs[cell] = map[string]string{"data-is-day-blocked": "false"}
	}

	return &fakeDriver{home: home, listing: listing}
}

func newTestOrchestrator(driver *fakeDriver, sink diagnostics.Sink) *Orchestrator {
	return NewOrchestrator(Config{
		BaseURL:      "https://www.airbnb.com/",
		Viewport:     browser.Size{Width: 1920, Height: 1080},
		ReadyTimeout: 5 * time.Second,
	}, driver, sink, zap.NewNop())
}

func TestRunCompletesFullScenario(t *testing.T) {
	driver := scriptedScenario()
	sink := &recordingSink{}
	o := newTestOrchestrator(driver, sink)

	err := o.Run(context.Background(), testCriteria(), 0, 7)
	require.NoError(t, err)

	assert.Equal(t, StageListingModifiedDates, o.Stage())
	assert.Equal(t, []string{"https://www.airbnb.com/"}, driver.navigated)
	// The highest-rated card (index 1, 4.95) opened the listing.
	assert.Contains(t, driver.home.clicks, selCardContainer+"#1")
	// Checkpoint screenshots made it to the sink.
	assert.Contains(t, sink.names, "homepage")
	assert.Contains(t, sink.names, "search-results")
	assert.Contains(t, sink.names, "listing-detail")
}

func TestValidateListingMatchesCriteriaExactly(t *testing.T) {
	driver := scriptedScenario()
	o := newTestOrchestrator(driver, diagnostics.NopSink{})

	criteria := testCriteria()
	require.NoError(t, o.OpenHome(context.Background()))
	require.NoError(t, o.SetDestination(context.Background(), criteria))
	require.NoError(t, o.SetDates(context.Background()))
	require.NoError(t, o.SetGuests(context.Background()))
	require.NoError(t, o.Submit(context.Background()))
	require.NoError(t, o.ValidateResults(context.Background()))
	require.NoError(t, o.OpenListing(context.Background()))
	require.NoError(t, o.ValidateListing(context.Background()))

	assert.Equal(t, StageListingValidated, o.Stage())
}

func TestValidateListingRejectsWrongDates(t *testing.T) {
	driver := scriptedScenario()
	driver.listing.texts[selListingCheckIn] = "6/12/2025"
	sink := &recordingSink{}
	o := newTestOrchestrator(driver, sink)

	err := o.Run(context.Background(), testCriteria(), 0, 7)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageListingOpened, stageErr.Stage)
	assert.ErrorIs(t, err, ErrStageFailed)
	// Diagnostics were captured for the failing stage.
	assert.Contains(t, sink.names, "ListingOpened-error")
	assert.Contains(t, sink.names, "ListingOpened-screenshot")
}

func TestSetListingChildrenReducesTotal(t *testing.T) {
	driver := scriptedScenario()
	o := newTestOrchestrator(driver, diagnostics.NopSink{})

	require.NoError(t, o.OpenHome(context.Background()))
	require.NoError(t, o.SetDestination(context.Background(), testCriteria()))
	require.NoError(t, o.SetDates(context.Background()))
	require.NoError(t, o.SetGuests(context.Background()))
	require.NoError(t, o.Submit(context.Background()))
	require.NoError(t, o.ValidateResults(context.Background()))
	require.NoError(t, o.OpenListing(context.Background()))
	require.NoError(t, o.ValidateListing(context.Background()))

	// 3 guests with 1 child; removing the child leaves 2.
	require.NoError(t, o.SetListingChildren(context.Background(), 0))

	assert.Equal(t, StageListingModifiedGuests, o.Stage())
	assert.Equal(t, "0 children", driver.listing.texts[selChildCountLabel])
	assert.Equal(t, "2 guests", driver.listing.texts[selListingGuests])
}

func TestShiftListingDatesBlockedRangeKeepsDates(t *testing.T) {
	driver := scriptedScenario()
	// Day 17 of the shifted range is blocked.
	cell := "[data-testid='calendar-day-17/06/2025']"
	driver.listing.attrs[cell] = map[string]string{"data-is-day-blocked": "true"}
	o := newTestOrchestrator(driver, diagnostics.NopSink{})

	err := o.Run(context.Background(), testCriteria(), 0, 7)
	require.NoError(t, err)

	// Calendar was closed without changing dates, then the reserve CTA
	// was still exercised.
	assert.Contains(t, driver.listing.clicks, selCalendarSave)
	assert.Contains(t, driver.listing.clicks, selReserveButton+"#1")
	assert.Equal(t, StageListingModifiedDates, o.Stage())
}

func TestSetDatesRejectsInvertedRange(t *testing.T) {
	driver := scriptedScenario()
	o := newTestOrchestrator(driver, diagnostics.NopSink{})

	criteria := testCriteria()
	criteria.Stay = calendar.Range{
		Start: calendar.NewDay(2025, time.June, 15),
		End:   calendar.NewDay(2025, time.June, 10),
	}
	require.NoError(t, o.OpenHome(context.Background()))
	require.NoError(t, o.SetDestination(context.Background(), criteria))

	err := o.SetDates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}

func TestSubmitFailsWhenURLUnchanged(t *testing.T) {
	driver := scriptedScenario()
	// Clicking search does nothing: no URL change, no result cards.
	delete(driver.home.onClick, selSearchButton)
	sink := &recordingSink{}
	o := newTestOrchestrator(driver, sink)

	err := o.Run(context.Background(), testCriteria(), 0, 7)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageGuestsSet, stageErr.Stage)
	assert.Equal(t, "https://www.airbnb.com/", stageErr.URL)
}

func TestStageStrings(t *testing.T) {
	assert.Equal(t, "Idle", StageIdle.String())
	assert.Equal(t, "ListingModified(Guests)", StageListingModifiedGuests.String())
	assert.Equal(t, "ListingModified(Dates)", StageListingModifiedDates.String())
}
