package flow

import (
	"time"

	"bnbflow/internal/probe"
	"bnbflow/internal/readiness"
)

// Selector chains for the site. Order inside a chain is priority: the
// specific business indicator first, structural fallbacks last.

const (
	selDestinationInput = "[data-testid='structured-search-input-field-query']"
	selFirstSuggestion  = "[data-testid='option-0']"
	selGuestsButton     = "[data-testid='structured-search-input-field-guests-button']"
	selAdultsIncrease   = "[data-testid='stepper-adults-increase-button']"
	selChildrenIncrease = "[data-testid='stepper-children-increase-button']"
	selSearchButton     = "[data-testid='structured-search-input-field-search-button']"

	selCardContainer = "[data-testid='card-container']"
	selNoResults     = "[data-testid='no-results-section']"
	selExploreHeader = "[data-testid='explore-header']"
	selLittleSearch  = "[data-testid='little-search']"

	selListingCheckIn  = "[data-testid='change-dates-checkIn']"
	selListingCheckOut = "[data-testid='change-dates-checkOut']"
	selListingGuests   = "[id='GuestPicker-book_it-trigger']"
	selChildCountLabel = "[data-testid='GuestPicker-book_it-form-children-stepper-a11y-value-label']"
	selChildDecrease   = "[data-testid='GuestPicker-book_it-form-children-stepper-decrease-button']"
	selChildIncrease   = "[data-testid='GuestPicker-book_it-form-children-stepper-increase-button']"
	selCalendarSave    = "[data-testid='availability-calendar-save']"
	selReserveButton   = "[data-testid='homes-pdp-cta-btn']"
)

var homeSoftWaits = []readiness.LoadState{
	{State: "networkidle", Timeout: 30 * time.Second},
	{State: "domcontentloaded", Timeout: 15 * time.Second},
}

var homeIndicators = []probe.Chain{
	probe.MustChain("header-logo",
		probe.ByTestID("header-logo", 5*time.Second)),
	probe.MustChain("search-box",
		probe.ByTestID("little-search", 5*time.Second)),
	probe.MustChain("page-chrome",
		probe.ByCSS("header", 5*time.Second),
		probe.ByRole("banner", 5*time.Second),
		probe.ByCSS("div[role='main']", 5*time.Second),
		probe.ByCSS("body > div", 5*time.Second)),
}

var resultsSoftWaits = []readiness.LoadState{
	{State: "domcontentloaded", Timeout: 15 * time.Second},
}

var resultsIndicators = []probe.Chain{
	probe.MustChain("result-cards",
		probe.ByTestID("card-container", 2*time.Second),
		probe.ByTestID("listing-card", 2*time.Second)),
	probe.MustChain("results-chrome",
		probe.ByTestID("explore-footer", 2*time.Second),
		probe.ByTestID("little-search", 2*time.Second)),
	probe.MustChain("results-structure",
		probe.ByCSS("[itemprop='itemListElement']", 2*time.Second),
		probe.ByCSS("main[id='site-content']", 2*time.Second),
		probe.ByCSS("div[role='main']", 2*time.Second),
		probe.ByCSS("footer", 2*time.Second),
		probe.ByCSS("h1", 2*time.Second)),
}

var listingSoftWaits = []readiness.LoadState{
	{State: "networkidle", Timeout: 30 * time.Second},
}

var listingIndicators = []probe.Chain{
	probe.MustChain("booking-panel",
		probe.ByTestID("change-dates-checkIn", 5*time.Second),
		probe.ByCSS(selListingGuests, 5*time.Second)),
	probe.MustChain("listing-structure",
		probe.ByCSS("div[role='main']", 5*time.Second),
		probe.ByCSS("h1", 5*time.Second)),
}

var searchBoxChain = probe.MustChain("search-box",
	probe.ByTestID("little-search", 5*time.Second),
	probe.ByTestID("structured-search-input-field-query", 5*time.Second),
)

// heading candidates checked when verifying the destination made it into
// the rendered results page.
var destinationTextSelectors = []string{
	selExploreHeader,
	"h1",
	selLittleSearch,
	selDestinationInput,
}
