package flow

import (
	"bnbflow/internal/calendar"
)

// SearchCriteria drives the search UI and is reused afterwards to validate
// what the booking surface actually rendered. Immutable per invocation.
type SearchCriteria struct {
	Destination string
	Stay        calendar.Range
	Adults      int
	Children    int
}

func (c SearchCriteria) TotalGuests() int {
	return c.Adults + c.Children
}
