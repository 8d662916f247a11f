package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRange = errors.New("range start is after range end")

// Day is a calendar day with no time-of-day or timezone component. All
// date handling inside the flow uses this type; string formats exist only
// at the boundary with the rendered page.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

func NewDay(year int, month time.Month, date int) Day {
	// Round-trip through time.Time normalizes overflow like Jan 32.
	return fromTime(time.Date(year, month, date, 0, 0, 0, 0, time.UTC))
}

func Today() Day {
	return fromTime(time.Now())
}

// DaysFromNow is how trip dates are specified: check-in +1, check-out +2.
func DaysFromNow(n int) Day {
	return fromTime(time.Now().AddDate(0, 0, n))
}

func fromTime(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}
}

func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, time.UTC)
}

func (d Day) Next() Day {
	return fromTime(d.Time().AddDate(0, 0, 1))
}

func (d Day) AddDays(n int) Day {
	return fromTime(d.Time().AddDate(0, 0, n))
}

func (d Day) After(other Day) bool {
	return d.Time().After(other.Time())
}

// GridKey renders the day the way the availability grid keys its cells:
// data-testid="calendar-day-DD/MM/YYYY".
func (d Day) GridKey() string {
	return d.Time().Format("02/01/2006")
}

// ISO renders the unambiguous YYYY-MM-DD form used in logs and diagnostics.
func (d Day) ISO() string {
	return d.Time().Format("2006-01-02")
}

// ParseListingDate parses the check-in/check-out text a listing displays,
// e.g. "6/11/2025" (month first, no leading zeros).
func ParseListingDate(s string) (Day, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"1/2/2006", "01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return fromTime(t), nil
		}
	}
	return Day{}, fmt.Errorf("unrecognized listing date %q", s)
}

// Range is an inclusive span of days.
type Range struct {
	Start Day
	End   Day
}

func (r Range) Validate() error {
	if r.Start.After(r.End) {
		return fmt.Errorf("%s..%s: %w", r.Start.ISO(), r.End.ISO(), ErrInvalidRange)
	}
	return nil
}

// Len is the number of days scanned for the range, endpoints included.
func (r Range) Len() int {
	return int(r.End.Time().Sub(r.Start.Time()).Hours()/24) + 1
}

func (r Range) Shift(days int) Range {
	return Range{Start: r.Start.AddDays(days), End: r.End.AddDays(days)}
}
