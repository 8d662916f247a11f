package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridKeyUsesDayFirstFormat(t *testing.T) {
	day := NewDay(2025, time.June, 3)
	assert.Equal(t, "03/06/2025", day.GridKey())
}

func TestISO(t *testing.T) {
	day := NewDay(2025, time.June, 10)
	assert.Equal(t, "2025-06-10", day.ISO())
}

func TestNextCrossesMonthBoundary(t *testing.T) {
	day := NewDay(2025, time.June, 30)
	assert.Equal(t, NewDay(2025, time.July, 1), day.Next())
}

func TestAddDaysCrossesYearBoundary(t *testing.T) {
	day := NewDay(2025, time.December, 28)
	assert.Equal(t, NewDay(2026, time.January, 4), day.AddDays(7))
}

func TestParseListingDate(t *testing.T) {
	tests := []struct {
		in   string
		want Day
	}{
		{"6/11/2025", NewDay(2025, time.June, 11)},
		{"06/11/2025", NewDay(2025, time.June, 11)},
		{"12/1/2025", NewDay(2025, time.December, 1)},
		{" 6/11/2025 ", NewDay(2025, time.June, 11)},
		{"2025-06-11", NewDay(2025, time.June, 11)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseListingDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseListingDateRejectsGarbage(t *testing.T) {
	_, err := ParseListingDate("not a date")
	require.Error(t, err)
}

func TestRangeValidate(t *testing.T) {
	valid := Range{Start: NewDay(2025, time.June, 10), End: NewDay(2025, time.June, 12)}
	require.NoError(t, valid.Validate())

	single := Range{Start: NewDay(2025, time.June, 10), End: NewDay(2025, time.June, 10)}
	require.NoError(t, single.Validate())

	inverted := Range{Start: NewDay(2025, time.June, 15), End: NewDay(2025, time.June, 10)}
	err := inverted.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRangeLen(t *testing.T) {
	r := Range{Start: NewDay(2025, time.June, 10), End: NewDay(2025, time.June, 12)}
	assert.Equal(t, 3, r.Len())

	single := Range{Start: NewDay(2025, time.June, 10), End: NewDay(2025, time.June, 10)}
	assert.Equal(t, 1, single.Len())
}

func TestRangeShift(t *testing.T) {
	r := Range{Start: NewDay(2025, time.June, 28), End: NewDay(2025, time.June, 29)}
	shifted := r.Shift(7)
	assert.Equal(t, NewDay(2025, time.July, 5), shifted.Start)
	assert.Equal(t, NewDay(2025, time.July, 6), shifted.End)
}
