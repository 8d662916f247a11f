package flow

import (
	"errors"
	"fmt"
)

type Stage int

const (
	StageIdle Stage = iota
	StageDestinationSet
	StageDatesSet
	StageGuestsSet
	StageSubmitted
	StageResultsValidated
	StageListingOpened
	StageListingValidated
	StageListingModifiedGuests
	StageListingModifiedDates
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageDestinationSet:
		return "DestinationSet"
	case StageDatesSet:
		return "DatesSet"
	case StageGuestsSet:
		return "GuestsSet"
	case StageSubmitted:
		return "Submitted"
	case StageResultsValidated:
		return "ResultsValidated"
	case StageListingOpened:
		return "ListingOpened"
	case StageListingValidated:
		return "ListingValidated"
	case StageListingModifiedGuests:
		return "ListingModified(Guests)"
	case StageListingModifiedDates:
		return "ListingModified(Dates)"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ErrStageFailed marks a postcondition that did not hold. The scenario
// terminates at that stage; there is no automatic recovery.
var ErrStageFailed = errors.New("stage postcondition failed")

// StageError carries the failing stage and the last known URL so a
// terminated run reports where it died.
type StageError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed at %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStageFailed
}

func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}
