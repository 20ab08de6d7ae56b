package booking

import (
	"time"
	"unicode/utf8"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// Candidate is a proposed booking interval and party size.
type Candidate struct {
	Stay      interval.DateRange // rooms
	EventDate time.Time          // halls
	Slot      interval.TimeRange // halls
	Occupants int
}

func (c Candidate) sameInterval(o Candidate) bool {
	return c.Stay == o.Stay && c.EventDate.Equal(o.EventDate) && c.Slot == o.Slot
}

// CheckShape validates the candidate's form without looking at the clock or
// other bookings.
func CheckShape(kind resource.Kind, c Candidate, caps Capabilities) error {
	if c.Occupants < 1 {
		return ErrOccupantsInvalid
	}

	window, timed := caps.OperatingWindowOf(kind)
	if !timed {
		if c.Stay.Start.IsZero() || c.Stay.End.IsZero() {
			return ErrIntervalRequired
		}
		if !c.Stay.Valid() {
			return ErrInvalidDateRange
		}
		return nil
	}

	if c.EventDate.IsZero() {
		return ErrIntervalRequired
	}
	if !c.Slot.Valid() {
		return ErrInvalidTimeRange
	}
	if _, err := c.Slot.Hours(); err != nil {
		return ErrFractionalHours
	}
	if !c.Slot.Within(window) {
		return ErrOutsideWindow
	}
	return nil
}

// CheckHorizon rejects candidates that start before now or reach past the
// booking horizon.
func CheckHorizon(kind resource.Kind, c Candidate, now time.Time, p Policy) error {
	today := p.Today(now)
	last := p.HorizonEnd(today)

	if _, timed := p.OperatingWindowOf(kind); !timed {
		if c.Stay.Start.Before(today) {
			return ErrStartInPast
		}
		if c.Stay.End.After(last) {
			return ErrHorizonExceeded
		}
		return nil
	}

	if c.EventDate.Before(today) {
		return ErrStartInPast
	}
	if c.EventDate.Equal(today) && p.At(c.EventDate, c.Slot.Start).Before(now) {
		return ErrStartInPast
	}
	if c.EventDate.After(last) {
		return ErrHorizonExceeded
	}
	return nil
}

// CheckAdmissible decides whether c may be booked on res given the resource's
// existing bookings. Only confirmed bookings of res are considered; callers
// modifying a booking must leave it out of existing. Back-to-back bookings
// (end == start, or end+buffer == start for halls) are admissible.
func CheckAdmissible(res *resource.Resource, c Candidate, existing []*Booking, caps Capabilities) error {
	if !res.Bookable() {
		return ErrResourceUnavailable
	}
	if c.Occupants > res.Capacity {
		return ErrOverCapacity
	}
	if err := CheckShape(res.Kind, c, caps); err != nil {
		return err
	}
	if conflicting(res, c, existing, caps) != nil {
		return ErrSchedulingConflict
	}
	return nil
}

// conflicting returns the first existing booking that c collides with.
func conflicting(res *resource.Resource, c Candidate, existing []*Booking, caps Capabilities) *Booking {
	_, timed := caps.OperatingWindowOf(res.Kind)
	buf := caps.BufferOf(res.Kind)
	want := c.Slot.WithBuffer(buf)

	for _, b := range existing {
		if b.Status != StatusConfirmed || b.ResourceID != res.ID {
			continue
		}
		if !timed {
			if c.Stay.Overlaps(b.Stay) {
				return b
			}
			continue
		}
		if !b.EventDate.Equal(c.EventDate) {
			continue
		}
		if want.Overlaps(b.Slot.WithBuffer(buf)) {
			return b
		}
	}
	return nil
}

// Price is the resource's current rate times the number of nights or hours.
func Price(res *resource.Resource, c Candidate, caps Capabilities) (int64, error) {
	switch caps.RateUnitOf(res.Kind) {
	case PerHour:
		hours, err := c.Slot.Hours()
		if err != nil {
			return 0, ErrFractionalHours
		}
		return res.RateCents * int64(hours), nil
	default:
		return res.RateCents * int64(c.Stay.Nights()), nil
	}
}

func validateEventType(s string) error {
	if utf8.RuneCountInString(s) > maxEventTypeLen {
		return ErrEventTypeTooLong
	}
	return nil
}
