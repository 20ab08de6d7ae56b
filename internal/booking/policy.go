package booking

import (
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// Policy holds the scheduling rules applied to every check and calendar build.
// It is a value; callers that need different rules pass a different Policy.
type Policy struct {
	HorizonDays int
	CancelLead  time.Duration
	HallWindow  interval.TimeRange
	HallBuffer  time.Duration
	Location    *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		HorizonDays: 30,
		CancelLead:  24 * time.Hour,
		HallWindow:  interval.TimeRange{Start: interval.Clock(9, 0), End: interval.Clock(22, 0)},
		HallBuffer:  30 * time.Minute,
		Location:    time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Today is the calendar date of now in the policy's location.
func (p Policy) Today(now time.Time) time.Time {
	return interval.Date(now.In(p.location()))
}

// HorizonEnd is the last date a booking may touch, inclusive.
func (p Policy) HorizonEnd(today time.Time) time.Time {
	return today.AddDate(0, 0, p.HorizonDays)
}

// StartInstant anchors a calendar date (midnight) to the policy's location.
func (p Policy) StartInstant(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.location())
}

// At anchors a time of day on date in the policy's location.
func (p Policy) At(date time.Time, t interval.TimeOfDay) time.Time {
	return p.StartInstant(date).Add(time.Duration(t))
}

// RateUnit names what a resource's rate is charged per.
type RateUnit string

const (
	PerNight RateUnit = "night"
	PerHour  RateUnit = "hour"
)

// Capabilities exposes the kind-specific scheduling rules.
type Capabilities interface {
	// OperatingWindowOf returns the daily window and false for kinds booked by date.
	OperatingWindowOf(k resource.Kind) (interval.TimeRange, bool)
	BufferOf(k resource.Kind) time.Duration
	RateUnitOf(k resource.Kind) RateUnit
}

func (p Policy) OperatingWindowOf(k resource.Kind) (interval.TimeRange, bool) {
	if k == resource.KindHall {
		return p.HallWindow, true
	}
	return interval.TimeRange{}, false
}

func (p Policy) BufferOf(k resource.Kind) time.Duration {
	if k == resource.KindHall {
		return p.HallBuffer
	}
	return 0
}

func (p Policy) RateUnitOf(k resource.Kind) RateUnit {
	if k == resource.KindHall {
		return PerHour
	}
	return PerNight
}
