package booking

import (
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// Calendar is the published availability of one resource. Exactly one of Room
// or Hall is set, matching Kind.
type Calendar struct {
	ResourceID string            `json:"resource_id"`
	Kind       resource.Kind     `json:"kind"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	Room       *RoomAvailability `json:"room,omitempty"`
	Hall       *HallAvailability `json:"hall,omitempty"`
}

type RoomAvailability struct {
	TotalDays       int             `json:"total_days"`
	AvailableNights int             `json:"available_nights"`
	Dates           []AvailableDate `json:"dates"`
}

type AvailableDate struct {
	Date       time.Time    `json:"date"`
	Weekday    time.Weekday `json:"weekday"`
	PriceCents int64        `json:"price_cents"`
}

type HallAvailability struct {
	OperatingHours      interval.TimeRange `json:"operating_hours"`
	TotalAvailableHours int                `json:"total_available_hours"`
	Days                []HallDay          `json:"days"`
}

type HallDay struct {
	Date           time.Time      `json:"date"`
	Weekday        time.Weekday   `json:"weekday"`
	AvailableHours int            `json:"available_hours"`
	Free           []FreeInterval `json:"free"`
}

type FreeInterval struct {
	Range      interval.TimeRange `json:"range"`
	Hours      int                `json:"hours"`
	PriceCents int64              `json:"price_cents"`
}

// BuildAvailability dispatches on the resource kind.
func BuildAvailability(res *resource.Resource, bookings []*Booking, today time.Time, p Policy) *Calendar {
	cal := &Calendar{
		ResourceID: res.ID,
		Kind:       res.Kind,
		From:       today,
		To:         p.HorizonEnd(today),
	}
	if _, timed := p.OperatingWindowOf(res.Kind); timed {
		cal.Hall = BuildHallAvailability(res, bookings, today, p)
	} else {
		cal.Room = BuildRoomAvailability(res, bookings, today, p)
	}
	return cal
}

// BuildRoomAvailability lists every free night in [today, today+horizon].
// A date d is taken when a confirmed booking has checkIn <= d < checkOut.
func BuildRoomAvailability(res *resource.Resource, bookings []*Booking, today time.Time, p Policy) *RoomAvailability {
	today = interval.Date(today)
	out := &RoomAvailability{
		TotalDays: p.HorizonDays + 1,
		Dates:     []AvailableDate{},
	}
	if !res.Bookable() {
		return out
	}

	active := confirmedFor(res.ID, bookings)
	for d := today; !d.After(p.HorizonEnd(today)); d = d.AddDate(0, 0, 1) {
		if takenOn(active, d) {
			continue
		}
		out.Dates = append(out.Dates, AvailableDate{
			Date:       d,
			Weekday:    d.Weekday(),
			PriceCents: res.RateCents,
		})
	}
	out.AvailableNights = len(out.Dates)
	return out
}

func takenOn(bookings []*Booking, d time.Time) bool {
	for _, b := range bookings {
		if b.Stay.Contains(d) {
			return true
		}
	}
	return false
}

// BuildHallAvailability splits the operating window of each date into one-hour
// slots, drops slots overlapping a confirmed booking and merges the rest into
// maximal free intervals. Days with nothing free are omitted.
//
// The maintenance buffer is not applied here, so a slot right after a booking
// can show as free while admission of that slot is still refused.
func BuildHallAvailability(res *resource.Resource, bookings []*Booking, today time.Time, p Policy) *HallAvailability {
	today = interval.Date(today)
	window, _ := p.OperatingWindowOf(res.Kind)
	out := &HallAvailability{
		OperatingHours: window,
		Days:           []HallDay{},
	}
	if !res.Bookable() {
		return out
	}

	byDate := make(map[time.Time][]interval.TimeRange)
	for _, b := range confirmedFor(res.ID, bookings) {
		d := interval.Date(b.EventDate)
		byDate[d] = append(byDate[d], b.Slot)
	}

	for d := today; !d.After(p.HorizonEnd(today)); d = d.AddDate(0, 0, 1) {
		free := freeIntervals(window, byDate[d])
		if len(free) == 0 {
			continue
		}

		day := HallDay{Date: d, Weekday: d.Weekday(), Free: make([]FreeInterval, 0, len(free))}
		for _, r := range free {
			hours := int(r.Duration() / time.Hour)
			day.Free = append(day.Free, FreeInterval{
				Range:      r,
				Hours:      hours,
				PriceCents: res.RateCents * int64(hours),
			})
			day.AvailableHours += hours
		}
		out.Days = append(out.Days, day)
		out.TotalAvailableHours += day.AvailableHours
	}
	return out
}

// freeIntervals walks the window hour by hour and run-length merges free slots.
func freeIntervals(window interval.TimeRange, busy []interval.TimeRange) []interval.TimeRange {
	var (
		out  []interval.TimeRange
		open *interval.TimeRange
	)
	for start := window.Start; start.Add(time.Hour) <= window.End; start = start.Add(time.Hour) {
		slot := interval.TimeRange{Start: start, End: start.Add(time.Hour)}
		if overlapsAny(slot, busy) {
			if open != nil {
				out = append(out, *open)
				open = nil
			}
			continue
		}
		if open != nil && open.End == slot.Start {
			open.End = slot.End
			continue
		}
		if open != nil {
			out = append(out, *open)
		}
		s := slot
		open = &s
	}
	if open != nil {
		out = append(out, *open)
	}
	return out
}

func overlapsAny(slot interval.TimeRange, busy []interval.TimeRange) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}

func confirmedFor(resourceID string, bookings []*Booking) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == StatusConfirmed && b.ResourceID == resourceID {
			out = append(out, b)
		}
	}
	return out
}
