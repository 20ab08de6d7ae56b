package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
)

func TestBuildRoomAvailabilityEmpty(t *testing.T) {
	p := DefaultPolicy()
	today := date("2025-01-10")

	got := BuildRoomAvailability(room("r1", 2, 9900), nil, today, p)

	assert.Equal(t, 31, got.TotalDays)
	assert.Equal(t, 31, got.AvailableNights)
	require.Len(t, got.Dates, 31)
	assert.Equal(t, today, got.Dates[0].Date)
	assert.Equal(t, date("2025-02-09"), got.Dates[30].Date)
	for _, d := range got.Dates {
		assert.Equal(t, int64(9900), d.PriceCents)
		assert.Equal(t, d.Date.Weekday(), d.Weekday)
	}
}

func TestBuildRoomAvailabilitySkipsBookedNights(t *testing.T) {
	p := DefaultPolicy()
	today := date("2025-01-10")
	bookings := []*Booking{
		stay("r1", "2025-01-12", "2025-01-14"), // nights of the 12th and 13th
		stay("r1", "2025-01-05", "2025-01-11"), // started before today
		stay("r2", "2025-01-20", "2025-01-25"), // another room
	}
	cancelled := stay("r1", "2025-01-20", "2025-01-22")
	cancelled.Status = StatusCancelled
	bookings = append(bookings, cancelled)

	got := BuildRoomAvailability(room("r1", 2, 9900), bookings, today, p)

	assert.Equal(t, 28, got.AvailableNights)
	free := make(map[time.Time]bool)
	for _, d := range got.Dates {
		free[d.Date] = true
	}
	assert.False(t, free[date("2025-01-10")])
	assert.True(t, free[date("2025-01-11")])
	assert.False(t, free[date("2025-01-12")])
	assert.False(t, free[date("2025-01-13")])
	assert.True(t, free[date("2025-01-14")], "check-out date is available")
	assert.True(t, free[date("2025-01-20")], "cancelled bookings free their nights")
}

func TestBuildRoomAvailabilityDisabledRoom(t *testing.T) {
	r := room("r1", 2, 9900)
	r.IsBookable = false

	got := BuildRoomAvailability(r, nil, date("2025-01-10"), DefaultPolicy())
	assert.Equal(t, 0, got.AvailableNights)
	assert.Empty(t, got.Dates)
}

func TestBuildHallAvailabilityMergesFreeSlots(t *testing.T) {
	p := DefaultPolicy()
	p.HorizonDays = 2
	today := date("2025-01-10")
	bookings := []*Booking{
		event("h1", "2025-01-10", interval.Clock(12, 0), interval.Clock(14, 0)),
		event("h1", "2025-01-10", interval.Clock(17, 30), interval.Clock(18, 30)),
		event("h1", "2025-01-11", interval.Clock(9, 0), interval.Clock(22, 0)),
	}

	got := BuildHallAvailability(hall("h1", 100, 5000), bookings, today, p)

	require.Len(t, got.Days, 2, "fully booked day is omitted")
	first := got.Days[0]
	assert.Equal(t, today, first.Date)

	var ranges []string
	for _, f := range first.Free {
		ranges = append(ranges, f.Range.String())
	}
	// 17:30-18:30 blocks both the 17:00 and the 18:00 slot.
	assert.Equal(t, []string{"[09:00, 12:00)", "[14:00, 17:00)", "[19:00, 22:00)"}, ranges)
	assert.Equal(t, 3, first.Free[0].Hours)
	assert.Equal(t, int64(15000), first.Free[0].PriceCents)
	assert.Equal(t, 9, first.AvailableHours)

	assert.Equal(t, date("2025-01-12"), got.Days[1].Date)
	assert.Equal(t, 13, got.Days[1].AvailableHours)
	assert.Equal(t, 22, got.TotalAvailableHours)
}

func TestBuildHallAvailabilityIgnoresBuffer(t *testing.T) {
	p := DefaultPolicy()
	p.HorizonDays = 0
	today := date("2025-01-10")
	b := event("h1", "2025-01-10", interval.Clock(12, 0), interval.Clock(14, 0))
	h := hall("h1", 100, 5000)

	got := BuildHallAvailability(h, []*Booking{b}, today, p)
	require.Len(t, got.Days, 1)
	assert.Equal(t, "[14:00, 22:00)", got.Days[0].Free[1].Range.String())

	// The 14:00 slot is shown free but admission still applies the buffer.
	c := Candidate{EventDate: today, Slot: interval.TimeRange{Start: interval.Clock(14, 0), End: interval.Clock(15, 0)}, Occupants: 1}
	assert.ErrorIs(t, CheckAdmissible(h, c, []*Booking{b}, p), ErrSchedulingConflict)
}

func TestFreeIntervalsPartialWindow(t *testing.T) {
	window := interval.TimeRange{Start: interval.Clock(9, 30), End: interval.Clock(12, 0)}
	got := freeIntervals(window, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "[09:30, 11:30)", got[0].String(), "trailing partial slot is dropped")
}

func TestBuildAvailabilityDispatch(t *testing.T) {
	p := DefaultPolicy()
	today := date("2025-01-10")

	roomCal := BuildAvailability(room("r1", 2, 100), nil, today, p)
	require.NotNil(t, roomCal.Room)
	assert.Nil(t, roomCal.Hall)
	assert.Equal(t, date("2025-02-09"), roomCal.To)

	hallCal := BuildAvailability(hall("h1", 2, 100), nil, today, p)
	require.NotNil(t, hallCal.Hall)
	assert.Nil(t, hallCal.Room)
	assert.Len(t, hallCal.Hall.Days, 31)
	assert.Equal(t, 31*13, hallCal.Hall.TotalAvailableHours)
}
