package interval

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrFractionalHours = errors.New("duration must be a whole number of hours")
	ErrInvalidClock    = errors.New("time of day must be formatted as HH:MM")
)

const dateLayout = "2006-01-02"

// Date truncates t to midnight UTC of its calendar day.
// All calendar dates handled by this package are normalized this way.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateRange is a half-open range of calendar dates [Start, End).
// For a room stay Start is the check-in date and End the check-out date.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both ends to calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Date(start), End: Date(end)}
}

// Overlaps reports whether the two ranges share at least one date.
// Touching ranges (a.End == b.Start) do not overlap.
func (a DateRange) Overlaps(b DateRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether d falls in [Start, End).
func (a DateRange) Contains(d time.Time) bool {
	d = Date(d)
	return !d.Before(a.Start) && d.Before(a.End)
}

// Nights is the number of nights in the stay. It is zero or negative for
// malformed ranges; callers validate with Valid first.
func (a DateRange) Nights() int {
	return int(a.End.Sub(a.Start).Hours() / 24)
}

// Valid reports whether the range has a positive length.
func (a DateRange) Valid() bool {
	return a.Start.Before(a.End)
}

func (a DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", FormatDate(a.Start), FormatDate(a.End))
}

// TimeOfDay is an offset from midnight.
type TimeOfDay time.Duration

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseClock parses "HH:MM". "HH:MM:SS" is accepted only when the seconds
// are zero; slots are whole minutes.
func ParseClock(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil || t.Second() != 0 {
			return 0, ErrInvalidClock
		}
	}
	return Clock(t.Hour(), t.Minute()), nil
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(time.Duration(t) / time.Hour) }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(time.Duration(t)%time.Hour) / int(time.Minute) }

// Add shifts t by d.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay { return t + TimeOfDay(d) }

// On anchors t to the given date.
func (t TimeOfDay) On(date time.Time) time.Time {
	return Date(date).Add(time.Duration(t))
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// TimeRange is a half-open range [Start, End) within a single day.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether the two ranges intersect. Touching ends do not overlap.
func (a TimeRange) Overlaps(b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// Within reports whether a lies entirely inside w.
func (a TimeRange) Within(w TimeRange) bool {
	return a.Start >= w.Start && a.End <= w.End
}

// Valid reports whether the range has a positive length.
func (a TimeRange) Valid() bool {
	return a.Start < a.End
}

// Duration is End - Start.
func (a TimeRange) Duration() time.Duration {
	return time.Duration(a.End - a.Start)
}

// Hours returns the exact number of hours covered by the range, or
// ErrFractionalHours when the length is not a whole number of hours.
func (a TimeRange) Hours() (int, error) {
	d := a.Duration()
	if d%time.Hour != 0 {
		return 0, ErrFractionalHours
	}
	return int(d / time.Hour), nil
}

// WithBuffer extends the end of the range by buf. The result is only used for
// adjacency checks and is never stored.
func (a TimeRange) WithBuffer(buf time.Duration) TimeRange {
	return TimeRange{Start: a.Start, End: a.End.Add(buf)}
}

func (a TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", a.Start, a.End)
}
