package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, apperror.KindNotFound, "booking not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, apperror.KindPermissionDenied, "permission denied")

	ErrIntervalRequired    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "booking interval is required for this resource kind")
	ErrInvalidDateRange    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "check-out date must be after check-in date")
	ErrInvalidTimeRange    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "end time must be after start time")
	ErrStartInPast         = apperror.New(http.StatusBadRequest, apperror.KindValidation, "cannot book in the past")
	ErrFractionalHours     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "hall bookings must last a whole number of hours")
	ErrOutsideWindow       = apperror.New(http.StatusBadRequest, apperror.KindValidation, "hall bookings must fall within operating hours")
	ErrOccupantsInvalid    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "occupant count must be at least 1")
	ErrOverCapacity        = apperror.New(http.StatusBadRequest, apperror.KindValidation, "occupant count exceeds resource capacity")
	ErrEventTypeTooLong    = apperror.New(http.StatusBadRequest, apperror.KindValidation, "event type cannot exceed 100 characters")
	ErrResourceUnavailable = apperror.New(http.StatusUnprocessableEntity, apperror.KindResourceUnavailable, "resource does not exist or is not accepting bookings")
	ErrHorizonExceeded     = apperror.New(http.StatusUnprocessableEntity, apperror.KindHorizonExceeded, "bookings can only be made up to the booking horizon")

	ErrSchedulingConflict     = apperror.New(http.StatusConflict, apperror.KindSchedulingConflict, "the requested time overlaps an existing booking")
	ErrConcurrentModification = apperror.New(http.StatusConflict, apperror.KindSchedulingConflict, "booking was modified concurrently, reload and retry")

	ErrCancellationWindowExpired = apperror.New(http.StatusUnprocessableEntity, apperror.KindCancellationWindowExpired, "bookings can only be cancelled more than the minimum lead time before they start")
)

const maxEventTypeLen = 100

// Booking is a reservation of a single resource. Rooms use Stay; halls use
// EventDate and Slot. The unused interval is left at its zero value.
type Booking struct {
	ID           string
	ResourceID   string
	ResourceKind resource.Kind
	ResourceName string
	UserID       string

	Stay      interval.DateRange
	EventDate time.Time
	Slot      interval.TimeRange
	EventType string

	Occupants       int
	TotalPriceCents int64
	Status          Status
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartDate is the calendar date the booking begins on.
func (b *Booking) StartDate() time.Time {
	if b.ResourceKind == resource.KindHall {
		return b.EventDate
	}
	return b.Stay.Start
}

// candidate returns the booking's interval in checker form.
func (b *Booking) candidate() Candidate {
	return Candidate{
		Stay:      b.Stay,
		EventDate: b.EventDate,
		Slot:      b.Slot,
		Occupants: b.Occupants,
	}
}

// Filter defines parameters for listing bookings. Empty fields are ignored.
type Filter struct {
	UserID     string
	ResourceID string
	Kind       resource.Kind
	Status     Status
	From       *time.Time // bookings starting on or after this date
	To         *time.Time // bookings starting on or before this date
	Page       int
	PageSize   int
	SortOrder  string
}

// Actor is the authenticated principal performing an operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) canAccess(b *Booking) bool {
	return a.IsAdmin || (a.UserID != "" && a.UserID == b.UserID)
}
