package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, apperror.KindNotFound, "resource not found")
	ErrInvalidKind         = apperror.New(http.StatusBadRequest, apperror.KindValidation, "kind must be room or hall")
	ErrNameRequired        = apperror.New(http.StatusBadRequest, apperror.KindValidation, "room number or hall name is required")
	ErrInvalidRoomNumber   = apperror.New(http.StatusBadRequest, apperror.KindValidation, "room number may only contain uppercase letters, digits and hyphens (max 10)")
	ErrNameTooLong         = apperror.New(http.StatusBadRequest, apperror.KindValidation, "hall name cannot exceed 100 characters")
	ErrCapacityInvalid     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "capacity is out of range for this kind")
	ErrRoomTypeTooLong     = apperror.New(http.StatusBadRequest, apperror.KindValidation, "room type cannot exceed 50 characters")
	ErrDescriptionTooLong  = apperror.New(http.StatusBadRequest, apperror.KindValidation, "description cannot exceed 500 characters")
	ErrRateInvalid         = apperror.New(http.StatusBadRequest, apperror.KindValidation, "rate must be between 1 and 1000000 cents")
	ErrDuplicateName       = apperror.New(http.StatusConflict, apperror.KindDuplicate, "a resource with this number or name already exists")
	ErrInUse               = apperror.New(http.StatusConflict, apperror.KindResourceInUse, "cannot delete a resource with confirmed bookings")
	ErrCapacityBelowBooked = apperror.New(http.StatusConflict, apperror.KindResourceInUse, "capacity cannot drop below the occupants of a confirmed booking")
)

// Kind discriminates the two bookable resource variants.
type Kind string

const (
	KindRoom Kind = "room"
	KindHall Kind = "hall"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindRoom || k == KindHall
}

// Room holds the room-only fields.
type Room struct {
	Number string
	Type   string // e.g. single, double, suite
}

// Hall holds the hall-only fields.
type Hall struct {
	Name string
}

// Resource is a bookable room or hall. Exactly one of Room or Hall is set,
// matching Kind. RateCents is per night for rooms and per hour for halls.
type Resource struct {
	ID          string
	Kind        Kind
	Capacity    int
	RateCents   int64
	IsBookable  bool
	Description string
	Room        *Room
	Hall        *Hall
	CreatedAt   time.Time
}

// Name returns the display name: the room number or the hall name.
func (r *Resource) Name() string {
	switch {
	case r.Room != nil:
		return r.Room.Number
	case r.Hall != nil:
		return r.Hall.Name
	}
	return ""
}

// Bookable reports whether the resource currently accepts bookings.
func (r *Resource) Bookable() bool {
	return r != nil && r.IsBookable
}

// Filter defines parameters for listing resources.
type Filter struct {
	Kind         Kind
	OnlyBookable bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
