package http

import (
	"strings"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/booking"
	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// ListBookingsRequest defines query parameters for listing bookings.
// From and To bound the booking's start date, inclusive.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	Kind       string `form:"kind" binding:"omitempty,oneof=room hall"`
	Status     string `form:"status" binding:"omitempty,oneof=confirmed cancelled completed"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	From       string `form:"from" binding:"omitempty,date"`
	To         string `form:"to" binding:"omitempty,date"`
}

// toFilter parses the date bounds; a reversed range is a validation error.
func (r *ListBookingsRequest) toFilter() (booking.Filter, error) {
	f := booking.Filter{
		UserID:     r.UserID,
		ResourceID: r.ResourceID,
		Kind:       resource.Kind(r.Kind),
		Status:     booking.Status(r.Status),
		Page:       r.Page,
		PageSize:   r.PageSize,
		SortOrder:  strings.ToUpper(r.SortOrder),
	}
	var err error
	if f.From, err = optionalDate(r.From); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(r.To); err != nil {
		return f, err
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, booking.ErrInvalidDateRange
	}
	return f, nil
}

type BookingResponse struct {
	ID              string    `json:"id"`
	ResourceID      string    `json:"resource_id"`
	ResourceName    string    `json:"resource_name"`
	Kind            string    `json:"kind"`
	UserID          string    `json:"user_id"`
	CheckIn         string    `json:"check_in,omitempty"`
	CheckOut        string    `json:"check_out,omitempty"`
	Nights          int       `json:"nights,omitempty"`
	EventDate       string    `json:"event_date,omitempty"`
	StartTime       string    `json:"start_time,omitempty"`
	EndTime         string    `json:"end_time,omitempty"`
	EventType       string    `json:"event_type,omitempty"`
	Occupants       int       `json:"occupants"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		ResourceID:      b.ResourceID,
		ResourceName:    b.ResourceName,
		Kind:            string(b.ResourceKind),
		UserID:          b.UserID,
		EventType:       b.EventType,
		Occupants:       b.Occupants,
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		Version:         b.Version,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.ResourceKind == resource.KindHall {
		resp.EventDate = interval.FormatDate(b.EventDate)
		resp.StartTime = b.Slot.Start.String()
		resp.EndTime = b.Slot.End.String()
	} else {
		resp.CheckIn = interval.FormatDate(b.Stay.Start)
		resp.CheckOut = interval.FormatDate(b.Stay.End)
		resp.Nights = b.Stay.Nights()
	}
	return resp
}

// CreateBookingRequest takes check_in/check_out for rooms and
// event_date/start_time/end_time for halls. The service decides which set is
// required once it knows the resource kind.
type CreateBookingRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	CheckIn    string `json:"check_in" binding:"omitempty,date"`
	CheckOut   string `json:"check_out" binding:"omitempty,date"`
	EventDate  string `json:"event_date" binding:"omitempty,date"`
	StartTime  string `json:"start_time" binding:"omitempty,clock"`
	EndTime    string `json:"end_time" binding:"omitempty,clock"`
	EventType  string `json:"event_type" binding:"omitempty,max=100"`
	Occupants  int    `json:"occupants" binding:"required,min=1"`
}

func (r *CreateBookingRequest) toDomain() (booking.CreateRequest, error) {
	req := booking.CreateRequest{
		ResourceID: r.ResourceID,
		EventType:  r.EventType,
		Occupants:  r.Occupants,
	}
	var err error
	if req.CheckIn, err = dateOrZero(r.CheckIn); err != nil {
		return req, err
	}
	if req.CheckOut, err = dateOrZero(r.CheckOut); err != nil {
		return req, err
	}
	if req.EventDate, err = dateOrZero(r.EventDate); err != nil {
		return req, err
	}
	if req.StartTime, err = clockOrZero(r.StartTime); err != nil {
		return req, err
	}
	if req.EndTime, err = clockOrZero(r.EndTime); err != nil {
		return req, err
	}
	return req, nil
}

// ModifyBookingRequest changes only the fields present. Sending the version
// last read turns a concurrent edit into a conflict instead of a silent
// overwrite.
type ModifyBookingRequest struct {
	CheckIn   *string `json:"check_in" binding:"omitempty,date"`
	CheckOut  *string `json:"check_out" binding:"omitempty,date"`
	EventDate *string `json:"event_date" binding:"omitempty,date"`
	StartTime *string `json:"start_time" binding:"omitempty,clock"`
	EndTime   *string `json:"end_time" binding:"omitempty,clock"`
	EventType *string `json:"event_type" binding:"omitempty,max=100"`
	Occupants *int    `json:"occupants" binding:"omitempty,min=1"`
	Version   *int    `json:"version" binding:"omitempty,min=1"`
}

func (r *ModifyBookingRequest) toDomain() (booking.ModifyRequest, error) {
	req := booking.ModifyRequest{
		EventType: r.EventType,
		Occupants: r.Occupants,
		Version:   r.Version,
	}
	var err error
	if req.CheckIn, err = optionalDate(deref(r.CheckIn)); err != nil {
		return req, err
	}
	if req.CheckOut, err = optionalDate(deref(r.CheckOut)); err != nil {
		return req, err
	}
	if req.EventDate, err = optionalDate(deref(r.EventDate)); err != nil {
		return req, err
	}
	if req.StartTime, err = optionalClock(deref(r.StartTime)); err != nil {
		return req, err
	}
	if req.EndTime, err = optionalClock(deref(r.EndTime)); err != nil {
		return req, err
	}
	return req, nil
}

type AvailabilityResponse struct {
	ResourceID string                    `json:"resource_id"`
	Kind       string                    `json:"kind"`
	From       string                    `json:"from"`
	To         string                    `json:"to"`
	Room       *RoomAvailabilityResponse `json:"room,omitempty"`
	Hall       *HallAvailabilityResponse `json:"hall,omitempty"`
}

type RoomAvailabilityResponse struct {
	TotalDays       int                 `json:"total_days"`
	AvailableNights int                 `json:"available_nights"`
	Dates           []AvailableDateItem `json:"dates"`
}

type AvailableDateItem struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	PriceCents int64  `json:"price_cents"`
}

type HallAvailabilityResponse struct {
	OpensAt             string        `json:"opens_at"`
	ClosesAt            string        `json:"closes_at"`
	TotalAvailableHours int           `json:"total_available_hours"`
	Days                []HallDayItem `json:"days"`
}

type HallDayItem struct {
	Date           string         `json:"date"`
	Weekday        string         `json:"weekday"`
	AvailableHours int            `json:"available_hours"`
	Free           []FreeSlotItem `json:"free"`
}

type FreeSlotItem struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Hours      int    `json:"hours"`
	PriceCents int64  `json:"price_cents"`
}

func NewAvailabilityResponse(cal *booking.Calendar) AvailabilityResponse {
	resp := AvailabilityResponse{
		ResourceID: cal.ResourceID,
		Kind:       string(cal.Kind),
		From:       interval.FormatDate(cal.From),
		To:         interval.FormatDate(cal.To),
	}

	if cal.Room != nil {
		dates := make([]AvailableDateItem, len(cal.Room.Dates))
		for i, d := range cal.Room.Dates {
			dates[i] = AvailableDateItem{Date: interval.FormatDate(d.Date), Weekday: d.Weekday.String(), PriceCents: d.PriceCents}
		}
		resp.Room = &RoomAvailabilityResponse{
			TotalDays:       cal.Room.TotalDays,
			AvailableNights: cal.Room.AvailableNights,
			Dates:           dates,
		}
	}

	if cal.Hall != nil {
		days := make([]HallDayItem, len(cal.Hall.Days))
		for i, d := range cal.Hall.Days {
			free := make([]FreeSlotItem, len(d.Free))
			for j, f := range d.Free {
				free[j] = FreeSlotItem{
					StartTime:  f.Range.Start.String(),
					EndTime:    f.Range.End.String(),
					Hours:      f.Hours,
					PriceCents: f.PriceCents,
				}
			}
			days[i] = HallDayItem{
				Date:           interval.FormatDate(d.Date),
				Weekday:        d.Weekday.String(),
				AvailableHours: d.AvailableHours,
				Free:           free,
			}
		}
		resp.Hall = &HallAvailabilityResponse{
			OpensAt:             cal.Hall.OperatingHours.Start.String(),
			ClosesAt:            cal.Hall.OperatingHours.End.String(),
			TotalAvailableHours: cal.Hall.TotalAvailableHours,
			Days:                days,
		}
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrZero(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return interval.ParseDate(s)
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := interval.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func clockOrZero(s string) (interval.TimeOfDay, error) {
	if s == "" {
		return 0, nil
	}
	return interval.ParseClock(s)
}

func optionalClock(s string) (*interval.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	t, err := interval.ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
