package http

import (
	"strings"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

type ResourceResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	RoomNumber  string    `json:"room_number,omitempty"`
	RoomType    string    `json:"room_type,omitempty"`
	HallName    string    `json:"hall_name,omitempty"`
	Capacity    int       `json:"capacity"`
	RateCents   int64     `json:"rate_cents"`
	RateUnit    string    `json:"rate_unit"`
	IsBookable  bool      `json:"is_bookable"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	resp := ResourceResponse{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Name:        r.Name(),
		Capacity:    r.Capacity,
		RateCents:   r.RateCents,
		IsBookable:  r.IsBookable,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	switch {
	case r.Room != nil:
		resp.RoomNumber = r.Room.Number
		resp.RoomType = r.Room.Type
		resp.RateUnit = "night"
	case r.Hall != nil:
		resp.HallName = r.Hall.Name
		resp.RateUnit = "hour"
	}
	return resp
}

type ListResourcesRequest struct {
	request.ListParams
	Kind   string `form:"kind" binding:"omitempty,oneof=room hall"`
	All    bool   `form:"all"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=name capacity rate_cents created_at"`
}

func (r *ListResourcesRequest) toFilter(onlyBookable bool) resource.Filter {
	f := resource.Filter{
		Kind:         resource.Kind(r.Kind),
		OnlyBookable: onlyBookable,
		Page:         r.Page,
		PageSize:     r.PageSize,
		SortBy:       r.SortBy,
		SortOrder:    strings.ToUpper(r.SortOrder),
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if f.SortOrder == "" {
		f.SortOrder = "DESC"
	}
	return f
}

type CreateRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=room hall"`
	RoomNumber  string `json:"room_number" binding:"required_if=Kind room"`
	RoomType    string `json:"room_type"`
	HallName    string `json:"hall_name" binding:"required_if=Kind hall"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	RateCents   int64  `json:"rate_cents" binding:"required,min=1"`
	Description string `json:"description"`
}

func (r *CreateRequest) toDomain() resource.CreateRequest {
	return resource.CreateRequest{
		Kind:        resource.Kind(r.Kind),
		RoomNumber:  r.RoomNumber,
		RoomType:    r.RoomType,
		HallName:    r.HallName,
		Capacity:    r.Capacity,
		RateCents:   r.RateCents,
		Description: r.Description,
	}
}

// UpdateRequest uses pointers so absent fields stay unchanged. Name is the room
// number for rooms and the hall name for halls.
type UpdateRequest struct {
	Name        *string `json:"name"`
	RoomType    *string `json:"room_type"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=1"`
	RateCents   *int64  `json:"rate_cents" binding:"omitempty,min=1"`
	IsBookable  *bool   `json:"is_bookable"`
	Description *string `json:"description"`
}

func (r *UpdateRequest) toDomain() resource.UpdateRequest {
	return resource.UpdateRequest{
		Name:        r.Name,
		RoomType:    r.RoomType,
		Capacity:    r.Capacity,
		RateCents:   r.RateCents,
		IsBookable:  r.IsBookable,
		Description: r.Description,
	}
}
