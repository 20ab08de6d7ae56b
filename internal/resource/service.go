package resource

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

var roomNumberPattern = regexp.MustCompile(`^[A-Z0-9-]{1,10}$`)

const (
	maxHallNameLen    = 100
	maxRoomCapacity   = 10
	maxHallCapacity   = 10000
	maxRateCents      = 1_000_000
	maxRoomTypeLen    = 50
	maxDescriptionLen = 500
)

type CreateRequest struct {
	Kind        Kind
	RoomNumber  string
	RoomType    string
	HallName    string
	Capacity    int
	RateCents   int64
	Description string
}

// UpdateRequest holds optional fields; nil means unchanged. The kind of a
// resource cannot change after creation.
type UpdateRequest struct {
	Name        *string
	RoomType    *string
	Capacity    *int
	RateCents   *int64
	IsBookable  *bool
	Description *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error)
	ToggleBookable(ctx context.Context, id string) (*Resource, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	res := &Resource{
		Kind:        req.Kind,
		Capacity:    req.Capacity,
		RateCents:   req.RateCents,
		IsBookable:  true,
		Description: strings.TrimSpace(req.Description),
	}
	switch req.Kind {
	case KindRoom:
		res.Room = &Room{Number: strings.TrimSpace(req.RoomNumber), Type: strings.TrimSpace(req.RoomType)}
	case KindHall:
		res.Hall = &Hall{Name: strings.TrimSpace(req.HallName)}
	}

	if err := validate(res); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource created", "resource_id", res.ID, "kind", res.Kind, "name", res.Name())
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if res.Kind == KindRoom {
			res.Room.Number = name
		} else {
			res.Hall.Name = name
		}
	}
	if req.RoomType != nil && res.Room != nil {
		res.Room.Type = strings.TrimSpace(*req.RoomType)
	}
	if req.Capacity != nil {
		res.Capacity = *req.Capacity
	}
	if req.RateCents != nil {
		res.RateCents = *req.RateCents
	}
	if req.IsBookable != nil {
		res.IsBookable = *req.IsBookable
	}
	if req.Description != nil {
		res.Description = strings.TrimSpace(*req.Description)
	}

	if err := validate(res); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) ToggleBookable(ctx context.Context, id string) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res.IsBookable = !res.IsBookable
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "resource bookable flag changed", "resource_id", id, "is_bookable", res.IsBookable)
	return res, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteIfIdle(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "resource deleted", "resource_id", id)
	return nil
}

func validate(res *Resource) error {
	switch res.Kind {
	case KindRoom:
		if res.Room == nil || res.Room.Number == "" {
			return ErrNameRequired
		}
		if !roomNumberPattern.MatchString(res.Room.Number) {
			return ErrInvalidRoomNumber
		}
		if utf8.RuneCountInString(res.Room.Type) > maxRoomTypeLen {
			return ErrRoomTypeTooLong
		}
		if res.Capacity < 1 || res.Capacity > maxRoomCapacity {
			return ErrCapacityInvalid
		}
	case KindHall:
		if res.Hall == nil || res.Hall.Name == "" {
			return ErrNameRequired
		}
		if utf8.RuneCountInString(res.Hall.Name) > maxHallNameLen {
			return ErrNameTooLong
		}
		if res.Capacity < 1 || res.Capacity > maxHallCapacity {
			return ErrCapacityInvalid
		}
	default:
		return ErrInvalidKind
	}

	if res.RateCents < 1 || res.RateCents > maxRateCents {
		return ErrRateInvalid
	}
	if utf8.RuneCountInString(res.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}
