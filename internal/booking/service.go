package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// CreateRequest carries either a room stay (CheckIn/CheckOut) or a hall slot
// (EventDate/StartTime/EndTime); which one is read depends on the resource kind.
type CreateRequest struct {
	ResourceID string
	CheckIn    time.Time
	CheckOut   time.Time
	EventDate  time.Time
	StartTime  interval.TimeOfDay
	EndTime    interval.TimeOfDay
	EventType  string
	Occupants  int
}

// ModifyRequest holds the fields to change; nil means unchanged. Version, when
// set, must match the stored version.
type ModifyRequest struct {
	CheckIn   *time.Time
	CheckOut  *time.Time
	EventDate *time.Time
	StartTime *interval.TimeOfDay
	EndTime   *interval.TimeOfDay
	EventType *string
	Occupants *int
	Version   *int
}

// ResourceReader is the part of the resource catalog the booking core reads.
type ResourceReader interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
}

type Service interface {
	Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error)
	Modify(ctx context.Context, actor Actor, id string, req ModifyRequest) (*Booking, error)
	Cancel(ctx context.Context, actor Actor, id string) (*Booking, error)
	GetByID(ctx context.Context, actor Actor, id string) (*Booking, error)
	List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Availability(ctx context.Context, resourceID string) (*Calendar, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	resources ResourceReader
	policy    Policy
	clock     clock.Clock
	cache     AvailabilityCache
	events    EventPublisher
}

type Option func(*service)

func WithCache(c AvailabilityCache) Option {
	return func(s *service) { s.cache = c }
}

func WithEvents(p EventPublisher) Option {
	return func(s *service) { s.events = p }
}

func NewService(repo Repository, resources ResourceReader, policy Policy, clk clock.Clock, opts ...Option) Service {
	s := &service{
		repo:      repo,
		resources: resources,
		policy:    policy,
		clock:     clk,
		cache:     NopCache{},
		events:    NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateRequest) (*Booking, error) {
	if actor.UserID == "" {
		return nil, ErrPermissionDenied
	}

	res, err := s.resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceUnavailable
		}
		return nil, err
	}

	c := Candidate{Occupants: req.Occupants}
	if res.Kind == resource.KindHall {
		c.EventDate = interval.Date(req.EventDate)
		c.Slot = interval.TimeRange{Start: req.StartTime, End: req.EndTime}
	} else {
		c.Stay = interval.NewDateRange(req.CheckIn, req.CheckOut)
	}
	eventType := ""
	if res.Kind == resource.KindHall {
		eventType = strings.TrimSpace(req.EventType)
	}

	if err := s.precheck(res.Kind, c, eventType); err != nil {
		return nil, err
	}

	b := &Booking{
		ResourceID:   res.ID,
		ResourceKind: res.Kind,
		UserID:       actor.UserID,
		Stay:         c.Stay,
		EventDate:    c.EventDate,
		Slot:         c.Slot,
		EventType:    eventType,
		Occupants:    c.Occupants,
		Status:       StatusConfirmed,
	}

	err = s.repo.WithResourceLock(ctx, res.ID, func(locked *resource.Resource, tx Tx) error {
		existing, err := s.existingFor(ctx, tx, locked.ID, c)
		if err != nil {
			return err
		}
		if err := CheckAdmissible(locked, c, existing, s.policy); err != nil {
			return err
		}
		price, err := Price(locked, c, s.policy)
		if err != nil {
			return err
		}
		b.TotalPriceCents = price
		b.ResourceName = locked.Name()
		return tx.Create(ctx, b)
	})
	if err != nil {
		return nil, s.lockError(err)
	}

	slog.InfoContext(ctx, "booking confirmed",
		"booking_id", b.ID, "resource_id", b.ResourceID, "user_id", b.UserID, "price_cents", b.TotalPriceCents)
	s.afterWrite(ctx, EventConfirmed, b)
	return b, nil
}

func (s *service) Modify(ctx context.Context, actor Actor, id string, req ModifyRequest) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(current) {
		return nil, ErrPermissionDenied
	}

	var updated *Booking
	err = s.repo.WithResourceLock(ctx, current.ResourceID, func(locked *resource.Resource, tx Tx) error {
		// Re-read under the lock; the first read only located the resource.
		b, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != b.Version {
			return ErrConcurrentModification
		}
		if b.Status != StatusConfirmed {
			return ErrInvalidTransition
		}

		before := b.candidate()
		next := applyChanges(b, req)
		eventType := b.EventType
		if req.EventType != nil && b.ResourceKind == resource.KindHall {
			eventType = strings.TrimSpace(*req.EventType)
		}
		changed := !next.sameInterval(before)

		if err := CheckShape(b.ResourceKind, next, s.policy); err != nil {
			return err
		}
		if err := validateEventType(eventType); err != nil {
			return err
		}
		if next.Occupants > locked.Capacity {
			return ErrOverCapacity
		}
		if err := CheckHorizon(b.ResourceKind, next, s.clock.Now(), s.policy); err != nil {
			return err
		}

		if changed {
			existing, err := s.existingFor(ctx, tx, locked.ID, next)
			if err != nil {
				return err
			}
			if err := CheckAdmissible(locked, next, without(existing, b.ID), s.policy); err != nil {
				return err
			}
			price, err := Price(locked, next, s.policy)
			if err != nil {
				return err
			}
			b.TotalPriceCents = price
		}

		b.Stay, b.EventDate, b.Slot = next.Stay, next.EventDate, next.Slot
		b.Occupants = next.Occupants
		b.EventType = eventType
		if err := tx.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, s.lockError(err)
	}

	slog.InfoContext(ctx, "booking modified", "booking_id", updated.ID, "version", updated.Version)
	s.afterWrite(ctx, EventModified, updated)
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, ErrPermissionDenied
	}

	next, err := b.Status.Transition(StatusCancelled)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if s.policy.StartInstant(b.StartDate()).Sub(now) <= s.policy.CancelLead {
		return nil, ErrCancellationWindowExpired
	}

	b.Status = next
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "by", actor.UserID)
	s.afterWrite(ctx, EventCancelled, b)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(b) {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

// List returns the actor's own bookings; admins see everyone's unless the
// filter names a user.
func (s *service) List(ctx context.Context, actor Actor, filter Filter) ([]*Booking, int, error) {
	if !actor.IsAdmin {
		if actor.UserID == "" {
			return nil, 0, ErrPermissionDenied
		}
		filter.UserID = actor.UserID
	}
	return s.repo.List(ctx, filter)
}

// Delete removes a booking record outright. Admin only.
func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin {
		return ErrPermissionDenied
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "booking deleted", "booking_id", id, "status", b.Status)
	s.afterWrite(ctx, EventDeleted, b)
	return nil
}

func (s *service) Availability(ctx context.Context, resourceID string) (*Calendar, error) {
	today := s.policy.Today(s.clock.Now())
	cal, gen, ok := s.cache.Get(ctx, resourceID, today)
	if ok {
		return cal, nil
	}

	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListForResource(ctx, res.ID, today, s.policy.HorizonEnd(today))
	if err != nil {
		return nil, err
	}

	cal = BuildAvailability(res, bookings, today, s.policy)
	s.cache.Set(ctx, resourceID, today, gen, cal)
	return cal, nil
}

// CompleteElapsed moves confirmed bookings whose interval has fully passed to
// completed and returns how many changed.
func (s *service) CompleteElapsed(ctx context.Context) (int, error) {
	now := s.clock.Now()
	local := now.In(s.policy.location())
	wall := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)

	done, err := s.repo.CompleteElapsed(ctx, s.policy.Today(now), wall)
	if err != nil {
		return 0, err
	}
	for _, b := range done {
		s.afterWrite(ctx, EventCompleted, b)
	}
	if len(done) > 0 {
		slog.InfoContext(ctx, "bookings completed", "count", len(done))
	}
	return len(done), nil
}

// precheck runs the input checks that must fail before any conflict check.
func (s *service) precheck(kind resource.Kind, c Candidate, eventType string) error {
	if err := CheckShape(kind, c, s.policy); err != nil {
		return err
	}
	if err := validateEventType(eventType); err != nil {
		return err
	}
	return CheckHorizon(kind, c, s.clock.Now(), s.policy)
}

// existingFor loads the confirmed bookings that could collide with c.
func (s *service) existingFor(ctx context.Context, tx Tx, resourceID string, c Candidate) ([]*Booking, error) {
	from, to := c.Stay.Start, c.Stay.End
	if !c.EventDate.IsZero() {
		from, to = c.EventDate, c.EventDate
	}
	return tx.ListForResource(ctx, resourceID, from, to)
}

// lockError maps a missing resource row to ResourceUnavailable.
func (s *service) lockError(err error) error {
	if errors.Is(err, resource.ErrNotFound) {
		return ErrResourceUnavailable
	}
	return err
}

// afterWrite runs the best-effort side effects of a committed change.
func (s *service) afterWrite(ctx context.Context, t EventType, b *Booking) {
	s.cache.Invalidate(ctx, b.ResourceID)
	if err := s.events.Publish(ctx, newEvent(t, b, s.clock.Now())); err != nil {
		slog.WarnContext(ctx, "publish booking event failed", "type", t, "booking_id", b.ID, "error", err)
	}
}

func applyChanges(b *Booking, req ModifyRequest) Candidate {
	c := b.candidate()
	if req.Occupants != nil {
		c.Occupants = *req.Occupants
	}
	if b.ResourceKind == resource.KindHall {
		if req.EventDate != nil {
			c.EventDate = interval.Date(*req.EventDate)
		}
		if req.StartTime != nil {
			c.Slot.Start = *req.StartTime
		}
		if req.EndTime != nil {
			c.Slot.End = *req.EndTime
		}
		return c
	}
	if req.CheckIn != nil {
		c.Stay.Start = interval.Date(*req.CheckIn)
	}
	if req.CheckOut != nil {
		c.Stay.End = interval.Date(*req.CheckOut)
	}
	return c
}

func without(bookings []*Booking, id string) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
