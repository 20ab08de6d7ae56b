package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

// Tx is the set of booking reads and writes that can run inside a resource lock.
type Tx interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	// ListForResource returns the confirmed bookings of a resource that touch
	// any date in [from, to].
	ListForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)
	Create(ctx context.Context, b *Booking) error
	// Update writes b if its stored version still equals b.Version, then bumps
	// the version. A stale version yields ErrConcurrentModification.
	Update(ctx context.Context, b *Booking) error
}

type Repository interface {
	Tx

	// WithResourceLock runs fn in a transaction holding the resource row lock,
	// serializing every admission check on that resource. fn receives the
	// resource as read under the lock.
	WithResourceLock(ctx context.Context, resourceID string, fn func(res *resource.Resource, tx Tx) error) error
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Delete(ctx context.Context, id string) error
	// CompleteElapsed marks confirmed bookings that ended before the given
	// local date and wall-clock time as completed.
	CompleteElapsed(ctx context.Context, today, wallClock time.Time) ([]*Booking, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	q querier
}

type pgxRepository struct {
	store
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{store: store{q: pool}, pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.resource_id", "b.kind", "r.name", "b.user_id",
	"b.check_in", "b.check_out", "b.event_date", "b.start_time", "b.end_time", "b.event_type",
	"b.occupants", "b.total_price_cents", "b.status", "b.version", "b.created_at", "b.updated_at",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(append([]string{}, bookingColumns...), extra...)...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b                            Booking
		kind, status                 string
		checkIn, checkOut, eventDate pgtype.Date
		startTime, endTime           pgtype.Time
	)
	dest := []any{
		&b.ID, &b.ResourceID, &kind, &b.ResourceName, &b.UserID,
		&checkIn, &checkOut, &eventDate, &startTime, &endTime, &b.EventType,
		&b.Occupants, &b.TotalPriceCents, &status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	b.ResourceKind = resource.Kind(kind)
	b.Status = Status(status)
	if checkIn.Valid && checkOut.Valid {
		b.Stay = interval.NewDateRange(checkIn.Time, checkOut.Time)
	}
	if eventDate.Valid {
		b.EventDate = interval.Date(eventDate.Time)
	}
	if startTime.Valid && endTime.Valid {
		b.Slot = interval.TimeRange{Start: fromPgTime(startTime), End: fromPgTime(endTime)}
	}
	return &b, nil
}

func fromPgTime(t pgtype.Time) interval.TimeOfDay {
	return interval.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func toPgTime(t interval.TimeOfDay, valid bool) pgtype.Time {
	return pgtype.Time{Microseconds: int64(time.Duration(t) / time.Microsecond), Valid: valid}
}

func toPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: !t.IsZero()}
}

// intervalArgs flattens the kind-specific interval into nullable columns.
func intervalArgs(b *Booking) (checkIn, checkOut, eventDate pgtype.Date, start, end pgtype.Time) {
	if b.ResourceKind == resource.KindHall {
		return pgtype.Date{}, pgtype.Date{}, toPgDate(b.EventDate), toPgTime(b.Slot.Start, true), toPgTime(b.Slot.End, true)
	}
	return toPgDate(b.Stay.Start), toPgDate(b.Stay.End), pgtype.Date{}, pgtype.Time{}, pgtype.Time{}
}

func mapWriteError(err error) error {
	var e *pgconn.PgError
	if errors.As(err, &e) {
		switch e.Code {
		case pgerrcode.ExclusionViolation:
			return ErrSchedulingConflict
		case pgerrcode.ForeignKeyViolation:
			return ErrResourceUnavailable
		}
	}
	return nil
}

func (s *store) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (s *store) ListForResource(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	from, to = interval.Date(from), interval.Date(to)
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.resource_id": resourceID, "b.status": string(StatusConfirmed)}).
		Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"b.kind": string(resource.KindRoom)},
				squirrel.LtOrEq{"b.check_in": to},
				squirrel.Gt{"b.check_out": from},
			},
			squirrel.And{
				squirrel.Eq{"b.kind": string(resource.KindHall)},
				squirrel.GtOrEq{"b.event_date": from},
				squirrel.LtOrEq{"b.event_date": to},
			},
		}).
		OrderBy("b.check_in NULLS LAST", "b.event_date NULLS LAST", "b.start_time NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list resource bookings query failed: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resource bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource bookings failed: %w", err)
	}
	return bookings, nil
}

func (s *store) Create(ctx context.Context, b *Booking) error {
	checkIn, checkOut, eventDate, start, end := intervalArgs(b)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"resource_id", "kind", "user_id",
			"check_in", "check_out", "event_date", "start_time", "end_time", "event_type",
			"occupants", "total_price_cents", "status",
		).
		Values(
			b.ResourceID, string(b.ResourceKind), b.UserID,
			checkIn, checkOut, eventDate, start, end, b.EventType,
			b.Occupants, b.TotalPriceCents, string(b.Status),
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := s.q.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (s *store) Update(ctx context.Context, b *Booking) error {
	checkIn, checkOut, eventDate, start, end := intervalArgs(b)
	query, args, err := psql.Update("public.bookings").
		Set("check_in", checkIn).
		Set("check_out", checkOut).
		Set("event_date", eventDate).
		Set("start_time", start).
		Set("end_time", end).
		Set("event_type", b.EventType).
		Set("occupants", b.Occupants).
		Set("total_price_cents", b.TotalPriceCents).
		Set("status", string(b.Status)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := s.q.QueryRow(ctx, query, args...).Scan(&b.Version, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConcurrentModification
		}
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) WithResourceLock(ctx context.Context, resourceID string, fn func(res *resource.Resource, tx Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		lock := "SELECT " + strings.Join(resource.Columns, ", ") + " FROM public.resources WHERE id = $1 FOR UPDATE"
		res, err := resource.ScanRow(tx.QueryRow(ctx, lock, resourceID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return resource.ErrNotFound
			}
			return fmt.Errorf("lock resource failed: %w", err)
		}
		return fn(res, &store{q: tx})
	})
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() AS total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"b.kind": string(filter.Kind)})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": string(filter.Status)})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"COALESCE(b.check_in, b.event_date)": interval.Date(*filter.From)})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"COALESCE(b.check_in, b.event_date)": interval.Date(*filter.To)})
	}

	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(
		"COALESCE(b.check_in, b.event_date) "+orderDir,
		"b.start_time "+orderDir+" NULLS FIRST",
		"b.created_at "+orderDir,
	)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var (
		bookings []*Booking
		total    int
	)
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CompleteElapsed(ctx context.Context, today, wallClock time.Time) ([]*Booking, error) {
	const query = `
		UPDATE public.bookings
		SET status = 'completed', version = version + 1, updated_at = now()
		WHERE status = 'confirmed'
		  AND ((kind = 'room' AND check_out <= $1::date)
		    OR (kind = 'hall' AND event_date + end_time <= $2::timestamp))
		RETURNING id, resource_id, kind, user_id
	`

	rows, err := r.pool.Query(ctx, query, interval.Date(today), wallClock)
	if err != nil {
		return nil, fmt.Errorf("complete elapsed bookings failed: %w", err)
	}
	defer rows.Close()

	var done []*Booking
	for rows.Next() {
		b := Booking{Status: StatusCompleted}
		var kind string
		if err := rows.Scan(&b.ID, &b.ResourceID, &kind, &b.UserID); err != nil {
			return nil, fmt.Errorf("scan completed booking failed: %w", err)
		}
		b.ResourceKind = resource.Kind(kind)
		done = append(done, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed bookings failed: %w", err)
	}
	return done, nil
}
