package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)

	// Update writes res back. It returns ErrCapacityBelowBooked when a
	// confirmed booking holds more occupants than the new capacity; the check
	// and the write happen under the resource row lock.
	Update(ctx context.Context, res *Resource) error

	// DeleteIfIdle removes the resource unless a confirmed booking still
	// references it, in which case it returns ErrInUse. The check and the
	// delete happen under the resource row lock.
	DeleteIfIdle(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Columns is the select list understood by ScanRow.
var Columns = []string{
	"id", "kind", "name", "room_type", "capacity", "rate_cents", "is_bookable", "description", "created_at",
}

// row is the flat column layout of public.resources.
type row struct {
	id, kind, name, roomType, description string
	capacity                              int
	rateCents                             int64
	isBookable                            bool
}

func flatten(res *Resource) row {
	r := row{
		id:          res.ID,
		kind:        string(res.Kind),
		name:        res.Name(),
		capacity:    res.Capacity,
		rateCents:   res.RateCents,
		isBookable:  res.IsBookable,
		description: res.Description,
	}
	if res.Room != nil {
		r.roomType = res.Room.Type
	}
	return r
}

// ScanRow reads one resource selected with Columns.
func ScanRow(s pgx.Row) (*Resource, error) {
	var (
		res      Resource
		kind     string
		name     string
		roomType string
	)
	if err := s.Scan(
		&res.ID, &kind, &name, &roomType, &res.Capacity, &res.RateCents,
		&res.IsBookable, &res.Description, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	res.attach(Kind(kind), name, roomType)
	return &res, nil
}

// attach sets the kind and the matching variant from the flat columns.
func (r *Resource) attach(kind Kind, name, roomType string) {
	r.Kind = kind
	switch kind {
	case KindRoom:
		r.Room = &Room{Number: name, Type: roomType}
	case KindHall:
		r.Hall = &Hall{Name: name}
	}
}

func mapWriteError(err error) error {
	var e *pgconn.PgError
	if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateName
	}
	return err
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	f := flatten(res)
	query, args, err := psql.Insert("public.resources").
		Columns("kind", "name", "room_type", "capacity", "rate_cents", "is_bookable", "description").
		Values(f.kind, f.name, f.roomType, f.capacity, f.rateCents, f.isBookable, f.description).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create resource query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	query, args, err := psql.Select(Columns...).
		From("public.resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resource query failed: %w", err)
	}

	res, err := ScanRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	query := psql.Select(append(Columns, "count(*) OVER() AS total_count")...).
		From("public.resources")

	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}
	if filter.OnlyBookable {
		query = query.Where(squirrel.Eq{"is_bookable": true})
	}

	orderBy := "created_at"
	switch filter.SortBy {
	case "name", "capacity", "rate_cents", "created_at":
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

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
		return nil, 0, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var (
		result []*Resource
		total  int
	)
	for rows.Next() {
		var (
			res      Resource
			kind     string
			name     string
			roomType string
		)
		if err := rows.Scan(
			&res.ID, &kind, &name, &roomType, &res.Capacity, &res.RateCents,
			&res.IsBookable, &res.Description, &res.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		res.attach(Kind(kind), name, roomType)
		result = append(result, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resources failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	f := flatten(res)
	query, args, err := psql.Update("public.resources").
		Set("name", f.name).
		Set("room_type", f.roomType).
		Set("capacity", f.capacity).
		Set("rate_cents", f.rateCents).
		Set("is_bookable", f.isBookable).
		Set("description", f.description).
		Where(squirrel.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query failed: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM public.resources WHERE id = $1 FOR UPDATE`, res.ID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock resource failed: %w", err)
		}

		var overbooked bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM public.bookings WHERE resource_id = $1 AND status = 'confirmed' AND occupants > $2)`,
			res.ID, f.capacity,
		).Scan(&overbooked)
		if err != nil {
			return fmt.Errorf("check booked occupants failed: %w", err)
		}
		if overbooked {
			return ErrCapacityBelowBooked
		}

		ct, err := tx.Exec(ctx, query, args...)
		if err != nil {
			if mapped := mapWriteError(err); mapped != err {
				return mapped
			}
			return fmt.Errorf("update resource failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pgxRepository) DeleteIfIdle(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM public.resources WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock resource failed: %w", err)
		}

		var busy bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM public.bookings WHERE resource_id = $1 AND status = 'confirmed')`,
			id,
		).Scan(&busy)
		if err != nil {
			return fmt.Errorf("check active bookings failed: %w", err)
		}
		if busy {
			return ErrInUse
		}

		if _, err := tx.Exec(ctx, `DELETE FROM public.resources WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete resource failed: %w", err)
		}
		return nil
	})
}
