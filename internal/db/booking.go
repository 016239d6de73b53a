package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
)

// Бронь у провайдера, секрет хранится только здесь
func (p *DB) CreateReservation(ctx context.Context, r model.Reservation) error {
	_, err := p.exec(ctx, p.pool, psql.Insert("timify_reservations").
		Columns("id", "user_id", "branch_id", "service_id", "resource_id", "reserved_date", "reserved_time",
			"timify_reservation_id", "timify_secret", "expires_at", "created_at").
		Values(r.ID, r.UserID, r.BranchID, r.ServiceID, nullString(r.ResourceID), r.ReservedDate, r.ReservedTime,
			r.TimifyReservationID, r.TimifySecret, r.ExpiresAt, r.CreatedAt))
	return err
}

func (p *DB) GetReservation(ctx context.Context, id uuid.UUID) (model.Reservation, error) {
	var (
		r        model.Reservation
		pgid     pgtype.UUID
		resource *string
	)
	err := p.scanOne(ctx, p.pool, psql.Select("id", "user_id", "branch_id", "service_id", "resource_id",
		"reserved_date", "reserved_time", "timify_reservation_id", "timify_secret", "expires_at", "used_at", "created_at").
		From("timify_reservations").
		Where(sq.Eq{"id": id}),
		&pgid, &r.UserID, &r.BranchID, &r.ServiceID, &resource, &r.ReservedDate, &r.ReservedTime,
		&r.TimifyReservationID, &r.TimifySecret, &r.ExpiresAt, &r.UsedAt, &r.CreatedAt)
	if err != nil {
		return model.Reservation{}, notFound(err, model.ErrNotFound.WithMessage("reservation not found"))
	}
	r.ID = fromPG(pgid)
	r.ResourceID = deref(resource)
	return r, nil
}

var bookingColumns = []string{"id", "user_id", "branch_id", "service_id", "resource_id",
	"start_date_time", "timify_appointment_id", "status", "created_at"}

func scanBooking(row pgx.Row, b *model.Booking) error {
	var (
		id                    pgtype.UUID
		resource, appointment *string
	)
	err := row.Scan(&id, &b.UserID, &b.BranchID, &b.ServiceID, &resource,
		&b.StartDateTime, &appointment, &b.Status, &b.CreatedAt)
	if err != nil {
		return err
	}
	b.ID = fromPG(id)
	b.ResourceID = deref(resource)
	b.TimifyAppointmentID = deref(appointment)
	return nil
}

func (p *DB) GetBooking(ctx context.Context, id uuid.UUID) (model.Booking, error) {
	sql, args, err := psql.Select(bookingColumns...).
		From("bookings").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Booking{}, err
	}
	var b model.Booking
	err = scanBooking(p.pool.QueryRow(ctx, sql, args...), &b)
	if err != nil {
		return model.Booking{}, notFound(err, model.ErrNotFound.WithMessage("booking not found"))
	}
	return b, nil
}

func (p *DB) CancelBooking(ctx context.Context, id uuid.UUID) error {
	tag, err := p.exec(ctx, p.pool, psql.Update("bookings").
		Set("status", model.BookingCanceled).
		Where(sq.Eq{"id": id, "status": model.BookingConfirmed}))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookingNotCancelable
	}
	return nil
}

// Keyset по (start_date_time, id)
func listBookingsQuery(q model.BookingQuery) sq.SelectBuilder {
	b := psql.Select(bookingColumns...).
		From("bookings").
		Where(sq.Eq{"user_id": q.UserID})

	switch q.Status {
	case model.FilterUpcoming:
		b = b.Where(sq.Eq{"status": model.BookingConfirmed}).
			Where(sq.GtOrEq{"start_date_time": q.Now})
	case model.FilterPast:
		b = b.Where(sq.Or{
			sq.Lt{"start_date_time": q.Now},
			sq.Eq{"status": model.BookingCanceled},
		})
	}

	order := "ASC"
	cmp := ">"
	if q.Descending() {
		order, cmp = "DESC", "<"
	}
	if q.After != nil {
		b = b.Where(sq.Expr("(start_date_time, id) "+cmp+" (?, ?)", q.After.Start, q.After.ID))
	}
	b = b.OrderBy("start_date_time "+order, "id "+order)
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b
}

func (p *DB) ListBookings(ctx context.Context, q model.BookingQuery) ([]model.Booking, error) {
	b := listBookingsQuery(q)
	rows, err := p.query(ctx, p.pool, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var bk model.Booking
		err = scanBooking(rows, &bk)
		if err != nil {
			return nil, err
		}
		out = append(out, bk)
	}
	return out, rows.Err()
}

// Единица работы подтверждения брони
func (p *DB) WithinTx(ctx context.Context, fn func(tx interf.Tx) error) error {
	return p.inTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgTx{db: p, tx: tx})
	})
}

type pgTx struct {
	db *DB
	tx pgx.Tx
}

func consumeReservationQuery(id uuid.UUID, now time.Time) sq.UpdateBuilder {
	return psql.Update("timify_reservations").
		Set("used_at", now).
		Where(sq.Eq{"id": id, "used_at": nil}).
		Where(sq.Gt{"expires_at": now})
}

func (t *pgTx) ConsumeReservation(ctx context.Context, id uuid.UUID, now time.Time) error {
	tag, err := t.db.exec(ctx, t.tx, consumeReservationQuery(id, now))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookingValidation.WithMessage("reservation already used or expired")
	}
	return nil
}

func (t *pgTx) CreateBooking(ctx context.Context, b model.Booking) error {
	_, err := t.db.exec(ctx, t.tx, psql.Insert("bookings").
		Columns(bookingColumns...).
		Values(b.ID, b.UserID, b.BranchID, b.ServiceID, nullString(b.ResourceID),
			b.StartDateTime, nullString(b.TimifyAppointmentID), b.Status, b.CreatedAt))
	if isUniqueViolation(err) {
		return model.ErrBookingValidation.WithMessage("booking already exists")
	}
	return err
}

func (t *pgTx) IncrementStamps(ctx context.Context, userID string) (int, error) {
	return t.db.incrementStamps(ctx, t.tx, userID)
}

// Вложенная транзакция pgx = SAVEPOINT
func (t *pgTx) Savepoint(ctx context.Context, fn func(tx interf.Tx) error) (err error) {
	nested, err := t.tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = nested.Rollback(ctx)
		}
	}()
	err = fn(&pgTx{db: t.db, tx: nested})
	if err != nil {
		return err
	}
	return nested.Commit(ctx)
}
