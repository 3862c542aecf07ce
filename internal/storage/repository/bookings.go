package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const (
	guestPassColumns   = `id, member_id, guest_name, visit_date, status, created_at`
	reservationColumns = `id, member_id, kind, resource, starts_at, ends_at, status, created_at`
)

func scanGuestPass(row scanner) (*models.GuestPass, error) {
	var g models.GuestPass
	if err := row.Scan(&g.ID, &g.MemberID, &g.GuestName, &g.VisitDate, &g.Status, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func scanReservation(row scanner) (*models.Reservation, error) {
	var r models.Reservation
	if err := row.Scan(&r.ID, &r.MemberID, &r.Kind, &r.Resource, &r.StartsAt, &r.EndsAt,
		&r.Status, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateGuestPass выдаёт гостевой пропуск.
func (s *Storage) CreateGuestPass(ctx context.Context, g models.GuestPass) (*models.GuestPass, error) {
	const op = "storage.CreateGuestPass"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanGuestPass(s.DB.QueryRowContext(ctx,
		`INSERT INTO guest_passes (member_id, guest_name, visit_date, status)
		 VALUES ($1, $2, $3::date, 'issued')
		 RETURNING `+guestPassColumns, g.MemberID, g.GuestName, dateArg(g.VisitDate)))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListGuestPasses возвращает пропуска участника, ближайшие визиты первыми.
func (s *Storage) ListGuestPasses(ctx context.Context, memberID uuid.UUID) ([]*models.GuestPass, error) {
	const op = "storage.ListGuestPasses"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+guestPassColumns+` FROM guest_passes
		 WHERE member_id = $1
		 ORDER BY visit_date DESC, id DESC`, memberID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.GuestPass
	for rows.Next() {
		g, err := scanGuestPass(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetGuestPassStatus меняет статус выданного пропуска.
func (s *Storage) SetGuestPassStatus(ctx context.Context, id int64, status string) (*models.GuestPass, error) {
	const op = "storage.SetGuestPassStatus"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	g, err := scanGuestPass(s.DB.QueryRowContext(ctx,
		`UPDATE guest_passes SET status = $2
		 WHERE id = $1 AND status = 'issued'
		 RETURNING `+guestPassColumns, id, status))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return g, nil
}

// CreateReservation сохраняет подтверждённую бронь.
func (s *Storage) CreateReservation(ctx context.Context, r models.Reservation) (*models.Reservation, error) {
	const op = "storage.CreateReservation"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanReservation(s.DB.QueryRowContext(ctx,
		`INSERT INTO reservations (member_id, kind, resource, starts_at, ends_at, status)
		 VALUES ($1, $2, $3, $4, $5, 'confirmed')
		 RETURNING `+reservationColumns, r.MemberID, r.Kind, r.Resource, r.StartsAt, r.EndsAt))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetReservation возвращает бронь по ID.
func (s *Storage) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	const op = "storage.GetReservation"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	r, err := scanReservation(s.DB.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return r, nil
}

// CancelReservation отменяет подтверждённую бронь.
func (s *Storage) CancelReservation(ctx context.Context, id int64) error {
	const op = "storage.CancelReservation"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE reservations SET status = 'canceled' WHERE id = $1 AND status = 'confirmed'`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// CountReservations возвращает число подтверждённых броней вида kind,
// начинающихся в [from, to).
func (s *Storage) CountReservations(ctx context.Context, kind string, from, to time.Time) (int, error) {
	const op = "storage.CountReservations"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE kind = $1 AND status = 'confirmed' AND starts_at >= $2 AND starts_at < $3`,
		kind, from, to).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// MemberHasReservation сообщает, есть ли у участника подтверждённая бронь
// вида kind, начинающаяся в [from, to).
func (s *Storage) MemberHasReservation(ctx context.Context, memberID uuid.UUID, kind string, from, to time.Time) (bool, error) {
	const op = "storage.MemberHasReservation"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE member_id = $1 AND kind = $2 AND status = 'confirmed'
			  AND starts_at >= $3 AND starts_at < $4
		)`, memberID, kind, from, to).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// RoomOverlaps сообщает, пересекается ли интервал [start, end) с подтверждённой
// бронью той же переговорной.
func (s *Storage) RoomOverlaps(ctx context.Context, room string, start, end time.Time) (bool, error) {
	const op = "storage.RoomOverlaps"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE kind = 'meeting_room' AND resource = $1 AND status = 'confirmed'
			  AND starts_at < $3 AND $2 < ends_at
		)`, room, start, end).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// ListReservations возвращает брони участника, новые первыми.
func (s *Storage) ListReservations(ctx context.Context, memberID uuid.UUID) ([]*models.Reservation, error) {
	const op = "storage.ListReservations"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE member_id = $1
		 ORDER BY starts_at DESC`, memberID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
