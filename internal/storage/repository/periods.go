package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const periodColumns = `id, member_id, period_start, period_end, paid, marked_by, note, updated_at`

func scanPeriod(row scanner) (*models.SubscriptionPeriod, error) {
	var p models.SubscriptionPeriod
	var markedBy uuid.NullUUID
	if err := row.Scan(&p.ID, &p.MemberID, &p.PeriodStart, &p.PeriodEnd, &p.Paid,
		&markedBy, &p.Note, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if markedBy.Valid {
		p.MarkedBy = &markedBy.UUID
	}
	return &p, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (s *Storage) queryPeriods(ctx context.Context, op, query string, args ...any) ([]*models.SubscriptionPeriod, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreatePeriod сохраняет период оплаты участника.
func (s *Storage) CreatePeriod(ctx context.Context, p models.SubscriptionPeriod) (*models.SubscriptionPeriod, error) {
	const op = "storage.CreatePeriod"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO subscription_periods (member_id, period_start, period_end, paid, marked_by, note)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+periodColumns,
		p.MemberID, p.PeriodStart, p.PeriodEnd, p.Paid, nullUUID(p.MarkedBy), p.Note)
	created, err := scanPeriod(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetPeriod возвращает период по ID.
func (s *Storage) GetPeriod(ctx context.Context, id int64) (*models.SubscriptionPeriod, error) {
	const op = "storage.GetPeriod"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPeriod(s.DB.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM subscription_periods WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// ListPeriods возвращает периоды участника, новые первыми.
func (s *Storage) ListPeriods(ctx context.Context, memberID uuid.UUID) ([]*models.SubscriptionPeriod, error) {
	const op = "storage.ListPeriods"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryPeriods(ctx, op,
		`SELECT `+periodColumns+` FROM subscription_periods
		 WHERE member_id = $1
		 ORDER BY period_start DESC`, memberID)
}

// ListAllPeriods возвращает все периоды для выгрузки платежей.
func (s *Storage) ListAllPeriods(ctx context.Context) ([]*models.SubscriptionPeriod, error) {
	const op = "storage.ListAllPeriods"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryPeriods(ctx, op,
		`SELECT `+periodColumns+` FROM subscription_periods ORDER BY period_start, id`)
}

// CurrentPeriod возвращает период участника, содержащий момент at: [start, end).
func (s *Storage) CurrentPeriod(ctx context.Context, memberID uuid.UUID, at time.Time) (*models.SubscriptionPeriod, error) {
	const op = "storage.CurrentPeriod"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPeriod(s.DB.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM subscription_periods
		 WHERE member_id = $1 AND period_start <= $2 AND $2 < period_end
		 ORDER BY period_start DESC
		 LIMIT 1`, memberID, at))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// MarkPeriod отмечает оплату периода сотрудником.
func (s *Storage) MarkPeriod(ctx context.Context, id int64, paid bool, markedBy uuid.UUID, note string) (*models.SubscriptionPeriod, error) {
	const op = "storage.MarkPeriod"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPeriod(s.DB.QueryRowContext(ctx,
		`UPDATE subscription_periods
		 SET paid = $2, marked_by = $3, note = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+periodColumns, id, paid, markedBy, note))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// CountUnpaidCurrent возвращает число неоплаченных периодов, содержащих момент at.
func (s *Storage) CountUnpaidCurrent(ctx context.Context, at time.Time) (int, error) {
	const op = "storage.CountUnpaidCurrent"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscription_periods
		 WHERE NOT paid AND period_start <= $1 AND $1 < period_end`, at).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

func (s *Storage) queryReminders(ctx context.Context, op, query string, args ...any) ([]*models.ReminderInfo, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ReminderInfo
	for rows.Next() {
		var r models.ReminderInfo
		if err = rows.Scan(&r.MemberID, &r.Email, &r.Name, &r.PeriodEnd, &r.Paid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindUnpaidCurrent находит активных участников, чей текущий период не оплачен.
func (s *Storage) FindUnpaidCurrent(ctx context.Context, at time.Time) ([]*models.ReminderInfo, error) {
	const op = "storage.FindUnpaidCurrent"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryReminders(ctx, op,
		`SELECT m.id, m.email, m.name, p.period_end, p.paid
		 FROM subscription_periods p
		 JOIN members m ON m.id = p.member_id
		 WHERE m.status = 'active' AND NOT p.paid
		   AND p.period_start <= $1 AND $1 < p.period_end
		 ORDER BY p.period_end`, at)
}

// FindExpiringBetween находит активных участников, чей период заканчивается в [from, to).
func (s *Storage) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ReminderInfo, error) {
	const op = "storage.FindExpiringBetween"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryReminders(ctx, op,
		`SELECT m.id, m.email, m.name, p.period_end, p.paid
		 FROM subscription_periods p
		 JOIN members m ON m.id = p.member_id
		 WHERE m.status = 'active' AND p.period_end >= $1 AND p.period_end < $2
		 ORDER BY p.period_end`, from, to)
}
