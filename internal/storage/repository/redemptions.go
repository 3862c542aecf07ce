package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const (
	redemptionColumns = `id, member_id, cashier, redeemed_at, business_day, amount, voided, void_reason, voided_at`
	dateLayout        = "2006-01-02"
)

func scanRedemption(row scanner) (*models.DrinkRedemption, error) {
	var r models.DrinkRedemption
	var voidedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.MemberID, &r.Cashier, &r.RedeemedAt, &r.BusinessDay,
		&r.Amount, &r.Voided, &r.VoidReason, &voidedAt); err != nil {
		return nil, err
	}
	if voidedAt.Valid {
		r.VoidedAt = &voidedAt.Time
	}
	return &r, nil
}

// dateArg передаёт календарную дату t в её собственном часовом поясе,
// без пересчёта в пояс сервера базы.
func dateArg(t time.Time) string {
	return t.Format(dateLayout)
}

func (s *Storage) queryRedemptions(ctx context.Context, op, query string, args ...any) ([]*models.DrinkRedemption, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DrinkRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
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

// CreateRedemption сохраняет погашение ваучера. Второе неаннулированное
// погашение участника за те же бизнес-сутки даёт ErrConflict.
func (s *Storage) CreateRedemption(ctx context.Context, r models.DrinkRedemption) error {
	const op = "storage.CreateRedemption"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO drink_redemptions (id, member_id, cashier, redeemed_at, business_day, amount, voided)
		 VALUES ($1, $2, $3, $4, $5::date, $6, false)`,
		r.ID, r.MemberID, r.Cashier, r.RedeemedAt, dateArg(r.BusinessDay), r.Amount)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// HasRedemptionOn сообщает, есть ли у участника неаннулированное погашение за бизнес-сутки day.
func (s *Storage) HasRedemptionOn(ctx context.Context, memberID uuid.UUID, day time.Time) (bool, error) {
	const op = "storage.HasRedemptionOn"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM drink_redemptions
			WHERE member_id = $1 AND business_day = $2::date AND NOT voided
		)`, memberID, dateArg(day)).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// ListRedemptionsSince возвращает неаннулированные погашения участника
// начиная с момента since, новые первыми.
func (s *Storage) ListRedemptionsSince(ctx context.Context, memberID uuid.UUID, since time.Time) ([]*models.DrinkRedemption, error) {
	const op = "storage.ListRedemptionsSince"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryRedemptions(ctx, op,
		`SELECT `+redemptionColumns+` FROM drink_redemptions
		 WHERE member_id = $1 AND redeemed_at >= $2 AND NOT voided
		 ORDER BY redeemed_at DESC`, memberID, since)
}

// ListRedemptions возвращает все погашения для выгрузки.
func (s *Storage) ListRedemptions(ctx context.Context) ([]*models.DrinkRedemption, error) {
	const op = "storage.ListRedemptions"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.queryRedemptions(ctx, op,
		`SELECT `+redemptionColumns+` FROM drink_redemptions ORDER BY redeemed_at, id`)
}

// GetRedemption возвращает погашение по ID.
func (s *Storage) GetRedemption(ctx context.Context, id uuid.UUID) (*models.DrinkRedemption, error) {
	const op = "storage.GetRedemption"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	r, err := scanRedemption(s.DB.QueryRowContext(ctx,
		`SELECT `+redemptionColumns+` FROM drink_redemptions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return r, nil
}

// VoidRedemption аннулирует погашение. Уже аннулированное даёт ErrNotFound.
func (s *Storage) VoidRedemption(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	const op = "storage.VoidRedemption"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE drink_redemptions SET voided = true, void_reason = $2, voided_at = $3
		 WHERE id = $1 AND NOT voided`, id, reason, at)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// CountRedemptionsOn возвращает число неаннулированных погашений за бизнес-сутки day.
func (s *Storage) CountRedemptionsOn(ctx context.Context, day time.Time) (int, error) {
	const op = "storage.CountRedemptionsOn"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drink_redemptions WHERE business_day = $1::date AND NOT voided`,
		dateArg(day)).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}
