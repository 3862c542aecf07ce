package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const subscriptionColumns = `id, member_id, plan_id, status, created_at, activated_at, canceled_at`

func scanSubscription(row scanner) (*models.Subscription, error) {
	var sub models.Subscription
	var activatedAt, canceledAt sql.NullTime
	if err := row.Scan(&sub.ID, &sub.MemberID, &sub.PlanID, &sub.Status, &sub.CreatedAt,
		&activatedAt, &canceledAt); err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		sub.ActivatedAt = &activatedAt.Time
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	return &sub, nil
}

// CreateSubscription создаёт подписку в статусе pending. Если у участника уже
// есть неотменённая подписка, возвращается ErrConflict.
func (s *Storage) CreateSubscription(ctx context.Context, memberID uuid.UUID, planID string) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO subscriptions (member_id, plan_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+subscriptionColumns, memberID, planID)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// GetOpenSubscription возвращает неотменённую подписку участника.
func (s *Storage) GetOpenSubscription(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error) {
	const op = "storage.GetOpenSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE member_id = $1 AND status <> 'canceled'
		 ORDER BY created_at DESC
		 LIMIT 1`, memberID)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// HasActiveSubscription сообщает, есть ли у участника подписка в статусе active.
func (s *Storage) HasActiveSubscription(ctx context.Context, memberID uuid.UUID) (bool, error) {
	const op = "storage.HasActiveSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE member_id = $1 AND status = 'active')`,
		memberID).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// ActivateSubscription переводит подписку из pending в active.
func (s *Storage) ActivateSubscription(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.ActivateSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'active', activated_at = $2
		 WHERE id = $1 AND status = 'pending'`, id, at)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// CancelSubscription отменяет неотменённую подписку.
func (s *Storage) CancelSubscription(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.CancelSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'canceled', canceled_at = $2
		 WHERE id = $1 AND status <> 'canceled'`, id, at)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}
