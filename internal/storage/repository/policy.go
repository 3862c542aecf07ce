package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// GetPolicy возвращает единственную запись политики доступа.
func (s *Storage) GetPolicy(ctx context.Context) (*models.PolicySettings, error) {
	const op = "storage.GetPolicy"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var p models.PolicySettings
	var updatedBy uuid.NullUUID
	if err := s.DB.QueryRowContext(ctx,
		`SELECT capacity, idle_timeout_minutes, lockout_threshold, friday_slot_size,
		        grace_period_label, updated_at, updated_by
		 FROM policy_settings WHERE id = 1`).Scan(&p.Capacity, &p.IdleTimeoutMinutes,
		&p.LockoutThreshold, &p.FridaySlotSize, &p.GracePeriodLabel, &p.UpdatedAt, &updatedBy); err != nil {
		return nil, wrapErr(op, err)
	}
	if updatedBy.Valid {
		p.UpdatedBy = &updatedBy.UUID
	}
	return &p, nil
}

// UpsertPolicy записывает политику доступа.
func (s *Storage) UpsertPolicy(ctx context.Context, p models.PolicySettings) error {
	const op = "storage.UpsertPolicy"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO policy_settings (id, capacity, idle_timeout_minutes, lockout_threshold,
		                              friday_slot_size, grace_period_label, updated_at, updated_by)
		 VALUES (1, $1, $2, $3, $4, $5, NOW(), $6)
		 ON CONFLICT (id) DO UPDATE SET
		     capacity = EXCLUDED.capacity,
		     idle_timeout_minutes = EXCLUDED.idle_timeout_minutes,
		     lockout_threshold = EXCLUDED.lockout_threshold,
		     friday_slot_size = EXCLUDED.friday_slot_size,
		     grace_period_label = EXCLUDED.grace_period_label,
		     updated_at = EXCLUDED.updated_at,
		     updated_by = EXCLUDED.updated_by`,
		p.Capacity, p.IdleTimeoutMinutes, p.LockoutThreshold, p.FridaySlotSize,
		p.GracePeriodLabel, nullUUID(p.UpdatedBy))
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}
