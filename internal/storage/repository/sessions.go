package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const sessionColumns = `id, member_id, code, active, started_at, ended_at, end_reason, attempts`

func scanSession(row scanner) (*models.CheckinSession, error) {
	var cs models.CheckinSession
	var endedAt sql.NullTime
	if err := row.Scan(&cs.ID, &cs.MemberID, &cs.Code, &cs.Active, &cs.StartedAt,
		&endedAt, &cs.EndReason, &cs.Attempts); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		cs.EndedAt = &endedAt.Time
	}
	return &cs, nil
}

func (s *Storage) querySessions(ctx context.Context, op, query string, args ...any) ([]*models.CheckinSession, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CheckinSession
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, cs)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateSession сохраняет новое посещение. Второе активное посещение участника
// даёт ErrConflict, занятый код активного посещения даёт ErrCodeTaken.
func (s *Storage) CreateSession(ctx context.Context, cs models.CheckinSession) error {
	const op = "storage.CreateSession"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, member_id, code, active, started_at, end_reason, attempts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cs.ID, cs.MemberID, cs.Code, cs.Active, cs.StartedAt, cs.EndReason, cs.Attempts)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetSession возвращает посещение по ID.
func (s *Storage) GetSession(ctx context.Context, id uuid.UUID) (*models.CheckinSession, error) {
	const op = "storage.GetSession"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	cs, err := scanSession(s.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return cs, nil
}

// GetActiveSessionByMember возвращает активное посещение участника.
func (s *Storage) GetActiveSessionByMember(ctx context.Context, memberID uuid.UUID) (*models.CheckinSession, error) {
	const op = "storage.GetActiveSessionByMember"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	cs, err := scanSession(s.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE member_id = $1 AND active`, memberID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return cs, nil
}

// GetActiveSessionByCode возвращает активное посещение с точным совпадением кода.
func (s *Storage) GetActiveSessionByCode(ctx context.Context, code string) (*models.CheckinSession, error) {
	const op = "storage.GetActiveSessionByCode"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	cs, err := scanSession(s.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE code = $1 AND active`, code))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return cs, nil
}

// ActiveCodeExists сообщает, используется ли код каким-либо активным посещением.
func (s *Storage) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	const op = "storage.ActiveCodeExists"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE code = $1 AND active)`, code).Scan(&exists); err != nil {
		return false, wrapErr(op, err)
	}
	return exists, nil
}

// CountActiveSessions возвращает число активных посещений.
func (s *Storage) CountActiveSessions(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSessions"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE active`).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// ListActiveSessions возвращает активные посещения в порядке начала.
func (s *Storage) ListActiveSessions(ctx context.Context) ([]*models.CheckinSession, error) {
	const op = "storage.ListActiveSessions"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.querySessions(ctx, op,
		`SELECT `+sessionColumns+` FROM sessions WHERE active ORDER BY started_at`)
}

// ListSessions возвращает все посещения для выгрузки.
func (s *Storage) ListSessions(ctx context.Context) ([]*models.CheckinSession, error) {
	const op = "storage.ListSessions"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	return s.querySessions(ctx, op,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at, id`)
}

// EndSession завершает активное посещение. Уже завершённое или
// несуществующее посещение даёт ErrNotFound.
func (s *Storage) EndSession(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	const op = "storage.EndSession"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE sessions SET active = false, ended_at = $2, end_reason = $3
		 WHERE id = $1 AND active`, id, at, reason)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// IncrementAttempts увеличивает счётчик успешных проверок кода посещения.
func (s *Storage) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	const op = "storage.IncrementAttempts"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE sessions SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}
