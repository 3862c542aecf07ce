package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// CreateAttemptLog добавляет запись в журнал проверок кодов.
func (s *Storage) CreateAttemptLog(ctx context.Context, a models.AttemptLog) error {
	const op = "storage.CreateAttemptLog"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO attempt_logs (member_id, code, success, attempted_at, origin_addr)
		 VALUES ($1, $2, $3, $4, $5)`,
		nullUUID(a.MemberID), a.Code, a.Success, a.AttemptedAt, a.OriginAddr)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// ListAttemptLogs возвращает последние limit записей журнала.
func (s *Storage) ListAttemptLogs(ctx context.Context, limit int) ([]*models.AttemptLog, error) {
	const op = "storage.ListAttemptLogs"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, member_id, code, success, attempted_at, origin_addr
		 FROM attempt_logs
		 ORDER BY attempted_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.AttemptLog
	for rows.Next() {
		var a models.AttemptLog
		var memberID uuid.NullUUID
		if err = rows.Scan(&a.ID, &memberID, &a.Code, &a.Success, &a.AttemptedAt, &a.OriginAddr); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if memberID.Valid {
			a.MemberID = &memberID.UUID
		}
		result = append(result, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
