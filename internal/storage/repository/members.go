package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const memberColumns = `id, email, name, phone, plan_id, status, role, password_hash, created_at, updated_at`

func scanMember(row scanner) (*models.Member, error) {
	var m models.Member
	var planID sql.NullString
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &planID, &m.Status, &m.Role,
		&m.PasswordHash, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if planID.Valid {
		m.PlanID = &planID.String
	}
	return &m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateMember сохраняет нового участника и возвращает его ID.
// Повтор email возвращает ErrConflict.
func (s *Storage) CreateMember(ctx context.Context, m models.Member) (uuid.UUID, error) {
	const op = "storage.CreateMember"
	select {
	case <-ctx.Done():
		return uuid.Nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id uuid.UUID
	query := `INSERT INTO members (email, name, phone, plan_id, status, role, password_hash)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		strings.ToLower(m.Email), m.Name, m.Phone, nullString(m.PlanID), m.Status, m.Role,
		m.PasswordHash).Scan(&id); err != nil {
		return uuid.Nil, wrapErr(op, err)
	}
	return id, nil
}

// GetMember возвращает участника по ID.
func (s *Storage) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	const op = "storage.GetMember"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return m, nil
}

// GetMemberByEmail возвращает участника по email без учёта регистра.
func (s *Storage) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	const op = "storage.GetMemberByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email = $1`, strings.ToLower(email))
	m, err := scanMember(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return m, nil
}

// ListMembers возвращает участников с фильтром по статусу и пагинацией.
func (s *Storage) ListMembers(ctx context.Context, filter models.MemberFilter) ([]*models.Member, error) {
	const op = "storage.ListMembers"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + memberColumns + ` FROM members
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at, email`
	args := []any{filter.Status}
	if filter.Limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateMember меняет имя, телефон и тариф участника.
func (s *Storage) UpdateMember(ctx context.Context, id uuid.UUID, name, phone string, planID *string) error {
	const op = "storage.UpdateMember"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE members SET name = $2, phone = $3, plan_id = $4, updated_at = NOW() WHERE id = $1`,
		id, name, phone, nullString(planID))
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// SetMemberStatus меняет статус участника.
func (s *Storage) SetMemberStatus(ctx context.Context, id uuid.UUID, status string) error {
	const op = "storage.SetMemberStatus"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE members SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// SetMemberRole меняет роль учётной записи.
func (s *Storage) SetMemberRole(ctx context.Context, id uuid.UUID, role string) error {
	const op = "storage.SetMemberRole"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE members SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// DeleteMember удаляет участника вместе с зависимыми записями.
func (s *Storage) DeleteMember(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteMember"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	return checkAffected(op, res)
}

// CountActiveMembers возвращает число активных участников.
func (s *Storage) CountActiveMembers(ctx context.Context) (int, error) {
	const op = "storage.CountActiveMembers"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE status = 'active'`).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}
