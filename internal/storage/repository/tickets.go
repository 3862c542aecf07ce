package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const ticketColumns = `id, member_id, subject, body, status, staff_note, created_at, updated_at`

func scanTicket(row scanner) (*models.Ticket, error) {
	var t models.Ticket
	if err := row.Scan(&t.ID, &t.MemberID, &t.Subject, &t.Body, &t.Status, &t.StaffNote,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTicket открывает обращение участника.
func (s *Storage) CreateTicket(ctx context.Context, t models.Ticket) (*models.Ticket, error) {
	const op = "storage.CreateTicket"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanTicket(s.DB.QueryRowContext(ctx,
		`INSERT INTO tickets (member_id, subject, body, status)
		 VALUES ($1, $2, $3, 'open')
		 RETURNING `+ticketColumns, t.MemberID, t.Subject, t.Body))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListTickets возвращает обращения. Nil memberID означает всех участников,
// пустой status означает любой статус.
func (s *Storage) ListTickets(ctx context.Context, memberID *uuid.UUID, status string) ([]*models.Ticket, error) {
	const op = "storage.ListTickets"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE ($1::uuid IS NULL OR member_id = $1)
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id DESC`, nullUUID(memberID), status)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTicket меняет статус обращения и заметку сотрудника.
func (s *Storage) UpdateTicket(ctx context.Context, id int64, status, staffNote string) (*models.Ticket, error) {
	const op = "storage.UpdateTicket"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	t, err := scanTicket(s.DB.QueryRowContext(ctx,
		`UPDATE tickets SET status = $2, staff_note = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+ticketColumns, id, status, staffNote))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return t, nil
}

// CountOpenTickets возвращает число обращений, ожидающих ответа.
func (s *Storage) CountOpenTickets(ctx context.Context) (int, error) {
	const op = "storage.CountOpenTickets"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	var n int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status IN ('open', 'in_progress')`).Scan(&n); err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}
