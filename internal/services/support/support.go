// Package support ведёт обращения участников в поддержку.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// Repository хранилище обращений.
type Repository interface {
	CreateTicket(ctx context.Context, t models.Ticket) (*models.Ticket, error)
	ListTickets(ctx context.Context, memberID *uuid.UUID, status string) ([]*models.Ticket, error)
	UpdateTicket(ctx context.Context, id int64, status, staffNote string) (*models.Ticket, error)
}

// Service сервис обращений.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Open создаёт обращение участника в статусе open.
func (s *Service) Open(ctx context.Context, memberID uuid.UUID, req models.TicketRequest) (*models.Ticket, error) {
	const op = "support.Open"
	t, err := s.repo.CreateTicket(ctx, models.Ticket{
		MemberID: memberID,
		Subject:  req.Subject,
		Body:     req.Body,
		Status:   models.TicketOpen,
	})
	if err != nil {
		s.log.Error("failed to create ticket", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	s.log.Info("ticket opened", sl.Op(op), slog.Int64("ticket_id", t.ID), slog.String("member_id", memberID.String()))
	return t, nil
}

// List возвращает обращения. memberID == nil означает все обращения (для персонала).
func (s *Service) List(ctx context.Context, memberID *uuid.UUID, status string) ([]*models.Ticket, error) {
	const op = "support.List"
	list, err := s.repo.ListTickets(ctx, memberID, status)
	if err != nil {
		s.log.Error("failed to list tickets", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if list == nil {
		list = []*models.Ticket{}
	}
	return list, nil
}

// Update меняет статус обращения и заметку персонала.
func (s *Service) Update(ctx context.Context, id int64, req models.TicketUpdateRequest) (*models.Ticket, error) {
	const op = "support.Update"
	t, err := s.repo.UpdateTicket(ctx, id, req.Status, req.StaffNote)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		s.log.Error("failed to update ticket", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	s.log.Info("ticket updated", sl.Op(op), slog.Int64("ticket_id", id), slog.String("status", req.Status))
	return t, nil
}
