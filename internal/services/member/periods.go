package member

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

// AddPeriod добавляет участнику период оплаты [start, end).
func (s *Service) AddPeriod(ctx context.Context, memberID uuid.UUID, req models.PeriodRequest, staffID uuid.UUID) (*models.SubscriptionPeriod, error) {
	const op = "member.AddPeriod"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	if !req.PeriodStart.Before(req.PeriodEnd) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidPeriod)
	}
	if _, err := s.Get(ctx, memberID); err != nil {
		return nil, err
	}

	p, err := s.repo.CreatePeriod(ctx, models.SubscriptionPeriod{
		MemberID:    memberID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Paid:        req.Paid,
		MarkedBy:    &staffID,
		Note:        req.Note,
	})
	if err != nil {
		log.Error("failed to create period", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	log.Info("period added", slog.Int64("period_id", p.ID), slog.Bool("paid", p.Paid))
	return p, nil
}

// ListPeriods возвращает периоды участника, новые первыми.
func (s *Service) ListPeriods(ctx context.Context, memberID uuid.UUID) ([]*models.SubscriptionPeriod, error) {
	const op = "member.ListPeriods"
	list, err := s.repo.ListPeriods(ctx, memberID)
	if err != nil {
		s.log.Error("failed to list periods", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if list == nil {
		list = []*models.SubscriptionPeriod{}
	}
	return list, nil
}

// MarkPeriod отмечает оплату периода сотрудником.
func (s *Service) MarkPeriod(ctx context.Context, id int64, req models.MarkPeriodRequest, staffID uuid.UUID) (*models.SubscriptionPeriod, error) {
	const op = "member.MarkPeriod"
	p, err := s.repo.MarkPeriod(ctx, id, req.Paid, staffID, req.Note)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPeriodNotFound)
	}
	if err != nil {
		s.log.Error("failed to mark period", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	s.log.Info("period marked", sl.Op(op), slog.Int64("period_id", id),
		slog.Bool("paid", req.Paid), slog.String("staff_id", staffID.String()))
	return p, nil
}

// CurrentPeriod возвращает период участника, содержащий текущий момент.
func (s *Service) CurrentPeriod(ctx context.Context, memberID uuid.UUID) (*models.SubscriptionPeriod, error) {
	const op = "member.CurrentPeriod"
	p, err := s.repo.CurrentPeriod(ctx, memberID, s.clock.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPeriodNotFound)
	}
	if err != nil {
		s.log.Error("failed to get current period", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	return p, nil
}
