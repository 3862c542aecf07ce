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

// Subscribe оформляет подписку участника на тариф в статусе pending.
// Вторая неотменённая подписка запрещена.
func (s *Service) Subscribe(ctx context.Context, memberID uuid.UUID, planID string) (*models.Subscription, error) {
	const op = "member.Subscribe"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	if _, err := s.Get(ctx, memberID); err != nil {
		return nil, err
	}
	if _, err := s.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	sub, err := s.repo.CreateSubscription(ctx, memberID, planID)
	if errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubscriptionExists)
	}
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	log.Info("subscription created", slog.String("plan_id", planID), slog.Int64("subscription_id", sub.ID))
	return sub, nil
}

// CurrentSubscription возвращает неотменённую подписку участника.
func (s *Service) CurrentSubscription(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error) {
	const op = "member.CurrentSubscription"
	sub, err := s.repo.GetOpenSubscription(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubscriptionNotFound)
	}
	if err != nil {
		s.log.Error("failed to get subscription", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	return sub, nil
}

// Activate переводит подписку участника из pending в active.
func (s *Service) Activate(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error) {
	const op = "member.Activate"

	sub, err := s.CurrentSubscription(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionPending {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubscriptionNotFound)
	}

	now := s.clock.Now()
	err = s.repo.ActivateSubscription(ctx, sub.ID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubscriptionNotFound)
	}
	if err != nil {
		s.log.Error("failed to activate subscription", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	sub.Status = models.SubscriptionActive
	sub.ActivatedAt = &now
	s.log.Info("subscription activated", sl.Op(op), slog.Int64("subscription_id", sub.ID))
	return sub, nil
}

// Cancel отменяет неотменённую подписку участника.
func (s *Service) Cancel(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error) {
	const op = "member.Cancel"

	sub, err := s.CurrentSubscription(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.repo.CancelSubscription(ctx, sub.ID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSubscriptionNotFound)
	}
	if err != nil {
		s.log.Error("failed to cancel subscription", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	sub.Status = models.SubscriptionCanceled
	sub.CanceledAt = &now
	s.log.Info("subscription canceled", sl.Op(op), slog.Int64("subscription_id", sub.ID))
	return sub, nil
}
