// Package voucher реализует ежедневный ваучер на напиток: не больше одного
// неаннулированного погашения на участника за бизнес-сутки.
package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// DefaultAmount номинал ваучера по умолчанию, в песо.
const DefaultAmount = 150

const recentLimit = 10

// Repository хранилище погашений.
type Repository interface {
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	HasRedemptionOn(ctx context.Context, memberID uuid.UUID, day time.Time) (bool, error)
	CreateRedemption(ctx context.Context, r models.DrinkRedemption) error
	ListRedemptionsSince(ctx context.Context, memberID uuid.UUID, since time.Time) ([]*models.DrinkRedemption, error)
	VoidRedemption(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}

// Service погашает ваучеры.
type Service struct {
	repo          Repository
	clock         *bizday.Clock
	defaultAmount int
	log           *slog.Logger
}

// New создает Service. Неположительный defaultAmount заменяется на DefaultAmount.
func New(repo Repository, clock *bizday.Clock, defaultAmount int, log *slog.Logger) *Service {
	if defaultAmount <= 0 {
		defaultAmount = DefaultAmount
	}
	return &Service{
		repo:          repo,
		clock:         clock,
		defaultAmount: defaultAmount,
		log:           log,
	}
}

// CanRedeemToday сообщает, свободен ли ваучер участника на текущие бизнес-сутки.
func (s *Service) CanRedeemToday(ctx context.Context, memberID uuid.UUID) (bool, error) {
	const op = "voucher.CanRedeemToday"

	redeemed, err := s.repo.HasRedemptionOn(ctx, memberID, s.clock.Today())
	if err != nil {
		s.log.Error("failed to check redemptions", sl.Op(op), sl.Err(err))
		return false, apperrors.Unavailable(op, err)
	}
	return !redeemed, nil
}

// RedeemVoucher погашает ваучер участника на сегодня. amount <= 0 означает номинал по умолчанию.
func (s *Service) RedeemVoucher(ctx context.Context, memberID uuid.UUID, amount int, cashier string) (*models.DrinkRedemption, error) {
	const op = "voucher.RedeemVoucher"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	member, err := s.repo.GetMember(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrMemberNotFound)
	}
	if err != nil {
		log.Error("failed to get member", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if !member.IsActive() {
		metrics.RecordRedemption(metrics.ResultRejected)
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrMemberInactive)
	}

	free, err := s.CanRedeemToday(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !free {
		metrics.RecordRedemption(metrics.ResultRejected)
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrVoucherAlreadyRedeemed)
	}

	if amount <= 0 {
		amount = s.defaultAmount
	}
	now := s.clock.Now()
	r := models.DrinkRedemption{
		ID:          uuid.New(),
		MemberID:    memberID,
		Cashier:     cashier,
		RedeemedAt:  now,
		BusinessDay: s.clock.StartOfDay(now),
		Amount:      amount,
	}
	err = s.repo.CreateRedemption(ctx, r)
	if errors.Is(err, repository.ErrConflict) {
		metrics.RecordRedemption(metrics.ResultRejected)
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrVoucherAlreadyRedeemed)
	}
	if err != nil {
		metrics.RecordRedemption(metrics.ResultError)
		log.Error("failed to save redemption", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	metrics.RecordRedemption(metrics.ResultOK)
	log.Info("voucher redeemed", slog.String("redemption_id", r.ID.String()), slog.String("cashier", cashier))
	return &r, nil
}

// VoidRedemption аннулирует погашение, освобождая ваучер на те сутки.
func (s *Service) VoidRedemption(ctx context.Context, id uuid.UUID, reason string) error {
	const op = "voucher.VoidRedemption"
	log := s.log.With(sl.Op(op), slog.String("redemption_id", id.String()))

	err := s.repo.VoidRedemption(ctx, id, reason, s.clock.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrRedemptionNotFound)
	}
	if err != nil {
		log.Error("failed to void redemption", sl.Err(err))
		return apperrors.Unavailable(op, err)
	}
	log.Info("redemption voided", slog.String("reason", reason))
	return nil
}

// Stats возвращает сводку погашений участника: за текущий месяц, за последние
// 30 дней, последнее погашение и список недавних.
func (s *Service) Stats(ctx context.Context, memberID uuid.UUID) (*models.VoucherStats, error) {
	const op = "voucher.Stats"

	now := s.clock.Now()
	monthStart := s.clock.StartOfMonth(now)
	last30 := s.clock.StartOfDay(now).AddDate(0, 0, -29)
	since := monthStart
	if last30.Before(since) {
		since = last30
	}

	list, err := s.repo.ListRedemptionsSince(ctx, memberID, since)
	if err != nil {
		s.log.Error("failed to list redemptions", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	today := s.clock.StartOfDay(now)
	stats := &models.VoucherStats{CanRedeemToday: true, Recent: []*models.DrinkRedemption{}}
	for _, r := range list {
		if r.Voided {
			continue
		}
		if !r.RedeemedAt.Before(monthStart) {
			stats.ThisMonth++
		}
		if !r.RedeemedAt.Before(last30) {
			stats.Last30Days++
		}
		if s.clock.SameDay(r.RedeemedAt, today) {
			stats.CanRedeemToday = false
		}
		if stats.MostRecent == nil || r.RedeemedAt.After(stats.MostRecent.RedeemedAt) {
			stats.MostRecent = r
		}
		if len(stats.Recent) < recentLimit {
			stats.Recent = append(stats.Recent, r)
		}
	}
	return stats, nil
}
