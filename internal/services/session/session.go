// Package session реализует посещения коворкинга: вход участника с выдачей
// короткого кода, проверку кода на стойке, завершение посещения и контроль
// вместимости. Каждая проверка кода пишется в журнал попыток.
//
// Вместимость проверяется по схеме "посчитать, затем вставить": при гонке
// двух одновременных входов возможно превышение на единицы. Единственность
// активного посещения участника дополнительно гарантирует уникальный индекс.
package session

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

const maxCodeAttempts = 5

// Repository хранилище посещений и связанных проверок.
type Repository interface {
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	HasActiveSubscription(ctx context.Context, memberID uuid.UUID) (bool, error)
	CurrentPeriod(ctx context.Context, memberID uuid.UUID, at time.Time) (*models.SubscriptionPeriod, error)
	GetActiveSessionByMember(ctx context.Context, memberID uuid.UUID) (*models.CheckinSession, error)
	GetActiveSessionByCode(ctx context.Context, code string) (*models.CheckinSession, error)
	ActiveCodeExists(ctx context.Context, code string) (bool, error)
	CountActiveSessions(ctx context.Context) (int, error)
	ListActiveSessions(ctx context.Context) ([]*models.CheckinSession, error)
	CreateSession(ctx context.Context, cs models.CheckinSession) error
	EndSession(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	CreateAttemptLog(ctx context.Context, a models.AttemptLog) error
}

// PolicyReader источник текущей политики доступа.
type PolicyReader interface {
	Get(ctx context.Context) (*models.PolicySettings, error)
}

// CodeGenerator выдаёт коды посещений.
type CodeGenerator interface {
	Generate() (string, error)
}

// Service управляет посещениями.
type Service struct {
	repo   Repository
	policy PolicyReader
	codes  CodeGenerator
	clock  *bizday.Clock
	log    *slog.Logger
}

// New создает Service.
func New(repo Repository, policy PolicyReader, codes CodeGenerator, clock *bizday.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		codes:  codes,
		clock:  clock,
		log:    log,
	}
}

// StartSession начинает посещение участника. Предусловия проверяются по
// порядку: активная подписка, статус участника, оплаченный текущий период,
// отсутствие активного посещения, свободное место.
func (s *Service) StartSession(ctx context.Context, memberID uuid.UUID) (*models.CheckinSession, error) {
	const op = "session.StartSession"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))
	now := s.clock.Now()

	subscribed, err := s.repo.HasActiveSubscription(ctx, memberID)
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}
	if !subscribed {
		return nil, s.reject(log, op, apperrors.ErrNoActiveSubscription)
	}

	member, err := s.repo.GetMember(ctx, memberID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.reject(log, op, apperrors.ErrMemberNotFound)
	case err != nil:
		return nil, s.unavailable(log, op, err)
	case !member.IsActive():
		return nil, s.reject(log, op, apperrors.ErrMemberInactive)
	}

	period, err := s.repo.CurrentPeriod(ctx, memberID, now)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.reject(log, op, apperrors.ErrUnpaidPeriod)
	case err != nil:
		return nil, s.unavailable(log, op, err)
	case !period.Paid:
		return nil, s.reject(log, op, apperrors.ErrUnpaidPeriod)
	}

	_, err = s.repo.GetActiveSessionByMember(ctx, memberID)
	if err == nil {
		return nil, s.reject(log, op, apperrors.ErrAlreadyCheckedIn)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.unavailable(log, op, err)
	}

	policy, err := s.policy.Get(ctx)
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}
	active, err := s.repo.CountActiveSessions(ctx)
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}
	if active >= policy.Capacity {
		log.Info("space at capacity", slog.Int("active", active), slog.Int("capacity", policy.Capacity))
		return nil, s.reject(log, op, apperrors.ErrAtCapacity)
	}

	for range maxCodeAttempts {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, s.unavailable(log, op, err)
		}
		taken, err := s.repo.ActiveCodeExists(ctx, code)
		if err != nil {
			return nil, s.unavailable(log, op, err)
		}
		if taken {
			continue
		}

		cs := models.CheckinSession{
			ID:        uuid.New(),
			MemberID:  memberID,
			Code:      code,
			Active:    true,
			StartedAt: now,
		}
		err = s.repo.CreateSession(ctx, cs)
		switch {
		case errors.Is(err, repository.ErrCodeTaken):
			continue
		case errors.Is(err, repository.ErrConflict):
			return nil, s.reject(log, op, apperrors.ErrAlreadyCheckedIn)
		case err != nil:
			return nil, s.unavailable(log, op, err)
		}

		metrics.RecordCheckin("", false)
		metrics.SetActiveSessions(active + 1)
		log.Info("session started", slog.String("session_id", cs.ID.String()))
		return &cs, nil
	}

	log.Error("could not find a free session code", slog.Int("attempts", maxCodeAttempts))
	metrics.RecordCheckin(apperrors.ErrCodeSpaceExhausted.Code, true)
	return nil, fmt.Errorf("%s: %w", op, apperrors.ErrCodeSpaceExhausted)
}

// EndSession завершает активное посещение. reason: manual или timeout,
// пустая причина означает manual.
func (s *Service) EndSession(ctx context.Context, sessionID uuid.UUID, reason string) error {
	const op = "session.EndSession"
	log := s.log.With(sl.Op(op), slog.String("session_id", sessionID.String()))

	reason = normalizeReason(reason)
	err := s.repo.EndSession(ctx, sessionID, reason, s.clock.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrSessionNotActive)
	}
	if err != nil {
		return s.unavailable(log, op, err)
	}

	log.Info("session ended", slog.String("reason", reason))
	return nil
}

// EndActiveSessionForMember завершает активное посещение участника.
func (s *Service) EndActiveSessionForMember(ctx context.Context, memberID uuid.UUID, reason string) (*models.CheckinSession, error) {
	const op = "session.EndActiveSessionForMember"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	cs, err := s.repo.GetActiveSessionByMember(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrSessionNotActive)
	}
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}
	if err = s.EndSession(ctx, cs.ID, reason); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	cs.Active = false
	cs.EndedAt = &now
	cs.EndReason = normalizeReason(reason)
	return cs, nil
}

// ValidateSessionCode ищет активное посещение по точному коду. Каждый вызов
// добавляет запись в журнал попыток; сбой записи журнала на результат не влияет.
func (s *Service) ValidateSessionCode(ctx context.Context, code, origin string) (*models.CheckinSession, error) {
	const op = "session.ValidateSessionCode"
	log := s.log.With(sl.Op(op), slog.String("origin", origin))

	cs, err := s.repo.GetActiveSessionByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		s.appendAttempt(ctx, log, nil, code, false, origin)
		metrics.RecordCodeValidation(false)
		log.Info("invalid or expired session code")
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidOrExpiredCode)
	}
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}

	s.appendAttempt(ctx, log, &cs.MemberID, code, true, origin)
	if err = s.repo.IncrementAttempts(ctx, cs.ID); err != nil {
		return nil, s.unavailable(log, op, err)
	}
	cs.Attempts++
	metrics.RecordCodeValidation(true)
	return cs, nil
}

// ActiveSessions возвращает активные посещения.
func (s *Service) ActiveSessions(ctx context.Context) ([]*models.CheckinSession, error) {
	const op = "session.ActiveSessions"
	sessions, err := s.repo.ListActiveSessions(ctx)
	if err != nil {
		return nil, s.unavailable(s.log.With(sl.Op(op)), op, err)
	}
	metrics.SetActiveSessions(len(sessions))
	return sessions, nil
}

// Occupancy возвращает загрузку пространства для экрана стойки.
func (s *Service) Occupancy(ctx context.Context) (*models.Occupancy, error) {
	const op = "session.Occupancy"
	log := s.log.With(sl.Op(op))

	policy, err := s.policy.Get(ctx)
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}
	active, err := s.repo.CountActiveSessions(ctx)
	if err != nil {
		return nil, s.unavailable(log, op, err)
	}

	return &models.Occupancy{
		Active:      active,
		Capacity:    policy.Capacity,
		Available:   max(policy.Capacity-active, 0),
		MembersOnly: s.clock.MembersOnlyNow(),
	}, nil
}

func (s *Service) appendAttempt(ctx context.Context, log *slog.Logger, memberID *uuid.UUID, code string, success bool, origin string) {
	err := s.repo.CreateAttemptLog(ctx, models.AttemptLog{
		MemberID:    memberID,
		Code:        code,
		Success:     success,
		AttemptedAt: s.clock.Now(),
		OriginAddr:  origin,
	})
	if err != nil {
		log.Error("failed to append attempt log", sl.Err(err))
	}
}

func (s *Service) reject(log *slog.Logger, op string, appErr *apperrors.Error) error {
	log.Info("check-in rejected", slog.String("reason", appErr.Code))
	metrics.RecordCheckin(appErr.Code, false)
	return fmt.Errorf("%s: %w", op, appErr)
}

func (s *Service) unavailable(log *slog.Logger, op string, err error) error {
	log.Error("store failure", sl.Err(err))
	return apperrors.Unavailable(op, err)
}

func normalizeReason(reason string) string {
	if reason == models.EndReasonTimeout {
		return models.EndReasonTimeout
	}
	return models.EndReasonManual
}
