// Package booking выдаёт гостевые пропуска и бронирует пятничные ночёвки
// и переговорные.
package booking

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
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

const dateLayout = "2006-01-02"

// Пятничная ночёвка длится с 20:00 пятницы до 08:00 субботы.
const (
	overnightStartHour = 20
	overnightEndHour   = 8
)

// Repository хранилище пропусков и броней.
type Repository interface {
	CreateGuestPass(ctx context.Context, g models.GuestPass) (*models.GuestPass, error)
	ListGuestPasses(ctx context.Context, memberID uuid.UUID) ([]*models.GuestPass, error)
	SetGuestPassStatus(ctx context.Context, id int64, status string) (*models.GuestPass, error)

	CreateReservation(ctx context.Context, r models.Reservation) (*models.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
	CountReservations(ctx context.Context, kind string, from, to time.Time) (int, error)
	MemberHasReservation(ctx context.Context, memberID uuid.UUID, kind string, from, to time.Time) (bool, error)
	RoomOverlaps(ctx context.Context, room string, start, end time.Time) (bool, error)
	ListReservations(ctx context.Context, memberID uuid.UUID) ([]*models.Reservation, error)
}

// PolicyReader источник числа пятничных мест.
type PolicyReader interface {
	Get(ctx context.Context) (*models.PolicySettings, error)
}

// Service сервис бронирований.
type Service struct {
	repo   Repository
	policy PolicyReader
	clock  *bizday.Clock
	log    *slog.Logger
}

// New создает Service.
func New(repo Repository, policy PolicyReader, clock *bizday.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		clock:  clock,
		log:    log,
	}
}

// parseDay разбирает дату 2006-01-02 как бизнес-сутки и отвергает прошедшие.
func (s *Service) parseDay(op, value string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, value, s.clock.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w: %w", op, apperrors.ErrInvalidBooking, err)
	}
	if day.Before(s.clock.Today()) {
		return time.Time{}, fmt.Errorf("%s: %w: date is in the past", op, apperrors.ErrInvalidBooking)
	}
	return day, nil
}

// IssueGuestPass выдаёт гостевой пропуск на дату визита.
func (s *Service) IssueGuestPass(ctx context.Context, memberID uuid.UUID, req models.GuestPassRequest) (*models.GuestPass, error) {
	const op = "booking.IssueGuestPass"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	day, err := s.parseDay(op, req.VisitDate)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.CreateGuestPass(ctx, models.GuestPass{
		MemberID:  memberID,
		GuestName: req.GuestName,
		VisitDate: day,
	})
	if err != nil {
		log.Error("failed to issue guest pass", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	log.Info("guest pass issued", slog.Int64("guest_pass_id", g.ID))
	return g, nil
}

// ListGuestPasses возвращает пропуска участника.
func (s *Service) ListGuestPasses(ctx context.Context, memberID uuid.UUID) ([]*models.GuestPass, error) {
	const op = "booking.ListGuestPasses"
	list, err := s.repo.ListGuestPasses(ctx, memberID)
	if err != nil {
		s.log.Error("failed to list guest passes", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if list == nil {
		list = []*models.GuestPass{}
	}
	return list, nil
}

// SetGuestPassStatus отмечает пропуск использованным или отменённым.
func (s *Service) SetGuestPassStatus(ctx context.Context, id int64, status string) (*models.GuestPass, error) {
	const op = "booking.SetGuestPassStatus"
	g, err := s.repo.SetGuestPassStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		s.log.Error("failed to update guest pass", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	return g, nil
}

// ReserveFriday бронирует место на пятничную ночёвку. Одна бронь на участника
// за ночь, число броней ограничено friday_slot_size политики.
func (s *Service) ReserveFriday(ctx context.Context, memberID uuid.UUID, req models.FridayReservationRequest) (*models.Reservation, error) {
	const op = "booking.ReserveFriday"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()))

	day, err := s.parseDay(op, req.Date)
	if err != nil {
		return nil, err
	}
	if day.Weekday() != time.Friday {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFriday)
	}
	from, to := s.clock.DayBounds(day)

	has, err := s.repo.MemberHasReservation(ctx, memberID, models.ReservationFridayOvernight, from, to)
	if err != nil {
		log.Error("failed to check reservations", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if has {
		return nil, fmt.Errorf("%s: %w: already reserved for this night", op, apperrors.ErrInvalidBooking)
	}

	policy, err := s.policy.Get(ctx)
	if err != nil {
		return nil, apperrors.Unavailable(op, err)
	}
	taken, err := s.repo.CountReservations(ctx, models.ReservationFridayOvernight, from, to)
	if err != nil {
		log.Error("failed to count reservations", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if taken >= policy.FridaySlotSize {
		log.Info("friday slots full", slog.Int("taken", taken), slog.Int("slots", policy.FridaySlotSize))
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrFridaySlotsFull)
	}

	r, err := s.repo.CreateReservation(ctx, models.Reservation{
		MemberID: memberID,
		Kind:     models.ReservationFridayOvernight,
		StartsAt: day.Add(overnightStartHour * time.Hour),
		EndsAt:   to.Add(overnightEndHour * time.Hour),
	})
	if err != nil {
		log.Error("failed to create reservation", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	log.Info("friday overnight reserved", slog.Int64("reservation_id", r.ID), slog.String("date", req.Date))
	return r, nil
}

// ReserveRoom бронирует переговорную на интервал [StartsAt, EndsAt) в пределах одних суток.
func (s *Service) ReserveRoom(ctx context.Context, memberID uuid.UUID, req models.RoomReservationRequest) (*models.Reservation, error) {
	const op = "booking.ReserveRoom"
	log := s.log.With(sl.Op(op), slog.String("member_id", memberID.String()), slog.String("room", req.Room))

	if !req.StartsAt.Before(req.EndsAt) {
		return nil, fmt.Errorf("%s: %w: start must be before end", op, apperrors.ErrInvalidBooking)
	}
	if !s.clock.SameDay(req.StartsAt, req.EndsAt.Add(-time.Nanosecond)) {
		return nil, fmt.Errorf("%s: %w: booking must fit in one day", op, apperrors.ErrInvalidBooking)
	}
	if req.EndsAt.Before(s.clock.Now()) {
		return nil, fmt.Errorf("%s: %w: booking is in the past", op, apperrors.ErrInvalidBooking)
	}

	busy, err := s.repo.RoomOverlaps(ctx, req.Room, req.StartsAt, req.EndsAt)
	if err != nil {
		log.Error("failed to check room", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if busy {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrRoomUnavailable)
	}

	r, err := s.repo.CreateReservation(ctx, models.Reservation{
		MemberID: memberID,
		Kind:     models.ReservationMeetingRoom,
		Resource: req.Room,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		log.Error("failed to create reservation", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	log.Info("meeting room reserved", slog.Int64("reservation_id", r.ID))
	return r, nil
}

// CancelReservation отменяет бронь. Чужую бронь может отменить только персонал.
func (s *Service) CancelReservation(ctx context.Context, id int64, actorID uuid.UUID, isStaff bool) error {
	const op = "booking.CancelReservation"
	log := s.log.With(sl.Op(op), slog.Int64("reservation_id", id))

	r, err := s.repo.GetReservation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		log.Error("failed to get reservation", sl.Err(err))
		return apperrors.Unavailable(op, err)
	}
	if r.MemberID != actorID && !isStaff {
		return fmt.Errorf("%s: %w", op, apperrors.ErrForbidden)
	}

	err = s.repo.CancelReservation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		log.Error("failed to cancel reservation", sl.Err(err))
		return apperrors.Unavailable(op, err)
	}
	log.Info("reservation canceled", slog.String("actor_id", actorID.String()))
	return nil
}

// ListReservations возвращает брони участника.
func (s *Service) ListReservations(ctx context.Context, memberID uuid.UUID) ([]*models.Reservation, error) {
	const op = "booking.ListReservations"
	list, err := s.repo.ListReservations(ctx, memberID)
	if err != nil {
		s.log.Error("failed to list reservations", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if list == nil {
		list = []*models.Reservation{}
	}
	return list, nil
}
