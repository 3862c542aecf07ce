package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateGuestPass(ctx context.Context, g models.GuestPass) (*models.GuestPass, error) {
	args := m.Called(ctx, g)
	res, _ := args.Get(0).(*models.GuestPass)
	return res, args.Error(1)
}

func (m *RepoMock) ListGuestPasses(ctx context.Context, memberID uuid.UUID) ([]*models.GuestPass, error) {
	args := m.Called(ctx, memberID)
	res, _ := args.Get(0).([]*models.GuestPass)
	return res, args.Error(1)
}

func (m *RepoMock) SetGuestPassStatus(ctx context.Context, id int64, status string) (*models.GuestPass, error) {
	args := m.Called(ctx, id, status)
	res, _ := args.Get(0).(*models.GuestPass)
	return res, args.Error(1)
}

func (m *RepoMock) CreateReservation(ctx context.Context, r models.Reservation) (*models.Reservation, error) {
	args := m.Called(ctx, r)
	res, _ := args.Get(0).(*models.Reservation)
	return res, args.Error(1)
}

func (m *RepoMock) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Reservation)
	return res, args.Error(1)
}

func (m *RepoMock) CancelReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) CountReservations(ctx context.Context, kind string, from, to time.Time) (int, error) {
	args := m.Called(ctx, kind, from, to)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) MemberHasReservation(ctx context.Context, memberID uuid.UUID, kind string, from, to time.Time) (bool, error) {
	args := m.Called(ctx, memberID, kind, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) RoomOverlaps(ctx context.Context, room string, start, end time.Time) (bool, error) {
	args := m.Called(ctx, room, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) ListReservations(ctx context.Context, memberID uuid.UUID) ([]*models.Reservation, error) {
	args := m.Called(ctx, memberID)
	res, _ := args.Get(0).([]*models.Reservation)
	return res, args.Error(1)
}

type policyStub struct{ slots int }

func (p policyStub) Get(context.Context) (*models.PolicySettings, error) {
	return &models.PolicySettings{Capacity: 13, FridaySlotSize: p.slots}, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// среда, 3 января 2024, 10:00 по Маниле
func newTestService(t *testing.T, slots int) (*Service, *RepoMock, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, loc)
	repo := new(RepoMock)
	return New(repo, policyStub{slots: slots}, bizday.Fixed(loc, func() time.Time { return now }), newNoopLogger()), repo, loc
}

func TestReserveFriday(t *testing.T) {
	memberID := uuid.New()

	t.Run("not a friday", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2024-01-06"})
		assert.ErrorIs(t, err, apperrors.ErrNotFriday)
		repo.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("past friday", func(t *testing.T) {
		svc, _, _ := newTestService(t, 6)
		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2023-12-29"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidBooking)
	})

	t.Run("malformed date", func(t *testing.T) {
		svc, _, _ := newTestService(t, 6)
		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "05/01/2024"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidBooking)
	})

	t.Run("slots full", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("MemberHasReservation", mock.Anything, memberID, models.ReservationFridayOvernight, mock.Anything, mock.Anything).Return(false, nil)
		repo.On("CountReservations", mock.Anything, models.ReservationFridayOvernight, mock.Anything, mock.Anything).Return(6, nil)

		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2024-01-05"})
		assert.ErrorIs(t, err, apperrors.ErrFridaySlotsFull)
	})

	t.Run("zero slots disables overnight", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 0)
		repo.On("MemberHasReservation", mock.Anything, memberID, models.ReservationFridayOvernight, mock.Anything, mock.Anything).Return(false, nil)
		repo.On("CountReservations", mock.Anything, models.ReservationFridayOvernight, mock.Anything, mock.Anything).Return(0, nil)

		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2024-01-05"})
		assert.ErrorIs(t, err, apperrors.ErrFridaySlotsFull)
	})

	t.Run("one per member per night", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("MemberHasReservation", mock.Anything, memberID, models.ReservationFridayOvernight, mock.Anything, mock.Anything).Return(true, nil)

		_, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2024-01-05"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidBooking)
	})

	t.Run("last free slot", func(t *testing.T) {
		svc, repo, loc := newTestService(t, 6)
		friday := time.Date(2024, 1, 5, 0, 0, 0, 0, loc)
		saturday := friday.AddDate(0, 0, 1)
		repo.On("MemberHasReservation", mock.Anything, memberID, models.ReservationFridayOvernight, friday, saturday).Return(false, nil)
		repo.On("CountReservations", mock.Anything, models.ReservationFridayOvernight, friday, saturday).Return(5, nil)
		repo.On("CreateReservation", mock.Anything, mock.MatchedBy(func(r models.Reservation) bool {
			return r.StartsAt.Equal(friday.Add(20*time.Hour)) && r.EndsAt.Equal(saturday.Add(8*time.Hour))
		})).Return(&models.Reservation{ID: 1, Kind: models.ReservationFridayOvernight}, nil)

		r, err := svc.ReserveFriday(context.Background(), memberID, models.FridayReservationRequest{Date: "2024-01-05"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), r.ID)
		repo.AssertExpectations(t)
	})
}

func TestReserveRoom(t *testing.T) {
	memberID := uuid.New()
	svc, _, loc := newTestService(t, 6)
	at := func(day, hour int) time.Time { return time.Date(2024, 1, day, hour, 0, 0, 0, loc) }

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		overlap bool
		wantErr error
	}{
		{"end before start", at(4, 12), at(4, 11), false, apperrors.ErrInvalidBooking},
		{"zero length", at(4, 12), at(4, 12), false, apperrors.ErrInvalidBooking},
		{"spans midnight", at(4, 22), at(5, 1), false, apperrors.ErrInvalidBooking},
		{"in the past", at(2, 9), at(2, 10), false, apperrors.ErrInvalidBooking},
		{"overlaps", at(4, 9), at(4, 11), true, apperrors.ErrRoomUnavailable},
		{"ends at midnight", at(4, 22), at(5, 0), false, nil},
		{"free", at(4, 9), at(4, 11), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc.repo = repo
			repo.On("RoomOverlaps", mock.Anything, "Boardroom", tt.start, tt.end).Return(tt.overlap, nil)
			repo.On("CreateReservation", mock.Anything, mock.Anything).Return(&models.Reservation{ID: 9}, nil)

			_, err := svc.ReserveRoom(context.Background(), memberID, models.RoomReservationRequest{
				Room: "Boardroom", StartsAt: tt.start, EndsAt: tt.end,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCancelReservation(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		actor   uuid.UUID
		staff   bool
		wantErr error
	}{
		{"owner", owner, false, nil},
		{"staff", other, true, nil},
		{"someone else", other, false, apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t, 6)
			repo.On("GetReservation", mock.Anything, int64(4)).Return(&models.Reservation{ID: 4, MemberID: owner}, nil)
			repo.On("CancelReservation", mock.Anything, int64(4)).Return(nil)

			err := svc.CancelReservation(context.Background(), 4, tt.actor, tt.staff)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CancelReservation", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("missing", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("GetReservation", mock.Anything, int64(5)).Return(nil, repository.ErrNotFound)
		assert.ErrorIs(t, svc.CancelReservation(context.Background(), 5, owner, false), apperrors.ErrNotFound)
	})
}

func TestGuestPasses(t *testing.T) {
	memberID := uuid.New()

	t.Run("issue", func(t *testing.T) {
		svc, repo, loc := newTestService(t, 6)
		repo.On("CreateGuestPass", mock.Anything, mock.MatchedBy(func(g models.GuestPass) bool {
			return g.VisitDate.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, loc)) && g.GuestName == "Lito"
		})).Return(&models.GuestPass{ID: 2, Status: models.GuestPassIssued}, nil)

		g, err := svc.IssueGuestPass(context.Background(), memberID, models.GuestPassRequest{GuestName: "Lito", VisitDate: "2024-01-03"})
		require.NoError(t, err)
		assert.Equal(t, models.GuestPassIssued, g.Status)
	})

	t.Run("already used", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("SetGuestPassStatus", mock.Anything, int64(2), models.GuestPassUsed).Return(nil, repository.ErrNotFound)

		_, err := svc.SetGuestPassStatus(context.Background(), 2, models.GuestPassUsed)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("list store failure", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("ListGuestPasses", mock.Anything, memberID).Return(nil, errors.New("db down"))

		_, err := svc.ListGuestPasses(context.Background(), memberID)
		assert.True(t, apperrors.IsRetryable(err))
	})

	t.Run("list empty", func(t *testing.T) {
		svc, repo, _ := newTestService(t, 6)
		repo.On("ListGuestPasses", mock.Anything, memberID).Return(nil, nil)

		list, err := svc.ListGuestPasses(context.Background(), memberID)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})
}
