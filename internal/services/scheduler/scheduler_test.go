package scheduler

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

	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindUnpaidCurrent(ctx context.Context, at time.Time) ([]*models.ReminderInfo, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReminderInfo), args.Error(1)
}

func (m *MockRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ReminderInfo, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReminderInfo), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, msg any) error {
	args := m.Called(routingKey, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testClock(t *testing.T) (*bizday.Clock, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)
	now := time.Date(2024, 5, 14, 9, 0, 0, 0, loc)
	return bizday.Fixed(loc, func() time.Time { return now }), now
}

func TestService_RunOnce(t *testing.T) {
	clock, now := testClock(t)
	loc := clock.Location()
	tomorrow := time.Date(2024, 5, 15, 0, 0, 0, 0, loc)
	dayAfter := time.Date(2024, 5, 16, 0, 0, 0, 0, loc)

	unpaid := &models.ReminderInfo{MemberID: uuid.New(), Email: "ana@example.com", Name: "Ana", PeriodEnd: now.AddDate(0, 0, 10)}
	expiring := &models.ReminderInfo{MemberID: uuid.New(), Email: "ben@example.com", Name: "Ben", PeriodEnd: tomorrow.Add(18 * time.Hour), Paid: true}

	tests := []struct {
		name          string
		setupMocks    func(*MockRepository, *MockPublisher)
		wantPublished int
		wantErr       bool
	}{
		{
			name: "publishes both kinds",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("FindUnpaidCurrent", mock.Anything, now).Return([]*models.ReminderInfo{unpaid}, nil).Once()
				r.On("FindExpiringBetween", mock.Anything, tomorrow, dayAfter).Return([]*models.ReminderInfo{expiring}, nil).Once()
				p.On("Publish", rabbitmq.RoutingUnpaid, unpaid).Return(nil).Once()
				p.On("Publish", rabbitmq.RoutingExpiring, expiring).Return(nil).Once()
			},
			wantPublished: 2,
		},
		{
			name: "nothing to remind",
			setupMocks: func(r *MockRepository, _ *MockPublisher) {
				r.On("FindUnpaidCurrent", mock.Anything, now).Return([]*models.ReminderInfo{}, nil).Once()
				r.On("FindExpiringBetween", mock.Anything, tomorrow, dayAfter).Return(nil, nil).Once()
			},
		},
		{
			name: "publish error skips only that message",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("FindUnpaidCurrent", mock.Anything, now).Return([]*models.ReminderInfo{unpaid}, nil).Once()
				r.On("FindExpiringBetween", mock.Anything, tomorrow, dayAfter).Return([]*models.ReminderInfo{expiring}, nil).Once()
				p.On("Publish", rabbitmq.RoutingUnpaid, unpaid).Return(errors.New("channel closed")).Once()
				p.On("Publish", rabbitmq.RoutingExpiring, expiring).Return(nil).Once()
			},
			wantPublished: 1,
		},
		{
			name: "repository error does not block the other query",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("FindUnpaidCurrent", mock.Anything, now).Return(nil, errors.New("db error")).Once()
				r.On("FindExpiringBetween", mock.Anything, tomorrow, dayAfter).Return([]*models.ReminderInfo{expiring}, nil).Once()
				p.On("Publish", rabbitmq.RoutingExpiring, expiring).Return(nil).Once()
			},
			wantPublished: 1,
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			tt.setupMocks(repo, pub)

			svc := New(repo, pub, clock, newNoopLogger())
			n, err := svc.RunOnce(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantPublished, n)
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	clock, _ := testClock(t)
	repo := new(MockRepository)
	pub := new(MockPublisher)
	repo.On("FindUnpaidCurrent", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("FindExpiringBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	svc := New(repo, pub, clock, newNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	repo.AssertCalled(t, "FindUnpaidCurrent", mock.Anything, mock.Anything)
}
