package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/accesscode"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

type testEnv struct {
	store *memStore
	svc   *Service
	now   time.Time
}

func newTestEnv(t *testing.T, capacity int) *testEnv {
	t.Helper()
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)

	env := &testEnv{
		store: newMemStore(),
		now:   time.Date(2024, 3, 12, 14, 0, 0, 0, loc),
	}
	clock := bizday.Fixed(loc, func() time.Time { return env.now })
	env.svc = New(env.store, policyWithCapacity(capacity), accesscode.New(), clock, newNoopLogger())
	return env
}

func TestStartSession_NoSubscription(t *testing.T) {
	env := newTestEnv(t, 13)
	memberID := uuid.New()

	cs, err := env.svc.StartSession(context.Background(), memberID)

	assert.Nil(t, cs)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSubscription)
	n, _ := env.store.CountActiveSessions(context.Background())
	assert.Equal(t, 0, n, "no session row must be inserted")
}

func TestStartSession_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(env *testEnv) uuid.UUID
		wantErr error
	}{
		{
			name: "subscription without any period",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addMember(models.MemberActive)
				env.store.subscribed[id] = true
				return id
			},
			wantErr: apperrors.ErrUnpaidPeriod,
		},
		{
			name: "suspended member with paid subscription",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addPaidMember(env.now)
				env.store.members[id].Status = models.MemberSuspended
				return id
			},
			wantErr: apperrors.ErrMemberInactive,
		},
		{
			name: "inactive member with paid subscription",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addPaidMember(env.now)
				env.store.members[id].Status = models.MemberInactive
				return id
			},
			wantErr: apperrors.ErrMemberInactive,
		},
		{
			name: "current period not paid",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addPaidMember(env.now)
				env.store.periods[id][0].Paid = false
				return id
			},
			wantErr: apperrors.ErrUnpaidPeriod,
		},
		{
			name: "paid period already ended",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addPaidMember(env.now)
				env.store.periods[id][0].PeriodEnd = env.now
				return id
			},
			wantErr: apperrors.ErrUnpaidPeriod,
		},
		{
			name: "already checked in",
			prepare: func(env *testEnv) uuid.UUID {
				id := env.store.addPaidMember(env.now)
				_, err := env.svc.StartSession(context.Background(), id)
				require.NoError(t, err)
				return id
			},
			wantErr: apperrors.ErrAlreadyCheckedIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 13)
			memberID := tt.prepare(env)

			_, err := env.svc.StartSession(context.Background(), memberID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStartSession_CapacityBoundary(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()

	for range 12 {
		_, err := env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
		require.NoError(t, err)
	}

	cs, err := env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
	require.NoError(t, err)
	assert.True(t, accesscode.Valid(cs.Code))
	assert.True(t, cs.Active)

	n, err := env.store.CountActiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	_, err = env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
	assert.ErrorIs(t, err, apperrors.ErrAtCapacity)

	occ, err := env.svc.Occupancy(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Occupancy{Active: 13, Capacity: 13, Available: 0, MembersOnly: false}, *occ)
}

func TestStartSession_RetriesTakenCode(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()

	first := env.store.addPaidMember(env.now)
	env.svc.codes = &seqCodes{codes: []string{"ABC123"}}
	_, err := env.svc.StartSession(ctx, first)
	require.NoError(t, err)

	env.svc.codes = &seqCodes{codes: []string{"ABC123", "ABC123", "XYZ789"}}
	cs, err := env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", cs.Code)
}

func TestStartSession_CodeSpaceExhausted(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()

	env.svc.codes = &seqCodes{codes: []string{"ABC123"}}
	_, err := env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
	require.NoError(t, err)

	_, err = env.svc.StartSession(ctx, env.store.addPaidMember(env.now))
	assert.ErrorIs(t, err, apperrors.ErrCodeSpaceExhausted)
}

func TestEndSession(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()
	memberID := env.store.addPaidMember(env.now)

	cs, err := env.svc.StartSession(ctx, memberID)
	require.NoError(t, err)

	require.NoError(t, env.svc.EndSession(ctx, cs.ID, ""))
	stored := env.store.sessions[cs.ID]
	assert.False(t, stored.Active)
	assert.Equal(t, models.EndReasonManual, stored.EndReason)
	require.NotNil(t, stored.EndedAt)

	err = env.svc.EndSession(ctx, cs.ID, models.EndReasonTimeout)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)
	assert.Equal(t, models.EndReasonManual, env.store.sessions[cs.ID].EndReason)

	again, err := env.svc.StartSession(ctx, memberID)
	require.NoError(t, err, "a member may check in again after ending the session")
	assert.NotEqual(t, cs.ID, again.ID)
}

func TestEndActiveSessionForMember(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()
	memberID := env.store.addPaidMember(env.now)

	_, err := env.svc.EndActiveSessionForMember(ctx, memberID, "")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)

	_, err = env.svc.StartSession(ctx, memberID)
	require.NoError(t, err)

	ended, err := env.svc.EndActiveSessionForMember(ctx, memberID, models.EndReasonTimeout)
	require.NoError(t, err)
	assert.False(t, ended.Active)
	assert.Equal(t, models.EndReasonTimeout, ended.EndReason)
}

func TestValidateSessionCode_EndedSession(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()
	memberID := env.store.addPaidMember(env.now)

	cs, err := env.svc.StartSession(ctx, memberID)
	require.NoError(t, err)
	require.NoError(t, env.svc.EndSession(ctx, cs.ID, models.EndReasonManual))

	env.now = env.now.Add(time.Second)
	_, err = env.svc.ValidateSessionCode(ctx, cs.Code, "10.0.0.7")

	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
	require.Len(t, env.store.attemptLogs, 1)
	entry := env.store.attemptLogs[0]
	assert.False(t, entry.Success)
	assert.Equal(t, cs.Code, entry.Code)
	assert.Nil(t, entry.MemberID)
	assert.Equal(t, "10.0.0.7", entry.OriginAddr)
}

func TestValidateSessionCode_Success(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()
	memberID := env.store.addPaidMember(env.now)

	cs, err := env.svc.StartSession(ctx, memberID)
	require.NoError(t, err)

	got, err := env.svc.ValidateSessionCode(ctx, cs.Code, "front-desk")
	require.NoError(t, err)
	assert.Equal(t, cs.ID, got.ID)
	assert.Equal(t, 1, got.Attempts)

	_, err = env.svc.ValidateSessionCode(ctx, "abc123", "front-desk")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode, "codes match exactly")

	require.Len(t, env.store.attemptLogs, 2)
	assert.True(t, env.store.attemptLogs[0].Success)
	require.NotNil(t, env.store.attemptLogs[0].MemberID)
	assert.Equal(t, memberID, *env.store.attemptLogs[0].MemberID)
	assert.False(t, env.store.attemptLogs[1].Success)
}

func TestOccupancy_MembersOnlyHours(t *testing.T) {
	env := newTestEnv(t, 10)
	// вторник 21:00
	env.now = time.Date(2024, 3, 12, 21, 0, 0, 0, env.now.Location())

	occ, err := env.svc.Occupancy(context.Background())
	require.NoError(t, err)
	assert.True(t, occ.MembersOnly)
	assert.Equal(t, 10, occ.Available)
}

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, id)
	member, _ := args.Get(0).(*models.Member)
	return member, args.Error(1)
}

func (m *RepoMock) HasActiveSubscription(ctx context.Context, memberID uuid.UUID) (bool, error) {
	args := m.Called(ctx, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CurrentPeriod(ctx context.Context, memberID uuid.UUID, at time.Time) (*models.SubscriptionPeriod, error) {
	args := m.Called(ctx, memberID, at)
	p, _ := args.Get(0).(*models.SubscriptionPeriod)
	return p, args.Error(1)
}

func (m *RepoMock) GetActiveSessionByMember(ctx context.Context, memberID uuid.UUID) (*models.CheckinSession, error) {
	args := m.Called(ctx, memberID)
	cs, _ := args.Get(0).(*models.CheckinSession)
	return cs, args.Error(1)
}

func (m *RepoMock) GetActiveSessionByCode(ctx context.Context, code string) (*models.CheckinSession, error) {
	args := m.Called(ctx, code)
	cs, _ := args.Get(0).(*models.CheckinSession)
	return cs, args.Error(1)
}

func (m *RepoMock) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CountActiveSessions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListActiveSessions(ctx context.Context) ([]*models.CheckinSession, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]*models.CheckinSession)
	return res, args.Error(1)
}

func (m *RepoMock) CreateSession(ctx context.Context, cs models.CheckinSession) error {
	return m.Called(ctx, cs).Error(0)
}

func (m *RepoMock) EndSession(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	return m.Called(ctx, id, reason, at).Error(0)
}

func (m *RepoMock) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) CreateAttemptLog(ctx context.Context, a models.AttemptLog) error {
	return m.Called(ctx, a).Error(0)
}

func TestService_StoreUnavailable(t *testing.T) {
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)
	now := time.Date(2024, 3, 12, 14, 0, 0, 0, loc)
	clock := bizday.Fixed(loc, func() time.Time { return now })
	dbErr := errors.New("connection refused")
	memberID := uuid.New()

	tests := []struct {
		name  string
		setup func(m *RepoMock)
		call  func(s *Service) error
	}{
		{
			name: "start session subscription lookup",
			setup: func(m *RepoMock) {
				m.On("HasActiveSubscription", mock.Anything, memberID).Return(false, dbErr)
			},
			call: func(s *Service) error {
				_, err := s.StartSession(context.Background(), memberID)
				return err
			},
		},
		{
			name: "start session insert",
			setup: func(m *RepoMock) {
				m.On("HasActiveSubscription", mock.Anything, memberID).Return(true, nil)
				m.On("GetMember", mock.Anything, memberID).
					Return(&models.Member{ID: memberID, Status: models.MemberActive}, nil)
				m.On("CurrentPeriod", mock.Anything, memberID, mock.Anything).
					Return(&models.SubscriptionPeriod{Paid: true}, nil)
				m.On("GetActiveSessionByMember", mock.Anything, memberID).Return(nil, repository.ErrNotFound)
				m.On("CountActiveSessions", mock.Anything).Return(0, nil)
				m.On("ActiveCodeExists", mock.Anything, mock.Anything).Return(false, nil)
				m.On("CreateSession", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", dbErr))
			},
			call: func(s *Service) error {
				_, err := s.StartSession(context.Background(), memberID)
				return err
			},
		},
		{
			name: "start session member lookup",
			setup: func(m *RepoMock) {
				m.On("HasActiveSubscription", mock.Anything, memberID).Return(true, nil)
				m.On("GetMember", mock.Anything, memberID).Return(nil, dbErr)
			},
			call: func(s *Service) error {
				_, err := s.StartSession(context.Background(), memberID)
				return err
			},
		},
		{
			name: "end session",
			setup: func(m *RepoMock) {
				m.On("EndSession", mock.Anything, mock.Anything, models.EndReasonManual, mock.Anything).Return(dbErr)
			},
			call: func(s *Service) error {
				return s.EndSession(context.Background(), uuid.New(), "")
			},
		},
		{
			name: "validate code",
			setup: func(m *RepoMock) {
				m.On("GetActiveSessionByCode", mock.Anything, "ABC123").Return(nil, dbErr)
			},
			call: func(s *Service) error {
				_, err := s.ValidateSessionCode(context.Background(), "ABC123", "")
				return err
			},
		},
		{
			name: "active sessions",
			setup: func(m *RepoMock) {
				m.On("ListActiveSessions", mock.Anything).Return(nil, dbErr)
			},
			call: func(s *Service) error {
				_, err := s.ActiveSessions(context.Background())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo)
			svc := New(repo, policyWithCapacity(13), accesscode.New(), clock, newNoopLogger())

			err := tt.call(svc)

			require.Error(t, err)
			assert.True(t, apperrors.IsRetryable(err))
			assert.ErrorIs(t, err, dbErr)
			_, isBusiness := apperrors.As(err)
			assert.False(t, isBusiness)
			repo.AssertExpectations(t)
		})
	}
}

func TestValidateSessionCode_AuditFailureDoesNotFailValidation(t *testing.T) {
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)
	clock := bizday.Fixed(loc, time.Now)

	cs := &models.CheckinSession{ID: uuid.New(), MemberID: uuid.New(), Code: "QWE456", Active: true}
	repo := new(RepoMock)
	repo.On("GetActiveSessionByCode", mock.Anything, "QWE456").Return(cs, nil)
	repo.On("IncrementAttempts", mock.Anything, cs.ID).Return(nil)
	repo.On("CreateAttemptLog", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := New(repo, policyWithCapacity(13), accesscode.New(), clock, newNoopLogger())
	got, err := svc.ValidateSessionCode(context.Background(), "QWE456", "kiosk")

	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	repo.AssertExpectations(t)
}

func TestValidateSessionCode_CounterFailureStillAudited(t *testing.T) {
	loc, err := time.LoadLocation(bizday.DefaultTimezone)
	require.NoError(t, err)
	clock := bizday.Fixed(loc, time.Now)

	cs := &models.CheckinSession{ID: uuid.New(), MemberID: uuid.New(), Code: "QWE456", Active: true}
	repo := new(RepoMock)
	repo.On("GetActiveSessionByCode", mock.Anything, "QWE456").Return(cs, nil)
	repo.On("CreateAttemptLog", mock.Anything, mock.MatchedBy(func(a models.AttemptLog) bool {
		return a.Success && a.Code == "QWE456" && a.OriginAddr == "kiosk"
	})).Return(nil).Once()
	repo.On("IncrementAttempts", mock.Anything, cs.ID).Return(errors.New("connection reset"))

	svc := New(repo, policyWithCapacity(13), accesscode.New(), clock, newNoopLogger())
	_, err = svc.ValidateSessionCode(context.Background(), "QWE456", "kiosk")

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	repo.AssertExpectations(t)
}

func TestValidateSessionCode_MalformedCodeAudited(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()

	for _, code := range []string{"", "AB12", "ABCD1234"} {
		_, err := env.svc.ValidateSessionCode(ctx, code, "10.0.0.9")
		assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode, "code %q", code)
	}

	require.Len(t, env.store.attemptLogs, 3)
	for _, entry := range env.store.attemptLogs {
		assert.False(t, entry.Success)
		assert.Equal(t, "10.0.0.9", entry.OriginAddr)
	}
}
