package auth_test

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
	customjwt "github.com/magabrotheeeer/coworking-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/password"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/services/auth"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// Мок для MemberRepository
type MemberRepoMock struct {
	mock.Mock
}

func (m *MemberRepoMock) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MemberRepoMock) CreateMember(ctx context.Context, member models.Member) (uuid.UUID, error) {
	args := m.Called(ctx, member)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MemberRepoMock) SetMemberRole(ctx context.Context, id uuid.UUID, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(memberID uuid.UUID, role string) (string, error) {
	args := m.Called(memberID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(tokenStr string) (*customjwt.LoginClaims, error) {
	args := m.Called(tokenStr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.LoginClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func memberWithPassword(t *testing.T, raw, status, role string) *models.Member {
	t.Helper()
	hash, err := password.GetHash(raw)
	require.NoError(t, err)
	return &models.Member{ID: uuid.New(), Email: "ana@example.com", Status: status, Role: role, PasswordHash: hash}
}

func TestLogin(t *testing.T) {
	active := memberWithPassword(t, "correct-horse", models.MemberActive, models.RoleStaff)
	suspended := memberWithPassword(t, "correct-horse", models.MemberSuspended, models.RoleMember)

	tests := []struct {
		name      string
		member    *models.Member
		repoErr   error
		password  string
		wantErr   error
		wantToken string
	}{
		{name: "success", member: active, password: "correct-horse", wantToken: "signed.token"},
		{name: "wrong password", member: active, password: "battery-staple", wantErr: apperrors.ErrInvalidCredentials},
		{name: "unknown email", repoErr: repository.ErrNotFound, password: "x", wantErr: apperrors.ErrInvalidCredentials},
		{name: "suspended member", member: suspended, password: "correct-horse", wantErr: apperrors.ErrMemberInactive},
		{name: "store down", repoErr: errors.New("db down"), password: "x", wantErr: apperrors.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MemberRepoMock)
			maker := new(JwtMakerMock)
			if tt.member != nil {
				repo.On("GetMemberByEmail", mock.Anything, "ana@example.com").Return(tt.member, nil)
			} else {
				repo.On("GetMemberByEmail", mock.Anything, "ana@example.com").Return(nil, tt.repoErr)
			}
			if tt.wantToken != "" {
				maker.On("GenerateToken", tt.member.ID, tt.member.Role).Return(tt.wantToken, nil)
			}

			svc := auth.NewAuthService(repo, maker, newNoopLogger())
			res, err := svc.Login(context.Background(), "ana@example.com", tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				maker.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.Token)
			assert.Equal(t, models.RoleStaff, res.Role)
			assert.Equal(t, tt.member.ID, res.MemberID)
		})
	}
}

func TestValidateToken(t *testing.T) {
	maker := new(JwtMakerMock)
	memberID := uuid.New()
	maker.On("ParseToken", "good").Return(&customjwt.LoginClaims{MemberID: memberID, Role: models.RoleMember}, nil)
	maker.On("ParseToken", "bad").Return(nil, customjwt.ErrInvalidToken)

	svc := auth.NewAuthService(new(MemberRepoMock), maker, newNoopLogger())

	claims, err := svc.ValidateToken("good")
	require.NoError(t, err)
	assert.Equal(t, memberID, claims.MemberID)

	_, err = svc.ValidateToken("bad")
	assert.ErrorIs(t, err, customjwt.ErrInvalidToken)
}

func TestLogin_WithRealMaker(t *testing.T) {
	member := memberWithPassword(t, "correct-horse", models.MemberActive, models.RoleAdmin)
	repo := new(MemberRepoMock)
	repo.On("GetMemberByEmail", mock.Anything, "ana@example.com").Return(member, nil)
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)

	svc := auth.NewAuthService(repo, maker, newNoopLogger())
	res, err := svc.Login(context.Background(), "ana@example.com", "correct-horse")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.MemberID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		repo := new(MemberRepoMock)
		svc := auth.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		require.NoError(t, svc.EnsureAdmin(context.Background(), "", "", ""))
		repo.AssertNotCalled(t, "GetMemberByEmail", mock.Anything, mock.Anything)
	})

	t.Run("creates admin", func(t *testing.T) {
		repo := new(MemberRepoMock)
		repo.On("GetMemberByEmail", mock.Anything, "admin@example.com").Return(nil, repository.ErrNotFound)
		repo.On("CreateMember", mock.Anything, mock.MatchedBy(func(m models.Member) bool {
			return m.Role == models.RoleAdmin && m.Status == models.MemberActive &&
				password.CompareHash(m.PasswordHash, "bootstrap-pass") == nil
		})).Return(uuid.New(), nil)

		svc := auth.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "", "bootstrap-pass"))
		repo.AssertExpectations(t)
	})

	t.Run("promotes existing member", func(t *testing.T) {
		existing := &models.Member{ID: uuid.New(), Role: models.RoleMember}
		repo := new(MemberRepoMock)
		repo.On("GetMemberByEmail", mock.Anything, "admin@example.com").Return(existing, nil)
		repo.On("SetMemberRole", mock.Anything, existing.ID, models.RoleAdmin).Return(nil)

		svc := auth.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "", ""))
		repo.AssertExpectations(t)
	})

	t.Run("missing password", func(t *testing.T) {
		repo := new(MemberRepoMock)
		repo.On("GetMemberByEmail", mock.Anything, "admin@example.com").Return(nil, repository.ErrNotFound)

		svc := auth.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		assert.Error(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "", ""))
	})
}
