package middlewarectx_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coworking-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

type AuthMock struct {
	mock.Mock
}

func (m *AuthMock) ValidateToken(token string) (*jwt.LoginClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.LoginClaims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	memberID := uuid.New()

	tests := []struct {
		name           string
		authHeader     string
		mockClaims     *jwt.LoginClaims
		mockErr        error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token validation error",
			authHeader:     "Bearer expired",
			mockErr:        jwt.ErrInvalidToken,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockClaims:     &jwt.LoginClaims{MemberID: memberID, Role: models.RoleMember},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthMock)
			if tt.mockClaims != nil || tt.mockErr != nil {
				authMock.On("ValidateToken", tt.authHeader[len("Bearer "):]).Return(tt.mockClaims, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				id, role, ok := middlewarectx.MemberFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, memberID, id)
				assert.Equal(t, models.RoleMember, role)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/voucher", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		withMember bool
		wantStatus int
	}{
		{"staff allowed", models.RoleStaff, true, http.StatusOK},
		{"admin allowed", models.RoleAdmin, true, http.StatusOK},
		{"member denied", models.RoleMember, true, http.StatusForbidden},
		{"anonymous denied", "", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
			if tt.withMember {
				req = req.WithContext(middlewarectx.WithMember(req.Context(), uuid.New(), tt.role))
			}
			rec := httptest.NewRecorder()

			middlewarectx.RequireRole(newNoopLogger(), models.RoleStaff, models.RoleAdmin)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestIsStaff(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, middlewarectx.IsStaff(req.Context()))
	assert.True(t, middlewarectx.IsStaff(middlewarectx.WithMember(req.Context(), uuid.New(), models.RoleAdmin)))
	assert.False(t, middlewarectx.IsStaff(middlewarectx.WithMember(req.Context(), uuid.New(), models.RoleMember)))
}

func TestValidateTokenErrorIsNotLeaked(t *testing.T) {
	authMock := new(AuthMock)
	authMock.On("ValidateToken", "tok").Return(nil, errors.New("signature mismatch: key abc")).Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	middlewarectx.JWTMiddleware(authMock, newNoopLogger())(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "abc")
}
