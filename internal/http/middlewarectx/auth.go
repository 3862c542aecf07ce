// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT входа,
// проверку роли, ограничение частоты запросов и сбор метрик.
//
// JWTMiddleware кладёт в контекст запроса идентификатор участника и роль,
// обработчики достают их через MemberFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// MemberID ключ идентификатора участника в контексте.
	MemberID Key = "member_id"
	// Role ключ роли участника в контексте.
	Role Key = "role"
)

// TokenValidator проверяет токен входа.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.LoginClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
// При ошибке проверки отвечает 401 Unauthorized.
func JWTMiddleware(auth TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := auth.ValidateToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), MemberID, claims.MemberID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только запросы с одной из ролей roles.
// Должен стоять после JWTMiddleware.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, role, ok := MemberFromContext(r.Context())
			if !ok || !slices.Contains(roles, role) {
				log.Info("access denied",
					slog.String("role", role),
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("you are not allowed to do this"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MemberFromContext возвращает участника и роль, положенные JWTMiddleware.
func MemberFromContext(ctx context.Context) (uuid.UUID, string, bool) {
	id, ok := ctx.Value(MemberID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, "", false
	}
	role, _ := ctx.Value(Role).(string)
	return id, role, true
}

// IsStaff сообщает, принадлежит ли запрос персоналу или администратору.
func IsStaff(ctx context.Context) bool {
	_, role, ok := MemberFromContext(ctx)
	return ok && (role == models.RoleStaff || role == models.RoleAdmin)
}

// WithMember кладёт участника в контекст. Используется в тестах обработчиков.
func WithMember(ctx context.Context, id uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, MemberID, id)
	return context.WithValue(ctx, Role, role)
}
