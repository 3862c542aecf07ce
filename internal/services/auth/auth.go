// Package auth отвечает за вход в систему по email и паролю и за учётную
// запись администратора, создаваемую при старте.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/password"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// MemberRepository описывает контракт для работы с учётными записями.
type MemberRepository interface {
	// GetMemberByEmail возвращает участника по email или repository.ErrNotFound.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// CreateMember сохраняет участника и возвращает его ID.
	CreateMember(ctx context.Context, m models.Member) (uuid.UUID, error)

	// SetMemberRole меняет роль учётной записи.
	SetMemberRole(ctx context.Context, id uuid.UUID, role string) error
}

// LoginResult результат успешного входа.
type LoginResult struct {
	Token    string    `json:"token"`
	MemberID uuid.UUID `json:"member_id"`
	Role     string    `json:"role"`
}

// AuthService отвечает за вход и проверку токенов.
type AuthService struct {
	members  MemberRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(members MemberRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		members:  members,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Login проверяет пароль и выпускает токен с ID участника и ролью.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "auth.Login"
	log := s.log.With(sl.Op(op))

	member, err := s.members.GetMemberByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("login for unknown email")
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidCredentials)
	}
	if err != nil {
		log.Error("failed to get member", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	if err = password.CompareHash(member.PasswordHash, rawPassword); err != nil {
		log.Info("login with wrong password", slog.String("member_id", member.ID.String()))
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInvalidCredentials)
	}
	if member.Status == models.MemberSuspended {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrMemberInactive)
	}

	token, err := s.jwtMaker.GenerateToken(member.ID, member.Role)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("member logged in", slog.String("member_id", member.ID.String()), slog.String("role", member.Role))
	return &LoginResult{Token: token, MemberID: member.ID, Role: member.Role}, nil
}

// ValidateToken разбирает токен и возвращает его утверждения.
func (s *AuthService) ValidateToken(token string) (*jwt.LoginClaims, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// EnsureAdmin создаёт учётную запись администратора, если её ещё нет,
// и выдаёт роль admin существующей записи с тем же email.
// Пустой email означает, что администратор не настроен.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, rawPassword string) error {
	const op = "auth.EnsureAdmin"
	if email == "" {
		return nil
	}
	log := s.log.With(sl.Op(op), slog.String("email", email))

	existing, err := s.members.GetMemberByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return nil
		}
		if err = s.members.SetMemberRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("existing member promoted to admin")
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	}

	if rawPassword == "" {
		return fmt.Errorf("%s: admin password is not set", op)
	}
	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if name == "" {
		name = "Administrator"
	}
	id, err := s.members.CreateMember(ctx, models.Member{
		Email:        email,
		Name:         name,
		Status:       models.MemberActive,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("admin account created", slog.String("member_id", id.String()))
	return nil
}
