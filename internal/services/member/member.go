// Package member управляет участниками, справочником тарифов, подписками
// и периодами оплаты.
package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/password"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// Repository хранилище участников, тарифов, подписок и периодов.
type Repository interface {
	CreateMember(ctx context.Context, m models.Member) (uuid.UUID, error)
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListMembers(ctx context.Context, filter models.MemberFilter) ([]*models.Member, error)
	UpdateMember(ctx context.Context, id uuid.UUID, name, phone string, planID *string) error
	SetMemberStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteMember(ctx context.Context, id uuid.UUID) error

	ListPlans(ctx context.Context) ([]*models.Plan, error)

	CreateSubscription(ctx context.Context, memberID uuid.UUID, planID string) (*models.Subscription, error)
	GetOpenSubscription(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, id int64, at time.Time) error
	CancelSubscription(ctx context.Context, id int64, at time.Time) error

	CreatePeriod(ctx context.Context, p models.SubscriptionPeriod) (*models.SubscriptionPeriod, error)
	ListPeriods(ctx context.Context, memberID uuid.UUID) ([]*models.SubscriptionPeriod, error)
	CurrentPeriod(ctx context.Context, memberID uuid.UUID, at time.Time) (*models.SubscriptionPeriod, error)
	MarkPeriod(ctx context.Context, id int64, paid bool, markedBy uuid.UUID, note string) (*models.SubscriptionPeriod, error)
}

// Cache кэш справочника тарифов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service сервис участников.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	clock *bizday.Clock
	log   *slog.Logger
}

// NewMemberService создает Service.
func NewMemberService(repo Repository, cache Cache, ttl time.Duration, clock *bizday.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		clock: clock,
		log:   log,
	}
}

// SignUp регистрирует участника самостоятельно: роль member, статус active.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Member, error) {
	return s.create(ctx, "member.SignUp", models.Member{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
		Role:  models.RoleMember,
	}, req.Password)
}

// AdminAdd добавляет участника или сотрудника от имени администратора.
func (s *Service) AdminAdd(ctx context.Context, req models.AdminMemberRequest) (*models.Member, error) {
	const op = "member.AdminAdd"

	m := models.Member{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
		Role:  req.Role,
	}
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if req.PlanID != "" {
		if _, err := s.GetPlan(ctx, req.PlanID); err != nil {
			return nil, err
		}
		m.PlanID = &req.PlanID
	}
	return s.create(ctx, op, m, req.Password)
}

func (s *Service) create(ctx context.Context, op string, m models.Member, plainPassword string) (*models.Member, error) {
	log := s.log.With(sl.Op(op))

	hash, err := password.GetHash(plainPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.PasswordHash = hash
	m.Status = models.MemberActive
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))

	id, err := s.repo.CreateMember(ctx, m)
	if errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrEmailTaken)
	}
	if err != nil {
		log.Error("failed to create member", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}

	log.Info("member created", slog.String("member_id", id.String()), slog.String("role", m.Role))
	return s.Get(ctx, id)
}

// Get возвращает участника по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	const op = "member.Get"
	m, err := s.repo.GetMember(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrMemberNotFound)
	}
	if err != nil {
		s.log.Error("failed to get member", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	return m, nil
}

// List возвращает участников с фильтром по статусу.
func (s *Service) List(ctx context.Context, filter models.MemberFilter) ([]*models.Member, error) {
	const op = "member.List"
	list, err := s.repo.ListMembers(ctx, filter)
	if err != nil {
		s.log.Error("failed to list members", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if list == nil {
		list = []*models.Member{}
	}
	return list, nil
}

// Update меняет имя, телефон и тариф участника. Пустой PlanID снимает тариф.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req models.UpdateMemberRequest) (*models.Member, error) {
	const op = "member.Update"

	var planID *string
	if req.PlanID != "" {
		if _, err := s.GetPlan(ctx, req.PlanID); err != nil {
			return nil, err
		}
		planID = &req.PlanID
	}

	err := s.repo.UpdateMember(ctx, id, req.Name, req.Phone, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrMemberNotFound)
	}
	if err != nil {
		s.log.Error("failed to update member", sl.Op(op), sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	return s.Get(ctx, id)
}

// SetStatus меняет статус участника (мягкое отключение).
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	const op = "member.SetStatus"
	err := s.repo.SetMemberStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrMemberNotFound)
	}
	if err != nil {
		s.log.Error("failed to set member status", sl.Op(op), sl.Err(err))
		return apperrors.Unavailable(op, err)
	}
	s.log.Info("member status changed", sl.Op(op), slog.String("member_id", id.String()), slog.String("status", status))
	return nil
}

// Delete удаляет участника вместе со связанными записями.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "member.Delete"
	err := s.repo.DeleteMember(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrMemberNotFound)
	}
	if err != nil {
		s.log.Error("failed to delete member", sl.Op(op), sl.Err(err))
		return apperrors.Unavailable(op, err)
	}
	s.log.Info("member deleted", sl.Op(op), slog.String("member_id", id.String()))
	return nil
}
