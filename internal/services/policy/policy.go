// Package policy хранит единственную запись политики доступа и читает её
// через кэш Redis.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/cache"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Repository хранилище политики.
type Repository interface {
	GetPolicy(ctx context.Context) (*models.PolicySettings, error)
	UpsertPolicy(ctx context.Context, p models.PolicySettings) error
}

// Cache кэш, через который читается политика.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service читает и изменяет политику доступа.
type Service struct {
	repo     Repository
	cache    Cache
	ttl      time.Duration
	validate *validator.Validate
	log      *slog.Logger
}

// New создает Service.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		validate: validator.New(),
		log:      log,
	}
}

// Get возвращает текущую политику. Сбой кэша не мешает чтению из хранилища.
func (s *Service) Get(ctx context.Context) (*models.PolicySettings, error) {
	const op = "policy.Get"
	log := s.log.With(sl.Op(op))

	var cached models.PolicySettings
	found, err := s.cache.Get(ctx, cache.KeyPolicy, &cached)
	if err != nil {
		log.Warn("policy cache lookup failed", sl.Err(err))
	}
	metrics.RecordCacheLookup(cache.KeyPolicy, found)
	if found {
		return &cached, nil
	}

	p, err := s.repo.GetPolicy(ctx)
	if err != nil {
		log.Error("failed to read policy", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if err = s.cache.Set(ctx, cache.KeyPolicy, p, s.ttl); err != nil {
		log.Warn("failed to cache policy", sl.Err(err))
	}
	return p, nil
}

// Update проверяет и сохраняет политику, затем сбрасывает кэш.
func (s *Service) Update(ctx context.Context, p models.PolicySettings, updatedBy uuid.UUID) (*models.PolicySettings, error) {
	const op = "policy.Update"
	log := s.log.With(sl.Op(op), slog.String("updated_by", updatedBy.String()))

	if err := s.validate.Struct(p); err != nil {
		log.Info("policy rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, apperrors.ErrInvalidPolicy, err)
	}

	p.UpdatedBy = &updatedBy
	if err := s.repo.UpsertPolicy(ctx, p); err != nil {
		log.Error("failed to save policy", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if err := s.cache.Invalidate(ctx, cache.KeyPolicy); err != nil {
		log.Warn("failed to invalidate policy cache", sl.Err(err))
	}

	log.Info("policy updated", slog.Int("capacity", p.Capacity), slog.Int("friday_slot_size", p.FridaySlotSize))
	return s.Get(ctx)
}
