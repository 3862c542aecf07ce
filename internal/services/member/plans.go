package member

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/cache"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Plans возвращает справочник тарифов, читая его через кэш.
func (s *Service) Plans(ctx context.Context) ([]*models.Plan, error) {
	const op = "member.Plans"
	log := s.log.With(sl.Op(op))

	var cached []*models.Plan
	found, err := s.cache.Get(ctx, cache.KeyPlans, &cached)
	if err != nil {
		log.Warn("plans cache lookup failed", sl.Err(err))
	}
	metrics.RecordCacheLookup(cache.KeyPlans, found)
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		return nil, apperrors.Unavailable(op, err)
	}
	if err = s.cache.Set(ctx, cache.KeyPlans, plans, s.ttl); err != nil {
		log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// GetPlan возвращает тариф по ID.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "member.GetPlan"
	plans, err := s.Plans(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, apperrors.ErrPlanNotFound)
}
