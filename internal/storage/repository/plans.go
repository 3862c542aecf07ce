package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

func scanPlan(row scanner) (*models.Plan, error) {
	var p models.Plan
	var perks []byte
	if err := row.Scan(&p.ID, &p.Name, &p.BillingTerm, &p.Price, &perks); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(perks, &p.Perks); err != nil {
		return nil, fmt.Errorf("decode perks of plan %s: %w", p.ID, err)
	}
	return &p, nil
}

// ListPlans возвращает справочник тарифов, отсортированный по цене.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, billing_term, price, perks FROM plans ORDER BY price, id`)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlan возвращает тариф по идентификатору.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, billing_term, price, perks FROM plans WHERE id = $1`, id)
	p, err := scanPlan(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}
