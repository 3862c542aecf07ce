// Package report собирает сводку для панели администратора и CSV-выгрузки.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/csvexport"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Виды выгрузок.
const (
	KindMembers     = "members"
	KindPayments    = "payments"
	KindRedemptions = "redemptions"
	KindSessions    = "sessions"
)

// Repository источник данных отчётов.
type Repository interface {
	CountActiveMembers(ctx context.Context) (int, error)
	CountActiveSessions(ctx context.Context) (int, error)
	CountRedemptionsOn(ctx context.Context, day time.Time) (int, error)
	CountUnpaidCurrent(ctx context.Context, at time.Time) (int, error)
	CountOpenTickets(ctx context.Context) (int, error)

	ListMembers(ctx context.Context, filter models.MemberFilter) ([]*models.Member, error)
	ListAllPeriods(ctx context.Context) ([]*models.SubscriptionPeriod, error)
	ListRedemptions(ctx context.Context) ([]*models.DrinkRedemption, error)
	ListSessions(ctx context.Context) ([]*models.CheckinSession, error)
}

// PolicyReader источник вместимости.
type PolicyReader interface {
	Get(ctx context.Context) (*models.PolicySettings, error)
}

// Service сервис отчётов.
type Service struct {
	repo   Repository
	policy PolicyReader
	clock  *bizday.Clock
	log    *slog.Logger
}

// New создает Service.
func New(repo Repository, policy PolicyReader, clock *bizday.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		clock:  clock,
		log:    log,
	}
}

// Dashboard возвращает единую сводку для администратора.
func (s *Service) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	const op = "report.Dashboard"
	log := s.log.With(sl.Op(op))
	now := s.clock.Now()

	policy, err := s.policy.Get(ctx)
	if err != nil {
		return nil, apperrors.Unavailable(op, err)
	}

	d := &models.Dashboard{
		Capacity:    policy.Capacity,
		MembersOnly: bizday.IsMembersOnly(now),
	}
	counters := []struct {
		name string
		dst  *int
		load func() (int, error)
	}{
		{"active_members", &d.ActiveMembers, func() (int, error) { return s.repo.CountActiveMembers(ctx) }},
		{"active_sessions", &d.ActiveSessions, func() (int, error) { return s.repo.CountActiveSessions(ctx) }},
		{"redemptions_today", &d.RedemptionsToday, func() (int, error) { return s.repo.CountRedemptionsOn(ctx, s.clock.StartOfDay(now)) }},
		{"unpaid_current_periods", &d.UnpaidCurrentPeriod, func() (int, error) { return s.repo.CountUnpaidCurrent(ctx, now) }},
		{"open_tickets", &d.OpenTickets, func() (int, error) { return s.repo.CountOpenTickets(ctx) }},
	}
	for _, c := range counters {
		n, err := c.load()
		if err != nil {
			log.Error("failed to load dashboard counter", slog.String("counter", c.name), sl.Err(err))
			return nil, apperrors.Unavailable(op, err)
		}
		*c.dst = n
	}
	return d, nil
}

// Export пишет в w CSV-выгрузку вида kind.
func (s *Service) Export(ctx context.Context, kind string, w io.Writer) error {
	const op = "report.Export"

	header, rows, err := s.table(ctx, kind)
	if err != nil {
		return err
	}
	if err = csvexport.Write(w, header, rows); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("report exported", sl.Op(op), slog.String("kind", kind), slog.Int("rows", len(rows)))
	return nil
}

func (s *Service) table(ctx context.Context, kind string) ([]string, [][]string, error) {
	const op = "report.table"
	fail := func(err error) ([]string, [][]string, error) {
		s.log.Error("failed to load report data", sl.Op(op), slog.String("kind", kind), sl.Err(err))
		return nil, nil, apperrors.Unavailable(op, err)
	}

	switch kind {
	case KindMembers:
		list, err := s.repo.ListMembers(ctx, models.MemberFilter{})
		if err != nil {
			return fail(err)
		}
		rows := make([][]string, 0, len(list))
		for _, m := range list {
			plan := ""
			if m.PlanID != nil {
				plan = *m.PlanID
			}
			rows = append(rows, []string{
				m.ID.String(), m.Email, m.Name, m.Phone, plan, m.Status, m.Role, s.stamp(m.CreatedAt),
			})
		}
		return []string{"id", "email", "name", "phone", "plan_id", "status", "role", "created_at"}, rows, nil

	case KindPayments:
		list, err := s.repo.ListAllPeriods(ctx)
		if err != nil {
			return fail(err)
		}
		rows := make([][]string, 0, len(list))
		for _, p := range list {
			markedBy := ""
			if p.MarkedBy != nil {
				markedBy = p.MarkedBy.String()
			}
			rows = append(rows, []string{
				strconv.FormatInt(p.ID, 10), p.MemberID.String(), s.stamp(p.PeriodStart), s.stamp(p.PeriodEnd),
				strconv.FormatBool(p.Paid), markedBy, p.Note,
			})
		}
		return []string{"id", "member_id", "period_start", "period_end", "paid", "marked_by", "note"}, rows, nil

	case KindRedemptions:
		list, err := s.repo.ListRedemptions(ctx)
		if err != nil {
			return fail(err)
		}
		rows := make([][]string, 0, len(list))
		for _, r := range list {
			rows = append(rows, []string{
				r.ID.String(), r.MemberID.String(), r.Cashier, s.stamp(r.RedeemedAt),
				r.BusinessDay.Format(time.DateOnly), strconv.Itoa(r.Amount), strconv.FormatBool(r.Voided), r.VoidReason,
			})
		}
		return []string{"id", "member_id", "cashier", "redeemed_at", "business_day", "amount", "voided", "void_reason"}, rows, nil

	case KindSessions:
		list, err := s.repo.ListSessions(ctx)
		if err != nil {
			return fail(err)
		}
		rows := make([][]string, 0, len(list))
		for _, cs := range list {
			ended := ""
			if cs.EndedAt != nil {
				ended = s.stamp(*cs.EndedAt)
			}
			rows = append(rows, []string{
				cs.ID.String(), cs.MemberID.String(), cs.Code, strconv.FormatBool(cs.Active),
				s.stamp(cs.StartedAt), ended, cs.EndReason, strconv.Itoa(cs.Attempts),
			})
		}
		return []string{"id", "member_id", "code", "active", "started_at", "ended_at", "end_reason", "attempts"}, rows, nil
	}

	return nil, nil, fmt.Errorf("%s: unknown report %q: %w", op, kind, apperrors.ErrNotFound)
}

func (s *Service) stamp(t time.Time) string {
	return t.In(s.clock.Location()).Format(time.RFC3339)
}
