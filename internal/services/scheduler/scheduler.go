// Package scheduler периодически ищет неоплаченные и заканчивающиеся периоды
// и публикует напоминания в RabbitMQ.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Repository источник напоминаний.
type Repository interface {
	FindUnpaidCurrent(ctx context.Context, at time.Time) ([]*models.ReminderInfo, error)
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ReminderInfo, error)
}

// Publisher публикует сообщение с ключом маршрутизации.
type Publisher interface {
	Publish(routingKey string, msg any) error
}

// Service планировщик напоминаний.
type Service struct {
	repo  Repository
	pub   Publisher
	clock *bizday.Clock
	log   *slog.Logger
}

// New создает планировщик.
func New(repo Repository, pub Publisher, clock *bizday.Clock, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		pub:   pub,
		clock: clock,
		log:   log,
	}
}

// Run выполняет RunOnce сразу и затем каждые every, пока не отменён ctx.
func (s *Service) Run(ctx context.Context, every time.Duration) {
	const op = "scheduler.Run"
	log := s.log.With(sl.Op(op))

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error("reminder run failed", sl.Err(err))
		}
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce публикует напоминания о неоплаченных текущих периодах и о периодах,
// которые заканчиваются завтра. Возвращает число опубликованных сообщений.
// Ошибка публикации отдельного сообщения не прерывает остальные.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	const op = "scheduler.RunOnce"
	log := s.log.With(sl.Op(op))

	now := s.clock.Now()
	var errs []error
	published := 0

	unpaid, err := s.repo.FindUnpaidCurrent(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("unpaid: %w", err))
	} else {
		log.Info("found unpaid periods", slog.Int("count", len(unpaid)))
		published += s.publishAll(log, rabbitmq.RoutingUnpaid, unpaid)
	}

	from := s.clock.StartOfDay(now).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)
	expiring, err := s.repo.FindExpiringBetween(ctx, from, to)
	if err != nil {
		errs = append(errs, fmt.Errorf("expiring: %w", err))
	} else {
		log.Info("found expiring periods", slog.Int("count", len(expiring)))
		published += s.publishAll(log, rabbitmq.RoutingExpiring, expiring)
	}

	if len(errs) > 0 {
		return published, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return published, nil
}

func (s *Service) publishAll(log *slog.Logger, kind string, infos []*models.ReminderInfo) int {
	n := 0
	for _, info := range infos {
		err := s.pub.Publish(kind, info)
		metrics.RecordReminder(kind, err)
		if err != nil {
			log.Error("failed to publish reminder",
				slog.String("kind", kind),
				slog.String("member_id", info.MemberID.String()),
				sl.Err(err))
			continue
		}
		n++
	}
	return n
}
