package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/models"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// memStore хранилище в памяти с теми же ограничениями уникальности, что и в postgres.
type memStore struct {
	mu          sync.Mutex
	members     map[uuid.UUID]*models.Member
	subscribed  map[uuid.UUID]bool
	periods     map[uuid.UUID][]models.SubscriptionPeriod
	sessions    map[uuid.UUID]*models.CheckinSession
	attemptLogs []models.AttemptLog
}

func newMemStore() *memStore {
	return &memStore{
		members:    make(map[uuid.UUID]*models.Member),
		subscribed: make(map[uuid.UUID]bool),
		periods:    make(map[uuid.UUID][]models.SubscriptionPeriod),
		sessions:   make(map[uuid.UUID]*models.CheckinSession),
	}
}

// addPaidMember регистрирует участника с активной подпиской и оплаченным периодом вокруг at.
func (s *memStore) addPaidMember(at time.Time) uuid.UUID {
	id := s.addMember(models.MemberActive)
	s.subscribed[id] = true
	s.periods[id] = append(s.periods[id], models.SubscriptionPeriod{
		MemberID:    id,
		PeriodStart: at.AddDate(0, 0, -1),
		PeriodEnd:   at.AddDate(0, 1, 0),
		Paid:        true,
	})
	return id
}

func (s *memStore) addMember(status string) uuid.UUID {
	id := uuid.New()
	s.members[id] = &models.Member{ID: id, Status: status, Role: models.RoleMember}
	return id
}

func (s *memStore) GetMember(_ context.Context, id uuid.UUID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *memStore) HasActiveSubscription(_ context.Context, memberID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed[memberID], nil
}

func (s *memStore) CurrentPeriod(_ context.Context, memberID uuid.UUID, at time.Time) (*models.SubscriptionPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.periods[memberID] {
		if p.Contains(at) {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetActiveSessionByMember(_ context.Context, memberID uuid.UUID) (*models.CheckinSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.sessions {
		if cs.Active && cs.MemberID == memberID {
			c := *cs
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetActiveSessionByCode(_ context.Context, code string) (*models.CheckinSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.sessions {
		if cs.Active && cs.Code == code {
			c := *cs
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.GetActiveSessionByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memStore) CountActiveSessions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cs := range s.sessions {
		if cs.Active {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListActiveSessions(_ context.Context) ([]*models.CheckinSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*models.CheckinSession
	for _, cs := range s.sessions {
		if cs.Active {
			c := *cs
			res = append(res, &c)
		}
	}
	return res, nil
}

func (s *memStore) CreateSession(_ context.Context, cs models.CheckinSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if !existing.Active {
			continue
		}
		if existing.Code == cs.Code {
			return fmt.Errorf("memStore.CreateSession: %w", repository.ErrCodeTaken)
		}
		if existing.MemberID == cs.MemberID {
			return fmt.Errorf("memStore.CreateSession: %w", repository.ErrConflict)
		}
	}
	s.sessions[cs.ID] = &cs
	return nil
}

func (s *memStore) EndSession(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok || !cs.Active {
		return repository.ErrNotFound
	}
	cs.Active = false
	cs.EndedAt = &at
	cs.EndReason = reason
	return nil
}

func (s *memStore) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	cs.Attempts++
	return nil
}

func (s *memStore) CreateAttemptLog(_ context.Context, a models.AttemptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.attemptLogs) + 1)
	s.attemptLogs = append(s.attemptLogs, a)
	return nil
}

type fixedPolicy struct {
	settings models.PolicySettings
	err      error
}

func (p *fixedPolicy) Get(context.Context) (*models.PolicySettings, error) {
	if p.err != nil {
		return nil, p.err
	}
	ps := p.settings
	return &ps, nil
}

func policyWithCapacity(capacity int) *fixedPolicy {
	return &fixedPolicy{settings: models.PolicySettings{
		Capacity:         capacity,
		LockoutThreshold: 5,
		GracePeriodLabel: "3-day grace period",
	}}
}

// seqCodes выдаёт коды по порядку, затем повторяет последний.
type seqCodes struct {
	codes []string
	i     int
}

func (g *seqCodes) Generate() (string, error) {
	code := g.codes[min(g.i, len(g.codes)-1)]
	g.i++
	return code, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}
