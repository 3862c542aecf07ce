package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/coworking-membership/internal/migrations"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateMember создает активного участника с ролью member
func (f *TestDataFactory) CreateMember(t *testing.T, email string) uuid.UUID {
	t.Helper()
	id, err := f.storage.CreateMember(context.Background(), models.Member{
		Email:        email,
		Name:         "Test " + email,
		Status:       models.MemberActive,
		Role:         models.RoleMember,
		PasswordHash: "hashedpassword",
	})
	require.NoError(t, err)
	return id
}

// CreatePaidPeriod создает оплаченный период, содержащий текущий момент
func (f *TestDataFactory) CreatePaidPeriod(t *testing.T, memberID uuid.UUID, paid bool) *models.SubscriptionPeriod {
	t.Helper()
	now := time.Now()
	p, err := f.storage.CreatePeriod(context.Background(), models.SubscriptionPeriod{
		MemberID:    memberID,
		PeriodStart: now.AddDate(0, 0, -10),
		PeriodEnd:   now.AddDate(0, 0, 20),
		Paid:        paid,
	})
	require.NoError(t, err)
	return p
}

// CreateActiveSession создает активное посещение с указанным кодом
func (f *TestDataFactory) CreateActiveSession(t *testing.T, memberID uuid.UUID, code string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.storage.CreateSession(context.Background(), models.CheckinSession{
		ID:        id,
		MemberID:  memberID,
		Code:      code,
		Active:    true,
		StartedAt: time.Now(),
	}))
	return id
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "failed to apply migrations")

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}
