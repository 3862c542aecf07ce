package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/coworking-membership/internal/cache"
	"github.com/magabrotheeeer/coworking-membership/internal/config"
	adminhandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/admin"
	authhandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/auth"
	bookinghandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/booking"
	checkinhandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/checkin"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/health"
	memberhandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/member"
	tickethandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/ticket"
	voucherhandler "github.com/magabrotheeeer/coworking-membership/internal/http/handlers/voucher"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/accesscode"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/bizday"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/migrations"
	authservice "github.com/magabrotheeeer/coworking-membership/internal/services/auth"
	bookingservice "github.com/magabrotheeeer/coworking-membership/internal/services/booking"
	memberservice "github.com/magabrotheeeer/coworking-membership/internal/services/member"
	policyservice "github.com/magabrotheeeer/coworking-membership/internal/services/policy"
	reportservice "github.com/magabrotheeeer/coworking-membership/internal/services/report"
	sessionservice "github.com/magabrotheeeer/coworking-membership/internal/services/session"
	supportservice "github.com/magabrotheeeer/coworking-membership/internal/services/support"
	voucherservice "github.com/magabrotheeeer/coworking-membership/internal/services/voucher"
	"github.com/magabrotheeeer/coworking-membership/internal/storage/repository"
)

// App HTTP-сервис коворкинга.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключает хранилища, применяет миграции, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "membership.New"

	clock, err := bizday.New(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: cache not initialized: %w", op, err)
	}

	policy := policyservice.New(db, cacheRedis, cfg.CacheTTL, logger)
	members := memberservice.NewMemberService(db, cacheRedis, cfg.CacheTTL, clock, logger)
	sessions := sessionservice.New(db, policy, accesscode.New(), clock, logger)
	vouchers := voucherservice.New(db, clock, cfg.VoucherAmount, logger)
	bookings := bookingservice.New(db, policy, clock, logger)
	support := supportservice.New(db, logger)
	reports := reportservice.New(db, policy, clock, logger)
	auth := authservice.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger)

	if err = auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
		logger.Error("failed to ensure admin account", sl.Err(err))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, auth, Handlers{
		Auth:    authhandler.New(logger, members, auth),
		Checkin: checkinhandler.New(logger, sessions),
		Voucher: voucherhandler.New(logger, vouchers),
		Member:  memberhandler.New(logger, members),
		Booking: bookinghandler.New(logger, bookings),
		Ticket:  tickethandler.New(logger, support),
		Admin:   adminhandler.New(logger, reports, policy),
		Health:  health.New(logger, map[string]health.Pinger{"postgres": db, "redis": cacheRedis}),
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
