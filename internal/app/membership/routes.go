// Package membership собирает HTTP-сервис коворкинга: маршруты, сервисы и хранилища.
package membership

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/coworking-membership/internal/config"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/admin"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/auth"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/booking"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/checkin"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/member"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/ticket"
	"github.com/magabrotheeeer/coworking-membership/internal/http/handlers/voucher"
	"github.com/magabrotheeeer/coworking-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Handlers обработчики всех разделов API.
type Handlers struct {
	Auth    *auth.Handler
	Checkin *checkin.Handler
	Voucher *voucher.Handler
	Member  *member.Handler
	Booking *booking.Handler
	Ticket  *ticket.Handler
	Admin   *admin.Handler
	Health  http.HandlerFunc
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, tokens middlewarectx.TokenValidator, h Handlers) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics,
	)

	limited := middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateBurst)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/signup", h.Auth.SignUp)
		r.With(limited).Post("/login", h.Auth.Login)
		r.Get("/plans", h.Member.Plans)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, logger))

			r.Get("/me", h.Member.Me)
			r.Post("/me/subscription", h.Member.Subscribe)
			r.Get("/me/subscription", h.Member.MySubscription)
			r.Get("/me/periods", h.Member.MyPeriods)

			r.Post("/me/checkin", h.Checkin.CheckInSelf)
			r.Post("/me/checkout", h.Checkin.CheckOutSelf)
			r.Get("/me/voucher", h.Voucher.Stats)

			r.Post("/me/guest-passes", h.Booking.IssueGuestPass)
			r.Get("/me/guest-passes", h.Booking.ListGuestPasses)
			r.Post("/me/reservations/friday", h.Booking.ReserveFriday)
			r.Post("/me/reservations/room", h.Booking.ReserveRoom)
			r.Get("/me/reservations", h.Booking.ListReservations)
			r.Delete("/me/reservations/{id}", h.Booking.CancelReservation)

			r.Post("/me/tickets", h.Ticket.Open)
			r.Get("/me/tickets", h.Ticket.Mine)

			// Персонал стойки и администраторы
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleStaff, models.RoleAdmin))

				r.Post("/checkins", h.Checkin.CheckIn)
				r.Post("/checkins/{id}/end", h.Checkin.End)
				r.With(limited).Post("/checkins/validate", h.Checkin.Validate)
				r.Get("/checkins/active", h.Checkin.Active)

				r.Post("/vouchers/redeem", h.Voucher.Redeem)
				r.Post("/vouchers/{id}/void", h.Voucher.Void)

				r.Get("/members", h.Member.List)
				r.Post("/members", h.Member.Create)
				r.Get("/members/{id}", h.Member.Get)
				r.Put("/members/{id}", h.Member.Update)
				r.Put("/members/{id}/status", h.Member.SetStatus)
				r.Post("/members/{id}/subscription/activate", h.Member.ActivateSubscription)
				r.Post("/members/{id}/subscription/cancel", h.Member.CancelSubscription)
				r.Post("/members/{id}/periods", h.Member.AddPeriod)
				r.Get("/members/{id}/periods", h.Member.ListPeriods)
				r.Put("/periods/{id}", h.Member.MarkPeriod)

				r.Put("/guest-passes/{id}", h.Booking.SetGuestPassStatus)

				r.Get("/tickets", h.Ticket.List)
				r.Put("/tickets/{id}", h.Ticket.Update)

				r.Get("/dashboard", h.Admin.Dashboard)
				r.Get("/reports/{kind}", h.Admin.Export)
			})

			// Только администраторы
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))

				r.Delete("/members/{id}", h.Member.Delete)
				r.Get("/policy", h.Admin.GetPolicy)
				r.Put("/policy", h.Admin.UpdatePolicy)
			})
		})
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
