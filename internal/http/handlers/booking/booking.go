// Package booking реализует HTTP-обработчики гостевых пропусков,
// пятничных ночёвок и бронирования переговорных.
package booking

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coworking-membership/internal/http/request"
	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Service бизнес-логика бронирований.
type Service interface {
	IssueGuestPass(ctx context.Context, memberID uuid.UUID, req models.GuestPassRequest) (*models.GuestPass, error)
	ListGuestPasses(ctx context.Context, memberID uuid.UUID) ([]*models.GuestPass, error)
	SetGuestPassStatus(ctx context.Context, id int64, status string) (*models.GuestPass, error)
	ReserveFriday(ctx context.Context, memberID uuid.UUID, req models.FridayReservationRequest) (*models.Reservation, error)
	ReserveRoom(ctx context.Context, memberID uuid.UUID, req models.RoomReservationRequest) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id int64, actorID uuid.UUID, isStaff bool) error
	ListReservations(ctx context.Context, memberID uuid.UUID) ([]*models.Reservation, error)
}

// Handler обрабатывает запросы бронирований.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// IssueGuestPass godoc
// @Summary Выдать гостевой пропуск
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.GuestPassRequest true "Гость и дата визита (2006-01-02)"
// @Success 201 {object} response.Response{data=models.GuestPass}
// @Failure 422 {object} response.ErrorResponse "Дата в прошлом или в неверном формате"
// @Router /me/guest-passes [post]
func (h *Handler) IssueGuestPass(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.IssueGuestPass")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.GuestPassRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	pass, err := h.service.IssueGuestPass(r.Context(), memberID, req)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("guest pass issued", slog.Int64("pass_id", pass.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(pass))
}

// ListGuestPasses godoc
// @Summary Мои гостевые пропуска
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.GuestPass}
// @Router /me/guest-passes [get]
func (h *Handler) ListGuestPasses(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.ListGuestPasses")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	passes, err := h.service.ListGuestPasses(r.Context(), memberID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if passes == nil {
		passes = []*models.GuestPass{}
	}
	render.JSON(w, r, response.OKWithData(passes))
}

// SetGuestPassStatus godoc
// @Summary Отметить гостевой пропуск
// @Description Персонал отмечает пропуск использованным или отменяет его.
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пропуска"
// @Param request body models.GuestPassStatusRequest true "Статус"
// @Success 200 {object} response.Response{data=models.GuestPass}
// @Failure 404 {object} response.ErrorResponse "Пропуск не найден"
// @Router /guest-passes/{id} [put]
func (h *Handler) SetGuestPassStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.SetGuestPassStatus")

	id, ok := request.Int64Param(w, r, log, "id")
	if !ok {
		return
	}
	var req models.GuestPassStatusRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	pass, err := h.service.SetGuestPassStatus(r.Context(), id, req.Status)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(pass))
}

// ReserveFriday godoc
// @Summary Забронировать пятничную ночёвку
// @Description Ночь с пятницы 20:00 до субботы 08:00. Число мест задаёт политика.
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.FridayReservationRequest true "Дата пятницы (2006-01-02)"
// @Success 201 {object} response.Response{data=models.Reservation}
// @Failure 409 {object} response.ErrorResponse "Мест нет"
// @Failure 422 {object} response.ErrorResponse "Дата не пятница"
// @Router /me/reservations/friday [post]
func (h *Handler) ReserveFriday(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.ReserveFriday")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.FridayReservationRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.ReserveFriday(r.Context(), memberID, req)
	h.created(w, r, log, res, err)
}

// ReserveRoom godoc
// @Summary Забронировать переговорную
// @Tags Bookings
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.RoomReservationRequest true "Комната и интервал"
// @Success 201 {object} response.Response{data=models.Reservation}
// @Failure 409 {object} response.ErrorResponse "Комната занята"
// @Failure 422 {object} response.ErrorResponse "Неверный интервал"
// @Router /me/reservations/room [post]
func (h *Handler) ReserveRoom(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.ReserveRoom")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.RoomReservationRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.ReserveRoom(r.Context(), memberID, req)
	h.created(w, r, log, res, err)
}

func (h *Handler) created(w http.ResponseWriter, r *http.Request, log *slog.Logger, res *models.Reservation, err error) {
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("reservation created", slog.Int64("reservation_id", res.ID), slog.String("kind", res.Kind))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// ListReservations godoc
// @Summary Мои бронирования
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Reservation}
// @Router /me/reservations [get]
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.ListReservations")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	list, err := h.service.ListReservations(r.Context(), memberID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if list == nil {
		list = []*models.Reservation{}
	}
	render.JSON(w, r, response.OKWithData(list))
}

// CancelReservation godoc
// @Summary Отменить бронирование
// @Description Отменить может владелец или персонал.
// @Tags Bookings
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID брони"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Чужая бронь"
// @Failure 404 {object} response.ErrorResponse "Бронь не найдена"
// @Router /me/reservations/{id} [delete]
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.booking.CancelReservation")

	actorID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	id, ok := request.Int64Param(w, r, log, "id")
	if !ok {
		return
	}

	if err := h.service.CancelReservation(r.Context(), id, actorID, middlewarectx.IsStaff(r.Context())); err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("reservation canceled", slog.Int64("reservation_id", id))
	render.JSON(w, r, response.OK())
}
