// Package ticket реализует HTTP-обработчики обращений в поддержку.
package ticket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/http/request"
	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Service бизнес-логика поддержки.
type Service interface {
	Open(ctx context.Context, memberID uuid.UUID, req models.TicketRequest) (*models.Ticket, error)
	List(ctx context.Context, memberID *uuid.UUID, status string) ([]*models.Ticket, error)
	Update(ctx context.Context, id int64, req models.TicketUpdateRequest) (*models.Ticket, error)
}

// Handler обрабатывает запросы обращений.
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

// Open godoc
// @Summary Создать обращение
// @Tags Tickets
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.TicketRequest true "Тема и текст"
// @Success 201 {object} response.Response{data=models.Ticket}
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /me/tickets [post]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.Open"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.TicketRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	t, err := h.service.Open(r.Context(), memberID, req)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("ticket opened", slog.Int64("ticket_id", t.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(t))
}

// Mine godoc
// @Summary Мои обращения
// @Tags Tickets
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Ticket}
// @Router /me/tickets [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.Mine"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	h.list(w, r, log, &memberID, "")
}

// List godoc
// @Summary Все обращения
// @Description Для персонала. Можно отфильтровать по статусу.
// @Tags Tickets
// @Produce  json
// @Security BearerAuth
// @Param status query string false "open, in_progress, resolved, closed"
// @Success 200 {object} response.Response{data=[]models.Ticket}
// @Router /tickets [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.List"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.list(w, r, log, nil, r.URL.Query().Get("status"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, log *slog.Logger, memberID *uuid.UUID, status string) {
	list, err := h.service.List(r.Context(), memberID, status)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if list == nil {
		list = []*models.Ticket{}
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Update godoc
// @Summary Обновить обращение
// @Tags Tickets
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID обращения"
// @Param request body models.TicketUpdateRequest true "Статус и заметка"
// @Success 200 {object} response.Response{data=models.Ticket}
// @Failure 404 {object} response.ErrorResponse "Обращение не найдено"
// @Router /tickets/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ticket.Update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.Int64Param(w, r, log, "id")
	if !ok {
		return
	}
	var req models.TicketUpdateRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("ticket updated", slog.Int64("ticket_id", id), slog.String("status", t.Status))
	render.JSON(w, r, response.OKWithData(t))
}
