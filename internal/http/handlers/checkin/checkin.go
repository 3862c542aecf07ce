// Package checkin реализует HTTP-обработчики посещений: вход и выход участника,
// регистрацию посещения персоналом, проверку кода на стойке и список
// активных посещений с текущей загрузкой.
package checkin

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

// Service бизнес-логика посещений.
type Service interface {
	StartSession(ctx context.Context, memberID uuid.UUID) (*models.CheckinSession, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, reason string) error
	EndActiveSessionForMember(ctx context.Context, memberID uuid.UUID, reason string) (*models.CheckinSession, error)
	ValidateSessionCode(ctx context.Context, code, origin string) (*models.CheckinSession, error)
	ActiveSessions(ctx context.Context) ([]*models.CheckinSession, error)
	Occupancy(ctx context.Context) (*models.Occupancy, error)
}

// ActiveResponse список активных посещений вместе с загрузкой.
type ActiveResponse struct {
	Occupancy *models.Occupancy        `json:"occupancy"`
	Sessions  []*models.CheckinSession `json:"sessions"`
}

// Handler обрабатывает запросы посещений.
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

// CheckInSelf godoc
// @Summary Начать посещение
// @Description Открывает посещение текущего участника и выдает шестизначный код.
// @Tags Checkins
// @Produce  json
// @Security BearerAuth
// @Success 201 {object} response.Response{data=models.CheckinSession}
// @Failure 402 {object} response.ErrorResponse "Текущий период не оплачен"
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 409 {object} response.ErrorResponse "Посещение уже открыто"
// @Failure 503 {object} response.ErrorResponse "Пространство заполнено"
// @Router /me/checkin [post]
func (h *Handler) CheckInSelf(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.CheckInSelf")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	h.start(w, r, log, memberID)
}

// CheckIn godoc
// @Summary Зарегистрировать посещение участника
// @Description Персонал открывает посещение за участника.
// @Tags Checkins
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CheckinRequest true "Участник"
// @Success 201 {object} response.Response{data=models.CheckinSession}
// @Failure 402 {object} response.ErrorResponse "Текущий период не оплачен"
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 409 {object} response.ErrorResponse "Посещение уже открыто"
// @Failure 503 {object} response.ErrorResponse "Пространство заполнено"
// @Router /checkins [post]
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.CheckIn")

	var req models.CheckinRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field MemberID can contain only uuid"))
		return
	}
	h.start(w, r, log, memberID)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request, log *slog.Logger, memberID uuid.UUID) {
	session, err := h.service.StartSession(r.Context(), memberID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("session started", slog.String("session_id", session.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(session))
}

// CheckOutSelf godoc
// @Summary Завершить своё посещение
// @Tags Checkins
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.CheckinSession}
// @Failure 404 {object} response.ErrorResponse "Активного посещения нет"
// @Router /me/checkout [post]
func (h *Handler) CheckOutSelf(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.CheckOutSelf")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}

	session, err := h.service.EndActiveSessionForMember(r.Context(), memberID, models.EndReasonManual)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("session ended", slog.String("session_id", session.ID.String()))
	render.JSON(w, r, response.OKWithData(session))
}

// End godoc
// @Summary Завершить посещение
// @Description Персонал завершает посещение. Причина manual или timeout, по умолчанию manual.
// @Tags Checkins
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID посещения"
// @Param request body models.EndSessionRequest false "Причина"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Посещение не найдено или уже завершено"
// @Router /checkins/{id}/end [post]
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.End")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.EndSessionRequest
	if r.ContentLength != 0 && !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	if err := h.service.EndSession(r.Context(), id, req.Reason); err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("session ended by staff", slog.String("session_id", id.String()))
	render.JSON(w, r, response.OK())
}

// Validate godoc
// @Summary Проверить код посещения
// @Description Проверяет код на стойке. Каждая попытка записывается в журнал.
// @Tags Checkins
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ValidateCodeRequest true "Код"
// @Success 200 {object} response.Response{data=models.CheckinSession}
// @Failure 404 {object} response.ErrorResponse "Код неверен или истёк"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Router /checkins/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.Validate")

	var req models.ValidateCodeRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	session, err := h.service.ValidateSessionCode(r.Context(), req.Code, r.RemoteAddr)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OKWithData(session))
}

// Active godoc
// @Summary Активные посещения
// @Tags Checkins
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=ActiveResponse}
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /checkins/active [get]
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.checkin.Active")

	occupancy, err := h.service.Occupancy(r.Context())
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	sessions, err := h.service.ActiveSessions(r.Context())
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if sessions == nil {
		sessions = []*models.CheckinSession{}
	}

	render.JSON(w, r, response.OKWithData(ActiveResponse{Occupancy: occupancy, Sessions: sessions}))
}
