// Package member реализует HTTP-обработчики участников, тарифов, подписок
// и периодов оплаты: личный кабинет участника и административные операции.
package member

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

const defaultPageSize = 50

// Service бизнес-логика участников.
type Service interface {
	AdminAdd(ctx context.Context, req models.AdminMemberRequest) (*models.Member, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context, filter models.MemberFilter) ([]*models.Member, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateMemberRequest) (*models.Member, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error

	Plans(ctx context.Context) ([]*models.Plan, error)

	Subscribe(ctx context.Context, memberID uuid.UUID, planID string) (*models.Subscription, error)
	CurrentSubscription(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error)
	Activate(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error)
	Cancel(ctx context.Context, memberID uuid.UUID) (*models.Subscription, error)

	AddPeriod(ctx context.Context, memberID uuid.UUID, req models.PeriodRequest, staffID uuid.UUID) (*models.SubscriptionPeriod, error)
	ListPeriods(ctx context.Context, memberID uuid.UUID) ([]*models.SubscriptionPeriod, error)
	MarkPeriod(ctx context.Context, id int64, req models.MarkPeriodRequest, staffID uuid.UUID) (*models.SubscriptionPeriod, error)
}

// Handler обрабатывает запросы участников.
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

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, data any, err error) {
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if status != http.StatusOK {
		render.Status(r, status)
	}
	render.JSON(w, r, response.OKWithData(data))
}

// Plans godoc
// @Summary Справочник тарифов
// @Tags Plans
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Plan}
// @Router /plans [get]
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Plans")

	plans, err := h.service.Plans(r.Context())
	h.reply(w, r, log, http.StatusOK, plans, err)
}

// Me godoc
// @Summary Мой профиль
// @Tags Me
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Member}
// @Router /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Me")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	m, err := h.service.Get(r.Context(), memberID)
	h.reply(w, r, log, http.StatusOK, m, err)
}

// Subscribe godoc
// @Summary Оформить подписку
// @Description Создает подписку в статусе pending. Активирует её персонал после оплаты.
// @Tags Me
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.SubscribeRequest true "Тариф"
// @Success 201 {object} response.Response{data=models.Subscription}
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 409 {object} response.ErrorResponse "Подписка уже оформлена"
// @Router /me/subscription [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Subscribe")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.SubscribeRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), memberID, req.PlanID)
	h.reply(w, r, log, http.StatusCreated, sub, err)
}

// MySubscription godoc
// @Summary Моя подписка
// @Tags Me
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 404 {object} response.ErrorResponse "Подписки нет"
// @Router /me/subscription [get]
func (h *Handler) MySubscription(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.MySubscription")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	sub, err := h.service.CurrentSubscription(r.Context(), memberID)
	h.reply(w, r, log, http.StatusOK, sub, err)
}

// MyPeriods godoc
// @Summary Мои периоды оплаты
// @Tags Me
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.SubscriptionPeriod}
// @Router /me/periods [get]
func (h *Handler) MyPeriods(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.MyPeriods")

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), memberID)
	h.reply(w, r, log, http.StatusOK, nonNil(periods), err)
}

// List godoc
// @Summary Список участников
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param status query string false "Статус: active, inactive, suspended"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.Member}
// @Router /members [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.List")

	filter := models.MemberFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  request.QueryInt(r, "limit", defaultPageSize),
		Offset: request.QueryInt(r, "offset", 0),
	}
	members, err := h.service.List(r.Context(), filter)
	h.reply(w, r, log, http.StatusOK, nonNil(members), err)
}

// Create godoc
// @Summary Добавить участника
// @Description Персонал добавляет участника. Учётные записи staff и admin создает только администратор.
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.AdminMemberRequest true "Участник"
// @Success 201 {object} response.Response{data=models.Member}
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /members [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Create")

	var req models.AdminMemberRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	_, role, _ := middlewarectx.MemberFromContext(r.Context())
	if req.Role != "" && req.Role != models.RoleMember && role != models.RoleAdmin {
		log.Info("non-admin tried to create staff account", slog.String("role", role))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("only an admin can create staff accounts"))
		return
	}

	m, err := h.service.AdminAdd(r.Context(), req)
	h.reply(w, r, log, http.StatusCreated, m, err)
}

// Get godoc
// @Summary Участник
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Success 200 {object} response.Response{data=models.Member}
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Router /members/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Get")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	m, err := h.service.Get(r.Context(), id)
	h.reply(w, r, log, http.StatusOK, m, err)
}

// Update godoc
// @Summary Изменить участника
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Param request body models.UpdateMemberRequest true "Данные"
// @Success 200 {object} response.Response{data=models.Member}
// @Failure 404 {object} response.ErrorResponse "Участник или тариф не найден"
// @Router /members/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Update")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.UpdateMemberRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	m, err := h.service.Update(r.Context(), id, req)
	h.reply(w, r, log, http.StatusOK, m, err)
}

// SetStatus godoc
// @Summary Сменить статус участника
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Param request body models.MemberStatusRequest true "Статус"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Router /members/{id}/status [put]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.SetStatus")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.MemberStatusRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("member status changed", slog.String("member_id", id.String()), slog.String("status", req.Status))
	render.JSON(w, r, response.OK())
}

// Delete godoc
// @Summary Удалить участника
// @Description Удаление безвозвратно. Обычно достаточно сменить статус на inactive.
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Участник не найден"
// @Router /members/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.Delete")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("member deleted", slog.String("member_id", id.String()))
	render.JSON(w, r, response.OK())
}

// ActivateSubscription godoc
// @Summary Активировать подписку участника
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 404 {object} response.ErrorResponse "Нет подписки в статусе pending"
// @Router /members/{id}/subscription/activate [post]
func (h *Handler) ActivateSubscription(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.ActivateSubscription")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	sub, err := h.service.Activate(r.Context(), id)
	h.reply(w, r, log, http.StatusOK, sub, err)
}

// CancelSubscription godoc
// @Summary Отменить подписку участника
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 404 {object} response.ErrorResponse "Подписки нет"
// @Router /members/{id}/subscription/cancel [post]
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.CancelSubscription")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	sub, err := h.service.Cancel(r.Context(), id)
	h.reply(w, r, log, http.StatusOK, sub, err)
}

// AddPeriod godoc
// @Summary Добавить период оплаты
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Param request body models.PeriodRequest true "Период"
// @Success 201 {object} response.Response{data=models.SubscriptionPeriod}
// @Failure 422 {object} response.ErrorResponse "Начало периода не раньше конца"
// @Router /members/{id}/periods [post]
func (h *Handler) AddPeriod(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.AddPeriod")

	staffID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.PeriodRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	period, err := h.service.AddPeriod(r.Context(), id, req, staffID)
	h.reply(w, r, log, http.StatusCreated, period, err)
}

// ListPeriods godoc
// @Summary Периоды оплаты участника
// @Tags Members
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID участника"
// @Success 200 {object} response.Response{data=[]models.SubscriptionPeriod}
// @Router /members/{id}/periods [get]
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.ListPeriods")

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), id)
	h.reply(w, r, log, http.StatusOK, nonNil(periods), err)
}

// MarkPeriod godoc
// @Summary Отметить оплату периода
// @Tags Members
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID периода"
// @Param request body models.MarkPeriodRequest true "Оплата"
// @Success 200 {object} response.Response{data=models.SubscriptionPeriod}
// @Failure 404 {object} response.ErrorResponse "Период не найден"
// @Router /periods/{id} [put]
func (h *Handler) MarkPeriod(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.member.MarkPeriod")

	staffID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	id, ok := request.Int64Param(w, r, log, "id")
	if !ok {
		return
	}
	var req models.MarkPeriodRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	period, err := h.service.MarkPeriod(r.Context(), id, req, staffID)
	h.reply(w, r, log, http.StatusOK, period, err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
