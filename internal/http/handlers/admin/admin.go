// Package admin реализует HTTP-обработчики панели администратора:
// сводку, CSV-выгрузки и настройки политики.
package admin

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/http/request"
	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

// Reporter строит сводку и выгрузки.
type Reporter interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Export(ctx context.Context, kind string, w io.Writer) error
}

// PolicyService читает и меняет политику доступа.
type PolicyService interface {
	Get(ctx context.Context) (*models.PolicySettings, error)
	Update(ctx context.Context, p models.PolicySettings, updatedBy uuid.UUID) (*models.PolicySettings, error)
}

// Handler обрабатывает запросы администратора.
type Handler struct {
	log      *slog.Logger
	reports  Reporter
	policy   PolicyService
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, reports Reporter, policy PolicyService) *Handler {
	return &Handler{
		log:      log,
		reports:  reports,
		policy:   policy,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Dashboard godoc
// @Summary Сводка для панели администратора
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Dashboard}
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Dashboard")

	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(d))
}

// Export godoc
// @Summary CSV-выгрузка
// @Tags Admin
// @Produce  text/csv
// @Security BearerAuth
// @Param kind path string true "members, payments, redemptions или sessions"
// @Success 200 {string} string "CSV"
// @Failure 404 {object} response.ErrorResponse "Неизвестная выгрузка"
// @Router /reports/{kind}.csv [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Export")

	kind := strings.TrimSuffix(chi.URLParam(r, "kind"), ".csv")

	var buf bytes.Buffer
	if err := h.reports.Export(r.Context(), kind, &buf); err != nil {
		response.FromError(w, r, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("failed to write csv", sl.Err(err))
	}
}

// GetPolicy godoc
// @Summary Текущая политика доступа
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.PolicySettings}
// @Router /policy [get]
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.GetPolicy")

	p, err := h.policy.Get(r.Context())
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

// UpdatePolicy godoc
// @Summary Изменить политику доступа
// @Description Вместимость, порог блокировки, размер пятничной группы и метка льготного периода.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PolicySettings true "Новые значения"
// @Success 200 {object} response.Response{data=models.PolicySettings}
// @Failure 422 {object} response.ErrorResponse "Значения вне допустимого диапазона"
// @Router /policy [put]
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.UpdatePolicy")

	actorID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.PolicySettings
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	p, err := h.policy.Update(r.Context(), req, actorID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	log.Info("policy changed", slog.String("by", actorID.String()))
	render.JSON(w, r, response.OKWithData(p))
}
