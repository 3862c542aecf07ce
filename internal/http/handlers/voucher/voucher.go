// Package voucher реализует HTTP-обработчики ежедневного ваучера на напиток.
package voucher

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

// Service бизнес-логика ваучеров.
type Service interface {
	RedeemVoucher(ctx context.Context, memberID uuid.UUID, amount int, cashier string) (*models.DrinkRedemption, error)
	VoidRedemption(ctx context.Context, id uuid.UUID, reason string) error
	Stats(ctx context.Context, memberID uuid.UUID) (*models.VoucherStats, error)
}

// Handler обрабатывает запросы ваучеров.
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

// Stats godoc
// @Summary Мой ваучер
// @Description Можно ли погасить ваучер сегодня и история погашений.
// @Tags Vouchers
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.VoucherStats}
// @Router /me/voucher [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.Stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	memberID, ok := request.Member(w, r, log)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), memberID)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(stats))
}

// Redeem godoc
// @Summary Погасить ваучер
// @Description Кассир погашает сегодняшний ваучер участника. ID погашения служит кодом для чека.
// @Tags Vouchers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.RedeemRequest true "Участник и сумма"
// @Success 201 {object} response.Response{data=models.DrinkRedemption}
// @Failure 403 {object} response.ErrorResponse "Участник не активен"
// @Failure 409 {object} response.ErrorResponse "Ваучер сегодня уже погашен"
// @Router /vouchers/redeem [post]
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.Redeem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cashierID, ok := request.Member(w, r, log)
	if !ok {
		return
	}
	var req models.RedeemRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field MemberID can contain only uuid"))
		return
	}

	redemption, err := h.service.RedeemVoucher(r.Context(), memberID, req.Amount, cashierID.String())
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("voucher redeemed", slog.String("redemption_id", redemption.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(redemption))
}

// Void godoc
// @Summary Аннулировать погашение
// @Description Аннулированное погашение освобождает ваучер на тот же день.
// @Tags Vouchers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID погашения"
// @Param request body models.VoidRequest true "Причина"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Погашение не найдено"
// @Router /vouchers/{id}/void [post]
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.voucher.Void"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.VoidRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	if err := h.service.VoidRedemption(r.Context(), id, req.Reason); err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("redemption voided", slog.String("redemption_id", id.String()))
	render.JSON(w, r, response.OK())
}
