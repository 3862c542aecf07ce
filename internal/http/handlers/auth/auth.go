// Package auth реализует HTTP-обработчики регистрации и входа участника.
//
// Регистрация создаёт участника со статусом active и ролью member.
// Вход проверяет email и пароль и возвращает JWT для заголовка Authorization.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coworking-membership/internal/http/request"
	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
	authservice "github.com/magabrotheeeer/coworking-membership/internal/services/auth"
)

// Registrar регистрирует новых участников.
type Registrar interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.Member, error)
}

// Authenticator выполняет вход по email и паролю.
type Authenticator interface {
	Login(ctx context.Context, email, rawPassword string) (*authservice.LoginResult, error)
}

// Handler обрабатывает регистрацию и вход.
type Handler struct {
	log      *slog.Logger
	members  Registrar
	auth     Authenticator
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, members Registrar, auth Authenticator) *Handler {
	return &Handler{
		log:      log,
		members:  members,
		auth:     auth,
		validate: validator.New(),
	}
}

// SignUp godoc
// @Summary Регистрация участника
// @Description Создает учётную запись участника. Тариф выбирается отдельно через /me/subscription.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.SignUpRequest true "Данные участника"
// @Success 201 {object} response.Response{data=models.Member}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.SignUp"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SignUpRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	member, err := h.members.SignUp(r.Context(), req)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("member signed up", slog.String("member_id", member.ID.String()))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(member))
}

// Login godoc
// @Summary Вход в систему
// @Description Проверяет email и пароль и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response{data=authservice.LoginResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Учётная запись приостановлена"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Router /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("login success", slog.String("member_id", res.MemberID.String()))
	render.JSON(w, r, response.OKWithData(res))
}
