// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: успешных ответов, ошибок
// бизнес-правил и сообщений валидации в едином формате.
package response

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coworking-membership/internal/apperrors"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Code   string `json:"code,omitempty" example:"at_capacity"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

const retryMessage = "service is temporarily unavailable, please try again"

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be %s characters long", err.Field(), err.Param()))
		case "min", "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s violates %s=%s", err.Field(), err.ActualTag(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError пишет ответ для ошибки сервиса. Бизнес-ошибка отдаётся со своим
// статусом и сообщением, сбой инфраструктуры как 503 с предложением повторить,
// всё остальное как 500 без подробностей.
func FromError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if appErr, ok := apperrors.As(err); ok {
		log.Info("request rejected", slog.String("code", appErr.Code))
		render.Status(r, appErr.Status)
		render.JSON(w, r, Response{Status: StatusError, Code: appErr.Code, Error: appErr.Message})
		return
	}
	if apperrors.IsRetryable(err) {
		log.Error("store unavailable", sl.Err(err))
		w.Header().Set("Retry-After", "1")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, Error(retryMessage))
		return
	}
	log.Error("internal error", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, Error("internal service error"))
}
