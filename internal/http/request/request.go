// Package request разбирает тела и параметры HTTP-запросов. При ошибке
// сам пишет ответ клиенту, обработчику остаётся только выйти.
package request

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/coworking-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
)

// Decode читает JSON из тела запроса в dst и проверяет его теги validate.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return false
		}
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	return true
}

// UUIDParam возвращает параметр маршрута name как UUID.
func UUIDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Info("invalid uuid parameter", slog.String("param", name), slog.String("value", raw))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// Int64Param возвращает параметр маршрута name как положительное целое.
func Int64Param(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Info("invalid numeric parameter", slog.String("param", name), slog.String("value", raw))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid "+name))
		return 0, false
	}
	return id, true
}

// Member возвращает участника из контекста или отвечает 401.
func Member(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	id, _, ok := middlewarectx.MemberFromContext(r.Context())
	if !ok {
		log.Error("member not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return uuid.Nil, false
	}
	return id, true
}

// QueryInt возвращает неотрицательный параметр строки запроса или def, если его нет.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
