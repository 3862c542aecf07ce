// Package health отдаёт состояние сервиса для балансировщика и оркестратора.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/coworking-membership/internal/http/response"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New возвращает обработчик /health. Каждая зависимость проверяется
// с таймаутом в пару секунд.
func New(log *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				log.Warn("dependency is down", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Response{Status: response.StatusError, Error: "degraded", Data: status})
			return
		}
		render.JSON(w, r, response.OKWithData(status))
	}
}
