// Package metrics регистрирует метрики Prometheus сервиса коворкинга:
// HTTP-запросы, посещения и загрузка, проверки кодов, ваучеры, кэш,
// напоминания и письма. Метрики отдаются через /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coworking_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coworking_http_active_requests",
			Help: "Number of HTTP requests being served",
		},
	)

	// CheckinsTotal попытки начать посещение. reason пуст для успешных.
	CheckinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_checkins_total",
			Help: "Check-in attempts by result and rejection reason",
		},
		[]string{"result", "reason"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coworking_active_sessions",
			Help: "Active check-in sessions as last observed",
		},
	)

	CodeValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_code_validations_total",
			Help: "Session code validations by result",
		},
		[]string{"result"},
	)

	VoucherRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_voucher_redemptions_total",
			Help: "Drink voucher redemption attempts by result",
		},
		[]string{"result"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_cache_lookups_total",
			Help: "Redis cache lookups by key and outcome",
		},
		[]string{"key", "outcome"},
	)

	RemindersPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_reminders_published_total",
			Help: "Payment reminders published to the broker",
		},
		[]string{"kind", "result"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coworking_emails_sent_total",
			Help: "Reminder e-mails by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest учитывает обработанный HTTP-запрос.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest учитывает начало (inc) и конец запроса.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCheckin учитывает исход StartSession. Пустой reason означает успех.
func RecordCheckin(reason string, failed bool) {
	switch {
	case failed:
		CheckinsTotal.WithLabelValues(ResultError, reason).Inc()
	case reason != "":
		CheckinsTotal.WithLabelValues(ResultRejected, reason).Inc()
	default:
		CheckinsTotal.WithLabelValues(ResultOK, "").Inc()
	}
}

// SetActiveSessions публикует число активных посещений.
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordCodeValidation учитывает проверку кода посещения.
func RecordCodeValidation(success bool) {
	CodeValidationsTotal.WithLabelValues(resultOf(success)).Inc()
}

// RecordRedemption учитывает попытку погашения ваучера.
func RecordRedemption(result string) {
	VoucherRedemptionsTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup учитывает попадание или промах кэша.
func RecordCacheLookup(key string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(key, outcome).Inc()
}

// RecordReminder учитывает публикацию напоминания.
func RecordReminder(kind string, err error) {
	RemindersPublishedTotal.WithLabelValues(kind, resultOf(err == nil)).Inc()
}

// RecordEmail учитывает отправку письма.
func RecordEmail(err error) {
	EmailsSentTotal.WithLabelValues(resultOf(err == nil)).Inc()
}

func resultOf(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}
