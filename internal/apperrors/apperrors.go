// Package apperrors описывает ожидаемые бизнес-ошибки сервиса.
//
// Каждая ошибка несёт машинный код, сообщение для пользователя и HTTP-статус.
// Ошибки бизнес-правил возвращаются как значения и проверяются через errors.Is.
// Сбои хранилища оборачиваются в ErrStoreUnavailable, чтобы вызывающий код
// мог отличить их от нарушений правил и предложить повторить попытку.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error ожидаемая ошибка бизнес-правила.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code, msg string, status int) *Error {
	return &Error{Code: code, Message: msg, Status: status}
}

// Посещения (check-in)
var (
	ErrNoActiveSubscription = newError("no_active_subscription", "you need an active subscription to check in", http.StatusForbidden)
	ErrUnpaidPeriod         = newError("unpaid_period", "your current billing period is not paid yet", http.StatusPaymentRequired)
	ErrAlreadyCheckedIn     = newError("already_checked_in", "you are already checked in", http.StatusConflict)
	ErrAtCapacity           = newError("at_capacity", "the space is at full capacity, please try again later", http.StatusServiceUnavailable)
	ErrInvalidOrExpiredCode = newError("invalid_or_expired_code", "the session code is invalid or has expired", http.StatusNotFound)
	ErrSessionNotActive     = newError("session_not_active", "the session was not found or has already ended", http.StatusNotFound)
	ErrCodeSpaceExhausted   = newError("code_generation_failed", "could not issue a session code, please try again", http.StatusServiceUnavailable)
)

// Ваучеры на напитки
var (
	ErrVoucherAlreadyRedeemed = newError("voucher_already_redeemed", "today's drink voucher has already been redeemed", http.StatusConflict)
	ErrRedemptionNotFound     = newError("redemption_not_found", "the redemption was not found or is already voided", http.StatusNotFound)
)

// Участники, подписки, периоды
var (
	ErrMemberNotFound       = newError("member_not_found", "member not found", http.StatusNotFound)
	ErrMemberInactive       = newError("member_inactive", "the membership is not active", http.StatusForbidden)
	ErrEmailTaken           = newError("email_taken", "an account with this email already exists", http.StatusConflict)
	ErrPlanNotFound         = newError("plan_not_found", "plan not found", http.StatusNotFound)
	ErrSubscriptionExists   = newError("subscription_exists", "the member already has a subscription in progress", http.StatusConflict)
	ErrSubscriptionNotFound = newError("subscription_not_found", "no matching subscription found", http.StatusNotFound)
	ErrInvalidPeriod        = newError("invalid_period", "the period must start before it ends", http.StatusUnprocessableEntity)
	ErrPeriodNotFound       = newError("period_not_found", "billing period not found", http.StatusNotFound)
)

// Политика доступа
var (
	ErrInvalidPolicy = newError("invalid_policy", "policy values are out of range", http.StatusUnprocessableEntity)
)

// Бронирования, гостевые пропуска, обращения
var (
	ErrNotFriday       = newError("not_friday", "overnight reservations are only available on Fridays", http.StatusUnprocessableEntity)
	ErrFridaySlotsFull = newError("friday_slots_full", "all Friday overnight slots are taken", http.StatusConflict)
	ErrRoomUnavailable = newError("room_unavailable", "the meeting room is already booked for that time", http.StatusConflict)
	ErrInvalidBooking  = newError("invalid_booking", "the booking time range is invalid", http.StatusUnprocessableEntity)
	ErrNotFound        = newError("not_found", "record not found", http.StatusNotFound)
)

// Доступ
var (
	ErrInvalidCredentials = newError("invalid_credentials", "invalid email or password", http.StatusUnauthorized)
	ErrForbidden          = newError("forbidden", "you are not allowed to do this", http.StatusForbidden)
)

// ErrStoreUnavailable сбой хранилища или другой инфраструктуры. Повторяемая ошибка.
var ErrStoreUnavailable = errors.New("store unavailable")

// Unavailable оборачивает инфраструктурную ошибку операции op.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// As извлекает бизнес-ошибку из цепочки.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable сообщает, стоит ли клиенту повторить запрос.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
