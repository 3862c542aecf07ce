package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы подписки.
const (
	SubscriptionPending  = "pending"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Plan тариф из справочника.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	BillingTerm string   `json:"billing_term"`
	Price       int      `json:"price"`
	Perks       []string `json:"perks"`
}

// Subscription связь участника с тарифом.
type Subscription struct {
	ID          int64      `json:"id"`
	MemberID    uuid.UUID  `json:"member_id"`
	PlanID      string     `json:"plan_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
}

// SubscriptionPeriod оплачиваемый интервал [PeriodStart, PeriodEnd) одного участника.
type SubscriptionPeriod struct {
	ID          int64      `json:"id"`
	MemberID    uuid.UUID  `json:"member_id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Paid        bool       `json:"paid"`
	MarkedBy    *uuid.UUID `json:"marked_by,omitempty"`
	Note        string     `json:"note,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Contains сообщает, попадает ли t в период.
func (p *SubscriptionPeriod) Contains(t time.Time) bool {
	return !t.Before(p.PeriodStart) && t.Before(p.PeriodEnd)
}

// SubscribeRequest запрос на оформление подписки на тариф.
type SubscribeRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// PeriodRequest запрос на добавление периода оплаты.
// Даты приходят в формате RFC3339.
type PeriodRequest struct {
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
	Paid        bool      `json:"paid"`
	Note        string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

// MarkPeriodRequest запрос на отметку оплаты периода.
type MarkPeriodRequest struct {
	Paid bool   `json:"paid"`
	Note string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// ReminderInfo сообщение планировщика о неоплаченном или заканчивающемся периоде.
type ReminderInfo struct {
	MemberID  uuid.UUID `json:"member_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PeriodEnd time.Time `json:"period_end"`
	Paid      bool      `json:"paid"`
}
