package models

import (
	"time"

	"github.com/google/uuid"
)

// DrinkRedemption погашение ежедневного ваучера на напиток.
// ID показывается клиенту как код погашения.
type DrinkRedemption struct {
	ID          uuid.UUID  `json:"id"`
	MemberID    uuid.UUID  `json:"member_id"`
	Cashier     string     `json:"cashier"`
	RedeemedAt  time.Time  `json:"redeemed_at"`
	BusinessDay time.Time  `json:"business_day"`
	Amount      int        `json:"amount"`
	Voided      bool       `json:"voided"`
	VoidReason  string     `json:"void_reason,omitempty"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`
}

// VoucherStats сводка по погашениям участника.
type VoucherStats struct {
	CanRedeemToday bool               `json:"can_redeem_today"`
	ThisMonth      int                `json:"this_month"`
	Last30Days     int                `json:"last_30_days"`
	MostRecent     *DrinkRedemption   `json:"most_recent,omitempty"`
	Recent         []*DrinkRedemption `json:"recent"`
}

// RedeemRequest запрос кассира на погашение ваучера.
type RedeemRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
	Amount   int    `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

// VoidRequest запрос на аннулирование погашения.
type VoidRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}
