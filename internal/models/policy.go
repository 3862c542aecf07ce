package models

import (
	"time"

	"github.com/google/uuid"
)

// PolicySettings единственная запись настраиваемой политики доступа.
type PolicySettings struct {
	Capacity           int        `json:"capacity" validate:"gte=1"`
	IdleTimeoutMinutes int        `json:"idle_timeout_minutes" validate:"gte=0"`
	LockoutThreshold   int        `json:"lockout_threshold" validate:"gte=1"`
	FridaySlotSize     int        `json:"friday_slot_size" validate:"gte=0"`
	GracePeriodLabel   string     `json:"grace_period_label" validate:"required,max=64"`
	UpdatedAt          time.Time  `json:"updated_at"`
	UpdatedBy          *uuid.UUID `json:"updated_by,omitempty"`
}
