package models

import (
	"time"

	"github.com/google/uuid"
)

// Причины завершения посещения.
const (
	EndReasonManual  = "manual"
	EndReasonTimeout = "timeout"
)

// CheckinSession одно физическое посещение коворкинга, опознаваемое коротким кодом.
// Не путать с сессией входа в систему (см. jwt.LoginClaims).
type CheckinSession struct {
	ID        uuid.UUID  `json:"id"`
	MemberID  uuid.UUID  `json:"member_id"`
	Code      string     `json:"code"`
	Active    bool       `json:"active"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	EndReason string     `json:"end_reason,omitempty"`
	Attempts  int        `json:"attempts"`
}

// AttemptLog запись журнала проверки кодов. Только добавляется.
type AttemptLog struct {
	ID          int64      `json:"id"`
	MemberID    *uuid.UUID `json:"member_id,omitempty"`
	Code        string     `json:"code"`
	Success     bool       `json:"success"`
	AttemptedAt time.Time  `json:"attempted_at"`
	OriginAddr  string     `json:"origin_addr,omitempty"`
}

// Occupancy текущая загрузка пространства.
type Occupancy struct {
	Active      int  `json:"active"`
	Capacity    int  `json:"capacity"`
	Available   int  `json:"available"`
	MembersOnly bool `json:"members_only"`
}

// CheckinRequest запрос персонала на регистрацию посещения участника.
type CheckinRequest struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
}

// EndSessionRequest запрос на завершение посещения.
type EndSessionRequest struct {
	Reason string `json:"reason" validate:"omitempty,oneof=manual timeout"`
}

// ValidateCodeRequest запрос на проверку кода посещения.
type ValidateCodeRequest struct {
	Code string `json:"code"`
}
