package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы обращения в поддержку.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Ticket обращение участника в поддержку.
type Ticket struct {
	ID        int64     `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	StaffNote string    `json:"staff_note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketRequest запрос на создание обращения.
type TicketRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=4000"`
}

// TicketUpdateRequest запрос персонала на обновление обращения.
type TicketUpdateRequest struct {
	Status    string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
	StaffNote string `json:"staff_note,omitempty" validate:"omitempty,max=2000"`
}

// Dashboard сводка для единой панели администратора.
type Dashboard struct {
	ActiveMembers       int  `json:"active_members"`
	ActiveSessions      int  `json:"active_sessions"`
	Capacity            int  `json:"capacity"`
	RedemptionsToday    int  `json:"redemptions_today"`
	UnpaidCurrentPeriod int  `json:"unpaid_current_periods"`
	OpenTickets         int  `json:"open_tickets"`
	MembersOnly         bool `json:"members_only"`
}
