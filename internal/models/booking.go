package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы гостевого пропуска.
const (
	GuestPassIssued   = "issued"
	GuestPassUsed     = "used"
	GuestPassCanceled = "canceled"
)

// Виды и статусы бронирований.
const (
	ReservationFridayOvernight = "friday_overnight"
	ReservationMeetingRoom     = "meeting_room"

	ReservationConfirmed = "confirmed"
	ReservationCanceled  = "canceled"
)

// GuestPass гостевой пропуск, выданный участником.
type GuestPass struct {
	ID        int64     `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	GuestName string    `json:"guest_name"`
	VisitDate time.Time `json:"visit_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Reservation бронь на пятничную ночь или переговорную.
type Reservation struct {
	ID        int64     `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	Kind      string    `json:"kind"`
	Resource  string    `json:"resource,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// GuestPassRequest запрос на выдачу гостевого пропуска. Дата в формате 2006-01-02.
type GuestPassRequest struct {
	GuestName string `json:"guest_name" validate:"required,max=120"`
	VisitDate string `json:"visit_date" validate:"required"`
}

// GuestPassStatusRequest запрос на смену статуса пропуска.
type GuestPassStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=used canceled"`
}

// FridayReservationRequest запрос на пятничную ночёвку. Дата в формате 2006-01-02.
type FridayReservationRequest struct {
	Date string `json:"date" validate:"required"`
}

// RoomReservationRequest запрос на бронь переговорной.
type RoomReservationRequest struct {
	Room     string    `json:"room" validate:"required,max=60"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}
