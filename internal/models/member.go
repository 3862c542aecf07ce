// Package models содержит доменные структуры коворкинга: участники, тарифы,
// подписки и периоды оплаты, посещения, ваучеры, бронирования и обращения,
// а также структуры для приёма данных из JSON-запросов.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы участника.
const (
	MemberActive    = "active"
	MemberInactive  = "inactive"
	MemberSuspended = "suspended"
)

// Роли учётной записи.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// Member участник коворкинга.
type Member struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PlanID       *string   `json:"plan_id,omitempty"`
	Status       string    `json:"status"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive сообщает, активен ли участник.
func (m *Member) IsActive() bool {
	return m.Status == MemberActive
}

// IsStaff сообщает, относится ли учётная запись к персоналу.
func (m *Member) IsStaff() bool {
	return m.Role == RoleStaff || m.Role == RoleAdmin
}

// MemberFilter параметры выборки участников для админки.
type MemberFilter struct {
	Status string
	Limit  int
	Offset int
}

// SignUpRequest запрос на самостоятельную регистрацию.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AdminMemberRequest запрос на добавление участника администратором.
type AdminMemberRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=member staff admin"`
	PlanID   string `json:"plan_id,omitempty"`
}

// UpdateMemberRequest запрос на изменение данных участника.
type UpdateMemberRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Phone  string `json:"phone,omitempty" validate:"omitempty,max=32"`
	PlanID string `json:"plan_id,omitempty"`
}

// MemberStatusRequest запрос на смену статуса участника.
type MemberStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended"`
}

// LoginRequest запрос на вход в систему.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
