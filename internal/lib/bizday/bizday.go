// Package bizday задаёт единые "бизнес-сутки" коворкинга.
//
// Все вычисления "сегодня" (ваучеры, пятничные брони, отчёты) и часы
// "только для участников" выполняются в одном часовом поясе, а не в
// локальном поясе машины, на которой запущен сервис.
package bizday

import (
	"fmt"
	"time"
)

// DefaultTimezone канонический часовой пояс коворкинга.
const DefaultTimezone = "Asia/Manila"

const (
	membersOnlyFrom = 20
	membersOnlyTo   = 11
)

// Clock возвращает текущее время в бизнес-часовом поясе.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New создает Clock для указанного часового пояса.
// Пустое имя означает DefaultTimezone.
func New(timezone string) (*Clock, error) {
	const op = "bizday.New"
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid timezone %q: %w", op, timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// Fixed создает Clock с подменённым источником времени. Используется в тестах.
func Fixed(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

// Location возвращает часовой пояс часов.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now возвращает текущее время в бизнес-часовом поясе.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// StartOfDay возвращает полночь календарного дня, к которому относится t.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DayBounds возвращает полуинтервал [начало, конец) календарного дня t.
func (c *Clock) DayBounds(t time.Time) (time.Time, time.Time) {
	start := c.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// StartOfMonth возвращает начало календарного месяца, к которому относится t.
func (c *Clock) StartOfMonth(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
}

// Today возвращает начало текущих бизнес-суток.
func (c *Clock) Today() time.Time {
	return c.StartOfDay(c.Now())
}

// SameDay сообщает, попадают ли a и b в одни бизнес-сутки.
func (c *Clock) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// IsMembersOnly сообщает, действуют ли в момент t часы "только для участников":
// с 20:00 до 11:00 в любой день, кроме пятницы. Час и день недели берутся
// в часовом поясе самого t.
func IsMembersOnly(t time.Time) bool {
	hour := t.Hour()
	return (hour >= membersOnlyFrom || hour < membersOnlyTo) && t.Weekday() != time.Friday
}

// MembersOnlyNow то же, что IsMembersOnly, для текущего момента часов.
func (c *Clock) MembersOnlyNow() bool {
	return IsMembersOnly(c.Now())
}
