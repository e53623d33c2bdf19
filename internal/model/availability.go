package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange диапазон времени в формате HH:mm
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TeacherAvailability недельный шаблон доступности учителя на один день
type TeacherAvailability struct {
	Day       string      `json:"day"` // monday ... sunday
	Enabled   bool        `json:"enabled"`
	TimeSlots []TimeRange `json:"timeSlots"`
}

// AvailableTimeSlot вычисляется на каждый запрос, клиент его не хранит
type AvailableTimeSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Formatted string `json:"formatted"`
}

// Availability ответ GET /api/teachers/:id/availability
type Availability struct {
	Availability   []TeacherAvailability `json:"availability"`
	AvailableSlots []AvailableTimeSlot   `json:"availableSlots,omitempty"`
}

// WeekdayKey ключ дня недели в шаблоне доступности
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Day возвращает шаблон на день недели даты
func (a *Availability) Day(date time.Time) (TeacherAvailability, bool) {
	key := WeekdayKey(date.Weekday())
	for _, day := range a.Availability {
		if strings.EqualFold(day.Day, key) {
			return day, true
		}
	}
	return TeacherAvailability{}, false
}

// EnabledWeekdays дни недели, на которые учитель принимает записи
func (a *Availability) EnabledWeekdays() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day, ok := a.Day(dateForWeekday(wd))
		if ok && day.Enabled && len(day.TimeSlots) > 0 {
			days[wd] = true
		}
	}
	return days
}

// dateForWeekday любая дата с заданным днём недели (4 января 1970 - воскресенье)
func dateForWeekday(wd time.Weekday) time.Time {
	return time.Date(1970, time.January, 4+int(wd), 0, 0, 0, 0, time.UTC)
}

// NewAvailableTimeSlot собирает слот из диапазона шаблона
func NewAvailableTimeSlot(r TimeRange) AvailableTimeSlot {
	return AvailableTimeSlot{
		Start:     r.Start,
		End:       r.End,
		Formatted: fmt.Sprintf("%s - %s", r.Start, r.End),
	}
}

// Bounds переводит HH:mm слота в моменты времени на указанную дату
func (s AvailableTimeSlot) Bounds(date time.Time, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ClockOn(date, s.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ClockOn(date, s.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("slot %s ends before it starts", s.Formatted)
	}
	return start, end, nil
}

// ClockOn переводит "HH:mm" в момент времени в день date в часовом поясе loc
func ClockOn(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}
