package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
)

// AvailabilityAPI вызовы backend, нужные для расчёта свободных слотов
type AvailabilityAPI interface {
	GetTeacherAvailability(ctx context.Context, teacherID string, date time.Time) (*model.Availability, error)
	ListSessions(ctx context.Context, filter apiclient.SessionFilter) ([]model.Session, error)
}

type AvailabilityService struct {
	api    AvailabilityAPI
	loc    *time.Location
	logger *zap.Logger
}

func NewAvailabilityService(api AvailabilityAPI, loc *time.Location, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		api:    api,
		loc:    loc,
		logger: logger,
	}
}

// WeeklyTemplate получает недельный шаблон доступности учителя
func (s *AvailabilityService) WeeklyTemplate(ctx context.Context, teacherID string) (*model.Availability, error) {
	availability, err := s.api.GetTeacherAvailability(ctx, teacherID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("get weekly template: %w", err)
	}
	return availability, nil
}

// DaySlots свободные слоты учителя на дату: шаблон дня минус занятые интервалы
func (s *AvailabilityService) DaySlots(ctx context.Context, teacherID string, date time.Time, template *model.Availability) ([]model.AvailableTimeSlot, error) {
	if template == nil {
		var err error
		template, err = s.WeeklyTemplate(ctx, teacherID)
		if err != nil {
			return nil, err
		}
	}

	slots := TemplateSlots(template, date)
	if len(slots) == 0 {
		return nil, nil
	}

	sessions, err := s.api.ListSessions(ctx, apiclient.SessionFilter{Teacher: teacherID, Date: date})
	if err != nil {
		return nil, fmt.Errorf("get existing sessions: %w", err)
	}

	free := FilterConflicts(slots, sessions, date, s.loc)

	s.logger.Debug("Computed day slots",
		zap.String("teacher_id", teacherID),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("template_slots", len(slots)),
		zap.Int("existing_sessions", len(sessions)),
		zap.Int("free_slots", len(free)),
	)

	return free, nil
}

// IsSlotFree проверяет что слот всё ещё свободен на дату
func (s *AvailabilityService) IsSlotFree(ctx context.Context, teacherID string, date time.Time, slot model.AvailableTimeSlot, template *model.Availability) (bool, error) {
	free, err := s.DaySlots(ctx, teacherID, date, template)
	if err != nil {
		return false, err
	}
	for _, f := range free {
		if f.Start == slot.Start && f.End == slot.End {
			return true, nil
		}
	}
	return false, nil
}

// CandidateDates даты в окне [from, from+days), на которые у учителя включена доступность
func (s *AvailabilityService) CandidateDates(template *model.Availability, from time.Time, days int) []time.Time {
	enabled := template.EnabledWeekdays()
	start := startOfDay(from, s.loc)

	var dates []time.Time
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		if enabled[date.Weekday()] {
			dates = append(dates, date)
		}
	}
	return dates
}

// TemplateSlots слоты шаблона на день недели даты (пусто, если день выключен)
func TemplateSlots(template *model.Availability, date time.Time) []model.AvailableTimeSlot {
	if template == nil {
		return nil
	}
	day, ok := template.Day(date)
	if !ok || !day.Enabled {
		return nil
	}

	slots := make([]model.AvailableTimeSlot, 0, len(day.TimeSlots))
	for _, r := range day.TimeSlots {
		slots = append(slots, model.NewAvailableTimeSlot(r))
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots
}

// FilterConflicts убирает слоты, пересекающиеся с существующими занятиями.
// Сравниваются моменты времени, а не строки HH:mm: совпадение границ - частный случай пересечения.
// Отменённые занятия не конфликтуют. Слоты с некорректным временем отбрасываются.
func FilterConflicts(slots []model.AvailableTimeSlot, sessions []model.Session, date time.Time, loc *time.Location) []model.AvailableTimeSlot {
	free := make([]model.AvailableTimeSlot, 0, len(slots))

	for _, slot := range slots {
		start, end, err := slot.Bounds(date, loc)
		if err != nil {
			continue
		}

		conflict := false
		for i := range sessions {
			if sessions[i].Status == model.SessionStatusCancelled {
				continue
			}
			if sessions[i].Overlaps(start, end) {
				conflict = true
				break
			}
		}

		if !conflict {
			free = append(free, slot)
		}
	}

	return free
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
