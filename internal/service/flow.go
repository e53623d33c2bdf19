package service

import (
	"sort"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/google/uuid"
)

// Step шаг процесса записи на курс
type Step string

const (
	StepCourseDetails Step = "course-details"
	StepTimeBooking   Step = "time-booking"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

// PlannedSession одно занятие, которое будет создано после оплаты
type PlannedSession struct {
	Week int
	Date time.Time
	Slot model.AvailableTimeSlot
}

// Flow состояние записи студента на курс.
// Переходы линейные: course-details -> time-booking -> payment -> confirmation,
// назад можно вернуться только на предыдущий шаг.
type Flow struct {
	ID           uuid.UUID
	TelegramID   int64
	StudentID    string
	StudentToken string
	Course       model.Course

	Step          Step
	Template      *model.Availability
	SelectedDates []time.Time
	SelectedSlots map[int]model.AvailableTimeSlot

	Intent       *model.PaymentIntent
	SeriesID     uuid.UUID
	PaymentError string

	Sessions  []model.Session
	UpdatedAt time.Time
}

// NewFlow создаёт процесс записи на шаге course-details
func NewFlow(telegramID int64, student *model.User, course model.Course, now time.Time) *Flow {
	return &Flow{
		ID:            uuid.New(),
		TelegramID:    telegramID,
		StudentID:     student.PlatformUserID,
		StudentToken:  student.APIToken,
		Course:        course,
		Step:          StepCourseDetails,
		SelectedSlots: make(map[int]model.AvailableTimeSlot),
		UpdatedAt:     now,
	}
}

// RequiredSessions количество дат, которые нужно выбрать
func (f *Flow) RequiredSessions() int {
	return f.Course.RequiredSessions()
}

func (f *Flow) touch(now time.Time) {
	f.UpdatedAt = now
}

// EnterTimeBooking переход course-details -> time-booking с недельным шаблоном учителя
func (f *Flow) EnterTimeBooking(template *model.Availability, now time.Time) error {
	if f.Step != StepCourseDetails {
		return ErrInvalidStep
	}
	f.Template = template
	f.Step = StepTimeBooking
	f.touch(now)
	return nil
}

// Back возвращает на предыдущий шаг. Из confirmation вернуться нельзя.
func (f *Flow) Back(now time.Time) error {
	switch f.Step {
	case StepTimeBooking:
		f.Step = StepCourseDetails
	case StepPayment:
		f.Step = StepTimeBooking
		f.Intent = nil
		f.SeriesID = uuid.Nil
		f.PaymentError = ""
	default:
		return ErrInvalidStep
	}
	f.touch(now)
	return nil
}

// HasDate проверяет выбрана ли дата
func (f *Flow) HasDate(date time.Time) bool {
	return f.dateIndex(date) >= 0
}

func (f *Flow) dateIndex(date time.Time) int {
	for i, d := range f.SelectedDates {
		if sameDay(d, date) {
			return i
		}
	}
	return -1
}

// AddDate добавляет дату (без слота). Возвращает индекс даты.
func (f *Flow) AddDate(date time.Time, now time.Time) (int, error) {
	if f.Step != StepTimeBooking {
		return 0, ErrInvalidStep
	}
	if len(f.SelectedDates) >= f.RequiredSessions() {
		return 0, ErrTooManyDates
	}
	if f.HasDate(date) {
		return 0, ErrDuplicateDate
	}
	if date.Before(startOfDay(now, date.Location())) {
		return 0, ErrDateInPast
	}
	if f.Template != nil && len(TemplateSlots(f.Template, date)) == 0 {
		return 0, ErrDateNotAvailable
	}

	f.SelectedDates = append(f.SelectedDates, date)
	f.touch(now)
	return len(f.SelectedDates) - 1, nil
}

// RemoveDate убирает дату и её слот, индексы следующих дат сдвигаются
func (f *Flow) RemoveDate(idx int, now time.Time) error {
	if f.Step != StepTimeBooking {
		return ErrInvalidStep
	}
	if idx < 0 || idx >= len(f.SelectedDates) {
		return ErrInvalidDateIndex
	}

	f.SelectedDates = append(f.SelectedDates[:idx], f.SelectedDates[idx+1:]...)

	slots := make(map[int]model.AvailableTimeSlot, len(f.SelectedSlots))
	for i, slot := range f.SelectedSlots {
		switch {
		case i < idx:
			slots[i] = slot
		case i > idx:
			slots[i-1] = slot
		}
	}
	f.SelectedSlots = slots
	f.touch(now)
	return nil
}

// SelectSlot выбирает слот для даты. Один слот на дату: повторный выбор заменяет прежний.
func (f *Flow) SelectSlot(idx int, slot model.AvailableTimeSlot, now time.Time) error {
	if f.Step != StepTimeBooking {
		return ErrInvalidStep
	}
	if idx < 0 || idx >= len(f.SelectedDates) {
		return ErrInvalidDateIndex
	}
	f.SelectedSlots[idx] = slot
	f.touch(now)
	return nil
}

// WeeklyDates даты base + 7*i для всех требуемых занятий
func (f *Flow) WeeklyDates(base time.Time) []time.Time {
	n := f.RequiredSessions()
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = base.AddDate(0, 0, 7*i)
	}
	return dates
}

// SetWeekly заменяет выбор на еженедельную серию с одним слотом
func (f *Flow) SetWeekly(dates []time.Time, slot model.AvailableTimeSlot, now time.Time) error {
	if f.Step != StepTimeBooking {
		return ErrInvalidStep
	}
	if len(dates) != f.RequiredSessions() {
		return ErrDatesIncomplete
	}

	f.SelectedDates = append([]time.Time(nil), dates...)
	f.SelectedSlots = make(map[int]model.AvailableTimeSlot, len(dates))
	for i := range dates {
		f.SelectedSlots[i] = slot
	}
	f.touch(now)
	return nil
}

// Complete true когда выбрано ровно N дат и у каждой есть слот
func (f *Flow) Complete() bool {
	if len(f.SelectedDates) != f.RequiredSessions() {
		return false
	}
	for i := range f.SelectedDates {
		if _, ok := f.SelectedSlots[i]; !ok {
			return false
		}
	}
	return true
}

// EnterPayment переход time-booking -> payment с созданным payment intent
func (f *Flow) EnterPayment(intent *model.PaymentIntent, seriesID uuid.UUID, now time.Time) error {
	if f.Step != StepTimeBooking {
		return ErrInvalidStep
	}
	if !f.Complete() {
		return ErrDatesIncomplete
	}
	f.Intent = intent
	f.SeriesID = seriesID
	f.PaymentError = ""
	f.Step = StepPayment
	f.touch(now)
	return nil
}

// RetryPayment заменяет intent после неудачной оплаты, оставаясь на шаге payment
func (f *Flow) RetryPayment(intent *model.PaymentIntent, seriesID uuid.UUID, now time.Time) error {
	if f.Step != StepPayment {
		return ErrInvalidStep
	}
	f.Intent = intent
	f.SeriesID = seriesID
	f.PaymentError = ""
	f.touch(now)
	return nil
}

// PaymentFailed сохраняет ошибку провайдера, шаг остаётся payment
func (f *Flow) PaymentFailed(message string, now time.Time) error {
	if f.Step != StepPayment {
		return ErrInvalidStep
	}
	if message == "" {
		message = "payment failed"
	}
	f.PaymentError = message
	f.touch(now)
	return nil
}

// Confirm финальный переход payment -> confirmation
func (f *Flow) Confirm(sessions []model.Session, now time.Time) error {
	if f.Step != StepPayment {
		return ErrInvalidStep
	}
	f.Sessions = sessions
	f.PaymentError = ""
	f.Step = StepConfirmation
	f.touch(now)
	return nil
}

// Plan занятия для создания, отсортированные по дате; Week - порядковый номер
func (f *Flow) Plan() []PlannedSession {
	plan := make([]PlannedSession, 0, len(f.SelectedDates))
	for i, date := range f.SelectedDates {
		slot, ok := f.SelectedSlots[i]
		if !ok {
			continue
		}
		plan = append(plan, PlannedSession{Date: date, Slot: slot})
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Date.Before(plan[j].Date) })
	for i := range plan {
		plan[i].Week = i
	}
	return plan
}

// Reset возвращает процесс в начальное состояние (закрытие окна записи)
func (f *Flow) Reset(now time.Time) {
	f.Step = StepCourseDetails
	f.Template = nil
	f.SelectedDates = nil
	f.SelectedSlots = make(map[int]model.AvailableTimeSlot)
	f.Intent = nil
	f.SeriesID = uuid.Nil
	f.PaymentError = ""
	f.Sessions = nil
	f.touch(now)
}

// Clone копия для чтения вне блокировки хранилища
func (f *Flow) Clone() *Flow {
	c := *f
	c.SelectedDates = append([]time.Time(nil), f.SelectedDates...)
	c.SelectedSlots = make(map[int]model.AvailableTimeSlot, len(f.SelectedSlots))
	for k, v := range f.SelectedSlots {
		c.SelectedSlots[k] = v
	}
	c.Sessions = append([]model.Session(nil), f.Sessions...)
	if f.Intent != nil {
		intent := *f.Intent
		c.Intent = &intent
	}
	return &c
}

// WeeklyPlan план еженедельной серии: base + i недель для i в [0, n)
func WeeklyPlan(base time.Time, slot model.AvailableTimeSlot, n int) []PlannedSession {
	plan := make([]PlannedSession, n)
	for i := 0; i < n; i++ {
		plan[i] = PlannedSession{Week: i, Date: base.AddDate(0, 0, 7*i), Slot: slot}
	}
	return plan
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
