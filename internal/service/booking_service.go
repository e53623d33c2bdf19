package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLatePayment оплата пришла для уже закрытого процесса записи
var ErrLatePayment = errors.New("payment received for a closed booking")

// CourseAPI вызовы backend по курсам, нужные процессу записи
type CourseAPI interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	EnrollInCourse(ctx context.Context, courseID, studentID string) error
}

// Notifier сообщает пользователю о событиях, пришедших не из чата (webhook оплаты)
type Notifier interface {
	PaymentFailed(ctx context.Context, flow *Flow)
	BookingConfirmed(ctx context.Context, flow *Flow)
	BookingFailed(ctx context.Context, telegramID int64, reason error)
}

type nopNotifier struct{}

func (nopNotifier) PaymentFailed(context.Context, *Flow)        {}
func (nopNotifier) BookingConfirmed(context.Context, *Flow)     {}
func (nopNotifier) BookingFailed(context.Context, int64, error) {}

// BookingService оркестратор записи на курс: выбор дат и слотов, оплата, создание занятий
type BookingService struct {
	courses      CourseAPI
	availability *AvailabilityService
	payments     *PaymentService
	materializer *Materializer
	series       SeriesRepository
	flows        *FlowStore
	metrics      Recorder
	notifier     Notifier
	now          func() time.Time
	logger       *zap.Logger
}

func NewBookingService(
	courses CourseAPI,
	availability *AvailabilityService,
	payments *PaymentService,
	materializer *Materializer,
	series SeriesRepository,
	flows *FlowStore,
	metrics Recorder,
	logger *zap.Logger,
) *BookingService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &BookingService{
		courses:      courses,
		availability: availability,
		payments:     payments,
		materializer: materializer,
		series:       series,
		flows:        flows,
		metrics:      metrics,
		notifier:     nopNotifier{},
		now:          time.Now,
		logger:       logger,
	}
}

// SetNotifier подключает отправку уведомлений (controller создаётся после сервисов)
func (s *BookingService) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// Flow текущий процесс записи пользователя
func (s *BookingService) Flow(telegramID int64) (*Flow, error) {
	flow, ok := s.flows.Get(telegramID)
	if !ok {
		return nil, ErrNoActiveBooking
	}
	return flow, nil
}

// CheckoutURL ссылка на оплату текущего intent процесса, пусто вне шага оплаты
func (s *BookingService) CheckoutURL(flow *Flow) string {
	if flow == nil || flow.Step != StepPayment || flow.Intent == nil {
		return ""
	}
	return s.payments.CheckoutURL(flow.Intent)
}

// Currency валюта оплаты курсов
func (s *BookingService) Currency() string {
	return s.payments.Currency()
}

// Start открывает процесс записи на курс (шаг course-details)
func (s *BookingService) Start(ctx context.Context, student *model.User, courseID string) (*Flow, error) {
	if !student.IsLinked() {
		return nil, ErrNotLinked
	}

	course, err := s.courses.GetCourse(apiclient.WithToken(ctx, student.APIToken), courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course.Status != "" && course.Status != model.CourseStatusPublished {
		return nil, ErrCourseUnavailable
	}

	flow := NewFlow(student.TelegramID, student, *course, s.now())
	s.flows.Put(flow)
	s.metrics.BookingStep(string(StepCourseDetails))

	s.logger.Info("Booking flow started",
		zap.Int64("telegram_id", student.TelegramID),
		zap.String("course_id", course.ID),
		zap.Int("required_sessions", course.RequiredSessions()),
	)

	return flow.Clone(), nil
}

// OpenTimeBooking переход к выбору дат: загружает недельный шаблон учителя
func (s *BookingService) OpenTimeBooking(ctx context.Context, telegramID int64) (*Flow, error) {
	current, err := s.Flow(telegramID)
	if err != nil {
		return nil, err
	}
	if current.Step != StepCourseDetails {
		return nil, ErrInvalidStep
	}

	template, err := s.availability.WeeklyTemplate(s.tokenCtx(ctx, current), current.Course.Instructor)
	if err != nil {
		return nil, err
	}

	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		return f.EnterTimeBooking(template, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingStep(string(StepTimeBooking))
	return flow, nil
}

// CandidateDates ближайшие даты, в которые учитель принимает записи
func (s *BookingService) CandidateDates(telegramID int64, days int) ([]time.Time, error) {
	flow, err := s.Flow(telegramID)
	if err != nil {
		return nil, err
	}
	if flow.Step != StepTimeBooking || flow.Template == nil {
		return nil, ErrInvalidStep
	}
	return s.availability.CandidateDates(flow.Template, s.now(), days), nil
}

// SlotsForDate свободные слоты на дату с учётом уже существующих занятий учителя
func (s *BookingService) SlotsForDate(ctx context.Context, telegramID int64, date time.Time) ([]model.AvailableTimeSlot, error) {
	flow, err := s.Flow(telegramID)
	if err != nil {
		return nil, err
	}
	if flow.Step != StepTimeBooking {
		return nil, ErrInvalidStep
	}
	return s.availability.DaySlots(s.tokenCtx(ctx, flow), flow.Course.Instructor, date, flow.Template)
}

// AddDate добавляет дату в выбор, возвращает её индекс
func (s *BookingService) AddDate(telegramID int64, date time.Time) (*Flow, int, error) {
	var idx int
	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		var err error
		idx, err = f.AddDate(date, s.now())
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return flow, idx, nil
}

// RemoveDate убирает дату и её слот из выбора
func (s *BookingService) RemoveDate(telegramID int64, idx int) (*Flow, error) {
	return s.flows.Update(telegramID, func(f *Flow) error {
		return f.RemoveDate(idx, s.now())
	})
}

// SelectSlot выбирает слот для даты, проверяя что он всё ещё свободен
func (s *BookingService) SelectSlot(ctx context.Context, telegramID int64, idx int, start string) (*Flow, error) {
	current, err := s.Flow(telegramID)
	if err != nil {
		return nil, err
	}
	if current.Step != StepTimeBooking {
		return nil, ErrInvalidStep
	}
	if idx < 0 || idx >= len(current.SelectedDates) {
		return nil, ErrInvalidDateIndex
	}
	date := current.SelectedDates[idx]

	free, err := s.availability.DaySlots(s.tokenCtx(ctx, current), current.Course.Instructor, date, current.Template)
	if err != nil {
		return nil, err
	}

	var slot *model.AvailableTimeSlot
	for i := range free {
		if free[i].Start == start {
			slot = &free[i]
			break
		}
	}
	if slot == nil {
		return nil, ErrSlotUnavailable
	}

	return s.flows.Update(telegramID, func(f *Flow) error {
		// Пока шёл запрос, дату могли убрать
		if idx >= len(f.SelectedDates) || !sameDay(f.SelectedDates[idx], date) {
			return ErrInvalidDateIndex
		}
		return f.SelectSlot(idx, *slot, s.now())
	})
}

// RepeatWeekly заполняет выбор датами base + 7*i с тем же слотом.
// Каждая неделя проверяется на конфликты отдельно.
func (s *BookingService) RepeatWeekly(ctx context.Context, telegramID int64, idx int) (*Flow, error) {
	current, err := s.Flow(telegramID)
	if err != nil {
		return nil, err
	}
	if current.Step != StepTimeBooking {
		return nil, ErrInvalidStep
	}
	if idx < 0 || idx >= len(current.SelectedDates) {
		return nil, ErrInvalidDateIndex
	}
	slot, ok := current.SelectedSlots[idx]
	if !ok {
		return nil, ErrSlotUnavailable
	}

	dates := current.WeeklyDates(current.SelectedDates[idx])
	tokenCtx := s.tokenCtx(ctx, current)
	for _, date := range dates {
		free, err := s.availability.IsSlotFree(tokenCtx, current.Course.Instructor, date, slot, current.Template)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, date.Format("2006-01-02"), slot.Formatted)
		}
	}

	return s.flows.Update(telegramID, func(f *Flow) error {
		return f.SetWeekly(dates, slot, s.now())
	})
}

// Back возврат на предыдущий шаг. Незавершённая оплата при этом бросается.
func (s *BookingService) Back(ctx context.Context, telegramID int64) (*Flow, error) {
	var abandoned uuid.UUID
	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		if f.Step == StepPayment {
			abandoned = f.SeriesID
		}
		return f.Back(s.now())
	})
	if err != nil {
		return nil, err
	}

	s.abandonSeries(ctx, abandoned)
	return flow, nil
}

// ProceedToPayment создаёт payment intent и журнал серии, возвращает ссылку на оплату.
// Повторный вызов на шаге оплаты (после неудачи) создаёт новый intent.
func (s *BookingService) ProceedToPayment(ctx context.Context, telegramID int64) (*Flow, string, error) {
	current, err := s.Flow(telegramID)
	if err != nil {
		return nil, "", err
	}
	if current.Step != StepTimeBooking && current.Step != StepPayment {
		return nil, "", ErrInvalidStep
	}
	if !current.Complete() {
		return nil, "", ErrDatesIncomplete
	}

	tokenCtx := s.tokenCtx(ctx, current)

	// Слоты могли занять, пока студент выбирал остальные даты
	for _, p := range current.Plan() {
		free, err := s.availability.IsSlotFree(tokenCtx, current.Course.Instructor, p.Date, p.Slot, current.Template)
		if err != nil {
			return nil, "", err
		}
		if !free {
			return nil, "", fmt.Errorf("%w: %s %s", ErrSlotUnavailable, p.Date.Format("2006-01-02"), p.Slot.Formatted)
		}
	}

	seriesID := uuid.New()
	intent, err := s.payments.CreateIntent(tokenCtx, current, seriesID)
	if err != nil {
		return nil, "", fmt.Errorf("create payment intent: %w", err)
	}

	series := &model.BookingSeries{
		ID:              seriesID,
		TelegramID:      telegramID,
		StudentID:       current.StudentID,
		CourseID:        current.Course.ID,
		TeacherID:       current.Course.Instructor,
		PaymentIntentID: intent.ID,
		Status:          model.SeriesStatusPending,
	}
	if err := s.series.CreateSeries(ctx, series); err != nil {
		return nil, "", fmt.Errorf("create booking series: %w", err)
	}

	var previous uuid.UUID
	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		if f.Step == StepPayment {
			previous = f.SeriesID
			return f.RetryPayment(intent, seriesID, s.now())
		}
		return f.EnterPayment(intent, seriesID, s.now())
	})
	if err != nil {
		s.abandonSeries(ctx, seriesID)
		return nil, "", err
	}

	s.abandonSeries(ctx, previous)
	s.flows.BindIntent(intent.ID, telegramID)
	s.metrics.BookingStep(string(StepPayment))

	return flow, s.payments.CheckoutURL(intent), nil
}

// HandlePaymentResult обрабатывает результат оплаты из webhook.
// Повторная доставка для уже подтверждённой записи подтверждается без действий.
func (s *BookingService) HandlePaymentResult(ctx context.Context, result model.PaymentResult) error {
	series, err := s.series.GetByPaymentIntent(ctx, result.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("get booking series: %w", err)
	}
	if series == nil {
		return ErrUnknownPayment
	}

	if series.Status == model.SeriesStatusAbandoned {
		return s.handleOrphanPayment(ctx, series, result)
	}
	if series.Status != model.SeriesStatusPending {
		s.logger.Info("Payment result for processed series ignored",
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.String("series_status", string(series.Status)),
			zap.String("result", string(result.Status)),
		)
		return nil
	}

	telegramID, ok := s.flows.ByIntent(result.PaymentIntentID)
	if !ok {
		return s.handleOrphanPayment(ctx, series, result)
	}

	// Вызов webhook может оборваться, занятия должны создаться до конца
	ctx = context.WithoutCancel(ctx)

	var (
		notifyFailed    bool
		notifyConfirmed bool
		duplicate       bool
		failure         error
	)

	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		// Параллельная доставка того же события уже подтвердила запись
		if f.Step == StepConfirmation && f.Intent != nil && f.Intent.ID == result.PaymentIntentID {
			duplicate = true
			return nil
		}
		if f.Step != StepPayment || f.Intent == nil || f.Intent.ID != result.PaymentIntentID {
			return ErrLatePayment
		}

		if !result.Succeeded() {
			s.metrics.Payment(false)
			notifyFailed = true
			return f.PaymentFailed(result.ErrorMessage(), s.now())
		}

		s.metrics.Payment(true)
		tokenCtx := apiclient.WithToken(ctx, f.StudentToken)

		sessions, err := s.materializer.Materialize(tokenCtx, series, f.Plan())
		if err != nil {
			failure = err
			f.Reset(s.now())
			return nil
		}

		if err := s.courses.EnrollInCourse(tokenCtx, f.Course.ID, f.StudentID); err != nil {
			s.logger.Warn("Failed to enroll student in course",
				zap.String("course_id", f.Course.ID),
				zap.String("student_id", f.StudentID),
				zap.Error(err),
			)
		}
		if err := s.payments.AttachSessions(tokenCtx, result.PaymentIntentID, sessions); err != nil {
			s.logger.Warn("Failed to attach sessions to payment intent",
				zap.String("payment_intent_id", result.PaymentIntentID),
				zap.Error(err),
			)
		}

		notifyConfirmed = true
		return f.Confirm(sessions, s.now())
	})

	switch {
	case errors.Is(err, ErrLatePayment), errors.Is(err, ErrNoActiveBooking):
		return s.handleOrphanPayment(ctx, series, result)
	case err != nil:
		return err
	}

	switch {
	case duplicate:
		s.logger.Info("Duplicate payment result ignored",
			zap.Int64("telegram_id", telegramID),
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.String("result", string(result.Status)),
		)
	case failure != nil:
		s.logger.Error("Booking failed after payment",
			zap.Int64("telegram_id", telegramID),
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.Error(failure),
		)
		s.flows.Delete(telegramID)
		s.notifier.BookingFailed(ctx, telegramID, failure)
	case notifyFailed:
		s.logger.Info("Payment failed",
			zap.Int64("telegram_id", telegramID),
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.String("message", flow.PaymentError),
		)
		s.notifier.PaymentFailed(ctx, flow)
	case notifyConfirmed:
		s.metrics.BookingStep(string(StepConfirmation))
		s.logger.Info("Booking confirmed",
			zap.Int64("telegram_id", telegramID),
			zap.String("course_id", flow.Course.ID),
			zap.Int("sessions", len(flow.Sessions)),
		)
		s.notifier.BookingConfirmed(ctx, flow)
	}

	return nil
}

// handleOrphanPayment оплата для процесса, который уже закрыт или заменён
func (s *BookingService) handleOrphanPayment(ctx context.Context, series *model.BookingSeries, result model.PaymentResult) error {
	open, err := s.series.AbandonIfOpen(ctx, series.ID)
	if err != nil {
		return fmt.Errorf("abandon booking series: %w", err)
	}
	if !open {
		// Статус успел смениться: оплату уже обработал другой вызов
		s.logger.Info("Payment result for processed series ignored",
			zap.String("payment_intent_id", result.PaymentIntentID),
			zap.String("series_id", series.ID.String()),
			zap.String("result", string(result.Status)),
		)
		return nil
	}

	if !result.Succeeded() {
		return nil
	}

	s.metrics.Payment(true)
	s.logger.Warn("Payment succeeded for a closed booking",
		zap.Int64("telegram_id", series.TelegramID),
		zap.String("payment_intent_id", result.PaymentIntentID),
		zap.String("series_id", series.ID.String()),
	)
	s.notifier.BookingFailed(ctx, series.TelegramID, ErrLatePayment)
	return nil
}

// Close закрывает окно записи: выбор и шаг сбрасываются, процесс удаляется
func (s *BookingService) Close(ctx context.Context, telegramID int64) (*Flow, error) {
	var abandoned uuid.UUID
	flow, err := s.flows.Update(telegramID, func(f *Flow) error {
		if f.Step == StepPayment {
			abandoned = f.SeriesID
		}
		f.Reset(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flows.Delete(telegramID)
	s.abandonSeries(ctx, abandoned)
	return flow, nil
}

// ExpireIdle удаляет процессы без активности, возвращает их количество
func (s *BookingService) ExpireIdle(ctx context.Context, ttl time.Duration) int {
	expired := s.flows.Expire(s.now(), ttl, pendingPaymentTTL(ttl))
	for _, flow := range expired {
		if flow.Step == StepPayment {
			s.abandonSeries(ctx, flow.SeriesID)
		}
	}

	if len(expired) > 0 {
		s.logger.Info("Expired idle booking flows", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// CompensatePending повторяет незавершённые откаты серий
func (s *BookingService) CompensatePending(ctx context.Context) (int, error) {
	return s.materializer.RetryCompensations(ctx)
}

// pendingPaymentTTL процесс, ждущий webhook оплаты, живёт дольше обычного
func pendingPaymentTTL(ttl time.Duration) time.Duration {
	return 4 * ttl
}

func (s *BookingService) abandonSeries(ctx context.Context, id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	open, err := s.series.AbandonIfOpen(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to abandon booking series",
			zap.String("series_id", id.String()),
			zap.Error(err),
		)
		return
	}
	if !open {
		s.logger.Info("Booking series already paid, not abandoned",
			zap.String("series_id", id.String()),
		)
	}
}

func (s *BookingService) tokenCtx(ctx context.Context, flow *Flow) context.Context {
	return apiclient.WithToken(ctx, flow.StudentToken)
}
