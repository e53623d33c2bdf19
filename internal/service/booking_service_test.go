package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type bookingHarness struct {
	api      *fakeAPI
	repo     *fakeSeriesRepo
	store    *FlowStore
	notifier *recordingNotifier
	svc      *BookingService
	student  *model.User
}

func newBookingHarness(t *testing.T) *bookingHarness {
	t.Helper()

	api := newFakeAPI()
	repo := newFakeSeriesRepo()
	logger := zap.NewNop()

	availability := NewAvailabilityService(api, time.UTC, logger)
	payments := NewPaymentService(api, "eur", "https://pay.example.com/checkout?secret={client_secret}", logger)
	materializer := NewMaterializer(api, repo, time.UTC, nil, logger)
	store := NewFlowStore()

	svc := NewBookingService(api, availability, payments, materializer, repo, store, nil, logger)
	svc.now = func() time.Time { return testNow }

	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	return &bookingHarness{
		api:      api,
		repo:     repo,
		store:    store,
		notifier: notifier,
		svc:      svc,
		student:  testStudent(),
	}
}

// toPayment проводит процесс до шага оплаты: три понедельника подряд в 09:00
func (h *bookingHarness) toPayment(t *testing.T) (*Flow, string) {
	t.Helper()
	ctx := context.Background()
	id := h.student.TelegramID

	_, err := h.svc.Start(ctx, h.student, "go-101")
	require.NoError(t, err)
	_, err = h.svc.OpenTimeBooking(ctx, id)
	require.NoError(t, err)
	_, _, err = h.svc.AddDate(id, monday)
	require.NoError(t, err)
	_, err = h.svc.SelectSlot(ctx, id, 0, "09:00")
	require.NoError(t, err)
	_, err = h.svc.RepeatWeekly(ctx, id, 0)
	require.NoError(t, err)

	flow, checkout, err := h.svc.ProceedToPayment(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StepPayment, flow.Step)
	return flow, checkout
}

func succeeded(intentID string) model.PaymentResult {
	return model.PaymentResult{PaymentIntentID: intentID, Status: model.PaymentStatusSucceeded}
}

func failed(intentID, message string) model.PaymentResult {
	r := model.PaymentResult{PaymentIntentID: intentID, Status: model.PaymentStatusFailed}
	r.Error = &struct {
		Message string `json:"message"`
	}{Message: message}
	return r
}

func TestBooking_StartChecks(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()

	_, err := h.svc.Start(ctx, &model.User{TelegramID: 5}, "go-101")
	assert.ErrorIs(t, err, ErrNotLinked)

	_, err = h.svc.Start(ctx, h.student, "draft")
	assert.ErrorIs(t, err, ErrCourseUnavailable)

	flow, err := h.svc.Start(ctx, h.student, "go-101")
	require.NoError(t, err)
	assert.Equal(t, StepCourseDetails, flow.Step)
	assert.Equal(t, 3, flow.RequiredSessions())
}

func TestBooking_ProceedRequiresCompleteSelection(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()
	id := h.student.TelegramID

	_, err := h.svc.Start(ctx, h.student, "go-101")
	require.NoError(t, err)
	_, err = h.svc.OpenTimeBooking(ctx, id)
	require.NoError(t, err)
	_, _, err = h.svc.AddDate(id, monday)
	require.NoError(t, err)
	_, err = h.svc.SelectSlot(ctx, id, 0, "09:00")
	require.NoError(t, err)

	_, _, err = h.svc.ProceedToPayment(ctx, id)
	assert.ErrorIs(t, err, ErrDatesIncomplete)
	assert.Empty(t, h.api.intents)

	flow, err := h.svc.Flow(id)
	require.NoError(t, err)
	assert.Equal(t, StepTimeBooking, flow.Step)
}

func TestBooking_SelectSlotRejectsTakenSlot(t *testing.T) {
	h := newBookingHarness(t)
	h.api.sessions = []model.Session{sessionAt(monday, "09:30", "10:30", model.SessionStatusScheduled)}
	ctx := context.Background()
	id := h.student.TelegramID

	_, err := h.svc.Start(ctx, h.student, "go-101")
	require.NoError(t, err)
	_, err = h.svc.OpenTimeBooking(ctx, id)
	require.NoError(t, err)
	_, _, err = h.svc.AddDate(id, monday)
	require.NoError(t, err)

	slots, err := h.svc.SlotsForDate(ctx, id, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, starts(slots))

	_, err = h.svc.SelectSlot(ctx, id, 0, "09:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = h.svc.SelectSlot(ctx, id, 0, "14:00")
	assert.NoError(t, err)
}

func TestBooking_RepeatWeeklyValidatesEveryWeek(t *testing.T) {
	h := newBookingHarness(t)
	h.api.sessions = []model.Session{sessionAt(monday.AddDate(0, 0, 14), "09:00", "10:00", model.SessionStatusScheduled)}
	ctx := context.Background()
	id := h.student.TelegramID

	_, err := h.svc.Start(ctx, h.student, "go-101")
	require.NoError(t, err)
	_, err = h.svc.OpenTimeBooking(ctx, id)
	require.NoError(t, err)
	_, _, err = h.svc.AddDate(id, monday)
	require.NoError(t, err)
	_, err = h.svc.SelectSlot(ctx, id, 0, "09:00")
	require.NoError(t, err)

	_, err = h.svc.RepeatWeekly(ctx, id, 0)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	flow, err := h.svc.Flow(id)
	require.NoError(t, err)
	assert.Len(t, flow.SelectedDates, 1)

	_, err = h.svc.SelectSlot(ctx, id, 0, "14:00")
	require.NoError(t, err)
	flow, err = h.svc.RepeatWeekly(ctx, id, 0)
	require.NoError(t, err)
	assert.True(t, flow.Complete())
}

func TestBooking_PaymentIntent(t *testing.T) {
	h := newBookingHarness(t)
	flow, checkout := h.toPayment(t)

	require.Len(t, h.api.intents, 1)
	req := h.api.intents[0]
	assert.EqualValues(t, 4500, req.Amount)
	assert.Equal(t, "eur", req.Currency)
	assert.Equal(t, "go-101", req.Metadata["courseId"])
	assert.Equal(t, "t1", req.Metadata["teacherId"])
	assert.Equal(t, "stu1", req.Metadata["studentId"])
	assert.Equal(t, flow.SeriesID.String(), req.Metadata["seriesId"])
	assert.Equal(t, "2026-10-19 09:00,2026-10-26 09:00,2026-11-02 09:00", req.Metadata["dates"])

	assert.Equal(t, "https://pay.example.com/checkout?secret="+url.QueryEscape("pi_1_secret"), checkout)
	assert.Equal(t, model.SeriesStatusPending, h.repo.status(flow.SeriesID))
}

func TestBooking_PaymentSuccessMaterializesWeeklySessions(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	err := h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID))
	require.NoError(t, err)

	require.Len(t, h.api.created, 3)
	require.Len(t, h.api.enrolled, 3)
	first := h.api.created[0]
	for i, req := range h.api.created {
		assert.Equal(t, first.StartTime.AddDate(0, 0, 7*i), req.StartTime)
		assert.Equal(t, first.EndTime.AddDate(0, 0, 7*i), req.EndTime)
		assert.Equal(t, "go-101", req.Course)
		assert.Equal(t, "t1", req.Teacher)
		assert.Equal(t, model.SessionStatusScheduled, req.Status)
	}
	assert.Equal(t, time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC), first.StartTime)
	assert.Equal(t, []string{"s1", "s2", "s3"}, h.api.enrolled)
	assert.Equal(t, []string{"go-101:stu1"}, h.api.courseEnrolls)

	require.Len(t, h.api.metadata, 1)
	assert.Equal(t, "s1,s2,s3", h.api.metadata[0].Metadata["sessionIds"])

	got, err := h.svc.Flow(h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, got.Step)
	assert.Len(t, got.Sessions, 3)
	assert.Equal(t, model.SeriesStatusMaterialized, h.repo.status(flow.SeriesID))
	require.Len(t, h.notifier.confirmed, 1)

	// Повторная доставка webhook ничего не создаёт
	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	assert.Len(t, h.api.created, 3)
	assert.Len(t, h.notifier.confirmed, 1)
}

func TestBooking_ConcurrentDuplicatePaymentConfirmsOnce(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	// Обе доставки читают серию ещё в статусе pending
	var reads sync.WaitGroup
	reads.Add(2)
	h.repo.afterRead = func() {
		reads.Done()
		reads.Wait()
	}

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			return h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID))
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 3, h.api.createdCount())
	assert.Equal(t, model.SeriesStatusMaterialized, h.repo.status(flow.SeriesID))
	assert.Len(t, h.notifier.confirmed, 1)
	assert.Empty(t, h.notifier.errors)

	got, err := h.svc.Flow(h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, got.Step)
}

func TestBooking_OrphanPaymentKeepsPaidSeries(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	stale, err := h.repo.GetByPaymentIntent(context.Background(), flow.Intent.ID)
	require.NoError(t, err)
	require.Equal(t, model.SeriesStatusPending, stale.Status)

	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	require.Equal(t, model.SeriesStatusMaterialized, h.repo.status(flow.SeriesID))

	// Процесс закрыт после подтверждения, а результат пришёл со старым статусом
	_, err = h.svc.Close(context.Background(), h.student.TelegramID)
	require.NoError(t, err)
	require.NoError(t, h.svc.handleOrphanPayment(context.Background(), stale, succeeded(flow.Intent.ID)))

	assert.Equal(t, model.SeriesStatusMaterialized, h.repo.status(flow.SeriesID))
	assert.Empty(t, h.notifier.errors)
	assert.Equal(t, 3, h.api.createdCount())
}

func TestBooking_PaymentFailureKeepsPaymentStep(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	err := h.svc.HandlePaymentResult(context.Background(), failed(flow.Intent.ID, "Your card was declined."))
	require.NoError(t, err)

	assert.Zero(t, h.api.createdCount())
	got, err := h.svc.Flow(h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, got.Step)
	assert.Equal(t, "Your card was declined.", got.PaymentError)
	require.Len(t, h.notifier.failed, 1)
	assert.Equal(t, model.SeriesStatusPending, h.repo.status(flow.SeriesID))

	// Повторная попытка на той же странице оплаты
	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	assert.Equal(t, 3, h.api.createdCount())
}

func TestBooking_RetryCreatesNewIntent(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)
	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), failed(flow.Intent.ID, "declined")))

	retried, checkout, err := h.svc.ProceedToPayment(context.Background(), h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, "pi_2", retried.Intent.ID)
	assert.Empty(t, retried.PaymentError)
	assert.Contains(t, checkout, "pi_2_secret")
	assert.Equal(t, model.SeriesStatusAbandoned, h.repo.status(flow.SeriesID))

	// Успех по старому intent уже не создаёт занятия
	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	assert.Zero(t, h.api.createdCount())
	assert.Len(t, h.notifier.errors, 1)
}

func TestBooking_MidLoopFailureCompensates(t *testing.T) {
	h := newBookingHarness(t)
	h.api.failCreateAt = 3
	flow, _ := h.toPayment(t)

	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))

	assert.Equal(t, 3, h.api.createdCount())
	assert.Equal(t, []string{"s1", "s2"}, h.api.deleted)
	assert.Equal(t, model.SeriesStatusCompensated, h.repo.status(flow.SeriesID))
	assert.Empty(t, h.api.courseEnrolls)

	require.Len(t, h.notifier.errors, 1)
	var merr *MaterializeError
	require.True(t, errors.As(h.notifier.errors[0], &merr))
	assert.Equal(t, 2, merr.Week)
	assert.True(t, merr.Compensated)

	_, err := h.svc.Flow(h.student.TelegramID)
	assert.ErrorIs(t, err, ErrNoActiveBooking)
}

func TestBooking_UnknownIntent(t *testing.T) {
	h := newBookingHarness(t)
	err := h.svc.HandlePaymentResult(context.Background(), succeeded("pi_unknown"))
	assert.ErrorIs(t, err, ErrUnknownPayment)
}

func TestBooking_CloseResetsAndLatePaymentIsReported(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	closed, err := h.svc.Close(context.Background(), h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, StepCourseDetails, closed.Step)
	assert.Empty(t, closed.SelectedDates)
	assert.Empty(t, closed.SelectedSlots)

	_, err = h.svc.Flow(h.student.TelegramID)
	assert.ErrorIs(t, err, ErrNoActiveBooking)
	assert.Equal(t, model.SeriesStatusAbandoned, h.repo.status(flow.SeriesID))

	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	assert.Zero(t, h.api.createdCount())
	require.Len(t, h.notifier.errors, 1)
	assert.ErrorIs(t, h.notifier.errors[0], ErrLatePayment)
}

func TestBooking_LatePaymentForOpenSeriesNotifiesSupport(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	// Процесс пропал (например, рестарт бота), серия ещё pending
	h.store.Delete(h.student.TelegramID)

	require.NoError(t, h.svc.HandlePaymentResult(context.Background(), succeeded(flow.Intent.ID)))
	assert.Zero(t, h.api.createdCount())
	require.Len(t, h.notifier.errors, 1)
	assert.ErrorIs(t, h.notifier.errors[0], ErrLatePayment)
	assert.Equal(t, model.SeriesStatusAbandoned, h.repo.status(flow.SeriesID))
}

func TestBooking_BackFromPaymentAbandonsIntent(t *testing.T) {
	h := newBookingHarness(t)
	flow, _ := h.toPayment(t)

	back, err := h.svc.Back(context.Background(), h.student.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, StepTimeBooking, back.Step)
	assert.True(t, back.Complete())
	assert.Equal(t, model.SeriesStatusAbandoned, h.repo.status(flow.SeriesID))
}

func TestBooking_ExpireIdle(t *testing.T) {
	h := newBookingHarness(t)
	ctx := context.Background()

	flow, _ := h.toPayment(t)

	other := &model.User{ID: 3, TelegramID: 3003, PlatformUserID: "stu2", Role: model.RoleStudent}
	_, err := h.svc.Start(ctx, other, "go-101")
	require.NoError(t, err)

	h.svc.now = func() time.Time { return testNow.Add(3 * time.Hour) }
	assert.Equal(t, 1, h.svc.ExpireIdle(ctx, 2*time.Hour))
	_, err = h.svc.Flow(other.TelegramID)
	assert.ErrorIs(t, err, ErrNoActiveBooking)

	// Ожидающий оплаты процесс живёт дольше
	_, err = h.svc.Flow(h.student.TelegramID)
	require.NoError(t, err)

	h.svc.now = func() time.Time { return testNow.Add(9 * time.Hour) }
	assert.Equal(t, 1, h.svc.ExpireIdle(ctx, 2*time.Hour))
	assert.Equal(t, model.SeriesStatusAbandoned, h.repo.status(flow.SeriesID))
}
