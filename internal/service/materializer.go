package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// SessionAPI вызовы backend для создания и отката занятий
type SessionAPI interface {
	CreateSession(ctx context.Context, req apiclient.CreateSessionRequest) (*model.Session, error)
	EnrollInSession(ctx context.Context, id, studentID string) error
	DeleteSession(ctx context.Context, id string) error
}

// SeriesRepository журнал серий занятий
type SeriesRepository interface {
	CreateSeries(ctx context.Context, series *model.BookingSeries) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.BookingSeries, error)
	GetByStatus(ctx context.Context, status model.SeriesStatus) ([]*model.BookingSeries, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SeriesStatus) error
	AbandonIfOpen(ctx context.Context, id uuid.UUID) (bool, error)
	AddSession(ctx context.Context, s *model.SeriesSession) error
	MarkEnrolled(ctx context.Context, seriesID uuid.UUID, week int) error
	MarkDeleted(ctx context.Context, seriesID uuid.UUID, week int) error
}

// Recorder метрики процесса записи
type Recorder interface {
	BookingStep(step string)
	Payment(succeeded bool)
	SessionCreated()
	Compensation(complete bool)
}

type nopRecorder struct{}

func (nopRecorder) BookingStep(string) {}
func (nopRecorder) Payment(bool)       {}
func (nopRecorder) SessionCreated()    {}
func (nopRecorder) Compensation(bool)  {}

// MaterializeError сбой на неделе Week; Compensated - удалены ли уже созданные занятия
type MaterializeError struct {
	Week        int
	Compensated bool
	Err         error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize week %d: %v", e.Week, e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// stalePaidAfter: серия в paid дольше этого срока считается прерванной (рестарт посреди создания занятий)
const (
	stalePaidAfter      = 15 * time.Minute
	materializedRetries = 3
)

// Materializer создаёт занятия серии строго последовательно и откатывает их при частичном сбое
type Materializer struct {
	api     SessionAPI
	series  SeriesRepository
	loc     *time.Location
	metrics Recorder
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	staleAfter time.Duration
	now        func() time.Time
}

func NewMaterializer(api SessionAPI, series SeriesRepository, loc *time.Location, metrics Recorder, logger *zap.Logger) *Materializer {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Materializer{
		api:     api,
		series:  series,
		loc:     loc,
		metrics: metrics,
		logger:  logger,

		inFlight:   make(map[uuid.UUID]struct{}),
		staleAfter: stalePaidAfter,
		now:        time.Now,
	}
}

// Materialize создаёт и записывает студента на каждое занятие плана.
// При ошибке на неделе k удаляет занятия 0..k-1 и возвращает *MaterializeError.
func (m *Materializer) Materialize(ctx context.Context, series *model.BookingSeries, plan []PlannedSession) ([]model.Session, error) {
	m.track(series.ID)
	defer m.untrack(series.ID)

	if err := m.series.UpdateStatus(ctx, series.ID, model.SeriesStatusPaid); err != nil {
		return nil, fmt.Errorf("mark series paid: %w", err)
	}

	created := make([]model.Session, 0, len(plan))
	journal := make([]*model.SeriesSession, 0, len(plan))

	for _, p := range plan {
		session, row, err := m.materializeOne(ctx, series, p)
		if row != nil {
			journal = append(journal, row)
		}
		if err != nil {
			m.logger.Error("Failed to materialize session",
				zap.String("series_id", series.ID.String()),
				zap.Int("week", p.Week),
				zap.Int("created", len(created)),
				zap.Error(err),
			)

			compErr := m.Compensate(ctx, series.ID, journal)
			return nil, &MaterializeError{Week: p.Week, Compensated: compErr == nil, Err: err}
		}
		created = append(created, *session)
	}

	// Серия, застрявшая в paid, будет откачена, поэтому статус записываем с повторами
	backoff := retry.WithMaxRetries(materializedRetries, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(m.series.UpdateStatus(ctx, series.ID, model.SeriesStatusMaterialized))
	})
	if err != nil {
		// Занятия уже созданы, ошибку журнала только логируем
		m.logger.Warn("Failed to mark series materialized",
			zap.String("series_id", series.ID.String()),
			zap.Error(err),
		)
	}

	m.logger.Info("Sessions materialized",
		zap.String("series_id", series.ID.String()),
		zap.String("course_id", series.CourseID),
		zap.String("student_id", series.StudentID),
		zap.Int("count", len(created)),
	)

	return created, nil
}

// materializeOne создаёт одно занятие. Строка журнала возвращается как только занятие существует в backend.
func (m *Materializer) materializeOne(ctx context.Context, series *model.BookingSeries, p PlannedSession) (*model.Session, *model.SeriesSession, error) {
	start, end, err := p.Slot.Bounds(p.Date, m.loc)
	if err != nil {
		return nil, nil, fmt.Errorf("slot bounds: %w", err)
	}

	session, err := m.api.CreateSession(ctx, apiclient.CreateSessionRequest{
		Course:    series.CourseID,
		Teacher:   series.TeacherID,
		StartTime: start,
		EndTime:   end,
		Status:    model.SessionStatusScheduled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	m.metrics.SessionCreated()

	row := &model.SeriesSession{
		SeriesID:  series.ID,
		Week:      p.Week,
		SessionID: session.ID,
		StartTime: start,
	}
	if err := m.series.AddSession(ctx, row); err != nil {
		return nil, row, fmt.Errorf("journal session: %w", err)
	}

	if err := m.api.EnrollInSession(ctx, session.ID, series.StudentID); err != nil {
		return nil, row, fmt.Errorf("enroll in session: %w", err)
	}
	row.Enrolled = true
	if err := m.series.MarkEnrolled(ctx, series.ID, p.Week); err != nil {
		m.logger.Warn("Failed to journal enrollment",
			zap.String("series_id", series.ID.String()),
			zap.Int("week", p.Week),
			zap.Error(err),
		)
	}

	session.Enrolled = append(session.Enrolled, model.Enrollment{
		Student:    series.StudentID,
		Attendance: model.AttendancePending,
	})
	return session, row, nil
}

// Compensate удаляет созданные занятия серии. Если хоть одно удалить не удалось,
// серия остаётся в compensating и будет повторена планировщиком.
func (m *Materializer) Compensate(ctx context.Context, seriesID uuid.UUID, sessions []*model.SeriesSession) error {
	var failed int
	var lastErr error

	for _, s := range sessions {
		if s.Deleted || s.SessionID == "" {
			continue
		}

		err := m.api.DeleteSession(ctx, s.SessionID)
		if err != nil && !errors.Is(err, apiclient.ErrNotFound) {
			failed++
			lastErr = err
			m.logger.Warn("Failed to delete session during compensation",
				zap.String("series_id", seriesID.String()),
				zap.String("session_id", s.SessionID),
				zap.Error(err),
			)
			continue
		}

		s.Deleted = true
		if err := m.series.MarkDeleted(ctx, seriesID, s.Week); err != nil {
			m.logger.Warn("Failed to journal deleted session",
				zap.String("series_id", seriesID.String()),
				zap.Int("week", s.Week),
				zap.Error(err),
			)
		}
	}

	status := model.SeriesStatusCompensated
	if failed > 0 {
		status = model.SeriesStatusCompensating
	}
	if err := m.series.UpdateStatus(ctx, seriesID, status); err != nil {
		m.logger.Error("Failed to update series status",
			zap.String("series_id", seriesID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
	m.metrics.Compensation(failed == 0)

	if failed > 0 {
		return fmt.Errorf("compensate series %s: %d sessions not deleted: %w", seriesID, failed, lastErr)
	}

	m.logger.Info("Series compensated",
		zap.String("series_id", seriesID.String()),
		zap.Int("sessions", len(sessions)),
	)
	return nil
}

// RetryCompensations повторяет откат серий, оставшихся в compensating,
// и откатывает серии, застрявшие в paid дольше staleAfter
func (m *Materializer) RetryCompensations(ctx context.Context) (int, error) {
	pending, err := m.series.GetByStatus(ctx, model.SeriesStatusCompensating)
	if err != nil {
		return 0, fmt.Errorf("get compensating series: %w", err)
	}

	stale, err := m.stalePaid(ctx)
	if err != nil {
		return 0, err
	}
	pending = append(pending, stale...)

	done := 0
	for _, series := range pending {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := m.Compensate(ctx, series.ID, series.Sessions); err == nil {
			done++
		}
	}
	return done, nil
}

// stalePaid серии в paid, которые никто не создаёт и которые не менялись дольше staleAfter
func (m *Materializer) stalePaid(ctx context.Context) ([]*model.BookingSeries, error) {
	paid, err := m.series.GetByStatus(ctx, model.SeriesStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("get paid series: %w", err)
	}

	cutoff := m.now().Add(-m.staleAfter)
	var stale []*model.BookingSeries
	for _, series := range paid {
		if m.running(series.ID) || series.UpdatedAt.After(cutoff) {
			continue
		}
		m.logger.Warn("Series stuck in paid, compensating",
			zap.String("series_id", series.ID.String()),
			zap.Int64("telegram_id", series.TelegramID),
			zap.Time("updated_at", series.UpdatedAt),
			zap.Int("sessions", len(series.Sessions)),
		)
		stale = append(stale, series)
	}
	return stale, nil
}

func (m *Materializer) track(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[id] = struct{}{}
}

func (m *Materializer) untrack(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}

func (m *Materializer) running(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[id]
	return ok
}
