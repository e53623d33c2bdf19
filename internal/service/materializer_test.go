package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type countingRecorder struct {
	created       int
	compensations []bool
}

func (r *countingRecorder) BookingStep(string)   {}
func (r *countingRecorder) Payment(bool)         {}
func (r *countingRecorder) SessionCreated()      { r.created++ }
func (r *countingRecorder) Compensation(ok bool) { r.compensations = append(r.compensations, ok) }

func newSeries(t *testing.T, repo *fakeSeriesRepo) *model.BookingSeries {
	t.Helper()
	series := &model.BookingSeries{
		TelegramID:      1001,
		StudentID:       "stu1",
		CourseID:        "go-101",
		TeacherID:       "t1",
		PaymentIntentID: "pi_1",
	}
	require.NoError(t, repo.CreateSeries(context.Background(), series))
	return series
}

func TestMaterializer_CreatesSequentially(t *testing.T) {
	api := newFakeAPI()
	repo := newFakeSeriesRepo()
	rec := &countingRecorder{}
	m := NewMaterializer(api, repo, time.UTC, rec, zap.NewNop())
	series := newSeries(t, repo)

	sessions, err := m.Materialize(context.Background(), series, WeeklyPlan(monday, morning, 4))
	require.NoError(t, err)

	require.Len(t, sessions, 4)
	for i, s := range sessions {
		assert.Equal(t, time.Date(2026, time.October, 19+7*i, 9, 0, 0, 0, time.UTC), s.StartTime)
		assert.Equal(t, s.StartTime.Add(time.Hour), s.EndTime)
		assert.True(t, s.IsEnrolled("stu1"))
	}
	assert.Equal(t, 4, rec.created)
	assert.Equal(t, model.SeriesStatusMaterialized, repo.status(series.ID))

	stored, err := repo.GetByPaymentIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	require.Len(t, stored.Sessions, 4)
	for _, row := range stored.Sessions {
		assert.True(t, row.Enrolled)
		assert.False(t, row.Deleted)
	}
}

func TestMaterializer_FailureDeletesCreatedSessions(t *testing.T) {
	api := newFakeAPI()
	api.failCreateAt = 3
	repo := newFakeSeriesRepo()
	rec := &countingRecorder{}
	m := NewMaterializer(api, repo, time.UTC, rec, zap.NewNop())
	series := newSeries(t, repo)

	_, err := m.Materialize(context.Background(), series, WeeklyPlan(monday, morning, 4))

	var merr *MaterializeError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, 2, merr.Week)
	assert.True(t, merr.Compensated)
	assert.ErrorIs(t, err, errBackend)

	// Четвёртая неделя не создавалась
	assert.Equal(t, 3, api.createdCount())
	assert.Equal(t, []string{"s1", "s2"}, api.deleted)
	assert.Empty(t, api.sessions)
	assert.Equal(t, model.SeriesStatusCompensated, repo.status(series.ID))
	assert.Equal(t, []bool{true}, rec.compensations)
}

func TestMaterializer_FailedDeletionIsRetried(t *testing.T) {
	api := newFakeAPI()
	api.failCreateAt = 3
	api.failDelete["s2"] = 1
	repo := newFakeSeriesRepo()
	m := NewMaterializer(api, repo, time.UTC, nil, zap.NewNop())
	series := newSeries(t, repo)

	_, err := m.Materialize(context.Background(), series, WeeklyPlan(monday, morning, 3))

	var merr *MaterializeError
	require.True(t, errors.As(err, &merr))
	assert.False(t, merr.Compensated)
	assert.Equal(t, []string{"s1"}, api.deleted)
	assert.Equal(t, model.SeriesStatusCompensating, repo.status(series.ID))

	done, err := m.RetryCompensations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"s1", "s2"}, api.deleted)
	assert.Equal(t, model.SeriesStatusCompensated, repo.status(series.ID))

	// Повторный проход ничего не делает
	done, err = m.RetryCompensations(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)
}

func TestMaterializer_AlreadyDeletedSessionCountsAsCompensated(t *testing.T) {
	api := newFakeAPI()
	repo := newFakeSeriesRepo()
	m := NewMaterializer(api, repo, time.UTC, nil, zap.NewNop())
	series := newSeries(t, repo)

	rows := []*model.SeriesSession{
		{SeriesID: series.ID, Week: 0, SessionID: "gone"},
		{SeriesID: series.ID, Week: 1, SessionID: "s9", Deleted: true},
	}
	require.NoError(t, m.Compensate(context.Background(), series.ID, rows))
	assert.Equal(t, []string{"gone"}, api.deleted)
	assert.True(t, rows[0].Deleted)
	assert.Equal(t, model.SeriesStatusCompensated, repo.status(series.ID))
}

func TestMaterializer_StalePaidSeriesIsCompensated(t *testing.T) {
	api := newFakeAPI()
	repo := newFakeSeriesRepo()
	m := NewMaterializer(api, repo, time.UTC, nil, zap.NewNop())
	ctx := context.Background()

	paidSeries := func(intent, sessionID string) *model.BookingSeries {
		series := &model.BookingSeries{TelegramID: 1001, StudentID: "stu1", CourseID: "go-101", TeacherID: "t1", PaymentIntentID: intent}
		require.NoError(t, repo.CreateSeries(ctx, series))
		require.NoError(t, repo.UpdateStatus(ctx, series.ID, model.SeriesStatusPaid))
		require.NoError(t, repo.AddSession(ctx, &model.SeriesSession{SeriesID: series.ID, Week: 0, SessionID: sessionID, Enrolled: true}))
		return series
	}

	// Рестарт посреди создания: первое занятие создано, серия так и осталась paid
	stuck := paidSeries("pi_stuck", "s1")
	running := paidSeries("pi_running", "s2")
	recent := paidSeries("pi_recent", "s3")

	repo.mu.Lock()
	repo.series[stuck.ID].UpdatedAt = time.Now().Add(-time.Hour)
	repo.series[running.ID].UpdatedAt = time.Now().Add(-time.Hour)
	repo.mu.Unlock()
	m.track(running.ID)

	done, err := m.RetryCompensations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, []string{"s1"}, api.deleted)
	assert.Equal(t, model.SeriesStatusCompensated, repo.status(stuck.ID))
	assert.Equal(t, model.SeriesStatusPaid, repo.status(running.ID))
	assert.Equal(t, model.SeriesStatusPaid, repo.status(recent.ID))

	// После завершения создания серия больше не считается прерванной
	m.untrack(running.ID)
	require.NoError(t, repo.UpdateStatus(ctx, running.ID, model.SeriesStatusMaterialized))
	done, err = m.RetryCompensations(ctx)
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Equal(t, []string{"s1"}, api.deleted)
}
