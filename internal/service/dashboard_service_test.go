package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type fakeDashboardAPI struct {
	payoutUpdates map[string]model.PayoutStatus
	courseUpdates map[string]model.CourseStatus
	statsErr      error
}

func newFakeDashboardAPI() *fakeDashboardAPI {
	return &fakeDashboardAPI{
		payoutUpdates: make(map[string]model.PayoutStatus),
		courseUpdates: make(map[string]model.CourseStatus),
	}
}

func (f *fakeDashboardAPI) GetTeacherStats(context.Context, string) (*model.TeacherStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &model.TeacherStats{TotalSessions: 2, TotalStudents: 1}, nil
}

func (f *fakeDashboardAPI) ListTeacherSessions(context.Context, string) ([]model.Session, error) {
	return []model.Session{
		{ID: "late", StartTime: testNow.Add(2 * time.Hour)},
		{ID: "early", StartTime: testNow.Add(time.Hour)},
	}, nil
}

func (f *fakeDashboardAPI) GetAdminStats(context.Context) (*model.AdminStats, error) {
	return &model.AdminStats{TotalUsers: 10}, nil
}

func (f *fakeDashboardAPI) ListPayments(context.Context) ([]model.Payment, error) {
	return []model.Payment{
		{ID: "old", CreatedAt: testNow.Add(-48 * time.Hour)},
		{ID: "new", CreatedAt: testNow},
	}, nil
}

func (f *fakeDashboardAPI) ListPayouts(context.Context) ([]model.Payout, error) {
	return []model.Payout{
		{ID: "done", Status: model.PayoutStatusPaid},
		{ID: "todo", Status: model.PayoutStatusPending},
	}, nil
}

func (f *fakeDashboardAPI) UpdatePayoutStatus(_ context.Context, id string, status model.PayoutStatus) error {
	f.payoutUpdates[id] = status
	return nil
}

func (f *fakeDashboardAPI) UpdateCourseStatus(_ context.Context, id string, status model.CourseStatus) error {
	f.courseUpdates[id] = status
	return nil
}

func testAdmin() *model.User {
	return &model.User{ID: 9, TelegramID: 9009, PlatformUserID: "adm", Role: model.RoleAdmin, APIToken: "adm-token"}
}

func TestDashboardService_Teacher(t *testing.T) {
	api := newFakeDashboardAPI()
	svc := NewDashboardService(api, zap.NewNop())

	_, err := svc.Teacher(context.Background(), testStudent())
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := svc.Teacher(context.Background(), testTeacher())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Stats.TotalSessions)
	require.Len(t, d.Sessions, 2)
	assert.Equal(t, "early", d.Sessions[0].ID)

	api.statsErr = errBackend
	_, err = svc.Teacher(context.Background(), testTeacher())
	assert.ErrorIs(t, err, errBackend)
}

func TestDashboardService_Admin(t *testing.T) {
	api := newFakeDashboardAPI()
	svc := NewDashboardService(api, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Admin(ctx, testTeacher())
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := svc.Admin(ctx, testAdmin())
	require.NoError(t, err)
	assert.Equal(t, 10, d.Stats.TotalUsers)
	assert.Equal(t, "new", d.Payments[0].ID)
	assert.Equal(t, "todo", d.Payouts[0].ID)

	assert.ErrorIs(t, svc.MarkPayoutPaid(ctx, testTeacher(), "todo"), ErrForbidden)
	require.NoError(t, svc.MarkPayoutPaid(ctx, testAdmin(), "todo"))
	assert.Equal(t, model.PayoutStatusPaid, api.payoutUpdates["todo"])

	assert.Error(t, svc.SetCourseStatus(ctx, testAdmin(), "go-101", "deleted"))
	require.NoError(t, svc.SetCourseStatus(ctx, testAdmin(), "go-101", model.CourseStatusPublished))
	assert.Equal(t, model.CourseStatusPublished, api.courseUpdates["go-101"])
}
