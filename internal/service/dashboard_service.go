package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardAPI агрегаты и финансы для учителя и администратора
type DashboardAPI interface {
	GetTeacherStats(ctx context.Context, teacherID string) (*model.TeacherStats, error)
	ListTeacherSessions(ctx context.Context, teacherID string) ([]model.Session, error)
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)
	ListPayments(ctx context.Context) ([]model.Payment, error)
	ListPayouts(ctx context.Context) ([]model.Payout, error)
	UpdatePayoutStatus(ctx context.Context, id string, status model.PayoutStatus) error
	UpdateCourseStatus(ctx context.Context, id string, status model.CourseStatus) error
}

// TeacherDashboard статистика и занятия учителя
type TeacherDashboard struct {
	Stats    *model.TeacherStats
	Sessions []model.Session
}

// AdminDashboard статистика платформы и финансы
type AdminDashboard struct {
	Stats    *model.AdminStats
	Payments []model.Payment
	Payouts  []model.Payout
}

type DashboardService struct {
	api    DashboardAPI
	logger *zap.Logger
}

func NewDashboardService(api DashboardAPI, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		api:    api,
		logger: logger,
	}
}

// Teacher загружает статистику и занятия учителя параллельно
func (s *DashboardService) Teacher(ctx context.Context, teacher *model.User) (*TeacherDashboard, error) {
	if !teacher.IsTeacher() {
		return nil, ErrForbidden
	}

	ctx = userCtx(ctx, teacher)
	var d TeacherDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.api.GetTeacherStats(gctx, teacher.PlatformUserID)
		d.Stats = stats
		return err
	})
	g.Go(func() error {
		sessions, err := s.api.ListTeacherSessions(gctx, teacher.PlatformUserID)
		d.Sessions = sessions
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load teacher dashboard: %w", err)
	}

	sortByStart(d.Sessions)
	return &d, nil
}

// Admin загружает статистику, платежи и выплаты параллельно
func (s *DashboardService) Admin(ctx context.Context, admin *model.User) (*AdminDashboard, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	ctx = userCtx(ctx, admin)
	var d AdminDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.api.GetAdminStats(gctx)
		d.Stats = stats
		return err
	})
	g.Go(func() error {
		payments, err := s.api.ListPayments(gctx)
		d.Payments = payments
		return err
	})
	g.Go(func() error {
		payouts, err := s.api.ListPayouts(gctx)
		d.Payouts = payouts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load admin dashboard: %w", err)
	}

	sort.SliceStable(d.Payments, func(i, j int) bool {
		return d.Payments[i].CreatedAt.After(d.Payments[j].CreatedAt)
	})
	// Ожидающие выплаты первыми
	sort.SliceStable(d.Payouts, func(i, j int) bool {
		return d.Payouts[i].Status == model.PayoutStatusPending && d.Payouts[j].Status != model.PayoutStatusPending
	})

	return &d, nil
}

// MarkPayoutPaid отмечает выплату учителю как проведённую
func (s *DashboardService) MarkPayoutPaid(ctx context.Context, admin *model.User, payoutID string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	if err := s.api.UpdatePayoutStatus(userCtx(ctx, admin), payoutID, model.PayoutStatusPaid); err != nil {
		return err
	}

	s.logger.Info("Payout marked paid",
		zap.String("payout_id", payoutID),
		zap.String("admin_id", admin.PlatformUserID),
	)

	return nil
}

// SetCourseStatus модерация курса администратором
func (s *DashboardService) SetCourseStatus(ctx context.Context, admin *model.User, courseID string, status model.CourseStatus) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	switch status {
	case model.CourseStatusDraft, model.CourseStatusPending, model.CourseStatusPublished, model.CourseStatusArchived:
	default:
		return fmt.Errorf("unknown course status %q", status)
	}

	if err := s.api.UpdateCourseStatus(userCtx(ctx, admin), courseID, status); err != nil {
		return err
	}

	s.logger.Info("Course status updated",
		zap.String("course_id", courseID),
		zap.String("status", string(status)),
		zap.String("admin_id", admin.PlatformUserID),
	)

	return nil
}
