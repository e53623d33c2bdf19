package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type payoutStatusRequest struct {
	Status model.PayoutStatus `json:"status" validate:"required"`
}

type courseStatusRequest struct {
	Status model.CourseStatus `json:"status" validate:"required"`
}

// GetTeacherStats GET /api/teachers/:id/stats
func (c *Client) GetTeacherStats(ctx context.Context, teacherID string) (*model.TeacherStats, error) {
	var out model.TeacherStats
	err := c.do(ctx, request{
		method: "GET",
		path:   "/api/teachers/" + url.PathEscape(teacherID) + "/stats",
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("get teacher stats: %w", err)
	}
	return &out, nil
}

// ListTeacherSessions GET /api/teachers/:id/sessions
func (c *Client) ListTeacherSessions(ctx context.Context, teacherID string) ([]model.Session, error) {
	var out []model.Session
	err := c.do(ctx, request{
		method: "GET",
		path:   "/api/teachers/" + url.PathEscape(teacherID) + "/sessions",
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list teacher sessions: %w", err)
	}
	return out, nil
}

// GetAdminStats GET /api/admin/stats
func (c *Client) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	var out model.AdminStats
	if err := c.do(ctx, request{method: "GET", path: "/api/admin/stats", out: &out}); err != nil {
		return nil, fmt.Errorf("get admin stats: %w", err)
	}
	return &out, nil
}

// ListPayments GET /api/admin/payments
func (c *Client) ListPayments(ctx context.Context) ([]model.Payment, error) {
	var out []model.Payment
	if err := c.do(ctx, request{method: "GET", path: "/api/admin/payments", out: &out}); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

// ListPayouts GET /api/admin/payouts
func (c *Client) ListPayouts(ctx context.Context) ([]model.Payout, error) {
	var out []model.Payout
	if err := c.do(ctx, request{method: "GET", path: "/api/admin/payouts", out: &out}); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return out, nil
}

// UpdatePayoutStatus PATCH /api/admin/payouts/:id
func (c *Client) UpdatePayoutStatus(ctx context.Context, id string, status model.PayoutStatus) error {
	err := c.do(ctx, request{
		method: "PATCH",
		path:   "/api/admin/payouts/" + url.PathEscape(id),
		body:   payoutStatusRequest{Status: status},
	})
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	return nil
}

// UpdateCourseStatus PATCH /api/admin/courses/:id/status
func (c *Client) UpdateCourseStatus(ctx context.Context, id string, status model.CourseStatus) error {
	err := c.do(ctx, request{
		method: "PATCH",
		path:   "/api/admin/courses/" + url.PathEscape(id) + "/status",
		body:   courseStatusRequest{Status: status},
	})
	if err != nil {
		return fmt.Errorf("update course status: %w", err)
	}
	return nil
}
