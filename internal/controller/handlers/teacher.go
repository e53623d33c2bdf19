package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/admin"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/teacher"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleTeacher обрабатывает команду /teacher
func (h *Handlers) HandleTeacher(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Teacher(ctx, user)
	if err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "teacher dashboard")
		return
	}

	titles := make(map[string]string)
	courses, err := h.courseService.ListByInstructor(ctx, user)
	if err != nil {
		h.logger.Warn("Failed to load teacher courses", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
	}
	for _, c := range courses {
		titles[c.ID] = c.Title
	}

	h.sendScreen(ctx, b, update.Message.Chat.ID,
		teacher.DashboardScreen(dashboard, titles, h.bookingService.Currency(), h.location, time.Now()))
}

// HandleAdmin обрабатывает команду /admin
func (h *Handlers) HandleAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Admin(ctx, user)
	if err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "admin dashboard")
		return
	}

	h.sendScreen(ctx, b, update.Message.Chat.ID, admin.DashboardScreen(dashboard, h.bookingService.Currency()))
}
