package handlers

import (
	"context"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/student"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleCourses обрабатывает команду /courses
func (h *Handlers) HandleCourses(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return
	}

	courses, err := h.courseService.ListPublished(ctx, user)
	if err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "list courses")
		return
	}

	h.sendScreen(ctx, b, update.Message.Chat.ID, student.CoursesScreen(courses, 0, h.bookingService.Currency()))
}

// HandleMySessions обрабатывает команду /mysessions
func (h *Handlers) HandleMySessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return
	}

	sessions, err := h.sessionService.UpcomingForStudent(ctx, user)
	if err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "student sessions")
		return
	}

	h.sendScreen(ctx, b, update.Message.Chat.ID, student.MySessionsScreen(sessions, h.location))
}

// HandleQuizzes обрабатывает команду /quizzes
func (h *Handlers) HandleQuizzes(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return
	}

	quizzes, err := h.quizService.AvailableForStudent(ctx, user)
	if err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "list quizzes")
		return
	}

	h.sendScreen(ctx, b, update.Message.Chat.ID, student.QuizzesScreen(quizzes))
}
