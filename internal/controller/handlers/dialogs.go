package handlers

import (
	"context"
	"html"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/teacher"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handleLinkCode код привязки, присланный текстом
func (h *Handlers) handleLinkCode(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.linkAccount(ctx, b, update.Message.Chat.ID, user, update.Message.Text)
}

// handleMeetingLink ссылка на видеовстречу для занятия из state
func (h *Handlers) handleMeetingLink(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	telegramID := user.TelegramID
	chatID := update.Message.Chat.ID
	link := strings.TrimSpace(update.Message.Text)

	sessionID, ok := state.As[string](h.stateManager.GetData(telegramID, state.KeySessionID))
	if !ok {
		h.stateManager.ClearState(telegramID)
		h.sendError(ctx, b, chatID, "❌ Séance introuvable. Rouvrez-la depuis /teacher.")
		return
	}

	if len(link) > MeetingLinkMaxLength || h.validate.Var(link, "required,url") != nil ||
		!(strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://")) {
		h.sendError(ctx, b, chatID, "❌ Lien invalide. Envoyez une adresse complète, par exemple https://meet.example.com/abc")
		return
	}

	session, err := h.sessionService.SetMeetingLink(ctx, user, sessionID, link)
	if err != nil {
		h.sendFailure(ctx, b, chatID, err, "set meeting link")
		return
	}
	h.stateManager.ClearState(telegramID)

	title := "Séance"
	if course, err := h.courseService.GetCourse(ctx, user, session.Course); err == nil {
		title = course.Title
	}

	h.sendMessage(ctx, b, chatID, "✅ Lien de visio enregistré.")
	h.sendScreen(ctx, b, chatID, teacher.SessionScreen(session, title, h.location))
}

// handleCreateQuiz текст теста для курса из state
func (h *Handlers) handleCreateQuiz(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireTeacher(ctx, b, update)
	if !ok {
		return
	}

	telegramID := user.TelegramID
	chatID := update.Message.Chat.ID

	courseID, ok := state.As[string](h.stateManager.GetData(telegramID, state.KeyCourseID))
	if !ok {
		h.stateManager.ClearState(telegramID)
		h.sendError(ctx, b, chatID, "❌ Cours introuvable. Recommencez depuis /teacher.")
		return
	}

	text := update.Message.Text
	if len(text) > QuizTextMaxLength {
		h.sendError(ctx, b, chatID, "❌ Quiz trop long pour un seul message.")
		return
	}

	quiz, err := h.quizService.Create(ctx, user, courseID, text)
	if err != nil {
		h.logger.Info("Quiz rejected",
			zap.Int64("telegram_id", telegramID),
			zap.String("course_id", courseID),
			zap.Error(err))
		// Состояние сохраняется, учитель может прислать исправленный текст
		h.sendError(ctx, b, chatID, common.ErrorMessage(err)+"\n\nCorrigez le texte et renvoyez-le, ou /cancel.")
		return
	}
	h.stateManager.ClearState(telegramID)

	h.sendMessage(ctx, b, chatID, "✅ Quiz <b>"+html.EscapeString(quiz.Title)+"</b> créé ("+
		formatting.Questions(len(quiz.Questions))+").\nIl sera visible par les élèves quand vous ouvrirez l'accès aux quiz d'une séance.")
}
