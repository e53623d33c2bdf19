package handlers

import (
	"context"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)

	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Une erreur est survenue. Réessayez plus tard.")
		return nil, false
	}

	if user == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(common.ErrUserNotFound))
		return nil, false
	}

	return user, true
}

// requireLinked пользователь привязан к платформе
func (h *Handlers) requireLinked(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsLinked() {
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(service.ErrNotLinked))
		return nil, false
	}

	return user, true
}

// requireTeacher проверяет что пользователь является учителем
func (h *Handlers) requireTeacher(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsTeacher() {
		h.sendError(ctx, b, update.Message.Chat.ID, "⛔ Cette commande est réservée aux enseignants.")
		return nil, false
	}

	return user, true
}

// requireAdmin проверяет что пользователь администратор
func (h *Handlers) requireAdmin(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsAdmin() {
		h.sendError(ctx, b, update.Message.Chat.ID, "⛔ Cette commande est réservée aux administrateurs.")
		return nil, false
	}

	return user, true
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendFailure логирует ошибку операции и показывает пользователю её текст
func (h *Handlers) sendFailure(ctx context.Context, b *bot.Bot, chatID int64, err error, operation string) {
	h.logger.Warn("Command operation failed",
		zap.String("operation", operation),
		zap.Int64("chat_id", chatID),
		zap.Error(err))
	h.sendError(ctx, b, chatID, common.ErrorMessage(err))
}

// sendMessage отправляет HTML сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendScreen(ctx, b, chatID, common.Screen{Text: text})
}

// sendScreen отправляет экран с клавиатурой
func (h *Handlers) sendScreen(ctx context.Context, b *bot.Bot, chatID int64, screen common.Screen) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      screen.Text,
		ParseMode: models.ParseModeHTML,
	}
	if screen.Keyboard != nil {
		params.ReplyMarkup = screen.Keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
