package common

import (
	"context"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// WithLinked создаёт HandlerContext и проверяет что аккаунт привязан к платформе.
// При ошибке сам отвечает пользователю.
func WithLinked(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.RequireLinked(); err != nil {
		HandleError(hc, err, "require linked")
		return
	}

	handler(hc)
}

// WithTeacher то же для учителя
func WithTeacher(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.RequireTeacher(); err != nil {
		HandleError(hc, err, "require teacher")
		return
	}

	handler(hc)
}

// WithAdmin то же для администратора
func WithAdmin(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*HandlerContext),
) {
	hc := NewHandlerContext(ctx, b, callback, h)

	if err := hc.RequireAdmin(); err != nil {
		HandleError(hc, err, "require admin")
		return
	}

	handler(hc)
}

// HandleError логирует ошибку и показывает пользователю её текст
func HandleError(hc *HandlerContext, err error, operation string) {
	hc.Handler.Logger.Warn("Callback operation failed",
		zap.String("operation", operation),
		zap.String("data", hc.Callback.Data),
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Error(err))
	hc.AnswerAlert(ErrorMessage(err))
}
