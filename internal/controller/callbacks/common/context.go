package common

import (
	"context"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Screen текст сообщения вместе с клавиатурой
type Screen struct {
	Text     string
	Keyboard *models.InlineKeyboardMarkup
}

// HandlerContext содержит общие данные для обработки callback
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	User       *model.User
	TelegramID int64
	ChatID     int64
}

func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg := GetMessageFromCallback(callback)
	chatID := callback.From.ID
	if msg != nil {
		chatID = msg.Chat.ID
	}

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

// Data callback data
func (hc *HandlerContext) Data() string {
	return hc.Callback.Data
}

// LoadUser загружает пользователя в контекст
func (hc *HandlerContext) LoadUser() error {
	user, err := hc.Handler.UserService.GetByTelegramID(hc.Ctx, hc.TelegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	hc.User = user
	return nil
}

// RequireLinked пользователь привязан к платформе
func (hc *HandlerContext) RequireLinked() error {
	if hc.User == nil {
		if err := hc.LoadUser(); err != nil {
			return err
		}
	}
	if !hc.User.IsLinked() {
		return service.ErrNotLinked
	}
	return nil
}

// RequireTeacher пользователь учитель (или администратор)
func (hc *HandlerContext) RequireTeacher() error {
	if err := hc.RequireLinked(); err != nil {
		return err
	}
	if !hc.User.IsTeacher() {
		return service.ErrForbidden
	}
	return nil
}

// RequireAdmin пользователь администратор
func (hc *HandlerContext) RequireAdmin() error {
	if err := hc.RequireLinked(); err != nil {
		return err
	}
	if !hc.User.IsAdmin() {
		return service.ErrForbidden
	}
	return nil
}

// Answer отвечает на callback query
func (hc *HandlerContext) Answer(text string) {
	AnswerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// AnswerAlert отвечает на callback query с alert
func (hc *HandlerContext) AnswerAlert(text string) {
	AnswerCallbackAlert(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// EditMessage редактирует сообщение с кнопкой
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	params := &bot.EditMessageTextParams{
		ChatID:    hc.ChatID,
		MessageID: hc.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := hc.Bot.EditMessageText(hc.Ctx, params)

	if IsMessageNotModifiedError(err) {
		return nil
	}
	return err
}

// Show заменяет содержимое сообщения экраном и отвечает на callback
func (hc *HandlerContext) Show(screen Screen) {
	if err := hc.EditMessage(screen.Text, screen.Keyboard); err != nil {
		HandleError(hc, err, "edit message")
		return
	}
	hc.Answer("")
}

// Refresh перерисовывает сообщение без ответа на callback (ответ уже отправлен).
// Ошибку только логируем: пользователь уже получил alert.
func (hc *HandlerContext) Refresh(screen Screen) {
	if err := hc.EditMessage(screen.Text, screen.Keyboard); err != nil {
		hc.Handler.Logger.Warn("Failed to refresh message",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("data", hc.Data()),
			zap.Error(err),
		)
	}
}

// SendMessage отправляет новое сообщение
func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID:    hc.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	_, err := hc.Bot.SendMessage(hc.Ctx, params)
	return err
}

// ClearState очищает состояние пользователя
func (hc *HandlerContext) ClearState() {
	hc.Handler.StateManager.ClearState(hc.TelegramID)
}

// Begin начинает текстовый диалог
func (hc *HandlerContext) Begin(st state.UserState, data map[string]interface{}) {
	hc.Handler.StateManager.Begin(hc.TelegramID, st, data)
}

// SetData устанавливает данные в state
func (hc *HandlerContext) SetData(key string, value interface{}) {
	hc.Handler.StateManager.SetData(hc.TelegramID, key, value)
}

// GetData получает данные из state
func (hc *HandlerContext) GetData(key string) (interface{}, bool) {
	return hc.Handler.StateManager.GetData(hc.TelegramID, key)
}
