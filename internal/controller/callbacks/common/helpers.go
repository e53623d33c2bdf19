package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query всплывающим окном
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	return callback.Message.Message
}

// Args аргументы callback data после префикса.
// Например: "bk_slot:2:0900" -> ["2", "0900"]
func Args(data string) []string {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return nil
	}
	return parts[1:]
}

// Arg n-й аргумент callback data
func Arg(data string, n int) (string, error) {
	args := Args(data)
	if n < 0 || n >= len(args) || args[n] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	return args[n], nil
}

// IntArg n-й аргумент callback data как число
func IntArg(data string, n int) (int, error) {
	s, err := Arg(data, n)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	return v, nil
}

// IsMessageNotModifiedError Telegram отвечает ошибкой, если текст и клавиатура не изменились
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
