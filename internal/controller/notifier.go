package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/student"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Notifier сообщает студенту о результате оплаты новым сообщением
type Notifier struct {
	bot      *bot.Bot
	booking  *service.BookingService
	location *time.Location
	logger   *zap.Logger
}

func NewNotifier(b *bot.Bot, booking *service.BookingService, location *time.Location, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:      b,
		booking:  booking,
		location: location,
		logger:   logger,
	}
}

// PaymentFailed оплата отклонена, процесс остаётся на шаге оплаты
func (n *Notifier) PaymentFailed(ctx context.Context, flow *service.Flow) {
	n.send(ctx, flow.TelegramID, student.PaymentScreen(flow, n.booking.CheckoutURL(flow), n.booking.Currency()))
}

// BookingConfirmed занятия созданы
func (n *Notifier) BookingConfirmed(ctx context.Context, flow *service.Flow) {
	n.send(ctx, flow.TelegramID, student.ConfirmationScreen(flow, n.location))
}

// BookingFailed оплата прошла, но запись не удалась
func (n *Notifier) BookingFailed(ctx context.Context, telegramID int64, reason error) {
	n.send(ctx, telegramID, common.Screen{
		Text:     student.BookingFailedText(reason),
		Keyboard: keyboard.NewBuilder().AddBackToMainButton().Build(),
	})
}

func (n *Notifier) send(ctx context.Context, chatID int64, screen common.Screen) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      screen.Text,
		ParseMode: models.ParseModeHTML,
	}
	if screen.Keyboard != nil {
		params.ReplyMarkup = screen.Keyboard
	}

	if _, err := n.bot.SendMessage(ctx, params); err != nil {
		n.logger.Error("Failed to send booking notification",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
