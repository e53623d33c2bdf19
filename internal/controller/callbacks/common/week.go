package common

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// maxWeekOffset насколько недель можно листать от текущей
const maxWeekOffset = 8

// SendPhoto отправляет PNG новым сообщением
func (hc *HandlerContext) SendPhoto(png []byte, caption string, keyboard *models.InlineKeyboardMarkup) error {
	params := &bot.SendPhotoParams{
		ChatID:    hc.ChatID,
		Photo:     &models.InputFileUpload{Filename: "semaine.png", Data: bytes.NewReader(png)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	_, err := hc.Bot.SendPhoto(hc.Ctx, params)
	return err
}

// WeekCaption подпись картинки недели
func WeekCaption(day time.Time) string {
	week := weekOf(day)
	last := week.end.AddDate(0, 0, -1)
	return fmt.Sprintf("🗓 Semaine du %s au %s", formatting.FormatDateShort(week.start), formatting.FormatDateShort(last))
}

// WeekKeyboard листание недель: <prefix><offset>
func WeekKeyboard(prefix string, offset int) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton
	if offset > -maxWeekOffset {
		row = append(row, keyboard.Button("◀️ Précédente", fmt.Sprintf("%s%d", prefix, offset-1)))
	}
	if offset < maxWeekOffset {
		row = append(row, keyboard.Button("Suivante ▶️", fmt.Sprintf("%s%d", prefix, offset+1)))
	}
	return keyboard.NewBuilder().Row(row...).AddBackToMainButton().Build()
}

// SendWeek рисует неделю со сдвигом offset от текущей и отправляет картинкой
func SendWeek(hc *HandlerContext, prefix string, offset int, sessions []model.Session, titles map[string]string) {
	if offset < -maxWeekOffset || offset > maxWeekOffset {
		HandleError(hc, ErrInvalidFormat, "week offset")
		return
	}

	loc := hc.Handler.Location
	now := time.Now().In(loc)
	day := now.AddDate(0, 0, 7*offset)

	png, err := GenerateWeekImage(day, WeekBlocks(sessions, titles, loc), now)
	if err != nil {
		HandleError(hc, err, "render week")
		return
	}
	if err := hc.SendPhoto(png, WeekCaption(day), WeekKeyboard(prefix, offset)); err != nil {
		HandleError(hc, err, "send week")
		return
	}

	hc.Handler.Logger.Debug("Week image sent",
		zap.Int64("telegram_id", hc.TelegramID),
		zap.Int("offset", offset),
		zap.Int("sessions", len(sessions)),
	)
	hc.Answer("")
}
