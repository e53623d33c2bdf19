package keyboard

import (
	"github.com/go-telegram/bot/models"
)

// Общие callback data навигации
const (
	DataNoop       = "noop"
	DataBackToMain = "back_to_main"
)

// BackButton кнопка "Retour"
func BackButton(callbackData string) models.InlineKeyboardButton {
	return Button("⬅️ Retour", callbackData)
}

// BackToMainButton кнопка "Menu principal"
func BackToMainButton() models.InlineKeyboardButton {
	return Button("🏠 Menu principal", DataBackToMain)
}

// CloseButton кнопка "Fermer"
func CloseButton(callbackData string) models.InlineKeyboardButton {
	return Button("✖️ Fermer", callbackData)
}

// LabelButton кнопка-надпись без действия
func LabelButton(text string) models.InlineKeyboardButton {
	return Button(text, DataNoop)
}

// AddBackButton добавляет кнопку "Retour" к builder
func (b *Builder) AddBackButton(callbackData string) *Builder {
	return b.Row(BackButton(callbackData))
}

// AddBackToMainButton добавляет кнопку "Menu principal" к builder
func (b *Builder) AddBackToMainButton() *Builder {
	return b.Row(BackToMainButton())
}
