package handlers

// Ограничения текстовых диалогов
const (
	// Код привязки из веб-кабинета
	LinkCodeMaxLength = 64

	// Ссылка на видеовстречу
	MeetingLinkMaxLength = 500

	// Текст теста целиком (лимит сообщения Telegram)
	QuizTextMaxLength = 4096
)
