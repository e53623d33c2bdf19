package common

import (
	"errors"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
	ErrNoActiveQuiz  = errors.New("no quiz in progress")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "❌ Utilisateur inconnu. Utilisez /start"
	case errors.Is(err, service.ErrNotLinked):
		return "🔗 Compte non lié. Envoyez /start avec votre code de liaison"
	case errors.Is(err, service.ErrForbidden):
		return "⛔ Action non autorisée pour votre rôle"
	case errors.Is(err, service.ErrNoActiveBooking):
		return "⌛ Cette réservation a expiré. Relancez /courses"
	case errors.Is(err, service.ErrInvalidStep):
		return "❌ Action impossible à cette étape"
	case errors.Is(err, service.ErrDatesIncomplete):
		return "📅 Choisissez toutes les dates et tous les horaires avant de payer"
	case errors.Is(err, service.ErrTooManyDates):
		return "📅 Toutes les dates nécessaires sont déjà choisies"
	case errors.Is(err, service.ErrDuplicateDate):
		return "📅 Cette date est déjà choisie"
	case errors.Is(err, service.ErrDateInPast):
		return "📅 Cette date est passée"
	case errors.Is(err, service.ErrDateNotAvailable):
		return "📅 L'enseignant n'est pas disponible ce jour-là"
	case errors.Is(err, service.ErrSlotUnavailable):
		return "🕐 Ce créneau n'est plus disponible"
	case errors.Is(err, service.ErrInvalidDateIndex):
		return "❌ Date introuvable"
	case errors.Is(err, service.ErrCourseUnavailable):
		return "📚 Ce cours n'est pas ouvert aux inscriptions"
	case errors.Is(err, service.ErrQuizLocked):
		return "🔒 Ce quiz n'est pas encore accessible"
	case errors.Is(err, service.ErrInvalidQuizFormat):
		return "❌ Format de quiz invalide"
	case errors.Is(err, ErrNoActiveQuiz):
		return "📝 Aucun quiz en cours. Ouvrez /quizzes"
	case errors.Is(err, ErrNoMessage):
		return "❌ Message introuvable"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Données invalides"
	case errors.Is(err, apiclient.ErrUnauthorized):
		return "🔑 Session expirée. Reliez votre compte avec /start"
	case errors.Is(err, apiclient.ErrNotFound):
		return "❌ Élément introuvable"
	case errors.Is(err, apiclient.ErrRateLimited):
		return "⏳ Trop de requêtes, réessayez dans un instant"
	case apiclient.IsTransport(err):
		return "📡 Service indisponible, réessayez plus tard"
	default:
		return "❌ Une erreur est survenue"
	}
}
