package common

import (
	"context"
	"html"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Пункты главного меню
const (
	DataCourses    = "courses_page:0"
	DataMySessions = "my_sessions"
	DataQuizzes    = "quizzes"
	DataTeacher    = "teacher_dashboard"
	DataAdmin      = "admin_dashboard"
)

// MainMenu главное меню с учётом роли пользователя
func MainMenu(user *model.User) Screen {
	var sb strings.Builder
	sb.WriteString("📋 <b>Menu principal</b>\n\n")

	if user == nil || !user.IsLinked() {
		sb.WriteString("Votre compte Telegram n'est pas encore lié à la plateforme.\n")
		sb.WriteString("Générez un code de liaison dans votre profil puis envoyez-le ici, ou utilisez /start CODE.")
		return Screen{Text: sb.String()}
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	sb.WriteString("Bonjour, " + html.EscapeString(name) + " !\n")
	sb.WriteString("Que souhaitez-vous faire ?")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📚 Catalogue des cours", DataCourses)).
		Row(keyboard.Button("📅 Mes séances", DataMySessions), keyboard.Button("📝 Mes quiz", DataQuizzes))
	if user.IsTeacher() {
		kb.Row(keyboard.Button("🎓 Espace enseignant", DataTeacher))
	}
	if user.IsAdmin() {
		kb.Row(keyboard.Button("🛠 Administration", DataAdmin))
	}

	return Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// HandleBackToMain возвращает пользователя к главному меню, активный диалог сбрасывается
func HandleBackToMain(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := NewHandlerContext(ctx, b, callback, h)
	hc.ClearState()

	if err := hc.LoadUser(); err != nil {
		HandleError(hc, err, "back to main")
		return
	}

	hc.Show(MainMenu(hc.User))
}
