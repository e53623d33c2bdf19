package teacher

import (
	"context"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	DataQuizCourses = "tq_courses"
	DataQuizNew     = "tq_new:" // tq_new:<courseID>
)

// QuizFormatHelp формат текста теста
const QuizFormatHelp = "📝 <b>Nouveau quiz</b>\n\n" +
	"Envoyez le quiz en un seul message :\n\n" +
	"<code>Titre du quiz\n" +
	"? Première question\n" +
	"- mauvaise réponse\n" +
	"+ bonne réponse\n" +
	"? Deuxième question\n" +
	"+ bonne réponse\n" +
	"- mauvaise réponse</code>\n\n" +
	"Au moins deux réponses par question, une seule bonne.\n/cancel pour annuler."

// HandleQuizCourses выбор курса для нового теста
func HandleQuizCourses(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		courses, err := h.CourseService.ListByInstructor(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "list teacher courses")
			return
		}

		text := "📝 Pour quel cours créer un quiz ?"
		kb := keyboard.NewBuilder()
		if len(courses) == 0 {
			text = "Vous n'avez encore aucun cours."
		}
		for _, c := range courses {
			kb.Row(keyboard.Button("📚 "+c.Title, DataQuizNew+c.ID))
		}
		kb.AddBackButton(common.DataTeacher)

		hc.Show(common.Screen{Text: text, Keyboard: kb.Build()})
	})
}

// HandleQuizNew ждёт текст теста для выбранного курса
func HandleQuizNew(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		courseID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse course id")
			return
		}

		hc.Begin(state.StateCreateQuiz, map[string]interface{}{
			state.KeyCourseID: courseID,
		})
		hc.Show(common.Screen{
			Text:     QuizFormatHelp,
			Keyboard: keyboard.NewBuilder().AddBackButton(common.DataTeacher).Build(),
		})
	})
}
