package student

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Callback data тестов
const (
	DataQuiz      = "qz:"     // qz:<quizID>
	DataQuizStart = "qz_go:"  // qz_go:<quizID>
	DataQuizAns   = "qz_ans:" // qz_ans:<question>:<option>
	DataQuizQuit  = "qz_quit"
)

// QuizzesScreen список доступных студенту тестов
func QuizzesScreen(quizzes []model.Quiz) common.Screen {
	var sb strings.Builder
	sb.WriteString("📝 <b>Mes quiz</b>\n\n")

	kb := keyboard.NewBuilder()
	if len(quizzes) == 0 {
		sb.WriteString("Aucun quiz accessible pour l'instant.\n")
		sb.WriteString("Les quiz s'ouvrent quand votre enseignant active l'accès pendant une séance.")
	} else {
		sb.WriteString("Choisissez un quiz :")
		for _, q := range quizzes {
			kb.Row(keyboard.Button("📝 "+q.Title, DataQuiz+q.ID))
		}
	}

	kb.AddBackToMainButton()
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// QuizIntroScreen описание теста и прошлые попытки
func QuizIntroScreen(quiz *model.Quiz, attempts []model.QuizAttempt, loc *time.Location) common.Screen {
	var sb strings.Builder
	sb.WriteString("📝 <b>" + html.EscapeString(quiz.Title) + "</b>\n")
	sb.WriteString(formatting.Questions(len(quiz.Questions)) + "\n")

	if len(attempts) > 0 {
		sb.WriteString("\n<b>Vos tentatives :</b>\n")
		for _, a := range attempts {
			sb.WriteString(fmt.Sprintf("• %s : %d/%d\n", formatting.FormatDateTime(a.SubmittedAt.In(loc)), a.Score, a.Total))
		}
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("▶️ Commencer", DataQuizStart+quiz.ID)).
		AddBackButton(common.DataQuizzes)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// QuestionScreen вопрос n теста с вариантами ответа
func QuestionScreen(quiz *model.Quiz, n int) common.Screen {
	q := quiz.Questions[n]

	var sb strings.Builder
	sb.WriteString("📝 <b>" + html.EscapeString(quiz.Title) + "</b>\n")
	sb.WriteString(fmt.Sprintf("<i>Question %d/%d</i>\n\n", n+1, len(quiz.Questions)))
	sb.WriteString(html.EscapeString(q.Text) + "\n\n")

	kb := keyboard.NewBuilder()
	for i, option := range q.Options {
		letter := string(rune('A' + i))
		sb.WriteString(letter + ". " + html.EscapeString(option) + "\n")
		kb.Row(keyboard.Button(letter+". "+option, fmt.Sprintf("%s%d:%d", DataQuizAns, n, i)))
	}
	kb.Row(keyboard.Button("✖️ Abandonner", DataQuizQuit))

	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// ResultScreen результат попытки
func ResultScreen(quiz *model.Quiz, attempt *model.QuizAttempt) common.Screen {
	var sb strings.Builder
	sb.WriteString("🏁 <b>" + html.EscapeString(quiz.Title) + "</b>\n\n")
	sb.WriteString(fmt.Sprintf("Score : <b>%d/%d</b>\n", attempt.Score, attempt.Total))
	if attempt.Total > 0 && attempt.Score == attempt.Total {
		sb.WriteString("🎉 Sans faute !")
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("🔁 Recommencer", DataQuizStart+quiz.ID)).
		AddBackButton(common.DataQuizzes)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// HandleQuizzes список тестов
func HandleQuizzes(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.ClearState()
		quizzes, err := h.QuizService.AvailableForStudent(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "list quizzes")
			return
		}
		hc.Show(QuizzesScreen(quizzes))
	})
}

// HandleQuiz карточка теста
func HandleQuiz(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		quizID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse quiz id")
			return
		}

		quiz, err := h.QuizService.GetForStudent(ctx, hc.User, quizID)
		if err != nil {
			common.HandleError(hc, err, "get quiz")
			return
		}
		attempts, err := h.QuizService.Attempts(ctx, hc.User, quizID)
		if err != nil {
			// История попыток не обязательна для прохождения
			h.Logger.Warn("Failed to load quiz attempts", zap.String("quiz_id", quizID), zap.Error(err))
		}

		hc.Show(QuizIntroScreen(quiz, attempts, h.Location))
	})
}

// HandleQuizStart начинает попытку
func HandleQuizStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		quizID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse quiz id")
			return
		}

		quiz, err := h.QuizService.GetForStudent(ctx, hc.User, quizID)
		if err != nil {
			common.HandleError(hc, err, "get quiz")
			return
		}

		hc.Begin(state.StateTakingQuiz, map[string]interface{}{
			state.KeyQuizID:  quiz.ID,
			state.KeyQuiz:    quiz,
			state.KeyAnswers: []int{},
		})
		hc.Show(QuestionScreen(quiz, 0))
	})
}

// HandleQuizAnswer ответ на вопрос: qz_ans:<question>:<option>
func HandleQuizAnswer(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		question, err := common.IntArg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse question")
			return
		}
		option, err := common.IntArg(hc.Data(), 1)
		if err != nil {
			common.HandleError(hc, err, "parse option")
			return
		}

		if h.StateManager.GetState(hc.TelegramID) != state.StateTakingQuiz {
			common.HandleError(hc, common.ErrNoActiveQuiz, "quiz answer")
			return
		}
		quiz, ok := state.As[*model.Quiz](hc.GetData(state.KeyQuiz))
		if !ok {
			common.HandleError(hc, common.ErrNoActiveQuiz, "quiz answer")
			return
		}
		answers, _ := state.As[[]int](hc.GetData(state.KeyAnswers))

		// Повторное нажатие на уже отвеченный вопрос
		if question != len(answers) {
			hc.Answer("")
			return
		}
		if option < 0 || option >= len(quiz.Questions[question].Options) {
			common.HandleError(hc, common.ErrInvalidFormat, "quiz answer")
			return
		}

		next := make([]int, len(answers), len(answers)+1)
		copy(next, answers)
		next = append(next, option)

		if len(next) < len(quiz.Questions) {
			hc.SetData(state.KeyAnswers, next)
			hc.Show(QuestionScreen(quiz, len(next)))
			return
		}

		hc.ClearState()
		attempt, err := h.QuizService.Submit(ctx, hc.User, quiz.ID, next)
		if err != nil {
			common.HandleError(hc, err, "submit quiz")
			return
		}
		hc.Show(ResultScreen(quiz, attempt))
	})
}

// HandleQuizQuit прерывает попытку
func HandleQuizQuit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	hc.ClearState()
	HandleQuizzes(ctx, b, callback, h)
}
