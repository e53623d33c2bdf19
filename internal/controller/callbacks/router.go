package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/admin"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/student"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/teacher"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Main Callback Router
// ========================

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	// ===== Common Navigation =====
	case data == keyboard.DataBackToMain:
		common.HandleBackToMain(ctx, b, callback, h)
	case data == keyboard.DataNoop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Student: Catalog & Booking =====
	case strings.HasPrefix(data, student.DataCatalog):
		student.HandleCourses(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataCourse):
		student.HandleCourseDetails(ctx, b, callback, h)
	case data == student.DataTime:
		student.HandleOpenTimeBooking(ctx, b, callback, h)
	case data == student.DataView:
		student.HandleView(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataDates):
		student.HandleDates(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataAdd):
		student.HandleAddDate(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataDay):
		student.HandleDay(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataSlot):
		student.HandleSelectSlot(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataWeekly):
		student.HandleRepeatWeekly(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataRemove):
		student.HandleRemoveDate(ctx, b, callback, h)
	case data == student.DataBack:
		student.HandleBack(ctx, b, callback, h)
	case data == student.DataPay:
		student.HandlePay(ctx, b, callback, h)
	case data == student.DataClose:
		student.HandleClose(ctx, b, callback, h)

	// ===== Student: Sessions & Quizzes =====
	case data == common.DataMySessions:
		student.HandleMySessions(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataMyWeek):
		student.HandleMyWeek(ctx, b, callback, h)
	case data == common.DataQuizzes:
		student.HandleQuizzes(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataQuiz):
		student.HandleQuiz(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataQuizStart):
		student.HandleQuizStart(ctx, b, callback, h)
	case strings.HasPrefix(data, student.DataQuizAns):
		student.HandleQuizAnswer(ctx, b, callback, h)
	case data == student.DataQuizQuit:
		student.HandleQuizQuit(ctx, b, callback, h)

	// ===== Teacher =====
	case data == common.DataTeacher:
		teacher.HandleDashboard(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataWeek):
		teacher.HandleWeek(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataSession):
		teacher.HandleSession(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataStatus):
		teacher.HandleStatus(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataLink):
		teacher.HandleMeetingLink(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataQuizAccess):
		teacher.HandleQuizAccess(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataAttendance):
		teacher.HandleAttendance(ctx, b, callback, h)
	case data == teacher.DataQuizCourses:
		teacher.HandleQuizCourses(ctx, b, callback, h)
	case strings.HasPrefix(data, teacher.DataQuizNew):
		teacher.HandleQuizNew(ctx, b, callback, h)

	// ===== Admin =====
	case data == common.DataAdmin:
		admin.HandleDashboard(ctx, b, callback, h)
	case data == admin.DataPayments:
		admin.HandlePayments(ctx, b, callback, h)
	case data == admin.DataPayouts:
		admin.HandlePayouts(ctx, b, callback, h)
	case strings.HasPrefix(data, admin.DataPaid):
		admin.HandleMarkPaid(ctx, b, callback, h)
	case strings.HasPrefix(data, admin.DataCourses):
		admin.HandleCourses(ctx, b, callback, h)
	case strings.HasPrefix(data, admin.DataCourse):
		admin.HandleCourse(ctx, b, callback, h)
	case strings.HasPrefix(data, admin.DataCourseStatus):
		admin.HandleCourseStatus(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback data",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❓ Action inconnue")
	}
}
