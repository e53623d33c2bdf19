package teacher

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
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const dashboardSessions = 8

// DataWeek картинка недели учителя: tw_week:<offset>
const DataWeek = "tw_week:"

// DashboardScreen статистика учителя и ближайшие занятия
func DashboardScreen(d *service.TeacherDashboard, titles map[string]string, currency string, loc *time.Location, now time.Time) common.Screen {
	var sb strings.Builder
	sb.WriteString("🎓 <b>Espace enseignant</b>\n\n")

	if st := d.Stats; st != nil {
		sb.WriteString(fmt.Sprintf("🗓 Séances : %d (à venir %d, terminées %d)\n", st.TotalSessions, st.UpcomingSessions, st.CompletedSessions))
		sb.WriteString("👥 " + formatting.Students(st.TotalStudents) + "\n")
		sb.WriteString("💶 Revenus : " + formatting.FormatPrice(st.TotalEarnings, currency) + "\n")
		sb.WriteString("⏳ À verser : " + formatting.FormatPrice(st.PendingPayout, currency) + "\n")
	}

	upcoming := make([]model.Session, 0, dashboardSessions)
	for _, s := range d.Sessions {
		if s.Status == model.SessionStatusCancelled || s.Status == model.SessionStatusCompleted || !s.EndTime.After(now) {
			continue
		}
		upcoming = append(upcoming, s)
		if len(upcoming) == dashboardSessions {
			break
		}
	}

	kb := keyboard.NewBuilder()
	if len(upcoming) == 0 {
		sb.WriteString("\nAucune séance à venir.")
	} else {
		sb.WriteString("\n<b>Prochaines séances :</b>")
		for _, s := range upcoming {
			label := formatting.FormatDateTime(s.StartTime.In(loc)) + " · " + courseTitle(titles, s.Course)
			kb.Row(keyboard.Button(formatting.SessionStatusDisplay(s.Status).Emoji+" "+label, DataSession+s.ID))
		}
	}

	kb.Row(keyboard.Button("🖼 Semaine en image", DataWeek+"0"), keyboard.Button("📝 Créer un quiz", DataQuizCourses)).
		AddBackToMainButton()
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// courseTitles названия курсов учителя для подписей занятий
func courseTitles(hc *common.HandlerContext) map[string]string {
	courses, err := hc.Handler.CourseService.ListByInstructor(hc.Ctx, hc.User)
	if err != nil {
		hc.Handler.Logger.Warn("Failed to load teacher courses", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		return nil
	}
	titles := make(map[string]string, len(courses))
	for _, c := range courses {
		titles[c.ID] = c.Title
	}
	return titles
}

func courseTitle(titles map[string]string, id string) string {
	if title, ok := titles[id]; ok {
		return title
	}
	return "Cours " + id
}

// HandleDashboard дашборд учителя
func HandleDashboard(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.ClearState()
		dashboard, err := h.DashboardService.Teacher(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "teacher dashboard")
			return
		}

		hc.Show(DashboardScreen(dashboard, courseTitles(hc), h.BookingService.Currency(), h.Location, time.Now()))
	})
}

func escape(s string) string {
	return html.EscapeString(s)
}

// HandleWeek неделя занятий учителя картинкой
func HandleWeek(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		offset, err := common.IntArg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse week offset")
			return
		}
		sessions, err := h.SessionService.ForTeacher(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "teacher sessions")
			return
		}
		common.SendWeek(hc, DataWeek, offset, sessions, courseTitles(hc))
	})
}
