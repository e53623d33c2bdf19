package student

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DataMyWeek картинка недели студента: my_week:<offset>
const DataMyWeek = "my_week:"

// maxListedSessions сколько ближайших занятий показывать
const maxListedSessions = 10

// MySessionsScreen ближайшие занятия студента со ссылками на встречи
func MySessionsScreen(sessions []model.Session, loc *time.Location) common.Screen {
	var sb strings.Builder
	sb.WriteString("📅 <b>Mes prochaines séances</b>\n\n")

	kb := keyboard.NewBuilder()
	if len(sessions) == 0 {
		sb.WriteString("Aucune séance à venir. Réservez un cours depuis le catalogue.")
		kb.Row(keyboard.Button("📚 Catalogue des cours", common.DataCourses))
	}

	if len(sessions) > maxListedSessions {
		sessions = sessions[:maxListedSessions]
	}
	for _, s := range sessions {
		start, end := s.StartTime.In(loc), s.EndTime.In(loc)
		sb.WriteString("🗓 <b>" + formatting.FormatDate(start) + "</b>, " + formatting.FormatTimeRange(start, end) + "\n")
		sb.WriteString("   " + formatting.SessionStatusDisplay(s.Status).String() + "\n")
		if s.MeetingLink != "" {
			sb.WriteString("   🔗 <a href=\"" + html.EscapeString(s.MeetingLink) + "\">Rejoindre la visio</a>\n")
		} else {
			sb.WriteString("   🔗 Lien de visio pas encore disponible\n")
		}
		if s.QuizAccessEnabled {
			sb.WriteString("   📝 Quiz ouverts\n")
		}
		sb.WriteString("\n")
	}

	kb.Row(keyboard.Button("🖼 Ma semaine en image", DataMyWeek+"0")).
		AddBackToMainButton()
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// HandleMySessions занятия студента
func HandleMySessions(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessions, err := h.SessionService.UpcomingForStudent(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "student sessions")
			return
		}
		hc.Show(MySessionsScreen(sessions, h.Location))
	})
}

// HandleMyWeek неделя занятий студента картинкой
func HandleMyWeek(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		offset, err := common.IntArg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse week offset")
			return
		}
		sessions, err := h.SessionService.UpcomingForStudent(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "student sessions")
			return
		}

		titles := make(map[string]string)
		if courses, err := h.CourseService.ListPublished(ctx, hc.User); err == nil {
			for _, c := range courses {
				titles[c.ID] = c.Title
			}
		}
		common.SendWeek(hc, DataMyWeek, offset, sessions, titles)
	})
}
