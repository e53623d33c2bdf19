package teacher

import (
	"context"
	"fmt"
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
)

// Callback data занятий учителя
const (
	DataSession    = "ts:"      // ts:<sessionID>
	DataStatus     = "ts_st:"   // ts_st:<sessionID>:<o|c|x>
	DataLink       = "ts_link:" // ts_link:<sessionID>
	DataQuizAccess = "ts_quiz:" // ts_quiz:<sessionID>
	DataAttendance = "ts_att:"  // ts_att:<sessionID>:<student idx>:<p|a>
)

var statusCodes = map[string]model.SessionStatus{
	"s": model.SessionStatusScheduled,
	"o": model.SessionStatusOngoing,
	"c": model.SessionStatusCompleted,
	"x": model.SessionStatusCancelled,
}

// MeetingLinkPrompt просьба прислать ссылку на встречу
const MeetingLinkPrompt = "🔗 Envoyez le lien de visio pour cette séance (https://...).\n\n/cancel pour annuler."

// SessionScreen карточка занятия с действиями учителя
func SessionScreen(s *model.Session, title string, loc *time.Location) common.Screen {
	start, end := s.StartTime.In(loc), s.EndTime.In(loc)

	var sb strings.Builder
	sb.WriteString("🗓 <b>" + escape(title) + "</b>\n")
	sb.WriteString(formatting.FormatDate(start) + ", " + formatting.FormatTimeRange(start, end) + "\n")
	sb.WriteString("Statut : " + formatting.SessionStatusDisplay(s.Status).String() + "\n")
	if s.MeetingLink != "" {
		sb.WriteString("🔗 " + escape(s.MeetingLink) + "\n")
	} else {
		sb.WriteString("🔗 Pas de lien de visio\n")
	}
	if s.QuizAccessEnabled {
		sb.WriteString("📝 Quiz : ouverts\n")
	} else {
		sb.WriteString("📝 Quiz : fermés\n")
	}

	kb := keyboard.NewBuilder()
	switch s.Status {
	case model.SessionStatusScheduled:
		kb.Row(
			keyboard.Button("▶️ Démarrer", DataStatus+s.ID+":o"),
			keyboard.Button("❌ Annuler", DataStatus+s.ID+":x"),
		)
	case model.SessionStatusOngoing:
		kb.Row(keyboard.Button("✔️ Terminer", DataStatus+s.ID+":c"))
	case model.SessionStatusCancelled:
		kb.Row(keyboard.Button("🗓 Replanifier", DataStatus+s.ID+":s"))
	}

	quizLabel := "🔓 Ouvrir les quiz"
	if s.QuizAccessEnabled {
		quizLabel = "🔒 Fermer les quiz"
	}
	kb.Row(
		keyboard.Button("🔗 Lien de visio", DataLink+s.ID),
		keyboard.Button(quizLabel, DataQuizAccess+s.ID),
	)

	if len(s.Enrolled) > 0 {
		sb.WriteString("\n<b>Présence :</b>\n")
	}
	for i, e := range s.Enrolled {
		sb.WriteString(fmt.Sprintf("%d. Élève %s · %s\n", i+1, escape(shortID(e.Student)), formatting.AttendanceDisplay(e.Attendance).String()))
		kb.Row(
			keyboard.LabelButton(fmt.Sprintf("Élève %d", i+1)),
			keyboard.Button("✅", fmt.Sprintf("%s%s:%d:p", DataAttendance, s.ID, i)),
			keyboard.Button("🚫", fmt.Sprintf("%s%s:%d:a", DataAttendance, s.ID, i)),
		)
	}

	kb.AddBackButton(common.DataTeacher)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return "…" + id[len(id)-6:]
}

// showSession перечитывает занятие и показывает карточку
func showSession(hc *common.HandlerContext, sessionID string) {
	session, err := hc.Handler.SessionService.GetForTeacher(hc.Ctx, hc.User, sessionID)
	if err != nil {
		common.HandleError(hc, err, "get session")
		return
	}
	hc.Show(SessionScreen(session, courseTitle(courseTitles(hc), session.Course), hc.Handler.Location))
}

// HandleSession карточка занятия
func HandleSession(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessionID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse session id")
			return
		}
		hc.ClearState()
		showSession(hc, sessionID)
	})
}

// HandleStatus смена статуса занятия
func HandleStatus(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessionID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse session id")
			return
		}
		code, err := common.Arg(hc.Data(), 1)
		if err != nil {
			common.HandleError(hc, err, "parse status")
			return
		}
		status, ok := statusCodes[code]
		if !ok {
			common.HandleError(hc, common.ErrInvalidFormat, "parse status")
			return
		}

		session, err := h.SessionService.SetStatus(ctx, hc.User, sessionID, status)
		if err != nil {
			common.HandleError(hc, err, "set session status")
			return
		}
		hc.Show(SessionScreen(session, courseTitle(courseTitles(hc), session.Course), h.Location))
	})
}

// HandleMeetingLink просит прислать ссылку на встречу текстом
func HandleMeetingLink(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessionID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse session id")
			return
		}

		hc.Begin(state.StateEnterMeetingLink, map[string]interface{}{
			state.KeySessionID: sessionID,
		})
		if err := hc.SendMessage(MeetingLinkPrompt, nil); err != nil {
			common.HandleError(hc, err, "send prompt")
			return
		}
		hc.Answer("")
	})
}

// HandleQuizAccess открывает или закрывает доступ к тестам
func HandleQuizAccess(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessionID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse session id")
			return
		}

		session, err := h.SessionService.ToggleQuizAccess(ctx, hc.User, sessionID)
		if err != nil {
			common.HandleError(hc, err, "toggle quiz access")
			return
		}
		hc.Show(SessionScreen(session, courseTitle(courseTitles(hc), session.Course), h.Location))
	})
}

// HandleAttendance отметка присутствия: ts_att:<sessionID>:<idx>:<p|a>
func HandleAttendance(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithTeacher(ctx, b, callback, h, func(hc *common.HandlerContext) {
		sessionID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse session id")
			return
		}
		idx, err := common.IntArg(hc.Data(), 1)
		if err != nil {
			common.HandleError(hc, err, "parse student index")
			return
		}
		code, err := common.Arg(hc.Data(), 2)
		if err != nil {
			common.HandleError(hc, err, "parse attendance")
			return
		}

		attendance := model.AttendancePresent
		if code == "a" {
			attendance = model.AttendanceAbsent
		}

		session, err := h.SessionService.GetForTeacher(ctx, hc.User, sessionID)
		if err != nil {
			common.HandleError(hc, err, "get session")
			return
		}
		if idx < 0 || idx >= len(session.Enrolled) {
			common.HandleError(hc, common.ErrInvalidFormat, "attendance index")
			return
		}

		if err := h.SessionService.MarkAttendance(ctx, hc.User, sessionID, session.Enrolled[idx].Student, attendance); err != nil {
			common.HandleError(hc, err, "mark attendance")
			return
		}
		showSession(hc, sessionID)
	})
}
