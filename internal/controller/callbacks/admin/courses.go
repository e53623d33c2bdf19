package admin

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	DataCourses      = "ad_courses:" // ad_courses:<page>
	DataCourse       = "ad_course:"  // ad_course:<courseID>
	DataCourseStatus = "ad_cst:"     // ad_cst:<courseID>:<d|p|o|a>
)

const coursesPerPage = 6

var courseStatusCodes = map[string]model.CourseStatus{
	"d": model.CourseStatusDraft,
	"p": model.CourseStatusPending,
	"o": model.CourseStatusPublished,
	"a": model.CourseStatusArchived,
}

// CoursesScreen все курсы платформы для модерации, ожидающие первыми
func CoursesScreen(courses []model.Course, page int) common.Screen {
	p := keyboard.Paginate(len(courses), coursesPerPage, page)

	text := "📚 <b>Modération des cours</b>\n\n"
	if len(courses) == 0 {
		text += "Aucun cours."
	} else {
		text += fmt.Sprintf("%d cours au total.", len(courses))
	}

	kb := keyboard.NewBuilder()
	for _, c := range courses[p.From:p.To] {
		kb.Row(keyboard.Button(formatting.CourseStatusDisplay(c.Status).Emoji+" "+c.Title, DataCourse+c.ID))
	}
	kb.AddPagination(DataCourses, p).AddBackButton(common.DataAdmin)

	return common.Screen{Text: text, Keyboard: kb.Build()}
}

// CourseScreen карточка курса с переходами статуса
func CourseScreen(c *model.Course, currency string) common.Screen {
	var sb strings.Builder
	sb.WriteString("📚 <b>" + html.EscapeString(c.Title) + "</b>\n")
	sb.WriteString("Statut : " + formatting.CourseStatusDisplay(c.Status).String() + "\n")
	sb.WriteString("Enseignant : " + html.EscapeString(c.Instructor) + "\n")
	sb.WriteString(formatting.FormatPrice(c.Price, currency) + " · " + formatting.FormatDuration(c.Duration) + "\n")

	kb := keyboard.NewBuilder()
	var buttons []models.InlineKeyboardButton
	for _, code := range []string{"o", "p", "d", "a"} {
		status := courseStatusCodes[code]
		if status == c.Status {
			continue
		}
		d := formatting.CourseStatusDisplay(status)
		buttons = append(buttons, keyboard.Button(d.String(), fmt.Sprintf("%s%s:%s", DataCourseStatus, c.ID, code)))
	}
	kb.Grid(2, buttons...).AddBackButton(DataCourses + "0")

	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

func sortForModeration(courses []model.Course) {
	// Ожидающие модерации первыми, порядок остальных сохраняется
	pending := make([]model.Course, 0, len(courses))
	rest := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if c.Status == model.CourseStatusPending {
			pending = append(pending, c)
		} else {
			rest = append(rest, c)
		}
	}
	copy(courses, append(pending, rest...))
}

// HandleCourses список курсов
func HandleCourses(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		page, err := common.IntArg(hc.Data(), 0)
		if err != nil {
			page = 0
		}

		courses, err := h.CourseService.ListByInstructor(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "list courses")
			return
		}
		sortForModeration(courses)
		hc.Show(CoursesScreen(courses, page))
	})
}

// HandleCourse карточка курса
func HandleCourse(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		courseID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse course id")
			return
		}
		showCourse(hc, courseID)
	})
}

func showCourse(hc *common.HandlerContext, courseID string) {
	course, err := hc.Handler.CourseService.GetCourse(hc.Ctx, hc.User, courseID)
	if err != nil {
		common.HandleError(hc, err, "get course")
		return
	}
	hc.Show(CourseScreen(course, hc.Handler.BookingService.Currency()))
}

// HandleCourseStatus смена статуса курса
func HandleCourseStatus(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		courseID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse course id")
			return
		}
		code, err := common.Arg(hc.Data(), 1)
		if err != nil {
			common.HandleError(hc, err, "parse course status")
			return
		}
		status, ok := courseStatusCodes[code]
		if !ok {
			common.HandleError(hc, common.ErrInvalidFormat, "parse course status")
			return
		}

		if err := h.DashboardService.SetCourseStatus(ctx, hc.User, courseID, status); err != nil {
			common.HandleError(hc, err, "set course status")
			return
		}
		showCourse(hc, courseID)
	})
}
