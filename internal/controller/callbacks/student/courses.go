package student

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

const coursesPerPage = 5

// CoursesScreen страница каталога опубликованных курсов
func CoursesScreen(courses []model.Course, page int, currency string) common.Screen {
	p := keyboard.Paginate(len(courses), coursesPerPage, page)

	var sb strings.Builder
	sb.WriteString("📚 <b>Catalogue des cours</b>\n\n")
	if len(courses) == 0 {
		sb.WriteString("Aucun cours n'est publié pour le moment.")
		kb := keyboard.NewBuilder().AddBackToMainButton()
		return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
	}

	kb := keyboard.NewBuilder()
	for i, c := range courses[p.From:p.To] {
		sb.WriteString(fmt.Sprintf("%d. <b>%s</b>\n", p.From+i+1, html.EscapeString(c.Title)))
		sb.WriteString(fmt.Sprintf("   %s · %s · %s\n",
			formatting.FormatPriceShort(c.Price, currency),
			formatting.FormatDuration(c.Duration),
			formatting.Sessions(c.RequiredSessions())))

		kb.Row(keyboard.Button(fmt.Sprintf("%d. %s", p.From+i+1, c.Title), DataCourse+c.ID))
	}

	kb.AddPagination(DataCatalog, p).AddBackToMainButton()
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// HandleCourses страница каталога: courses_page:<n>
func HandleCourses(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		page, err := common.IntArg(hc.Data(), 0)
		if err != nil {
			page = 0
		}

		courses, err := h.CourseService.ListPublished(ctx, hc.User)
		if err != nil {
			common.HandleError(hc, err, "list courses")
			return
		}

		hc.Show(CoursesScreen(courses, page, h.BookingService.Currency()))
	})
}
