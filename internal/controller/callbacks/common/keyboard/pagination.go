package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// Page границы страницы [From, To) и число страниц для total элементов
type Page struct {
	Current int
	Total   int
	From    int
	To      int
}

// Paginate вычисляет страницу, номер за пределами приводится к ближайшей существующей
func Paginate(total, perPage, page int) Page {
	if perPage <= 0 {
		perPage = 1
	}
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	page = max(0, min(page, pages-1))

	from := page * perPage
	to := min(from+perPage, total)
	return Page{Current: page, Total: pages, From: from, To: to}
}

// PaginationButtons ряд кнопок пагинации.
// prefix - префикс callback (например "courses_page:"), страницы с нуля.
func PaginationButtons(prefix string, currentPage, totalPages int) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var buttons []models.InlineKeyboardButton

	if currentPage > 0 {
		buttons = append(buttons, Button("⬅️", fmt.Sprintf("%s%d", prefix, currentPage-1)))
	}

	buttons = append(buttons, LabelButton(fmt.Sprintf("📄 %d/%d", currentPage+1, totalPages)))

	if currentPage < totalPages-1 {
		buttons = append(buttons, Button("➡️", fmt.Sprintf("%s%d", prefix, currentPage+1)))
	}

	return buttons
}

// AddPagination добавляет пагинацию к builder
func (b *Builder) AddPagination(prefix string, page Page) *Builder {
	return b.Row(PaginationButtons(prefix, page.Current, page.Total)...)
}
