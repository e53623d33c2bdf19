package student

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

// Callback data процесса записи
const (
	DataTime    = "bk_time"
	DataView    = "bk_view"
	DataDates   = "bk_dates:"  // bk_dates:<page>
	DataAdd     = "bk_add:"    // bk_add:<yyyymmdd>
	DataDay     = "bk_day:"    // bk_day:<idx>
	DataSlot    = "bk_slot:"   // bk_slot:<idx>:<hhmm>
	DataWeekly  = "bk_weekly:" // bk_weekly:<idx>
	DataRemove  = "bk_rm:"     // bk_rm:<idx>
	DataBack    = "bk_back"
	DataPay     = "bk_pay"
	DataClose   = "bk_close"
	DataCourse  = "course:"       // course:<id>
	DataCatalog = "courses_page:" // courses_page:<page>
)

const descriptionLimit = 600

// FlowScreen экран текущего шага записи
func FlowScreen(flow *service.Flow, checkoutURL, currency string, loc *time.Location) common.Screen {
	switch flow.Step {
	case service.StepTimeBooking:
		return TimeBookingScreen(flow)
	case service.StepPayment:
		return PaymentScreen(flow, checkoutURL, currency)
	case service.StepConfirmation:
		return ConfirmationScreen(flow, loc)
	default:
		return CourseDetailsScreen(flow, currency)
	}
}

func stepHeader(n int, title string) string {
	return fmt.Sprintf("<i>Étape %d/4 · %s</i>\n\n", n, title)
}

// CourseDetailsScreen шаг course-details
func CourseDetailsScreen(flow *service.Flow, currency string) common.Screen {
	c := flow.Course

	var sb strings.Builder
	sb.WriteString(stepHeader(1, "Détails du cours"))
	sb.WriteString("📚 <b>" + html.EscapeString(c.Title) + "</b>\n")
	if c.Category != "" || c.Level != "" {
		sb.WriteString("🏷 " + html.EscapeString(strings.Trim(c.Category+" · "+c.Level, " ·")) + "\n")
	}
	sb.WriteString("\n")
	if c.Description != "" {
		sb.WriteString(html.EscapeString(truncate(c.Description, descriptionLimit)) + "\n\n")
	}
	sb.WriteString("💶 Prix : <b>" + formatting.FormatPrice(c.Price, currency) + "</b>\n")
	sb.WriteString("⏱ Durée : " + formatting.FormatDuration(c.Duration) + "\n")
	sb.WriteString("🗓 À planifier : " + formatting.Sessions(flow.RequiredSessions()) + " d'une heure")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("🗓 Choisir mes horaires", DataTime)).
		Row(keyboard.Button("⬅️ Catalogue", DataCatalog+"0"), keyboard.CloseButton(DataClose))

	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// TimeBookingScreen шаг time-booking: выбранные даты и слоты
func TimeBookingScreen(flow *service.Flow) common.Screen {
	n := flow.RequiredSessions()

	var sb strings.Builder
	sb.WriteString(stepHeader(2, "Choix des horaires"))
	sb.WriteString("📚 <b>" + html.EscapeString(flow.Course.Title) + "</b>\n")
	if lines := formatting.FormatAvailability(flow.Template); len(lines) > 0 {
		sb.WriteString("🕐 Disponibilités : " + strings.Join(lines, " ; ") + "\n")
	}
	sb.WriteString(fmt.Sprintf("Sélectionnez %s : %d/%d choisie(s).\n", formatting.Sessions(n), len(flow.SelectedDates), n))

	kb := keyboard.NewBuilder()
	for i, date := range flow.SelectedDates {
		label := "📅 " + formatting.FormatDateShort(date)
		if slot, ok := flow.SelectedSlots[i]; ok {
			label += " · " + slot.Formatted
		} else {
			label += " · choisir l'horaire"
		}
		kb.Row(
			keyboard.Button(label, fmt.Sprintf("%s%d", DataDay, i)),
			keyboard.Button("✖", fmt.Sprintf("%s%d", DataRemove, i)),
		)
	}

	if len(flow.SelectedDates) < n {
		kb.Row(keyboard.Button("➕ Ajouter une date", DataDates+"0"))
	}
	if idx, ok := weeklyCandidate(flow); ok {
		kb.Row(keyboard.Button(
			"🔁 Répéter le "+formatting.FormatDateShort(flow.SelectedDates[idx])+" chaque semaine",
			fmt.Sprintf("%s%d", DataWeekly, idx),
		))
	}

	if flow.Complete() {
		sb.WriteString("\n✅ Tous les horaires sont choisis.")
		kb.Row(keyboard.Button("💳 Passer au paiement", DataPay))
	} else if len(flow.SelectedDates) == 0 {
		sb.WriteString("\nAjoutez une première date, ou choisissez-en une puis répétez-la chaque semaine.")
	}

	kb.Row(keyboard.BackButton(DataBack), keyboard.CloseButton(DataClose))
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// weeklyCandidate первая дата со слотом, если серию ещё можно построить повтором
func weeklyCandidate(flow *service.Flow) (int, bool) {
	if flow.RequiredSessions() < 2 || flow.Complete() {
		return 0, false
	}
	for i := range flow.SelectedDates {
		if _, ok := flow.SelectedSlots[i]; ok {
			return i, true
		}
	}
	return 0, false
}

// DatesScreen выбор новой даты из ближайших доступных
func DatesScreen(flow *service.Flow, candidates []time.Time, page int) common.Screen {
	free := make([]time.Time, 0, len(candidates))
	for _, d := range candidates {
		if !flow.HasDate(d) {
			free = append(free, d)
		}
	}

	const perPage = 8
	p := keyboard.Paginate(len(free), perPage, page)

	text := stepHeader(2, "Choix des horaires") + "📅 Choisissez une date :"
	if len(free) == 0 {
		text = stepHeader(2, "Choix des horaires") + "Aucune date disponible dans les prochaines semaines."
	}

	buttons := make([]models.InlineKeyboardButton, 0, p.To-p.From)
	for _, d := range free[p.From:p.To] {
		buttons = append(buttons, keyboard.Button(formatting.FormatDateShort(d), DataAdd+formatting.DateKey(d)))
	}

	kb := keyboard.NewBuilder().
		Grid(2, buttons...).
		AddPagination(DataDates, p).
		AddBackButton(DataView)
	return common.Screen{Text: text, Keyboard: kb.Build()}
}

// SlotsScreen свободные слоты для выбранной даты
func SlotsScreen(flow *service.Flow, idx int, slots []model.AvailableTimeSlot) common.Screen {
	date := flow.SelectedDates[idx]
	current, hasCurrent := flow.SelectedSlots[idx]

	var sb strings.Builder
	sb.WriteString(stepHeader(2, "Choix des horaires"))
	sb.WriteString("📅 <b>" + formatting.FormatDate(date) + "</b>\n\n")

	kb := keyboard.NewBuilder()
	if len(slots) == 0 {
		sb.WriteString("Aucun créneau libre ce jour-là.")
		kb.Row(keyboard.Button("✖ Retirer cette date", fmt.Sprintf("%s%d", DataRemove, idx)))
	} else {
		sb.WriteString("🕐 Choisissez un créneau d'une heure :")
		buttons := make([]models.InlineKeyboardButton, 0, len(slots))
		for _, slot := range slots {
			label := slot.Formatted
			if hasCurrent && current.Start == slot.Start {
				label = "✅ " + label
			}
			buttons = append(buttons, keyboard.Button(label, fmt.Sprintf("%s%d:%s", DataSlot, idx, strings.ReplaceAll(slot.Start, ":", ""))))
		}
		kb.Grid(2, buttons...)
	}

	kb.AddBackButton(DataView)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// PaymentScreen шаг payment: сводка и ссылка на hosted-оплату
func PaymentScreen(flow *service.Flow, checkoutURL, currency string) common.Screen {
	var sb strings.Builder
	sb.WriteString(stepHeader(3, "Paiement"))
	sb.WriteString("📚 <b>" + html.EscapeString(flow.Course.Title) + "</b>\n\n")
	writePlan(&sb, flow.Plan())
	sb.WriteString("\n💶 Total : <b>" + formatting.FormatPrice(flow.Course.Price, currency) + "</b>\n")

	if flow.PaymentError != "" {
		sb.WriteString("\n❌ Paiement refusé : " + html.EscapeString(flow.PaymentError) + "\n")
		sb.WriteString("Vous pouvez réessayer avec le même lien ou en générer un nouveau.")
	} else {
		sb.WriteString("\nRéglez sur la page sécurisée, la confirmation arrivera ici automatiquement.")
	}

	kb := keyboard.NewBuilder()
	if checkoutURL != "" {
		kb.Row(keyboard.URLButton("💳 Payer en ligne", checkoutURL))
	}
	if flow.PaymentError != "" {
		kb.Row(keyboard.Button("🔄 Nouveau lien de paiement", DataPay))
	}
	kb.Row(keyboard.BackButton(DataBack), keyboard.CloseButton(DataClose))

	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// ConfirmationScreen шаг confirmation: созданные занятия
func ConfirmationScreen(flow *service.Flow, loc *time.Location) common.Screen {
	var sb strings.Builder
	sb.WriteString(stepHeader(4, "Confirmation"))
	sb.WriteString("✅ <b>Inscription confirmée !</b>\n\n")
	sb.WriteString("📚 " + html.EscapeString(flow.Course.Title) + "\n")
	sb.WriteString("🗓 " + formatting.Sessions(len(flow.Sessions)) + " planifiée(s) :\n")
	for _, s := range flow.Sessions {
		start, end := s.StartTime.In(loc), s.EndTime.In(loc)
		sb.WriteString("• " + formatting.FormatDate(start) + ", " + formatting.FormatTimeRange(start, end) + "\n")
	}
	sb.WriteString("\nLe lien de visio apparaîtra dans /mysessions.")

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📅 Mes séances", common.DataMySessions)).
		Row(keyboard.CloseButton(DataClose))
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// BookingFailedText сообщение о неудаче после оплаты
func BookingFailedText(reason error) string {
	if errors.Is(reason, service.ErrLatePayment) {
		return "⚠️ <b>Paiement reçu pour une réservation fermée</b>\n\n" +
			"Votre réservation avait été annulée avant la confirmation du paiement, aucune séance n'a été créée.\n" +
			"Contactez le support pour obtenir le remboursement."
	}
	return "❌ <b>La réservation a échoué</b>\n\n" +
		"Le paiement a été accepté mais les séances n'ont pas pu être créées. Les séances partielles ont été annulées.\n" +
		"Contactez le support pour obtenir le remboursement, puis réessayez via /courses."
}

func writePlan(sb *strings.Builder, plan []service.PlannedSession) {
	for _, p := range plan {
		sb.WriteString(fmt.Sprintf("%d. %s · %s\n", p.Week+1, formatting.FormatDate(p.Date), p.Slot.Formatted))
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
