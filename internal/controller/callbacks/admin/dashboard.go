package admin

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
)

// Callback data администратора
const (
	DataPayments = "ad_payments"
	DataPayouts  = "ad_payouts"
	DataPaid     = "ad_paid:" // ad_paid:<payoutID>
)

const listLimit = 10

// DashboardScreen статистика платформы
func DashboardScreen(d *service.AdminDashboard, currency string) common.Screen {
	var sb strings.Builder
	sb.WriteString("🛠 <b>Administration</b>\n\n")

	if st := d.Stats; st != nil {
		sb.WriteString(fmt.Sprintf("👤 Utilisateurs : %d (enseignants %d)\n", st.TotalUsers, st.TotalTeachers))
		sb.WriteString(fmt.Sprintf("📚 Cours : %d\n", st.TotalCourses))
		sb.WriteString(fmt.Sprintf("🗓 Séances actives : %d\n", st.ActiveSessions))
		sb.WriteString("💶 Chiffre d'affaires : " + formatting.FormatPrice(st.TotalRevenue, currency) + "\n")
		sb.WriteString(fmt.Sprintf("⏳ Versements en attente : %d\n", st.PendingPayouts))
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("💳 Paiements", DataPayments), keyboard.Button("🏦 Versements", DataPayouts)).
		Row(keyboard.Button("📚 Modération des cours", DataCourses+"0")).
		AddBackToMainButton()
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// PaymentsScreen последние платежи
func PaymentsScreen(payments []model.Payment, loc *time.Location) common.Screen {
	var sb strings.Builder
	sb.WriteString("💳 <b>Derniers paiements</b>\n\n")
	if len(payments) == 0 {
		sb.WriteString("Aucun paiement.")
	}
	if len(payments) > listLimit {
		payments = payments[:listLimit]
	}
	for _, p := range payments {
		sb.WriteString(fmt.Sprintf("%s %s · %s · cours %s\n",
			formatting.PaymentStatusDisplay(p.Status).Emoji,
			formatting.FormatDateTime(p.CreatedAt.In(loc)),
			formatting.FormatPrice(p.Amount, p.Currency),
			html.EscapeString(p.Course)))
	}

	kb := keyboard.NewBuilder().AddBackButton(common.DataAdmin)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

// PayoutsScreen выплаты учителям, ожидающие первыми
func PayoutsScreen(payouts []model.Payout) common.Screen {
	var sb strings.Builder
	sb.WriteString("🏦 <b>Versements aux enseignants</b>\n\n")
	if len(payouts) == 0 {
		sb.WriteString("Aucun versement.")
	}
	if len(payouts) > listLimit {
		payouts = payouts[:listLimit]
	}

	kb := keyboard.NewBuilder()
	for _, p := range payouts {
		name := p.TeacherName
		if name == "" {
			name = p.Teacher
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> · %s · %s → %s\n",
			formatting.PayoutStatusDisplay(p.Status).Emoji,
			html.EscapeString(name),
			formatting.FormatPrice(p.Amount, p.Currency),
			formatting.FormatDateShort(p.PeriodStart),
			formatting.FormatDateShort(p.PeriodEnd)))

		if p.Status == model.PayoutStatusPending {
			kb.Row(keyboard.Button("✅ Marquer versé : "+name, DataPaid+p.ID))
		}
	}

	kb.AddBackButton(common.DataAdmin)
	return common.Screen{Text: sb.String(), Keyboard: kb.Build()}
}

func loadDashboard(hc *common.HandlerContext) (*service.AdminDashboard, bool) {
	d, err := hc.Handler.DashboardService.Admin(hc.Ctx, hc.User)
	if err != nil {
		common.HandleError(hc, err, "admin dashboard")
		return nil, false
	}
	return d, true
}

// HandleDashboard дашборд администратора
func HandleDashboard(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.ClearState()
		if d, ok := loadDashboard(hc); ok {
			hc.Show(DashboardScreen(d, h.BookingService.Currency()))
		}
	})
}

// HandlePayments последние платежи
func HandlePayments(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if d, ok := loadDashboard(hc); ok {
			hc.Show(PaymentsScreen(d.Payments, h.Location))
		}
	})
}

// HandlePayouts выплаты учителям
func HandlePayouts(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if d, ok := loadDashboard(hc); ok {
			hc.Show(PayoutsScreen(d.Payouts))
		}
	})
}

// HandleMarkPaid отмечает выплату проведённой
func HandleMarkPaid(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithAdmin(ctx, b, callback, h, func(hc *common.HandlerContext) {
		payoutID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse payout id")
			return
		}
		if err := h.DashboardService.MarkPayoutPaid(ctx, hc.User, payoutID); err != nil {
			common.HandleError(hc, err, "mark payout paid")
			return
		}

		if d, ok := loadDashboard(hc); ok {
			hc.Show(PayoutsScreen(d.Payouts))
		}
	})
}
