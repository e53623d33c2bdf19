package student

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// candidateDays горизонт выбора дат
const candidateDays = 28

// ========================
// Student Booking Handlers
// ========================

// showFlow показывает экран текущего шага
func showFlow(hc *common.HandlerContext, flow *service.Flow) {
	booking := hc.Handler.BookingService
	hc.Show(FlowScreen(flow, booking.CheckoutURL(flow), booking.Currency(), hc.Handler.Location))
}

// HandleCourseDetails открывает процесс записи на курс
func HandleCourseDetails(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithLinked(ctx, b, callback, h, func(hc *common.HandlerContext) {
		courseID, err := common.Arg(hc.Data(), 0)
		if err != nil {
			common.HandleError(hc, err, "parse course id")
			return
		}

		flow, err := h.BookingService.Start(ctx, hc.User, courseID)
		if err != nil {
			common.HandleError(hc, err, "start booking")
			return
		}
		showFlow(hc, flow)
	})
}

// HandleView повторно показывает текущий шаг
func HandleView(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	flow, err := h.BookingService.Flow(hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "view booking")
		return
	}
	showFlow(hc, flow)
}

// HandleOpenTimeBooking переход course-details -> time-booking
func HandleOpenTimeBooking(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	flow, err := h.BookingService.OpenTimeBooking(ctx, hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "open time booking")
		return
	}
	showFlow(hc, flow)
}

// HandleDates список доступных дат
func HandleDates(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	page, err := common.IntArg(hc.Data(), 0)
	if err != nil {
		page = 0
	}

	flow, err := h.BookingService.Flow(hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "get booking")
		return
	}
	dates, err := h.BookingService.CandidateDates(hc.TelegramID, candidateDays)
	if err != nil {
		common.HandleError(hc, err, "candidate dates")
		return
	}

	hc.Show(DatesScreen(flow, dates, page))
}

// HandleAddDate добавляет дату и сразу предлагает выбрать слот
func HandleAddDate(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	key, err := common.Arg(hc.Data(), 0)
	if err != nil {
		common.HandleError(hc, err, "parse date")
		return
	}
	date, err := formatting.ParseDateKey(key, h.Location)
	if err != nil {
		common.HandleError(hc, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err), "parse date")
		return
	}

	flow, idx, err := h.BookingService.AddDate(hc.TelegramID, date)
	if err != nil {
		common.HandleError(hc, err, "add date")
		return
	}

	showSlots(hc, flow, idx)
}

// HandleDay слоты для уже выбранной даты
func HandleDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	idx, err := common.IntArg(hc.Data(), 0)
	if err != nil {
		common.HandleError(hc, err, "parse date index")
		return
	}

	flow, err := h.BookingService.Flow(hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "get booking")
		return
	}
	if idx < 0 || idx >= len(flow.SelectedDates) {
		common.HandleError(hc, service.ErrInvalidDateIndex, "select day")
		return
	}

	showSlots(hc, flow, idx)
}

func showSlots(hc *common.HandlerContext, flow *service.Flow, idx int) {
	slots, err := hc.Handler.BookingService.SlotsForDate(hc.Ctx, hc.TelegramID, flow.SelectedDates[idx])
	if err != nil {
		common.HandleError(hc, err, "day slots")
		return
	}
	hc.Show(SlotsScreen(flow, idx, slots))
}

// HandleSelectSlot выбор слота: bk_slot:<idx>:<hhmm>
func HandleSelectSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	idx, err := common.IntArg(hc.Data(), 0)
	if err != nil {
		common.HandleError(hc, err, "parse date index")
		return
	}
	hhmm, err := common.Arg(hc.Data(), 1)
	if err != nil || len(hhmm) != 4 {
		common.HandleError(hc, common.ErrInvalidFormat, "parse slot")
		return
	}

	flow, err := h.BookingService.SelectSlot(ctx, hc.TelegramID, idx, hhmm[:2]+":"+hhmm[2:])
	if err != nil {
		if errors.Is(err, service.ErrSlotUnavailable) {
			// Слот заняли: показываем актуальный список
			hc.AnswerAlert(common.ErrorMessage(err))
			if current, ferr := h.BookingService.Flow(hc.TelegramID); ferr == nil && idx < len(current.SelectedDates) {
				if slots, serr := h.BookingService.SlotsForDate(ctx, hc.TelegramID, current.SelectedDates[idx]); serr == nil {
					hc.Refresh(SlotsScreen(current, idx, slots))
				}
			}
			return
		}
		common.HandleError(hc, err, "select slot")
		return
	}

	showFlow(hc, flow)
}

// HandleRepeatWeekly повторяет выбранный слот каждую неделю
func HandleRepeatWeekly(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	idx, err := common.IntArg(hc.Data(), 0)
	if err != nil {
		common.HandleError(hc, err, "parse date index")
		return
	}

	flow, err := h.BookingService.RepeatWeekly(ctx, hc.TelegramID, idx)
	if err != nil {
		common.HandleError(hc, err, "repeat weekly")
		return
	}

	hc.Show(FlowScreen(flow, "", h.BookingService.Currency(), h.Location))
}

// HandleRemoveDate убирает дату из выбора
func HandleRemoveDate(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	idx, err := common.IntArg(hc.Data(), 0)
	if err != nil {
		common.HandleError(hc, err, "parse date index")
		return
	}

	flow, err := h.BookingService.RemoveDate(hc.TelegramID, idx)
	if err != nil {
		common.HandleError(hc, err, "remove date")
		return
	}
	showFlow(hc, flow)
}

// HandleBack возврат на предыдущий шаг
func HandleBack(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	flow, err := h.BookingService.Back(ctx, hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "booking back")
		return
	}
	showFlow(hc, flow)
}

// HandlePay создаёт payment intent и показывает ссылку на оплату
func HandlePay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	flow, checkoutURL, err := h.BookingService.ProceedToPayment(ctx, hc.TelegramID)
	if err != nil {
		common.HandleError(hc, err, "proceed to payment")
		return
	}

	h.Logger.Info("Checkout link sent",
		zap.Int64("telegram_id", hc.TelegramID),
		zap.String("flow_id", flow.ID.String()),
	)
	hc.Show(PaymentScreen(flow, checkoutURL, h.BookingService.Currency()))
}

// HandleClose закрывает окно записи и возвращает в главное меню
func HandleClose(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)
	if _, err := h.BookingService.Close(ctx, hc.TelegramID); err != nil && !errors.Is(err, service.ErrNoActiveBooking) {
		h.Logger.Warn("Failed to close booking", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
	}

	if err := hc.LoadUser(); err != nil {
		common.HandleError(hc, err, "load user")
		return
	}
	hc.Show(common.MainMenu(hc.User))
}
