package callbacks

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Handler with Dependencies
// ========================

// Handler обертка для callbacktypes.Handler с методами
type Handler struct {
	*callbacktypes.Handler
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(
	userService *service.UserService,
	courseService *service.CourseService,
	sessionService *service.SessionService,
	quizService *service.QuizService,
	dashboardService *service.DashboardService,
	bookingService *service.BookingService,
	stateManager callbacktypes.StateManager,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	inner := &callbacktypes.Handler{
		UserService:      userService,
		CourseService:    courseService,
		SessionService:   sessionService,
		QuizService:      quizService,
		DashboardService: dashboardService,
		BookingService:   bookingService,
		StateManager:     stateManager,
		Location:         location,
		Logger:           logger,
	}
	return &Handler{Handler: inner}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery

	h.Logger.Info("Callback received",
		zap.String("data", callback.Data),
		zap.Int64("user_id", callback.From.ID),
	)

	Route(ctx, b, callback, h.Handler)
}
