package callbacktypes

import (
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"go.uber.org/zap"
)

// StateManager интерфейс для управления состоянием диалогов
type StateManager interface {
	ClearState(telegramID int64)
	GetState(telegramID int64) state.UserState
	SetState(telegramID int64, st state.UserState)
	Begin(telegramID int64, st state.UserState, data map[string]interface{})
	SetData(telegramID int64, key string, value interface{})
	GetData(telegramID int64, key string) (interface{}, bool)
	GetAllData(telegramID int64) map[string]interface{}
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService      *service.UserService
	CourseService    *service.CourseService
	SessionService   *service.SessionService
	QuizService      *service.QuizService
	DashboardService *service.DashboardService
	BookingService   *service.BookingService
	StateManager     StateManager
	Location         *time.Location
	Logger           *zap.Logger
}
