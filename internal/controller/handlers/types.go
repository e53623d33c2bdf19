package handlers

import (
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService      *service.UserService
	courseService    *service.CourseService
	sessionService   *service.SessionService
	quizService      *service.QuizService
	dashboardService *service.DashboardService
	bookingService   *service.BookingService
	stateManager     *state.Manager
	location         *time.Location
	validate         *validator.Validate
	logger           *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	courseService *service.CourseService,
	sessionService *service.SessionService,
	quizService *service.QuizService,
	dashboardService *service.DashboardService,
	bookingService *service.BookingService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:      userService,
		courseService:    courseService,
		sessionService:   sessionService,
		quizService:      quizService,
		dashboardService: dashboardService,
		bookingService:   bookingService,
		stateManager:     stateManager,
		location:         location,
		validate:         validator.New(),
		logger:           logger,
	}
}
