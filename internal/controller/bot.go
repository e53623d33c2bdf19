package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/handlers"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services сервисы, которыми пользуется бот
type Services struct {
	Users      *service.UserService
	Courses    *service.CourseService
	Sessions   *service.SessionService
	Quizzes    *service.QuizService
	Dashboards *service.DashboardService
	Booking    *service.BookingService
}

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	notifier        *Notifier
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	services Services,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager()

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		services.Users,
		services.Courses,
		services.Sessions,
		services.Quizzes,
		services.Dashboards,
		services.Booking,
		stateManager,
		location,
		logger,
	)

	// Создаём callback handler с зависимостями
	callbackHandler := callbacks.NewHandler(
		services.Users,
		services.Courses,
		services.Sessions,
		services.Quizzes,
		services.Dashboards,
		services.Booking,
		stateManager,
		location,
		logger,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		notifier:        NewNotifier(botInstance, services.Booking, location, logger),
		logger:          logger,
	}
}

// Notifier уведомления о результатах оплаты, которые приходят через webhook
func (c *BotController) Notifier() *Notifier {
	return c.notifier
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start принимает код привязки: "/start CODE"
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/menu", bot.MatchTypeExact, c.handlers.HandleMenu)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/unlink", bot.MatchTypeExact, c.handlers.HandleUnlink)

	// Студент
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/courses", bot.MatchTypeExact, c.handlers.HandleCourses)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mysessions", bot.MatchTypeExact, c.handlers.HandleMySessions)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/quizzes", bot.MatchTypeExact, c.handlers.HandleQuizzes)

	// Учитель и администратор
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/teacher", bot.MatchTypeExact, c.handlers.HandleTeacher)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact, c.handlers.HandleAdmin)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Démarrer et lier le compte"},
		{Command: "courses", Description: "📚 Catalogue des cours"},
		{Command: "mysessions", Description: "📅 Mes prochaines séances"},
		{Command: "quizzes", Description: "📝 Mes quiz"},
		{Command: "teacher", Description: "🎓 Espace enseignant"},
		{Command: "admin", Description: "🛠 Administration"},
		{Command: "menu", Description: "📋 Menu principal"},
		{Command: "cancel", Description: "✖️ Annuler l'action en cours"},
		{Command: "help", Description: "❓ Aide"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
