package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/app"
	"github.com/Freeeeeet/tutoring_bot/internal/config"
	"github.com/Freeeeeet/tutoring_bot/internal/controller"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/webhook"
	"github.com/Freeeeeet/tutoring_bot/internal/metrics"
	"github.com/Freeeeeet/tutoring_bot/internal/repository"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.BuildLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting tutoring bot",
		zap.Bool("production", cfg.IsProduction()),
		zap.String("api", cfg.APIBaseURL),
		zap.String("timezone", cfg.Timezone),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	if cfg.MigrationsEnabled {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		if err := migrator.Run(ctx); err != nil {
			migrator.Close()
			return err
		}
		migrator.Close()
	}

	m := metrics.New()
	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		apiclient.WithServiceToken(cfg.APIToken),
		apiclient.WithRateLimitDelay(cfg.RateLimitDelay),
		apiclient.WithObserver(m),
		apiclient.WithLogger(logger.Named("api")),
	)

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	seriesRepo := repository.NewBookingRepository(pool)

	// Services
	loc := cfg.Location()
	availability := service.NewAvailabilityService(api, loc, logger)
	payments := service.NewPaymentService(api, cfg.Currency, cfg.PaymentCheckoutURL, logger)
	materializer := service.NewMaterializer(api, seriesRepo, loc, m, logger)
	booking := service.NewBookingService(api, availability, payments, materializer, seriesRepo, service.NewFlowStore(), m, logger)

	services := controller.Services{
		Users:      service.NewUserService(userRepo, api, logger),
		Courses:    service.NewCourseService(api, logger),
		Sessions:   service.NewSessionService(api, logger),
		Quizzes:    service.NewQuizService(api, logger),
		Dashboards: service.NewDashboardService(api, logger),
		Booking:    booking,
	}

	b, err := bot.New(cfg.TelegramToken,
		bot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram polling error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	botController := controller.NewBotController(b, services, loc, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично
		logger.Warn("Bot commands were not registered", zap.Error(err))
	}
	booking.SetNotifier(botController.Notifier())

	server := webhook.NewServer(cfg.WebhookAddr, cfg.WebhookSecret, booking, m.Handler(), logger)
	scheduler := app.NewScheduler(booking, cfg.CompensationInterval, cfg.FlowTTL, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return botController.Start(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	logger.Info("✅ Bot is running")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
