package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo    repository.UserRepository
		bookingRepo repository.BookingRepository
		ticketRepo  repository.TicketRepository
		replyRepo   repository.TicketReplyRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
		replyRepo = repository.NewTicketReplyRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		userRepo = store.Users()
		bookingRepo = store.Bookings()
		ticketRepo = store.Tickets()
		replyRepo = store.Replies()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	countCache := cache.NewCountCache(redis.Client, cfg.Cache.CountTTL(), logger, metrics)

	assigner := service.NewAssignmentService(userRepo, service.ParseAssignmentPolicy(cfg.Assignment.Policy))
	authService := service.NewAuthService(cfg.Auth, userRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		UserRepo:    userRepo,
		BookingRepo: bookingRepo,
		TicketRepo:  ticketRepo,
		ReplyRepo:   replyRepo,
		Assigner:    assigner,
		CountCache:  countCache,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	replyService := service.NewReplyService(userRepo, ticketRepo, replyRepo, dispatcher, logger)
	bookingService := service.NewBookingService(userRepo, bookingRepo, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartCacheInvalidator(cache.NewInvalidator(countCache, logger), dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:    handlers.NewUsersHandler(authService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Replies:  handlers.NewRepliesHandler(replyService),
		Bookings: handlers.NewBookingsHandler(bookingService),
		Metrics:  metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
