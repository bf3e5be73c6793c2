package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/facilityhub/ticket-service/internal/api/http"
	"github.com/facilityhub/ticket-service/internal/api/http/handlers"
	"github.com/facilityhub/ticket-service/internal/auth"
	"github.com/facilityhub/ticket-service/internal/cache"
	"github.com/facilityhub/ticket-service/internal/config"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/observability"
	"github.com/facilityhub/ticket-service/internal/persistence"
	"github.com/facilityhub/ticket-service/internal/repository"
	"github.com/facilityhub/ticket-service/internal/service"
	"github.com/facilityhub/ticket-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)

	appCache := cache.New(redis.Client, logger, cfg.Cache.TicketConfigTTL(), cfg.Cache.WorkloadTTL())
	dispatcher := events.NewInMemoryDispatcher()
	classifier := service.NewKeywordClassifier()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		CategoryRepo: categoryRepo,
		MemberRepo:   memberRepo,
		Dispatcher:   dispatcher,
		Classifier:   classifier,
		Logger:       logger,
	})
	classificationService := service.NewClassificationService(service.ClassificationDependencies{
		TicketRepo:   ticketRepo,
		CategoryRepo: categoryRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Classifier:   classifier,
	})
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   ticketRepo,
		MemberRepo:   memberRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Cache:        appCache,
	})
	authService := service.NewAuthService(*cfg, memberRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), memberRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, classificationService, slaService, assignmentService),
		Resolvers:      handlers.NewResolversHandler(assignmentService),
		Properties:     handlers.NewPropertiesHandler(categoryRepo, appCache),
		AuthMiddleware: authMiddleware,
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
