package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tickethelp/repair-service/internal/api/http"
	"github.com/tickethelp/repair-service/internal/api/http/handlers"
	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/config"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/observability"
	"github.com/tickethelp/repair-service/internal/persistence"
	"github.com/tickethelp/repair-service/internal/repository"
	"github.com/tickethelp/repair-service/internal/service"
	"github.com/tickethelp/repair-service/internal/worker"
)

const eventQueueSize = 256

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
	statusCache := persistence.NewStatusCache(redis.Client, cfg.Cache.StatusTTL())
	store := repository.NewStore(pool, repository.WithStatusRepository(
		repository.NewCachedStatusRepository(repository.NewStatusRepository(pool), statusCache, logger),
	))

	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		logger.Fatal("failed to build access policy", zap.Error(err))
	}
	dispatcher := events.NewInMemoryDispatcher()
	deps := service.Dependencies{
		Store:      store,
		Authorizer: authorizer,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	relay := worker.NewEventRelay(redis, cfg.Notification.EventChannel, eventQueueSize, logger)
	notificationService := service.NewNotificationService(dispatcher, relay, logger, cfg.Notification)
	worker.StartNotificationWorker(ctx, notificationService, relay)

	authService := service.NewAuthService(*cfg, store.Repos().Users)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(deps)),
		Parts:          handlers.NewPartsHandler(service.NewPartService(deps)),
		StateRequests:  handlers.NewStateRequestsHandler(service.NewStateChangeService(deps)),
		Statuses:       handlers.NewStatusesHandler(service.NewCatalogService(deps)),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	relay.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
