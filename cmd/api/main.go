package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-service/internal/api/http"
	"github.com/spec-kit/portal-service/internal/api/http/handlers"
	"github.com/spec-kit/portal-service/internal/audit"
	"github.com/spec-kit/portal-service/internal/auth"
	"github.com/spec-kit/portal-service/internal/config"
	"github.com/spec-kit/portal-service/internal/events"
	"github.com/spec-kit/portal-service/internal/observability"
	"github.com/spec-kit/portal-service/internal/outbox"
	"github.com/spec-kit/portal-service/internal/persistence"
	"github.com/spec-kit/portal-service/internal/repository"
	"github.com/spec-kit/portal-service/internal/service"
	"github.com/spec-kit/portal-service/internal/storage"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewTicketReplyRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	macroRepo := repository.NewMacroRepository(pool)
	executionRepo := repository.NewMacroExecutionRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	auditSink := audit.NewPgxSink(pool, logger)
	emailOutbox := outbox.NewRedisOutbox(redis.Client, cfg.Outbox.QueueKey, logger)
	fileStore := storage.NewLocalStore(cfg.Storage.BasePath)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		ReplyRepo:      replyRepo,
		AttachmentRepo: attachmentRepo,
		HistoryRepo:    historyRepo,
		Dispatcher:     dispatcher,
		AuditSink:      auditSink,
		FileStore:      fileStore,
		Logger:         logger,
	})
	macroService := service.NewMacroService(service.MacroDependencies{
		MacroRepo:     macroRepo,
		ExecutionRepo: executionRepo,
		TicketService: ticketService,
		EmailOutbox:   emailOutbox,
		Dispatcher:    dispatcher,
		AuditSink:     auditSink,
		Logger:        logger,
	})
	service.NewNotificationService(dispatcher, emailOutbox, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(tokenManager)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Macros:         handlers.NewMacrosHandler(macroService),
		Metrics:        handlers.NewMetricsHandler(metrics),
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
