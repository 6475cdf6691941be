package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/media-service/internal/api/http"
	"github.com/spec-kit/media-service/internal/api/http/handlers"
	"github.com/spec-kit/media-service/internal/api/procedures"
	"github.com/spec-kit/media-service/internal/auth"
	"github.com/spec-kit/media-service/internal/config"
	"github.com/spec-kit/media-service/internal/events"
	"github.com/spec-kit/media-service/internal/observability"
	"github.com/spec-kit/media-service/internal/persistence"
	"github.com/spec-kit/media-service/internal/procedure"
	"github.com/spec-kit/media-service/internal/ratelimit"
	"github.com/spec-kit/media-service/internal/repository"
	"github.com/spec-kit/media-service/internal/service"
	"github.com/spec-kit/media-service/internal/worker"
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
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)
	mediaRepo := repository.NewMediaRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	libraryRepo := repository.NewLibraryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	accountService := service.NewAccountService(*cfg, service.AccountDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Dispatcher:  dispatcher,
	})
	catalogService := service.NewCatalogService(mediaRepo, dispatcher)
	billingService := service.NewBillingService(cfg.Billing, service.BillingDependencies{
		OrderRepo:  orderRepo,
		MediaRepo:  mediaRepo,
		UserRepo:   userRepo,
		Provider:   service.NewStubPaymentProvider(logger),
		Dispatcher: dispatcher,
	})
	libraryService := service.NewLibraryService(libraryRepo, mediaRepo)
	adminService := service.NewAdminService(userRepo, permissionRepo, sessionRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	resolver := auth.NewSessionResolver(accountService.TokenManager(), sessionRepo, userRepo)

	var limiter procedure.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(redis.Client, cfg.RateLimit.Requests, cfg.RateLimit.Window())
	}

	router := procedure.NewRouter()
	procedures.Register(router, procedures.Dependencies{
		Resolver:    resolver,
		Permissions: permissionRepo,
		Limiter:     limiter,
		Accounts:    accountService,
		Catalog:     catalogService,
		Billing:     billingService,
		Library:     libraryService,
		Admin:       adminService,
	})

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.Development())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	proceduresHandler := handlers.NewProceduresHandler(router)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     healthHandler,
		Procedures: proceduresHandler,
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
