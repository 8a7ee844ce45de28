package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-portal/internal/api/http"
	"github.com/spec-kit/grievance-portal/internal/api/http/handlers"
	"github.com/spec-kit/grievance-portal/internal/attach"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/config"
	"github.com/spec-kit/grievance-portal/internal/directory"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/notify"
	"github.com/spec-kit/grievance-portal/internal/observability"
	"github.com/spec-kit/grievance-portal/internal/persistence"
	"github.com/spec-kit/grievance-portal/internal/service"
	"github.com/spec-kit/grievance-portal/internal/store"
	"github.com/spec-kit/grievance-portal/internal/worker"
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

	grievances, dir, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init record store", zap.Error(err))
	}
	defer cleanup()

	dispatcher := events.NewInMemoryDispatcher()
	grievanceService := service.NewGrievanceService(service.GrievanceDependencies{
		Store:      grievances,
		Dispatcher: dispatcher,
		OpTimeout:  cfg.Store.OpTimeout(),
	})

	mailer := notify.NewGraphMailer(cfg.OAuth, cfg.Notify)
	if !mailer.Configured() {
		logger.Warn("graph mailer not configured; email notifications disabled")
	}
	notificationService := service.NewNotificationService(dispatcher, mailer, dir, logger)
	worker.StartNotificationWorker(notificationService)

	var attachments attach.Store
	if cloudinaryStore, err := attach.NewCloudinaryStore(cfg.Attachment, logger); err != nil {
		logger.Warn("attachment store not configured; uploads disabled", zap.Error(err))
	} else {
		attachments = cloudinaryStore
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)
	staticAuth := auth.NewStaticAuthenticator(dir)
	oauthExchanger := auth.NewOAuthExchanger(cfg.OAuth)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, grievances),
		Auth:           handlers.NewAuthHandler(staticAuth, oauthExchanger, tokens),
		Grievances:     handlers.NewGrievancesHandler(grievanceService, dir, attachments, cfg.Attachment.SignedURLTTL(), logger),
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

// buildStores wires the record store and directory for the configured
// backend. The returned cleanup releases any client resources.
func buildStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.GrievanceStore, directory.Directory, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		redis := persistence.NewRedis(cfg.Redis, logger)
		return store.NewRedisStore(redis.Client), directory.NewRedisDirectory(redis.Client), redis.Close, nil

	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, func() {}, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, nil, func() {}, err
			}
		}
		return store.NewPostgresStore(pg.PoolHandle()), directory.NewPostgresDirectory(pg.PoolHandle()), pg.Close, nil

	default:
		return store.NewCSVStore(cfg.Store.GrievanceFile), directory.NewCSVDirectory(cfg.Store.UsersFile), func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
