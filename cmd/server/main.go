package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/adapters/fixture"
	httpAdapter "github.com/encorestage/encore/adapters/http"
	"github.com/encorestage/encore/adapters/media_storage"
	"github.com/encorestage/encore/adapters/persistence"
	"github.com/encorestage/encore/internal/application/service"
	"github.com/encorestage/encore/internal/application/usecase/access"
	"github.com/encorestage/encore/internal/application/usecase/board"
	"github.com/encorestage/encore/internal/application/usecase/dashboard"
	"github.com/encorestage/encore/internal/application/usecase/editor"
	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/pkg/auth"
	"github.com/encorestage/encore/pkg/logger"
	"github.com/encorestage/encore/pkg/tracing"
)

func main() {
	fmt.Println("Start Encore web server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var tp *sdktrace.TracerProvider
	if cfg.Jaeger.OTLPEndpoint != "" {
		tp, err = tracing.NewTracerProvider(cfg, appLogger, "encore-server")
		if err != nil {
			log.Fatalf("FATAL: cannot init tracer: %v", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tracing.Shutdown(ctx, tp, appLogger)
	}()

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	var views service.ViewStore
	switch cfg.ViewState.Driver {
	case "memory":
		appLogger.Warn("Using in-process view state; views are lost on restart and not shared between instances")
		views = persistence.NewMemoryViewStore(cfg.ViewState.TTL, nil)
	default:
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			log.Fatalf("FATAL: cannot connect Redis: %v", err)
		}
		defer redisClient.Close()
		views = persistence.NewRedisViewStore(redisClient, cfg.ViewState.TTL, appLogger)
	}

	var events service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			log.Fatalf("FATAL: cannot init Kafka: %v", err)
		}
		defer kafkaClient.Close()
		events = kafkaClient
	} else {
		appLogger.Warn("No Kafka brokers configured; profile and media events are dropped")
	}

	storage, err := media_storage.NewObjectStorage(context.Background(), cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize object storage: %v", err)
	}

	institutions, err := fixture.NewInstitutionSource(cfg.Institution.FixturePath, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot load institution postings: %v", err)
	}

	// Repositories
	opportunityRepo := persistence.NewPostgresOpportunityRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	roleRepo := persistence.NewPostgresRoleRepo(dbPool, appLogger)
	renditionRepo := persistence.NewPostgresRenditionRepo(dbPool, appLogger)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan, cfg.Auth.Issuer)
	ids := service.UUIDGenerator{}

	// Use Cases
	boardUseCase := board.NewBoardUseCase(opportunityRepo, views, ids, appLogger)
	feedUseCase := board.NewFeedUseCase(opportunityRepo, cfg.App.BaseURL, appLogger)
	accessUseCase := access.NewAccessUseCase(roleRepo, appLogger)
	editorUseCase := editor.NewEditorUseCase(
		profileRepo,
		renditionRepo,
		storage,
		events,
		views,
		ids,
		time.Now,
		editor.Options{
			HydrateOnMount:   cfg.Editor.HydrateOnMount,
			MaxMediaPerBatch: cfg.Editor.MaxMediaPerBatch,
		},
		appLogger,
	)
	dashboardUseCase := dashboard.NewDashboardUseCase(institutions, views, ids, appLogger)

	// HTTP Handlers
	router, err := httpAdapter.NewRouter(httpAdapter.Handlers{
		Board:       httpAdapter.NewBoardHandler(boardUseCase, appLogger),
		RSS:         httpAdapter.NewRSSHandler(feedUseCase, appLogger),
		Profile:     httpAdapter.NewProfileHandler(accessUseCase, editorUseCase, cfg.Editor.MaxMediaPerBatch, appLogger),
		Institution: httpAdapter.NewInstitutionHandler(dashboardUseCase, appLogger),
		Session:     httpAdapter.NewSessionHandler(jwtSvc, cfg.Auth.CookieName, cfg.Auth.SecureCookie, appLogger),
	}, jwtSvc, cfg.Auth.CookieName, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot build router: %v", err)
	}

	appLogger.Info("Server running", zap.String("port", cfg.App.Port), zap.String("view_state", cfg.ViewState.Driver))
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Cannot run server: %v", err)
	}
}
