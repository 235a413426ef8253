package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/encorestage/encore/adapters/event"
	"github.com/encorestage/encore/adapters/media_storage"
	"github.com/encorestage/encore/adapters/persistence"
	backupUC "github.com/encorestage/encore/internal/application/usecase/backup"
	mediaUC "github.com/encorestage/encore/internal/application/usecase/media"
	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/pkg/logger"
	"github.com/encorestage/encore/pkg/tracing"
)

const (
	mediaConsumerGroup    = "media-rendition-group"
	snapshotConsumerGroup = "profile-snapshot-group"
)

func main() {
	fmt.Println("Starting Encore worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("FATAL: KAFKA_BROKERS is required for the worker")
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	var tp *sdktrace.TracerProvider
	if cfg.Jaeger.OTLPEndpoint != "" {
		tp, err = tracing.NewTracerProvider(cfg, appLogger, "encore-worker")
		if err != nil {
			log.Fatalf("FATAL: cannot init tracer: %v", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tracing.Shutdown(ctx, tp, appLogger)
	}()

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: cannot connect Postgres: %v", err)
	}
	defer dbPool.Close()

	// Thumbnails are Cloudinary transformations, whichever backend stores the originals.
	thumbnailer, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize thumbnailer: %v", err)
	}

	// Repositories
	renditionRepo := persistence.NewPostgresRenditionRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)

	snapshotStorage, err := media_storage.NewObjectStorage(context.Background(), cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize object storage: %v", err)
	}

	// Worker Use Cases
	processMediaUC := mediaUC.NewProcessMediaUseCase(renditionRepo, thumbnailer, appLogger)
	snapshotUC := backupUC.NewSnapshotUseCase(profileRepo, snapshotStorage, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consume(ctx, cfg, event.TopicMediaEvents, mediaConsumerGroup, appLogger, func(ctx context.Context, value []byte) (bool, error) {
			var payload event.MediaEventPayload
			if err := json.Unmarshal(value, &payload); err != nil {
				return false, err
			}
			return true, processMediaUC.Execute(ctx, payload)
		})
	})
	g.Go(func() error {
		return consume(ctx, cfg, event.TopicProfileEvents, snapshotConsumerGroup, appLogger, func(ctx context.Context, value []byte) (bool, error) {
			var payload event.ProfileEventPayload
			if err := json.Unmarshal(value, &payload); err != nil {
				return false, err
			}
			return true, snapshotUC.Execute(ctx, payload)
		})
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Worker stopped with error", err)
	}
	appLogger.Info("Worker stopped")
}
