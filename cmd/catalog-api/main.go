package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"marketplace-catalog/internal/bloom"
	"marketplace-catalog/internal/config"
	"marketplace-catalog/internal/discovery"
	"marketplace-catalog/internal/httpapi"
	"marketplace-catalog/internal/kstream"
	"marketplace-catalog/internal/logger"
	"marketplace-catalog/internal/processing"
	"marketplace-catalog/internal/projections"
	"marketplace-catalog/internal/realtime"
	"marketplace-catalog/internal/rejections"
	"marketplace-catalog/internal/store"
)

func main() {
	cfg := config.Load()
	if err := logger.InitLogger(logger.LogConfig{
		Level:      cfg.LogLevel,
		LogDir:     cfg.LogDir,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}); err != nil {
		logger.Fatalf("logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := store.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	defaultTZ, err := time.LoadLocation(cfg.DefaultTZ)
	if err != nil {
		logger.Warnf("DEFAULT_TZ %q invalid, using UTC: %v", cfg.DefaultTZ, err)
		defaultTZ = time.UTC
	}

	snapshots := store.New(rdb, cfg.RedisPrefix)
	hub := realtime.NewHub()
	dedupe := bloom.NewFilter(ctx, rdb, cfg.RedisPrefix+":changes:seen")

	publisher := kstream.NewPublisher(cfg.KafkaBroker, cfg.ChangesTopic)
	defer publisher.Close()

	// Projector: catalog.changes -> Redis snapshot -> realtime hub.
	reader := kstream.NewReader(cfg.KafkaBroker, cfg.ChangesTopic, cfg.ChangesGroup)
	defer reader.Close()
	go func() {
		if err := projections.NewProjector(snapshots, dedupe, hub).Run(ctx, reader); err != nil {
			logger.WithError(err).Error("Projector stopped")
		}
	}()

	r := mux.NewRouter()
	ingest := processing.NewProcessor(publisher, rejections.NewLog(cfg.DataDir+"/rejections"))
	httpapi.New(ingest, snapshots).RegisterRoutes(r)

	disc := discovery.NewService(snapshots, hub, discovery.Options{
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		DefaultTZ:       defaultTZ,
	})
	disc.RegisterRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("Shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Catalog API listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}
