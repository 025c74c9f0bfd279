package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/landmark/internal/api"
	"github.com/your-org/landmark/internal/api/ws"
	"github.com/your-org/landmark/internal/config"
	"github.com/your-org/landmark/internal/geocode"
	"github.com/your-org/landmark/internal/observability"
	"github.com/your-org/landmark/internal/pipeline"
	"github.com/your-org/landmark/internal/queue"
	"github.com/your-org/landmark/internal/storage"
	"github.com/your-org/landmark/internal/vision"
	"github.com/your-org/landmark/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting landmark API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	blobs, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := blobs.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Bridge record lifecycle events to connected WebSocket clients
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create record event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeRecordEvents(ctx, "api-records", func(ctx context.Context, msg jetstream.Msg) error {
		var event dto.RecordEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			return err
		}
		hub.BroadcastEvent(&event)
		return nil
	})
	if err != nil {
		slog.Warn("start record event consumer", "error", err)
	}

	// Outbound collaborators
	geocoder := geocode.NewClient(cfg.Google.GeocodingEndpoint, cfg.Google.GeocodingAPIKey, cfg.Google.Timeout, nil)
	detector := vision.NewClient(cfg.Google.VisionEndpoint, cfg.Google.VisionAPIKey, cfg.Google.Timeout, nil)

	pipe := pipeline.New(db, blobs, geocoder, detector, cfg.Upload)

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:      cfg.Server.APIKey,
		AdminAPIKey: cfg.Server.AdminAPIKey,
		DB:          db,
		Blobs:       blobs,
		Pipeline:    pipe,
		Producer:    producer,
		Hub:         hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
