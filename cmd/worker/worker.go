package main

import (
	"context"
	"log"
	"time"

	"entrenai/internal/ai"
	"entrenai/internal/config"
	"entrenai/internal/lms"
	"entrenai/internal/logger"
	"entrenai/internal/queue"
	"entrenai/internal/store"
	"entrenai/internal/telemetry"
	"entrenai/services"

	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("entrenai-worker", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	vectorStore, err := store.NewStore(ctx, db, cfg.VectorDimensions)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize vector store:", err)
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	provider, err := ai.NewProvider(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}
	defer provider.Close()

	moodleClient := lms.NewMoodleClient(cfg.MoodleURL, cfg.MoodleToken)

	ocrClient := services.NewOCRClient(cfg)
	if ocrClient != nil {
		if healthy, err := ocrClient.IsHealthy(context.Background()); err != nil || !healthy {
			logger.Warn("OCR service unavailable at startup", "error", err)
		}
	}
	extractor := services.NewContentExtractor(ocrClient)

	chunker, err := services.NewChunkingService(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}

	pipeline := services.NewFileProcessor(vectorStore, provider, moodleClient, extractor, chunker)
	processor := queue.NewTaskProcessor(pipeline, rdb)

	server := queue.NewServer(config.AsynqRedisOpt(cfg), cfg.WorkerConcurrency)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessFile, processor.ProcessFile)

	logger.Info("Starting ingest worker",
		"concurrency", cfg.WorkerConcurrency, "queue", queue.QueueIngest)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
