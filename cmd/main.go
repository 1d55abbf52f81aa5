package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entrenai/internal/ai"
	"entrenai/internal/config"
	"entrenai/internal/lms"
	"entrenai/internal/logger"
	"entrenai/internal/queue"
	"entrenai/internal/store"
	"entrenai/internal/telemetry"
	"entrenai/middleware"
	"entrenai/routes"
	"entrenai/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("entrenai-api", cfg.OTLPEndpoint)
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

	redisOpt := config.AsynqRedisOpt(cfg)
	queueClient := queue.NewClient(redisOpt, time.Duration(cfg.TaskTimeoutMinutes)*time.Minute)
	defer queueClient.Close()

	statusReader := queue.NewStatusReader(redisOpt, rdb)
	defer statusReader.Close()

	moodleClient := lms.NewMoodleClient(cfg.MoodleURL, cfg.MoodleToken)
	detector := services.NewChangeDetector(vectorStore)
	refresher := services.NewCourseRefresher(moodleClient, detector, queueClient)

	scheduler := services.NewRefreshScheduler(refresher, cfg.RefreshCron, cfg.CourseIDs)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start refresh scheduler:", err)
	}
	defer scheduler.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/courses/:courseID/refresh", routes.RefreshCourse(refresher))
		v1.GET("/courses/:courseID/files", routes.ListCourseFiles(moodleClient, detector))
		v1.DELETE("/courses/:courseID/files/:filename", routes.DeleteCourseFile(vectorStore))
		v1.POST("/courses/:courseID/search", routes.SearchCourse(vectorStore, provider))
		v1.GET("/tasks/:taskID", routes.GetTaskStatus(statusReader))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
