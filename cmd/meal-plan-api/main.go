package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"meal-plan-generator/internal/config"
	"meal-plan-generator/internal/database"
	"meal-plan-generator/internal/httpapi"
	"meal-plan-generator/internal/llm"
	"meal-plan-generator/internal/logger"
	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Infrastructure
	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		log.Fatal("failed to create llm client", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	defer client.Close()

	db, err := database.NewDB(cfg.MetricsDBPath, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	collector := metrics.NewCollector()

	// 3. Initialize the pipeline
	generator := planner.NewGenerator(
		client,
		planner.NewExtractor(planner.NewValidator(cfg.ValidationPolicy)),
		log.Named("planner"),
		metricsStore,
		collector,
	)

	// 4. Start Server with Graceful Shutdown
	gin.SetMode(gin.ReleaseMode)
	srv := httpapi.NewServer(generator, collector, log, httpapi.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		LLMTimeout:     cfg.LLMTimeout,
		DataPath:       filepath.Dir(cfg.MetricsDBPath),
	})

	log.Info("meal plan api starting",
		zap.String("provider", cfg.LLMProvider),
		zap.String("validation", string(cfg.ValidationPolicy)),
		zap.String("port", cfg.Port),
	)
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
	log.Info("server exiting")
}
