package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"meal-plan-generator/internal/config"
	"meal-plan-generator/internal/database"
	"meal-plan-generator/internal/llm"
	"meal-plan-generator/internal/logger"
	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
	"meal-plan-generator/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	ctx := context.Background()

	// 2. Initialize Infrastructure
	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		log.Fatal("failed to create llm client", zap.Error(err))
	}
	defer client.Close()

	db, err := database.NewDB(cfg.MetricsDBPath, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)

	// 3. Initialize the pipeline
	generator := planner.NewGenerator(
		client,
		planner.NewExtractor(planner.NewValidator(cfg.ValidationPolicy)),
		log.Named("planner"),
		metricsStore,
	)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, generator, metricsStore, log)
	if err != nil {
		log.Fatal("failed to initialize telegram bot", zap.Error(err))
	}

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("telegram bot server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Plans already being generated still get answered and recorded.
	drainTimeout := time.Minute
	if cfg.LLMTimeout > 0 {
		drainTimeout = cfg.LLMTimeout + 10*time.Second
	}
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if err := bot.Wait(ctxDrain); err != nil {
		log.Warn("gave up waiting for in-flight messages", zap.Error(err))
	}

	log.Info("server exiting")
}
