package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
)

const shutdownTimeout = 10 * time.Second

// MealPlanGenerator is the pipeline the server exposes.
type MealPlanGenerator interface {
	Generate(ctx context.Context, req planner.MealPlanRequest) (planner.GenerationResult, error)
}

// Options tune the HTTP adapter.
type Options struct {
	AllowedOrigins []string
	// LLMTimeout bounds a single generation. Zero means no bound.
	LLMTimeout time.Duration
	// DataPath is reported in /health disk usage when set.
	DataPath string
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	generator MealPlanGenerator
	collector *metrics.Collector
	logger    *zap.Logger
	opts      Options
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerateResponse is the body of a successful generation.
type GenerateResponse struct {
	MealPlan *planner.MealPlan `json:"mealPlan"`
}

// NewServer wires the routes and middleware.
func NewServer(generator MealPlanGenerator, collector *metrics.Collector, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}

	s := &Server{
		router:    gin.New(),
		generator: generator,
		collector: collector,
		logger:    logger.Named("http"),
		opts:      opts,
	}

	s.router.Use(
		RequestID(),
		AccessLog(s.logger, collector),
		gin.Recovery(),
		CORS(opts.AllowedOrigins),
	)

	s.router.POST("/api/generate-meal-plan", s.handleGenerate)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})))

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req planner.MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	// A generation is not abandoned when the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	if s.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LLMTimeout)
		defer cancel()
	}

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		status, msg := errorStatus(err)
		s.logger.Warn("meal plan request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("kind", string(planner.KindOf(err))),
			zap.Error(err),
		)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{MealPlan: result.Plan})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"system": metrics.GetSysHealth(s.opts.DataPath),
	})
}

// errorStatus maps a generation error to an HTTP status and a caller-safe
// message. Raw parser and provider errors never leave the server.
func errorStatus(err error) (int, string) {
	if errors.Is(err, planner.ErrInvalidRequest) {
		return http.StatusBadRequest, err.Error()
	}
	switch planner.KindOf(err) {
	case planner.KindUpstream:
		return http.StatusBadGateway, planner.UserFacingError
	default:
		return http.StatusInternalServerError, planner.UserFacingError
	}
}
