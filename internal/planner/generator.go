package planner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"meal-plan-generator/internal/llm"
	"meal-plan-generator/internal/shared"
)

// AgentName identifies the pipeline in recorded metrics.
const AgentName = "MealPlanGenerator"

const maxLoggedResponse = 500

// UsageRecorder receives the metadata of every attempted generation.
type UsageRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// GenerationResult is a successfully generated plan.
type GenerationResult struct {
	Plan     *MealPlan
	Degraded []string
	Meta     shared.AgentMeta
}

// Generator runs the prompt, call, extract pipeline for one request.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	textGen   llm.TextGenerator
	extractor *Extractor
	logger    *zap.Logger
	recorders []UsageRecorder
}

func NewGenerator(textGen llm.TextGenerator, extractor *Extractor, logger *zap.Logger, recorders ...UsageRecorder) *Generator {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		textGen:   textGen,
		extractor: extractor,
		logger:    logger,
		recorders: recorders,
	}
}

// Generate produces a seven-day plan for req using exactly one LLM call.
// Invalid requests fail with an error wrapping ErrInvalidRequest before any
// call is made. Every other failure is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, req MealPlanRequest) (GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return GenerationResult{}, err
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return GenerationResult{}, err
	}

	start := time.Now()
	meta := shared.AgentMeta{AgentName: AgentName}
	log := g.logger.With(
		zap.String("diet_type", req.DietType),
		zap.Int("calories", req.Calories),
		zap.Bool("snacks", req.IncludeSnacks),
	)

	resp, err := g.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		genErr := newGenerationError(KindUpstream, "llm call failed", err)
		log.Error("meal plan generation failed", zap.String("kind", string(genErr.Kind)), zap.Error(err))
		g.record(g.finish(meta, genErr))
		return GenerationResult{}, genErr
	}

	extraction, err := g.extractor.Extract(resp.Content)
	if err != nil {
		log.Error("meal plan generation failed",
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
			zap.Strings("malformed", extraction.Degraded),
			zap.String("response", truncate(resp.Content, maxLoggedResponse)),
		)
		g.record(g.finish(meta, err))
		return GenerationResult{}, err
	}

	if len(extraction.Degraded) > 0 {
		log.Warn("dropped malformed plan entries", zap.Strings("dropped", extraction.Degraded))
	}
	meta = g.finish(meta, nil)
	log.Info("meal plan generated",
		zap.Int("days", len(extraction.Plan.Days)),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	g.record(meta)

	return GenerationResult{Plan: extraction.Plan, Degraded: extraction.Degraded, Meta: meta}, nil
}

func (g *Generator) finish(meta shared.AgentMeta, err error) shared.AgentMeta {
	if err == nil {
		meta.Outcome = shared.OutcomeSuccess
		return meta
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		meta.Outcome = string(genErr.Kind)
	} else {
		meta.Outcome = string(KindShape)
	}
	return meta
}

func (g *Generator) record(meta shared.AgentMeta) {
	for _, r := range g.recorders {
		if err := r.RecordMeta(meta); err != nil {
			g.logger.Warn("failed to record execution metrics", zap.Error(err))
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
