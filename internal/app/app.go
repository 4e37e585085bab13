package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
	"meal-plan-generator/internal/shopping"
)

// MealPlanGenerator is the pipeline the CLI drives.
type MealPlanGenerator interface {
	Generate(ctx context.Context, req planner.MealPlanRequest) (planner.GenerationResult, error)
}

// UsageStore is the part of the metrics store the CLI reads and prunes.
type UsageStore interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
	Cleanup(olderThanDays int) (int64, error)
}

// App holds the application's dependencies.
type App struct {
	generator MealPlanGenerator
	store     UsageStore
	out       io.Writer
}

// NewApp creates and initializes a new App instance. A nil out writes to stdout.
func NewApp(generator MealPlanGenerator, store UsageStore, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{generator: generator, store: store, out: out}
}

// GenerateMealPlan creates a meal plan and prints it, as text or as the same
// JSON document the HTTP API returns.
func (a *App) GenerateMealPlan(ctx context.Context, req planner.MealPlanRequest, asJSON bool) error {
	if !asJSON {
		fmt.Fprintf(a.out, "Generating a %s meal plan at %d kcal/day...\n", req.DietType, req.Calories)
	}

	result, err := a.generator.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]*planner.MealPlan{"mealPlan": result.Plan})
	}

	fmt.Fprintln(a.out, "\n=== WEEKLY MEAL PLAN ===")
	for _, d := range result.Plan.Days {
		fmt.Fprintf(a.out, "\n%s (%s kcal)\n", d.Name, formatCalories(d.Plan.TotalCalories()))
		for _, slot := range []string{planner.SlotBreakfast, planner.SlotLunch, planner.SlotDinner} {
			if m := d.Plan.Slot(slot); m != nil {
				printMeal(a.out, slot, *m)
			}
		}
		for _, s := range d.Plan.Snacks {
			printMeal(a.out, "snack", s)
		}
	}

	if list := shopping.FromMealPlan(result.Plan); len(list.Items) > 0 {
		fmt.Fprintln(a.out, "\n=== SHOPPING LIST ===")
		for _, it := range list.Items {
			if it.Count > 1 {
				fmt.Fprintf(a.out, "- %s (x%d)\n", it.Name, it.Count)
				continue
			}
			fmt.Fprintf(a.out, "- %s\n", it.Name)
		}
	}

	if len(result.Degraded) > 0 {
		fmt.Fprintf(a.out, "\n%d malformed entries were skipped.\n", len(result.Degraded))
	}
	fmt.Fprintf(a.out, "\nTokens used: %d (%s)\n", result.Meta.Usage.TotalTokens, result.Meta.Latency.Round(time.Millisecond))
	return nil
}

func printMeal(w io.Writer, label string, m planner.Meal) {
	fmt.Fprintf(w, "  %-10s %s (%s kcal)\n", label+":", m.Name, formatCalories(m.Calories))
	if m.Description != "" {
		fmt.Fprintf(w, "             %s\n", m.Description)
	}
	for _, ing := range m.Ingredients {
		fmt.Fprintf(w, "             - %s\n", ing)
	}
}

func formatCalories(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// ShowUsage prints the token usage of the last days.
func (a *App) ShowUsage(days int) error {
	usage, err := a.store.GetDailyUsage(days)
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	if len(usage) == 0 {
		fmt.Fprintln(a.out, "No usage recorded yet.")
		return nil
	}

	fmt.Fprintf(a.out, "%-12s %10s %12s %8s %8s\n", "DATE", "PROMPT", "COMPLETION", "PLANS", "FAILED")
	for _, u := range usage {
		fmt.Fprintf(a.out, "%-12s %10d %12d %8d %8d\n", u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution, u.Failures)
	}
	return nil
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(days int) error {
	if days < 0 {
		return fmt.Errorf("days must not be negative, got %d", days)
	}
	affected, err := a.store.Cleanup(days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return nil
}
