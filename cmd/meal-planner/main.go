package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"meal-plan-generator/internal/app"
	"meal-plan-generator/internal/config"
	"meal-plan-generator/internal/database"
	"meal-plan-generator/internal/llm"
	"meal-plan-generator/internal/logger"
	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep stdout for the plan itself.
	log := logger.New(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})
	defer log.Sync()

	db, err := database.NewDB(cfg.MetricsDBPath, nil)
	if err != nil {
		fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	metricsStore := metrics.NewStore(db.SQL)

	ctx := context.Background()

	switch os.Args[1] {
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		diet := generateCmd.String("diet", "", "Diet type, e.g. Vegetarian (required)")
		calories := generateCmd.Int("calories", 0, "Daily calorie target (required)")
		allergies := generateCmd.String("allergies", "", "Allergies to avoid")
		cuisine := generateCmd.String("cuisine", "", "Preferred cuisine")
		snacks := generateCmd.Bool("snacks", false, "Include snacks")
		asJSON := generateCmd.Bool("json", false, "Print the plan as JSON")
		generateCmd.Parse(os.Args[2:])

		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			fatal("Failed to create LLM client: %v", err)
		}
		defer client.Close()

		generator := planner.NewGenerator(
			client,
			planner.NewExtractor(planner.NewValidator(cfg.ValidationPolicy)),
			log.Named("planner"),
			metricsStore,
		)

		if cfg.LLMTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.LLMTimeout)
			defer cancel()
		}

		application := app.NewApp(generator, metricsStore, os.Stdout)
		err = application.GenerateMealPlan(ctx, planner.MealPlanRequest{
			DietType:      *diet,
			Calories:      *calories,
			Allergies:     *allergies,
			Cuisine:       *cuisine,
			IncludeSnacks: *snacks,
		}, *asJSON)
		if err != nil {
			log.Debug("generation failed", zap.Error(err))
			fatal("%v", userMessage(err))
		}
	case "usage":
		usageCmd := flag.NewFlagSet("usage", flag.ExitOnError)
		days := usageCmd.Int("days", 7, "Show usage for the last N days")
		usageCmd.Parse(os.Args[2:])

		if err := app.NewApp(nil, metricsStore, os.Stdout).ShowUsage(*days); err != nil {
			fatal("Usage report failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		if err := app.NewApp(nil, metricsStore, os.Stdout).CleanupMetrics(*days); err != nil {
			fatal("Cleanup failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// userMessage hides pipeline internals unless the request itself was wrong.
func userMessage(err error) string {
	if planner.KindOf(err) != "" {
		return planner.UserFacingError
	}
	return err.Error()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate           Generate a 7-day meal plan (-diet, -calories, -allergies, -cuisine, -snacks, -json)")
	fmt.Println("  usage              Show recent LLM token usage")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
