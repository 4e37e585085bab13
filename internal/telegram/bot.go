package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"meal-plan-generator/internal/config"
	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
	"meal-plan-generator/internal/shopping"
)

var helpText = "🥗 *Meal Plan Bot*\n\n" + escape(
	"/plan diet=<diet> calories=<kcal> [allergies=<list>] [cuisine=<style>] [snacks=yes|no]\n"+
		"/usage shows recent token usage\n\n"+
		"Example: /plan diet=Vegetarian calories=1800 snacks=yes")

// MealPlanGenerator is the pipeline the bot exposes.
type MealPlanGenerator interface {
	Generate(ctx context.Context, req planner.MealPlanRequest) (planner.GenerationResult, error)
}

// UsageReporter reads the recorded usage for /usage.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

// botAPI is the subset of *tgbotapi.BotAPI the bot needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the meal plan generator.
type Bot struct {
	api       botAPI
	generator MealPlanGenerator
	usage     UsageReporter
	allowed   []int64
	timeout   time.Duration
	dataPath  string
	logger    *zap.Logger

	inflight sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, generator MealPlanGenerator, usage UsageReporter, logger *zap.Logger) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if cfg.TelegramWebhookURL == "" {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("telegram")

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	if len(cfg.TelegramAllowedUserIDs) == 0 {
		logger.Warn("TELEGRAM_ALLOWED_USER_IDS is empty, every message will be ignored")
	}

	return newBot(api, generator, usage, cfg.TelegramAllowedUserIDs, cfg.LLMTimeout, filepath.Dir(cfg.MetricsDBPath), logger), nil
}

func newBot(api botAPI, generator MealPlanGenerator, usage UsageReporter, allowed []int64, timeout time.Duration, dataPath string, logger *zap.Logger) *Bot {
	return &Bot{
		api:       api,
		generator: generator,
		usage:     usage,
		allowed:   allowed,
		timeout:   timeout,
		dataPath:  dataPath,
		logger:    logger,
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !b.isAllowed(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	// Telegram retries webhooks that do not answer quickly.
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.processMessage(msg)
	}()
}

// Wait blocks until every message being processed has been answered, or ctx
// is done. Call it after the webhook server stopped accepting updates.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	return slices.Contains(b.allowed, userID)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "plan":
		b.handlePlanRequest(msg)
	case "usage":
		b.handleUsageCommand(msg.Chat.ID)
	default:
		b.sendMarkdown(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	req, err := parsePlanArgs(msg.CommandArguments())
	if err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ %s\n\n%s", escape(err.Error()), escape(planUsage)))
		return
	}
	if err := req.Validate(); err != nil {
		b.sendMarkdown(chatID, fmt.Sprintf("❌ %s\n\n%s", escape(err.Error()), escape(planUsage)))
		return
	}

	reply := tgbotapi.NewMessage(chatID, "🧑‍🍳 *Thinking...* \n(Generating your 7-day plan)")
	reply.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(reply)
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return
	}

	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	b.logger.Info("generating plan",
		zap.Int64("chat_id", chatID),
		zap.String("diet_type", req.DietType),
		zap.Int("calories", req.Calories),
	)
	result, err := b.generator.Generate(ctx, req)
	if err != nil {
		text := "❌ *" + planner.UserFacingError + "*\nPlease try again in a moment."
		if errors.Is(err, planner.ErrInvalidRequest) {
			text = "❌ " + escape(err.Error())
		}
		b.edit(chatID, sent.MessageID, text)
		return
	}

	parts := formatPlanMarkdownParts(result.Plan)
	b.edit(chatID, sent.MessageID, parts[0])
	for _, part := range parts[1:] {
		b.sendMarkdown(chatID, part)
	}
	for _, part := range formatShoppingListParts(shopping.FromMealPlan(result.Plan)) {
		b.sendMarkdown(chatID, part)
	}
}

func (b *Bot) handleUsageCommand(chatID int64) {
	if b.usage == nil {
		b.sendMarkdown(chatID, "_Usage tracking is disabled._")
		return
	}
	usage, err := b.usage.GetDailyUsage(7)
	if err != nil {
		b.logger.Error("failed to fetch usage", zap.Error(err))
		b.sendMarkdown(chatID, "❌ Error fetching metrics.")
		return
	}
	b.sendMarkdown(chatID, formatUsageReport(usage, metrics.GetSysHealth(b.dataPath)))
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
