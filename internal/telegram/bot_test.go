package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
	"meal-plan-generator/internal/shopping"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every message and edit, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeGenerator struct {
	result planner.GenerationResult
	err    error
	got    []planner.MealPlanRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req planner.MealPlanRequest) (planner.GenerationResult, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}

type fakeUsage struct {
	usage []metrics.DailyUsage
	err   error
}

func (f *fakeUsage) GetDailyUsage(days int) ([]metrics.DailyUsage, error) {
	return f.usage, f.err
}

func commandMessage(text string) *tgbotapi.Message {
	cmdLen := strings.IndexByte(text, ' ')
	if cmdLen < 0 {
		cmdLen = len(text)
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		From:     &tgbotapi.User{ID: 7},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func samplePlan() *planner.MealPlan {
	return &planner.MealPlan{Days: []planner.Day{
		{Name: "Monday", Plan: planner.DayPlan{
			Breakfast: &planner.Meal{Name: "Oatmeal with Berries", Calories: 400, Ingredients: []string{"oats", "berries"}},
			Lunch:     &planner.Meal{Name: "Chickpea_Salad", Description: "with *feta*", Calories: 600, Ingredients: []string{}},
			Dinner:    &planner.Meal{Name: "Vegetable Lasagna", Calories: 700.5, Ingredients: []string{"zucchini"}},
			Snacks:    []planner.Meal{{Name: "Apple", Calories: 95, Ingredients: []string{}}},
		}},
		{Name: "Tuesday", Plan: planner.DayPlan{}},
	}}
}

func newTestBot(api *fakeAPI, gen MealPlanGenerator, usage UsageReporter) *Bot {
	return newBot(api, gen, usage, []int64{7}, 0, "", zap.NewNop())
}

func TestProcessMessage_Plan(t *testing.T) {
	api := &fakeAPI{}
	gen := &fakeGenerator{result: planner.GenerationResult{Plan: samplePlan()}}
	bot := newTestBot(api, gen, nil)

	bot.processMessage(commandMessage("/plan diet=Vegetarian calories=1800 cuisine=South Indian snacks=yes"))

	require.Len(t, gen.got, 1)
	assert.Equal(t, planner.MealPlanRequest{
		DietType:      "Vegetarian",
		Calories:      1800,
		Cuisine:       "South Indian",
		IncludeSnacks: true,
	}, gen.got[0])

	texts := api.texts()
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Thinking")
	assert.Contains(t, texts[1], "*Monday*")
	assert.Contains(t, texts[1], "Oatmeal with Berries (400 kcal)")
	assert.Contains(t, texts[1], "Chickpea\\_Salad")
	assert.Contains(t, texts[1], "🍎 Snack: Apple (95 kcal)")
	assert.Contains(t, texts[1], "_Total: 1795.5 kcal_")
	assert.Contains(t, texts[2], "🛒 *Shopping List*")
	assert.Contains(t, texts[2], "• oats\n")
}

func TestFormatShoppingListParts(t *testing.T) {
	assert.Nil(t, formatShoppingListParts(shopping.List{}))

	parts := formatShoppingListParts(shopping.List{Items: []shopping.Item{
		{Name: "rice", Count: 3},
		{Name: "soy_sauce", Count: 1},
	}})
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], "• rice (x3)\n")
	assert.Contains(t, parts[0], "• soy\\_sauce\n")
}

func TestProcessMessage_PlanFailureShowsGenericError(t *testing.T) {
	api := &fakeAPI{}
	gen := &fakeGenerator{err: &planner.GenerationError{Kind: planner.KindParse, Message: "unexpected end of JSON input"}}
	bot := newTestBot(api, gen, nil)

	bot.processMessage(commandMessage("/plan diet=Keto calories=2000"))

	texts := api.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], planner.UserFacingError)
	assert.NotContains(t, texts[1], "JSON")
}

func TestProcessMessage_PlanInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no arguments", "/plan", "dietType is required"},
		{"bad calories", "/plan diet=Vegan calories=lots", "calories must be a whole number"},
		{"unknown key", "/plan diet=Vegan color=red", "unknown option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			gen := &fakeGenerator{}
			bot := newTestBot(api, gen, nil)

			bot.processMessage(commandMessage(tt.text))

			assert.Empty(t, gen.got, "generator must not be called")
			texts := api.texts()
			require.Len(t, texts, 1)
			assert.Contains(t, texts[0], tt.want)
		})
	}
}

func TestProcessMessage_Usage(t *testing.T) {
	api := &fakeAPI{}
	usage := &fakeUsage{usage: []metrics.DailyUsage{{Date: "2026-10-14", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 3, Failures: 1}}}
	bot := newTestBot(api, &fakeGenerator{}, usage)

	bot.processMessage(commandMessage("/usage"))

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "*2026-10-14*: 150 tokens (3 plans, 1 failed)")
}

func TestProcessMessage_UsageError(t *testing.T) {
	api := &fakeAPI{}
	bot := newTestBot(api, &fakeGenerator{}, &fakeUsage{err: errors.New("db locked")})

	bot.processMessage(commandMessage("/usage"))

	assert.Equal(t, []string{"❌ Error fetching metrics."}, api.texts())
}

func TestProcessMessage_Help(t *testing.T) {
	api := &fakeAPI{}
	bot := newTestBot(api, &fakeGenerator{}, nil)

	bot.processMessage(&tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 42}, From: &tgbotapi.User{ID: 7}})

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Meal Plan Bot")
}

func TestHandleWebhook_IgnoresUnknownUsers(t *testing.T) {
	api := &fakeAPI{}
	gen := &fakeGenerator{}
	bot := newTestBot(api, gen, nil)
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	body := `{"update_id":1,"message":{"message_id":1,"from":{"id":99,"is_bot":false,"first_name":"x"},"chat":{"id":99,"type":"private"},"date":0,"text":"/plan diet=Vegan calories=2000","entities":[{"type":"bot_command","offset":0,"length":5}]}}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, api.texts())
	assert.Empty(t, gen.got)
}

func TestHandleWebhook_BadPayload(t *testing.T) {
	bot := newTestBot(&fakeAPI{}, &fakeGenerator{}, nil)
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", w.Body.String())
}

func TestParsePlanArgs(t *testing.T) {
	req, err := parsePlanArgs("diet=Low Carb kcal=1500 allergy=tree nuts, shellfish snack=no")
	require.NoError(t, err)
	assert.Equal(t, planner.MealPlanRequest{
		DietType:  "Low Carb",
		Calories:  1500,
		Allergies: "tree nuts, shellfish",
	}, req)

	_, err = parsePlanArgs("Vegan diet=x")
	assert.Error(t, err)

	_, err = parsePlanArgs("snacks=maybe")
	assert.Error(t, err)
}

func TestFormatPlanMarkdownParts_Splits(t *testing.T) {
	long := strings.Repeat("ingredient ", 60)
	plan := &planner.MealPlan{}
	for i := 0; i < 12; i++ {
		meal := &planner.Meal{Name: "Meal", Calories: 100, Ingredients: []string{long}}
		plan.Days = append(plan.Days, planner.Day{
			Name: planner.Weekdays[i%len(planner.Weekdays)],
			Plan: planner.DayPlan{Breakfast: meal, Lunch: meal, Dinner: meal},
		})
	}

	parts := formatPlanMarkdownParts(plan)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), maxMessageLen)
		assert.True(t, strings.HasSuffix(p, "\n\n"), "parts end on a day boundary")
	}
	assert.True(t, strings.HasPrefix(parts[0], "📅 *Weekly Meal Plan*"))
}

func TestFormatPlanMarkdownParts_Empty(t *testing.T) {
	parts := formatPlanMarkdownParts(&planner.MealPlan{})
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], "empty")
}

func TestFormatPlanMarkdownParts_SplitsOversizedDayByMeal(t *testing.T) {
	long := strings.Repeat("chickpeas ", 150)
	meal := func(name string) *planner.Meal {
		return &planner.Meal{Name: name, Calories: 500, Ingredients: []string{long}}
	}
	plan := &planner.MealPlan{Days: []planner.Day{
		{Name: "Monday", Plan: planner.DayPlan{
			Breakfast: meal("Porridge"),
			Lunch:     meal("Curry"),
			Dinner:    meal("Stew"),
			Snacks:    []planner.Meal{*meal("Hummus")},
		}},
		{Name: "Tuesday", Plan: planner.DayPlan{Dinner: &planner.Meal{Name: "Soup", Calories: 300}}},
	}}

	parts := formatPlanMarkdownParts(plan)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), maxMessageLen)
	}
	joined := strings.Join(parts, "")
	for _, name := range []string{"*Monday*", "Porridge", "Curry", "Stew", "Hummus", "_Total: 2000 kcal_", "*Tuesday*", "Soup"} {
		assert.Contains(t, joined, name)
	}
	assert.Less(t, strings.Index(joined, "Curry"), strings.Index(joined, "Stew"))
}

func TestFormatPlanMarkdownParts_ClipsMealLongerThanAMessage(t *testing.T) {
	plan := &planner.MealPlan{Days: []planner.Day{{Name: "Monday", Plan: planner.DayPlan{
		Dinner: &planner.Meal{Name: "Feast", Calories: 900, Ingredients: []string{strings.Repeat("é_", 3000)}},
	}}}}

	parts := formatPlanMarkdownParts(plan)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), maxMessageLen)
		assert.True(t, utf8.ValidString(p))
	}
	assert.Contains(t, strings.Join(parts, ""), "_Total: 900 kcal_")
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, req planner.MealPlanRequest) (planner.GenerationResult, error) {
	close(g.started)
	<-g.release
	return planner.GenerationResult{Plan: samplePlan()}, nil
}

func TestWait_BlocksUntilInFlightMessagesFinish(t *testing.T) {
	api := &fakeAPI{}
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	bot := newTestBot(api, gen, nil)
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	body := `{"update_id":1,"message":{"message_id":1,"from":{"id":7,"is_bot":false,"first_name":"x"},"chat":{"id":42,"type":"private"},"date":0,"text":"/plan diet=Vegan calories=2000","entities":[{"type":"bot_command","offset":0,"length":5}]}}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	<-gen.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bot.Wait(ctx), context.DeadlineExceeded)

	close(gen.release)
	require.NoError(t, bot.Wait(context.Background()))
	assert.Len(t, api.texts(), 3, "the plan is delivered before Wait returns")
}
