package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-plan-generator/internal/metrics"
	"meal-plan-generator/internal/planner"
	"meal-plan-generator/internal/shopping"
)

// Telegram rejects messages over 4096 characters.
const maxMessageLen = 4000

var slotLabels = []struct {
	slot  string
	label string
}{
	{planner.SlotBreakfast, "🍳 Breakfast"},
	{planner.SlotLunch, "🥗 Lunch"},
	{planner.SlotDinner, "🍲 Dinner"},
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatKcal(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64) + " kcal"
}

// messageBuilder packs blocks into messages no longer than maxMessageLen.
type messageBuilder struct {
	parts []string
	cur   strings.Builder
}

func (m *messageBuilder) add(block string) {
	if m.cur.Len() > 0 && m.cur.Len()+len(block) > maxMessageLen {
		m.flush()
	}
	m.cur.WriteString(block)
}

func (m *messageBuilder) flush() {
	if m.cur.Len() > 0 {
		m.parts = append(m.parts, m.cur.String())
		m.cur.Reset()
	}
}

func (m *messageBuilder) result() []string {
	m.flush()
	return m.parts
}

// formatPlanMarkdownParts renders the plan day by day, splitting into as many
// messages as needed. A day is only split across messages when it does not
// fit in one, and then only between meals.
func formatPlanMarkdownParts(plan *planner.MealPlan) []string {
	var mb messageBuilder
	mb.add("📅 *Weekly Meal Plan*\n\n")

	if plan == nil || len(plan.Days) == 0 {
		mb.add("_The plan came back empty._\n")
		return mb.result()
	}

	for _, d := range plan.Days {
		pieces := dayPieces(d)
		if block := strings.Join(pieces, ""); len(block) <= maxMessageLen {
			mb.add(block)
			continue
		}
		for _, piece := range pieces {
			mb.add(clip(piece))
		}
	}
	return mb.result()
}

// dayPieces returns the day header, one piece per meal and the total line.
func dayPieces(d planner.Day) []string {
	pieces := []string{fmt.Sprintf("*%s*\n", escape(d.Name))}
	for _, s := range slotLabels {
		if m := d.Plan.Slot(s.slot); m != nil {
			pieces = append(pieces, formatMeal(s.label, *m))
		}
	}
	for _, snack := range d.Plan.Snacks {
		pieces = append(pieces, formatMeal("🍎 Snack", snack))
	}
	return append(pieces, fmt.Sprintf("_Total: %s_\n\n", formatKcal(d.Plan.TotalCalories())))
}

func formatMeal(label string, m planner.Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s)\n", label, escape(m.Name), formatKcal(m.Calories))
	if m.Description != "" {
		fmt.Fprintf(&b, "    %s\n", escape(m.Description))
	}
	if len(m.Ingredients) > 0 {
		fmt.Fprintf(&b, "    🛒 %s\n", escape(strings.Join(m.Ingredients, ", ")))
	}
	return b.String()
}

// clip cuts a single meal that cannot fit in a message on its own.
func clip(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	const ellipsis = "…\n"
	cut := maxMessageLen - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	// A trailing backslash would escape the ellipsis.
	return strings.TrimRight(s[:cut], "\\") + ellipsis
}

// formatShoppingListParts renders the consolidated ingredient list, split like
// the plan when it grows too long. An empty list yields no parts.
func formatShoppingListParts(list shopping.List) []string {
	if len(list.Items) == 0 {
		return nil
	}
	var mb messageBuilder
	mb.add("🛒 *Shopping List*\n\n")
	for _, it := range list.Items {
		line := "• " + escape(it.Name)
		if it.Count > 1 {
			line += fmt.Sprintf(" (x%d)", it.Count)
		}
		mb.add(clip(line + "\n"))
	}
	return mb.result()
}

func formatUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d plans, %d failed)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Failures)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	if health.DataDiskSize != "" {
		fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	}
	return sb.String()
}
