package planner

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
	"unicode"
)

//go:embed mealplan_prompt.md
var mealPlanPrompt string

var mealPlanTemplate = template.Must(template.New("mealplan").Parse(mealPlanPrompt))

type mealPlanPromptData struct {
	DietType      string
	Calories      int
	Allergies     string
	Cuisine       string
	IncludeSnacks bool
	DayList       string
}

// BuildPrompt renders the request into the instruction sent to the LLM.
// Identical requests always produce identical prompts.
func BuildPrompt(req MealPlanRequest) (string, error) {
	data := mealPlanPromptData{
		DietType:      sanitizePromptValue(req.DietType, ""),
		Calories:      req.Calories,
		Allergies:     sanitizePromptValue(req.Allergies, "none"),
		Cuisine:       sanitizePromptValue(req.Cuisine, "any"),
		IncludeSnacks: req.IncludeSnacks,
		DayList:       strings.Join(Weekdays, ", "),
	}

	var buf bytes.Buffer
	if err := mealPlanTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizePromptValue flattens a user value onto one line so it cannot break
// out of its line in the instruction block.
func sanitizePromptValue(value, fallback string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return ' '
		case unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, value)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}
