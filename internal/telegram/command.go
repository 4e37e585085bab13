package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"meal-plan-generator/internal/planner"
)

const planUsage = "Usage: /plan diet=Vegetarian calories=1800 allergies=peanuts cuisine=Italian snacks=yes"

// parsePlanArgs reads "key=value" pairs. A token without "=" continues the
// previous value, so "cuisine=South Indian" works without quoting.
func parsePlanArgs(args string) (planner.MealPlanRequest, error) {
	var (
		req     planner.MealPlanRequest
		order   []string
		values  = map[string]string{}
		current string
	)

	for _, token := range strings.Fields(args) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			if current == "" {
				return req, fmt.Errorf("unexpected %q, expected key=value", token)
			}
			values[current] = strings.TrimSpace(values[current] + " " + token)
			continue
		}

		current = canonicalKey(key)
		if current == "" {
			return req, fmt.Errorf("unknown option %q", key)
		}
		if _, seen := values[current]; !seen {
			order = append(order, current)
		}
		values[current] = value
	}

	for _, key := range order {
		value := values[key]
		switch key {
		case "diet":
			req.DietType = value
		case "calories":
			n, err := strconv.Atoi(value)
			if err != nil {
				return req, fmt.Errorf("calories must be a whole number, got %q", value)
			}
			req.Calories = n
		case "allergies":
			req.Allergies = value
		case "cuisine":
			req.Cuisine = value
		case "snacks":
			b, err := parseYesNo(value)
			if err != nil {
				return req, err
			}
			req.IncludeSnacks = b
		}
	}
	return req, nil
}

func canonicalKey(key string) string {
	switch strings.ToLower(key) {
	case "diet", "diettype", "type":
		return "diet"
	case "calories", "kcal", "cal":
		return "calories"
	case "allergies", "allergy":
		return "allergies"
	case "cuisine":
		return "cuisine"
	case "snacks", "snack":
		return "snacks"
	}
	return ""
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("snacks must be yes or no, got %q", value)
}
