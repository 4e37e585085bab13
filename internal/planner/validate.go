package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"meal-plan-generator/internal/shared"
)

// Policy is the leniency applied by a Validator.
type Policy = shared.ValidationPolicy

const (
	PolicyLenient = shared.PolicyLenient
	PolicyStrict  = shared.PolicyStrict
)

// ParsePolicy maps a configuration value to a Policy. Empty means lenient.
func ParsePolicy(s string) (Policy, error) {
	return shared.ParseValidationPolicy(s)
}

// Validator turns the fields of a parsed root object into a MealPlan.
// It is the single place where the leniency policy is applied.
type Validator struct {
	policy Policy
}

func NewValidator(policy Policy) *Validator {
	if policy == "" {
		policy = PolicyLenient
	}
	return &Validator{policy: policy}
}

func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate builds the plan from the root fields. It returns the paths of
// every entry that was dropped; under PolicyStrict the first one is returned
// as a shape error instead. A repeated day key replaces the earlier value,
// and a malformed repeat removes the day altogether.
func (v *Validator) Validate(fields []rawField) (*MealPlan, []string, error) {
	plan := &MealPlan{Days: make([]Day, 0, len(fields))}
	var degraded []string

	for _, f := range fields {
		day, issues := parseDay(f.Key, f.Value)
		if len(issues) > 0 {
			if v.policy == PolicyStrict {
				return nil, issues, newGenerationError(KindShape, "malformed entry "+issues[0], nil)
			}
			degraded = append(degraded, issues...)
		}
		if day != nil {
			plan.set(f.Key, *day)
		} else {
			plan.remove(f.Key)
		}
	}
	return plan, degraded, nil
}

func parseDay(name string, raw json.RawMessage) (*DayPlan, []string) {
	var fields map[string]json.RawMessage
	if !isJSONObject(raw) || json.Unmarshal(raw, &fields) != nil {
		return nil, []string{fmt.Sprintf("%s: expected an object", name)}
	}

	day := &DayPlan{}
	var issues []string

	for _, slot := range mealSlots {
		value, ok := fields[slot]
		if !ok || isJSONNull(value) {
			continue
		}
		meal, err := parseMeal(value)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s.%s: %v", name, slot, err))
			continue
		}
		day.setSlot(slot, meal)
	}

	if value, ok := fields[KeySnacks]; ok && !isJSONNull(value) {
		var items []json.RawMessage
		if !isJSONArray(value) || json.Unmarshal(value, &items) != nil {
			issues = append(issues, fmt.Sprintf("%s.%s: expected an array", name, KeySnacks))
		} else {
			for i, item := range items {
				meal, err := parseMeal(item)
				if err != nil {
					issues = append(issues, fmt.Sprintf("%s.%s[%d]: %v", name, KeySnacks, i, err))
					continue
				}
				day.Snacks = append(day.Snacks, *meal)
			}
		}
	}

	return day, issues
}

func parseMeal(raw json.RawMessage) (*Meal, error) {
	var fields map[string]json.RawMessage
	if !isJSONObject(raw) || json.Unmarshal(raw, &fields) != nil {
		return nil, errors.New("expected an object")
	}

	meal := &Meal{Ingredients: []string{}}

	name, ok := fields["name"]
	if !ok {
		return nil, errors.New("name is missing")
	}
	s, ok := decodeJSONString(name)
	if !ok {
		return nil, errors.New("name must be a string")
	}
	meal.Name = s

	calories, ok := fields["calories"]
	if !ok {
		return nil, errors.New("calories is missing")
	}
	n, ok := decodeJSONNumber(calories)
	if !ok {
		return nil, errors.New("calories must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return nil, errors.New("calories must be finite and non-negative")
	}
	meal.Calories = n

	if desc, ok := fields["description"]; ok && !isJSONNull(desc) {
		s, ok := decodeJSONString(desc)
		if !ok {
			return nil, errors.New("description must be a string")
		}
		meal.Description = s
	}

	if ingredients, ok := fields["ingredients"]; ok && !isJSONNull(ingredients) {
		var items []json.RawMessage
		if !isJSONArray(ingredients) || json.Unmarshal(ingredients, &items) != nil {
			return nil, errors.New("ingredients must be an array")
		}
		for i, item := range items {
			s, ok := decodeJSONString(item)
			if !ok {
				return nil, fmt.Errorf("ingredients[%d] must be a string", i)
			}
			meal.Ingredients = append(meal.Ingredients, s)
		}
	}

	return meal, nil
}

func firstByte(raw []byte) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isJSONObject(raw []byte) bool { return firstByte(raw) == '{' }

func isJSONArray(raw []byte) bool { return firstByte(raw) == '[' }

func isJSONNull(raw []byte) bool { return string(bytes.TrimSpace(raw)) == "null" }

func decodeJSONString(raw []byte) (string, bool) {
	if firstByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeJSONNumber rejects non-numbers and numbers outside float64 range.
func decodeJSONNumber(raw []byte) (float64, bool) {
	c := firstByte(raw)
	if c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// describeJSONValue names the JSON type of a document for diagnostics.
func describeJSONValue(raw []byte) string {
	switch firstByte(raw) {
	case '{':
		return "an object"
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}
