package planner

import (
	"encoding/json"
	"fmt"
)

// Extraction is a successfully extracted plan plus the entries the validator
// dropped on the way.
type Extraction struct {
	Plan     *MealPlan
	Degraded []string
}

// Extractor converts raw LLM replies into meal plans.
type Extractor struct {
	validator *Validator
}

func NewExtractor(validator *Validator) *Extractor {
	if validator == nil {
		validator = NewValidator(PolicyLenient)
	}
	return &Extractor{validator: validator}
}

// Extract strips decoration, parses the reply and validates its structure.
// Every failure is returned as a *GenerationError of kind KindParse or
// KindShape.
func (e *Extractor) Extract(raw string) (Extraction, error) {
	text := StripDecoration(raw)
	if text == "" {
		return Extraction{}, newGenerationError(KindParse, "response is empty", nil)
	}

	data := []byte(text)
	if !json.Valid(data) {
		var v any
		return Extraction{}, newGenerationError(KindParse, "response is not valid JSON", json.Unmarshal(data, &v))
	}
	if !isJSONObject(data) {
		return Extraction{}, newGenerationError(KindShape,
			fmt.Sprintf("response root is %s, not an object", describeJSONValue(data)), nil)
	}

	fields, err := decodeObjectFields(data)
	if err != nil {
		return Extraction{}, newGenerationError(KindParse, "failed to read response object", err)
	}

	plan, degraded, err := e.validator.Validate(fields)
	if err != nil {
		return Extraction{Degraded: degraded}, err
	}
	return Extraction{Plan: plan, Degraded: degraded}, nil
}
