package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Weekdays lists the day keys the prompt asks for, in generation order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	KeySnacks     = "snacks"
)

var mealSlots = []string{SlotBreakfast, SlotLunch, SlotDinner}

// Meal is a single named food item.
type Meal struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Calories    float64  `json:"calories"`
	Ingredients []string `json:"ingredients"`
}

// DayPlan is one day's breakdown. A nil slot or nil Snacks means absent.
type DayPlan struct {
	Breakfast *Meal  `json:"breakfast,omitempty"`
	Lunch     *Meal  `json:"lunch,omitempty"`
	Dinner    *Meal  `json:"dinner,omitempty"`
	Snacks    []Meal `json:"snacks,omitempty"`
}

// Slot returns the meal stored under one of the breakfast/lunch/dinner keys.
func (d DayPlan) Slot(slot string) *Meal {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotDinner:
		return d.Dinner
	}
	return nil
}

func (d *DayPlan) setSlot(slot string, m *Meal) {
	switch slot {
	case SlotBreakfast:
		d.Breakfast = m
	case SlotLunch:
		d.Lunch = m
	case SlotDinner:
		d.Dinner = m
	}
}

// TotalCalories sums every present meal and snack.
func (d DayPlan) TotalCalories() float64 {
	var total float64
	for _, slot := range mealSlots {
		if m := d.Slot(slot); m != nil {
			total += m.Calories
		}
	}
	for _, s := range d.Snacks {
		total += s.Calories
	}
	return total
}

// Day pairs a day key with its plan.
type Day struct {
	Name string
	Plan DayPlan
}

// MealPlan maps day names to day plans, keeping the order the days arrived in.
// It encodes to and decodes from a JSON object keyed by day name.
type MealPlan struct {
	Days []Day
}

// Day looks up a day by its exact key.
func (p MealPlan) Day(name string) (DayPlan, bool) {
	for _, d := range p.Days {
		if d.Name == name {
			return d.Plan, true
		}
	}
	return DayPlan{}, false
}

// DayNames returns the day keys in order.
func (p MealPlan) DayNames() []string {
	names := make([]string, len(p.Days))
	for i, d := range p.Days {
		names[i] = d.Name
	}
	return names
}

// set replaces an existing day in place or appends a new one.
func (p *MealPlan) set(name string, plan DayPlan) {
	for i := range p.Days {
		if p.Days[i].Name == name {
			p.Days[i].Plan = plan
			return
		}
	}
	p.Days = append(p.Days, Day{Name: name, Plan: plan})
}

func (p *MealPlan) remove(name string) {
	p.Days = slices.DeleteFunc(p.Days, func(d Day) bool { return d.Name == name })
}

func (p MealPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range p.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(d.Plan)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal day %q: %w", d.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *MealPlan) UnmarshalJSON(data []byte) error {
	fields, err := decodeObjectFields(data)
	if err != nil {
		return err
	}
	plan := MealPlan{}
	for _, f := range fields {
		var day DayPlan
		if err := json.Unmarshal(f.Value, &day); err != nil {
			return fmt.Errorf("failed to unmarshal day %q: %w", f.Key, err)
		}
		plan.set(f.Key, day)
	}
	*p = plan
	return nil
}

var (
	errNotObject    = errors.New("document root is not an object")
	errTrailingData = errors.New("unexpected data after the document")
)

// rawField is one key/value pair of a JSON object, in document order.
type rawField struct {
	Key   string
	Value json.RawMessage
}

// decodeObjectFields splits a JSON object into its fields without losing the
// key order that a map would discard.
func decodeObjectFields(data []byte) ([]rawField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var fields []rawField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, rawField{Key: key, Value: value})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return fields, nil
}
