// Package shopping consolidates the ingredients of a meal plan into a single
// weekly shopping list.
package shopping

import (
	"strings"

	"meal-plan-generator/internal/planner"
)

// Item is one ingredient and the number of meals that use it.
type Item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// List represents a shopping list for a meal plan.
type List struct {
	Items []Item `json:"items"`
}

// FromMealPlan collects every ingredient in plan order. Ingredients that only
// differ in case or surrounding whitespace are merged under the first spelling.
func FromMealPlan(plan *planner.MealPlan) List {
	list := List{Items: []Item{}}
	if plan == nil {
		return list
	}

	index := map[string]int{}
	add := func(m planner.Meal) {
		for _, ing := range m.Ingredients {
			name := strings.Join(strings.Fields(ing), " ")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if i, ok := index[key]; ok {
				list.Items[i].Count++
				continue
			}
			index[key] = len(list.Items)
			list.Items = append(list.Items, Item{Name: name, Count: 1})
		}
	}

	for _, d := range plan.Days {
		for _, slot := range []string{planner.SlotBreakfast, planner.SlotLunch, planner.SlotDinner} {
			if m := d.Plan.Slot(slot); m != nil {
				add(*m)
			}
		}
		for _, s := range d.Plan.Snacks {
			add(s)
		}
	}
	return list
}

// Names returns the item names without counts.
func (l List) Names() []string {
	names := make([]string, len(l.Items))
	for i, it := range l.Items {
		names[i] = it.Name
	}
	return names
}
