package templates

import (
	"context"
	"fmt"
)

func (b *Builder) buildStaged(ctx context.Context, tpl *Template) error {
	cur, err := b.engine.Query(ctx,
		"SELECT id, day_number, day_name FROM diet_days WHERE template_id = ? "+
			"ORDER BY day_number, id LIMIT ?", tpl.ID, b.maxDays+1)
	if err != nil {
		return fmt.Errorf("load days of template %d: %w", tpl.ID, err)
	}
	for cur.Next() {
		if len(tpl.Days) == b.maxDays {
			tpl.Truncated = true
			break
		}
		row := cur.Row()
		tpl.Days = append(tpl.Days, Day{
			ID:        row.Int(0),
			DayNumber: row.Int(1),
			DayName:   row.String(2),
			Meals:     []Meal{},
		})
	}
	_ = cur.Close()

	for i := range tpl.Days {
		if b.loadMeals(ctx, &tpl.Days[i]) {
			tpl.Truncated = true
		}
		day := &tpl.Days[i]
		for j := range day.Meals {
			b.loadItems(ctx, &day.Meals[j])
		}
	}
	return nil
}

// loadMeals fills the meals of a day and reports whether any were dropped.
func (b *Builder) loadMeals(ctx context.Context, day *Day) bool {
	cur, err := b.engine.Query(ctx,
		"SELECT id, meal_type, meal_order, time_suggestion FROM diet_meals WHERE day_id = ? "+
			"ORDER BY meal_order, id LIMIT ?", day.ID, b.maxMealsPerDay+1)
	if err != nil {
		b.logger.Warn("skipping meals of day", "day_id", day.ID, "error", err)
		return false
	}
	defer cur.Close()

	for cur.Next() {
		if len(day.Meals) == b.maxMealsPerDay {
			return true
		}
		row := cur.Row()
		day.Meals = append(day.Meals, Meal{
			ID:             row.Int(0),
			MealType:       row.String(1),
			MealOrder:      row.Int(2),
			TimeSuggestion: row.String(3),
			Items:          []Item{},
		})
	}
	return false
}

func (b *Builder) loadItems(ctx context.Context, meal *Meal) {
	cur, err := b.engine.Query(ctx,
		"SELECT mi.id, mi.food_item_id, f.name, mi.portion_grams_min, mi.portion_grams_max "+
			"FROM diet_meal_items mi JOIN food_items f ON mi.food_item_id = f.id "+
			"WHERE mi.meal_id = ? ORDER BY mi.sort_order, mi.id", meal.ID)
	if err != nil {
		b.logger.Warn("skipping items of meal", "meal_id", meal.ID, "error", err)
		return
	}
	defer cur.Close()

	for cur.Next() {
		meal.Items = append(meal.Items, scanItem(cur.Row(), 0))
	}
}
