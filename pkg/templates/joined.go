package templates

import (
	"context"
	"fmt"

	"nutrition-hq/dietapi/pkg/dataengine"
)

const joinedQuery = "SELECT d.id, d.day_number, d.day_name, " +
	"m.id, m.meal_type, m.meal_order, m.time_suggestion, " +
	"it.id, it.food_item_id, it.food_name, it.portion_grams_min, it.portion_grams_max " +
	"FROM diet_days d " +
	"LEFT JOIN diet_meals m ON m.day_id = d.id " +
	"LEFT JOIN (SELECT mi.id, mi.meal_id, mi.food_item_id, f.name AS food_name, " +
	"mi.portion_grams_min, mi.portion_grams_max, mi.sort_order " +
	"FROM diet_meal_items mi JOIN food_items f ON mi.food_item_id = f.id) it ON it.meal_id = m.id " +
	"WHERE d.template_id = ? " +
	"ORDER BY d.day_number, d.id, m.meal_order, m.id, it.sort_order, it.id"

// Column offsets in joinedQuery.
const (
	colDay  = 0
	colMeal = 3
	colItem = 7
)

func (b *Builder) buildJoined(ctx context.Context, tpl *Template) error {
	cur, err := b.engine.Query(ctx, joinedQuery, tpl.ID)
	if err != nil {
		return fmt.Errorf("load tree of template %d: %w", tpl.ID, err)
	}
	defer cur.Close()

	var (
		day      *Day
		meal     *Meal
		skipMeal bool
	)
	for cur.Next() {
		row := cur.Row()

		if dayID := row.Int(colDay); day == nil || day.ID != dayID {
			if len(tpl.Days) == b.maxDays {
				tpl.Truncated = true
				break
			}
			tpl.Days = append(tpl.Days, Day{
				ID:        dayID,
				DayNumber: row.Int(colDay + 1),
				DayName:   row.String(colDay + 2),
				Meals:     []Meal{},
			})
			day = &tpl.Days[len(tpl.Days)-1]
			meal = nil
			skipMeal = false
		}

		if !row.Valid(colMeal) {
			continue
		}
		if mealID := row.Int(colMeal); meal == nil || meal.ID != mealID {
			if len(day.Meals) == b.maxMealsPerDay {
				tpl.Truncated = true
				skipMeal = true
				meal = &Meal{ID: mealID}
				continue
			}
			day.Meals = append(day.Meals, Meal{
				ID:             mealID,
				MealType:       row.String(colMeal + 1),
				MealOrder:      row.Int(colMeal + 2),
				TimeSuggestion: row.String(colMeal + 3),
				Items:          []Item{},
			})
			meal = &day.Meals[len(day.Meals)-1]
			skipMeal = false
		}

		if skipMeal || !row.Valid(colItem) {
			continue
		}
		meal.Items = append(meal.Items, scanItem(row, colItem))
	}
	return nil
}

func scanItem(row dataengine.Row, at int) Item {
	return Item{
		ID:              row.Int(at),
		FoodItemID:      row.Int(at + 1),
		FoodName:        row.String(at + 2),
		PortionGramsMin: row.Int(at + 3),
		PortionGramsMax: row.Int(at + 4),
	}
}
