// Package testdb opens throwaway SQLite databases with the service schema and
// a small fixture data set for package tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/dataengine/schema"
)

// Credentials returns SQLite credentials for a fresh file in t.TempDir().
func Credentials(t testing.TB) dataengine.Credentials {
	t.Helper()
	return dataengine.Credentials{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "diet.db"),
		Params: map[string]string{"_pragma": "busy_timeout(5000)"},
	}
}

// Open returns a connected single handle with the schema applied and the
// fixture data loaded. The handle is closed when the test ends.
func Open(t testing.TB) *dataengine.Handle {
	t.Helper()

	h := dataengine.NewHandle(dataengine.HandleConfig{})
	if err := h.Connect(context.Background(), Credentials(t)); err != nil {
		t.Fatalf("connect sqlite: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })

	Prepare(t, h)
	return h
}

// OpenPool returns a connected pool over one SQLite file, prepared like Open.
func OpenPool(t testing.TB, size int) *dataengine.Pool {
	t.Helper()

	p := dataengine.NewPool(dataengine.PoolConfig{Size: size})
	if err := p.Connect(context.Background(), Credentials(t)); err != nil {
		t.Fatalf("connect sqlite pool: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	Prepare(t, p)
	return p
}

// Prepare applies the schema and loads the fixtures.
func Prepare(t testing.TB, engine dataengine.Engine) {
	t.Helper()

	ctx := context.Background()
	if _, err := schema.Apply(ctx, engine); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	for _, stmt := range fixtures {
		if _, err := engine.Execute(ctx, stmt); err != nil {
			t.Fatalf("load fixture %q: %v", stmt, err)
		}
	}
}

// Fixture identifiers referenced by tests.
const (
	CategoryFruits     = 1
	CategoryVegetables = 2
	CategoryDairy      = 3

	FoodApple  = 10
	FoodBanana = 11
	FoodCarrot = 12
	FoodMilk   = 14

	// TemplateKeto has two days, inserted out of order, each with meals and
	// items also inserted out of order.
	TemplateKeto = 1

	// TemplateEmpty has no days.
	TemplateEmpty = 2

	// MealKetoBreakfast is the first meal of the first day of TemplateKeto.
	MealKetoBreakfast = 100

	// MealEmpty starts without items and is used as a bulk insert target.
	MealEmpty = 200
)

var fixtures = []string{
	`INSERT INTO food_categories (id, name, icon, color, sort_order) VALUES
		(1, 'Fruits', 'apple', '#ff0000', 2),
		(2, 'Vegetables', 'carrot', '#00aa00', 1),
		(3, 'Dairy', NULL, NULL, 3)`,

	`INSERT INTO food_items (id, name, category_id, calories_per_100g, protein_per_100g, carbs_per_100g, fat_per_100g) VALUES
		(10, 'Apple', 1, 52, 0.3, 14, 0.2),
		(11, 'Banana', 1, 89, 1.1, 22.8, 0.3),
		(12, 'Carrot', 2, 41, 0.9, 9.6, 0.2),
		(13, 'Broccoli', 2, 34, 2.8, 6.6, 0.4),
		(14, 'Milk', 3, 42, 3.4, 5, 1),
		(15, '100% Orange Juice', 1, 45, 0.7, 10.4, 0.2),
		(16, 'Cherry_Tomato', 2, NULL, NULL, NULL, NULL),
		(17, 'CherryXTomato', 2, 18, 0.9, 3.9, 0.2)`,

	`INSERT INTO diet_templates (id, code, name, description, segment, type, duration_days, calories_target) VALUES
		(1, 'KETO-2', 'Keto starter', 'Two day keto plan', 'adult', 'keto', 2, 1800),
		(2, 'EMPTY', 'Empty plan', NULL, NULL, NULL, NULL, NULL)`,

	`INSERT INTO diet_days (id, template_id, day_number, day_name) VALUES
		(21, 1, 2, 'Tuesday'),
		(20, 1, 1, 'Monday'),
		(22, 3, 1, 'Orphan')`,

	`INSERT INTO diet_meals (id, day_id, meal_type, meal_order, time_suggestion) VALUES
		(101, 20, 'lunch', 2, '12:30'),
		(100, 20, 'breakfast', 1, '08:00'),
		(102, 21, 'breakfast', 1, NULL),
		(200, 22, 'snack', 1, '16:00')`,

	`INSERT INTO diet_meal_items (id, meal_id, food_item_id, portion_grams_min, portion_grams_max, sort_order) VALUES
		(1001, 100, 11, 100, 150, 2),
		(1000, 100, 10, 80, 120, 1),
		(1002, 101, 12, 50, 75, 0),
		(1003, 101, 999, 10, 20, 1),
		(1004, 102, 14, 200, 250, 0)`,
}
