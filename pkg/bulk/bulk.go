// Package bulk parses and applies batches of meal item inserts.
package bulk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"

	"nutrition-hq/dietapi/pkg/dataengine"
)

var (
	ErrMissingBody   = errors.New("missing request body")
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrInvalidFormat = errors.New("invalid request format")
)

// ItemSpec is one meal item to insert.
type ItemSpec struct {
	FoodItemID      int
	PortionGramsMin int
	PortionGramsMax int
	SortOrder       int
}

// Batch is a parsed bulk insert request.
type Batch struct {
	MealID int
	Items  []ItemSpec

	// Skipped counts items dropped for missing or non-numeric fields.
	Skipped int
}

// ParseBatch decodes a request body of the form
//
//	{"meal_id": 1, "items": [{"food_item_id": 2, "portion_grams_min": 50,
//	  "portion_grams_max": 100, "sort_order": 0}, ...]}
//
// Numbers are truncated toward zero and saturated to the 32-bit range. An
// item without a numeric food_item_id, portion_grams_min or
// portion_grams_max is skipped; a missing sort_order defaults to the item's
// position in the array.
func ParseBatch(body []byte) (Batch, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Batch{}, ErrMissingBody
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Batch{}, ErrInvalidJSON
	}

	obj, _ := doc.(map[string]any)
	mealID, ok := number(obj["meal_id"])
	if !ok {
		return Batch{}, ErrInvalidFormat
	}
	items, ok := obj["items"].([]any)
	if !ok {
		return Batch{}, ErrInvalidFormat
	}

	batch := Batch{MealID: mealID, Items: make([]ItemSpec, 0, len(items))}
	for i, raw := range items {
		item, _ := raw.(map[string]any)

		foodID, okFood := number(item["food_item_id"])
		minGrams, okMin := number(item["portion_grams_min"])
		maxGrams, okMax := number(item["portion_grams_max"])
		if !okFood || !okMin || !okMax {
			batch.Skipped++
			continue
		}
		sortOrder, ok := number(item["sort_order"])
		if !ok {
			sortOrder = i
		}

		batch.Items = append(batch.Items, ItemSpec{
			FoodItemID:      foodID,
			PortionGramsMin: minGrams,
			PortionGramsMax: maxGrams,
			SortOrder:       sortOrder,
		})
	}
	return batch, nil
}

func number(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32, true
	case f <= math.MinInt32:
		return math.MinInt32, true
	default:
		return int(f), true
	}
}

// Writer inserts batches one row at a time.
type Writer struct {
	engine dataengine.Engine
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(engine dataengine.Engine) *Writer {
	return &Writer{
		engine: engine,
		logger: slog.Default().With("component", "bulk"),
	}
}

const insertItem = "INSERT INTO diet_meal_items " +
	"(meal_id, food_item_id, portion_grams_min, portion_grams_max, sort_order) " +
	"VALUES (?, ?, ?, ?, ?)"

// Apply inserts every item of the batch and returns how many inserts
// succeeded. A failed insert does not stop the batch and is not retried.
func (w *Writer) Apply(ctx context.Context, batch Batch) int {
	inserted := 0
	for _, it := range batch.Items {
		_, err := w.engine.Execute(ctx, insertItem,
			batch.MealID, it.FoodItemID, it.PortionGramsMin, it.PortionGramsMax, it.SortOrder)
		if err != nil {
			w.logger.Debug("bulk insert item failed",
				"meal_id", batch.MealID,
				"food_item_id", it.FoodItemID,
				"error", err,
			)
			continue
		}
		inserted++
	}
	return inserted
}
