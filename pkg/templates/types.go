package templates

// Template is a diet plan with its days, meals and meal items. Slices are
// never nil so an empty branch serializes as [].
type Template struct {
	ID             int    `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Segment        string `json:"segment"`
	Type           string `json:"type"`
	DurationDays   int    `json:"duration_days"`
	CaloriesTarget int    `json:"calories_target"`
	Days           []Day  `json:"days"`

	// Truncated is set when days or meals were dropped by the configured
	// bounds.
	Truncated bool `json:"truncated"`
}

// Day is one day of a template.
type Day struct {
	ID        int    `json:"id"`
	DayNumber int    `json:"day_number"`
	DayName   string `json:"day_name"`
	Meals     []Meal `json:"meals"`
}

// Meal is one meal of a day.
type Meal struct {
	ID             int    `json:"id"`
	MealType       string `json:"meal_type"`
	MealOrder      int    `json:"meal_order"`
	TimeSuggestion string `json:"time_suggestion"`
	Items          []Item `json:"items"`
}

// Item is a food portion within a meal. Items whose food no longer exists
// are not returned.
type Item struct {
	ID              int    `json:"id"`
	FoodItemID      int    `json:"food_item_id"`
	FoodName        string `json:"food_name"`
	PortionGramsMin int    `json:"portion_grams_min"`
	PortionGramsMax int    `json:"portion_grams_max"`
}
