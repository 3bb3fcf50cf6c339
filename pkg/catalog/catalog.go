// Package catalog reads food categories and food items from the data engine.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"nutrition-hq/dietapi/pkg/dataengine"
)

const (
	// DefaultFoodLimit is used when limit is absent or out of range.
	DefaultFoodLimit = 100

	// MaxFoodLimit is the largest accepted limit.
	MaxFoodLimit = 1000
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrFoodNotFound     = errors.New("food not found")
)

// Category is a row of food_categories. Null text columns read as "".
type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

// Food is a row of food_items with per-100g nutrition values.
type Food struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	CategoryID int     `json:"category_id"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
}

// FoodFilter narrows ListFoods.
type FoodFilter struct {
	// CategoryID filters by category when HasCategory is set.
	CategoryID  int
	HasCategory bool

	// Search matches a substring of the name. Empty means no filter.
	Search string

	Limit int
}

// ParseFoodFilter reads category_id, search and limit from a query string.
// Both numbers are read from their leading digits, so "5abc" is 5. A
// category_id without digits filters on category 0; a limit that is missing,
// has no digits or falls outside [1, MaxFoodLimit] becomes DefaultFoodLimit.
func ParseFoodFilter(q url.Values) FoodFilter {
	f := FoodFilter{Limit: DefaultFoodLimit}

	if vals, ok := q["category_id"]; ok && len(vals) > 0 {
		f.HasCategory = true
		f.CategoryID = leadingInt(vals[0])
	}
	f.Search = q.Get("search")

	if raw := q.Get("limit"); raw != "" {
		if n := leadingInt(raw); n >= 1 && n <= MaxFoodLimit {
			f.Limit = n
		}
	}
	return f
}

// leadingInt parses an optional sign and the leading digits of s, returning
// 0 when there are none.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

// Store runs catalog queries against an engine.
type Store struct {
	engine dataengine.Engine
}

// NewStore creates a Store.
func NewStore(engine dataengine.Engine) *Store {
	return &Store{engine: engine}
}

const categoryColumns = "SELECT id, name, icon, color, sort_order FROM food_categories"

const foodColumns = "SELECT id, name, category_id, calories_per_100g, protein_per_100g, " +
	"carbs_per_100g, fat_per_100g FROM food_items"

// ListCategories returns every category ordered by sort_order.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	cur, err := s.engine.Query(ctx, categoryColumns+" ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cur.Close()

	categories := make([]Category, 0, cur.Len())
	for cur.Next() {
		categories = append(categories, scanCategory(cur.Row()))
	}
	return categories, nil
}

// GetCategory returns one category or ErrCategoryNotFound.
func (s *Store) GetCategory(ctx context.Context, id int) (Category, error) {
	cur, err := s.engine.Query(ctx, categoryColumns+" WHERE id = ?", id)
	if err != nil {
		return Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	defer cur.Close()

	if !cur.Next() {
		return Category{}, ErrCategoryNotFound
	}
	return scanCategory(cur.Row()), nil
}

// ListFoods returns foods matching the filter ordered by name.
func (s *Store) ListFoods(ctx context.Context, f FoodFilter) ([]Food, error) {
	var (
		where []string
		args  []any
	)
	if f.HasCategory {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		where = append(where, "name LIKE ? "+dataengine.LikeEscapeClause)
		args = append(args, "%"+dataengine.EscapeLike(f.Search)+"%")
	}

	limit := f.Limit
	if limit < 1 || limit > MaxFoodLimit {
		limit = DefaultFoodLimit
	}

	var b strings.Builder
	b.WriteString(foodColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY name, id LIMIT ?")
	args = append(args, limit)

	cur, err := s.engine.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer cur.Close()

	foods := make([]Food, 0, cur.Len())
	for cur.Next() {
		foods = append(foods, scanFood(cur.Row()))
	}
	return foods, nil
}

// GetFood returns one food or ErrFoodNotFound.
func (s *Store) GetFood(ctx context.Context, id int) (Food, error) {
	cur, err := s.engine.Query(ctx, foodColumns+" WHERE id = ?", id)
	if err != nil {
		return Food{}, fmt.Errorf("get food %d: %w", id, err)
	}
	defer cur.Close()

	if !cur.Next() {
		return Food{}, ErrFoodNotFound
	}
	return scanFood(cur.Row()), nil
}

func scanCategory(row dataengine.Row) Category {
	return Category{
		ID:        row.Int(0),
		Name:      row.String(1),
		Icon:      row.String(2),
		Color:     row.String(3),
		SortOrder: row.Int(4),
	}
}

func scanFood(row dataengine.Row) Food {
	return Food{
		ID:         row.Int(0),
		Name:       row.String(1),
		CategoryID: row.Int(2),
		Calories:   row.Float(3),
		Protein:    row.Float(4),
		Carbs:      row.Float(5),
		Fat:        row.Float(6),
	}
}
