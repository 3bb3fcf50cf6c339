package catalog_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nutrition-hq/dietapi/internal/testdb"
	"nutrition-hq/dietapi/pkg/catalog"
)

func TestParseFoodFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  catalog.FoodFilter
	}{
		{"no parameters", "", catalog.FoodFilter{Limit: 100}},
		{"valid limit", "limit=5", catalog.FoodFilter{Limit: 5}},
		{"upper bound", "limit=1000", catalog.FoodFilter{Limit: 1000}},
		{"zero limit", "limit=0", catalog.FoodFilter{Limit: 100}},
		{"negative limit", "limit=-5", catalog.FoodFilter{Limit: 100}},
		{"limit above bound", "limit=5000", catalog.FoodFilter{Limit: 100}},
		{"non numeric limit", "limit=abc", catalog.FoodFilter{Limit: 100}},
		{"limit with trailing text", "limit=5abc", catalog.FoodFilter{Limit: 5}},
		{"limit with leading space", "limit=%2012", catalog.FoodFilter{Limit: 12}},
		{"trailing text above bound", "limit=2000x", catalog.FoodFilter{Limit: 100}},
		{"category filter", "category_id=2", catalog.FoodFilter{CategoryID: 2, HasCategory: true, Limit: 100}},
		{"non numeric category", "category_id=abc", catalog.FoodFilter{HasCategory: true, Limit: 100}},
		{"category with trailing text", "category_id=3x", catalog.FoodFilter{CategoryID: 3, HasCategory: true, Limit: 100}},
		{"search", "search=app", catalog.FoodFilter{Search: "app", Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			if diff := cmp.Diff(tt.want, catalog.ParseFoodFilter(q)); diff != "" {
				t.Errorf("ParseFoodFilter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListCategoriesOrderedBySortOrder(t *testing.T) {
	store := catalog.NewStore(testdb.Open(t))

	got, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}

	want := []catalog.Category{
		{ID: 2, Name: "Vegetables", Icon: "carrot", Color: "#00aa00", SortOrder: 1},
		{ID: 1, Name: "Fruits", Icon: "apple", Color: "#ff0000", SortOrder: 2},
		{ID: 3, Name: "Dairy", SortOrder: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListCategories mismatch (-want +got):\n%s", diff)
	}
}

func TestGetCategory(t *testing.T) {
	store := catalog.NewStore(testdb.Open(t))
	ctx := context.Background()

	got, err := store.GetCategory(ctx, testdb.CategoryFruits)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Fruits" || got.SortOrder != 2 {
		t.Errorf("GetCategory = %+v", got)
	}

	if _, err := store.GetCategory(ctx, 9999); !errors.Is(err, catalog.ErrCategoryNotFound) {
		t.Errorf("GetCategory(9999) error = %v, want ErrCategoryNotFound", err)
	}
}

func TestListFoods(t *testing.T) {
	store := catalog.NewStore(testdb.Open(t))

	tests := []struct {
		name   string
		filter catalog.FoodFilter
		want   []string
	}{
		{
			name:   "category filter in name order",
			filter: catalog.FoodFilter{CategoryID: testdb.CategoryVegetables, HasCategory: true, Limit: 100},
			want:   []string{"Broccoli", "Carrot", "CherryXTomato", "Cherry_Tomato"},
		},
		{
			name:   "unknown category",
			filter: catalog.FoodFilter{CategoryID: 0, HasCategory: true, Limit: 100},
			want:   []string{},
		},
		{
			name:   "limit",
			filter: catalog.FoodFilter{Limit: 2},
			want:   []string{"100% Orange Juice", "Apple"},
		},
		{
			name:   "search substring",
			filter: catalog.FoodFilter{Search: "roc", Limit: 100},
			want:   []string{"Broccoli"},
		},
		{
			name:   "underscore is literal",
			filter: catalog.FoodFilter{Search: "y_T", Limit: 100},
			want:   []string{"Cherry_Tomato"},
		},
		{
			name:   "percent is literal",
			filter: catalog.FoodFilter{Search: "%", Limit: 100},
			want:   []string{"100% Orange Juice"},
		},
		{
			name:   "quote does not break the statement",
			filter: catalog.FoodFilter{Search: "' OR '1'='1", Limit: 100},
			want:   []string{},
		},
		{
			name:   "search combined with category",
			filter: catalog.FoodFilter{CategoryID: testdb.CategoryFruits, HasCategory: true, Search: "an", Limit: 100},
			want:   []string{"100% Orange Juice", "Banana"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foods, err := store.ListFoods(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListFoods: %v", err)
			}
			got := make([]string, 0, len(foods))
			for _, f := range foods {
				got = append(got, f.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ListFoods names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetFood(t *testing.T) {
	store := catalog.NewStore(testdb.Open(t))
	ctx := context.Background()

	got, err := store.GetFood(ctx, testdb.FoodApple)
	if err != nil {
		t.Fatalf("GetFood: %v", err)
	}
	want := catalog.Food{ID: 10, Name: "Apple", CategoryID: 1, Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetFood mismatch (-want +got):\n%s", diff)
	}

	nulls, err := store.GetFood(ctx, 16)
	if err != nil {
		t.Fatalf("GetFood(16): %v", err)
	}
	if nulls.Calories != 0 || nulls.Fat != 0 {
		t.Errorf("null macros should read as zero, got %+v", nulls)
	}

	if _, err := store.GetFood(ctx, 9999); !errors.Is(err, catalog.ErrFoodNotFound) {
		t.Errorf("GetFood(9999) error = %v, want ErrFoodNotFound", err)
	}
}
