package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-hq/dietapi/internal/testdb"
	"nutrition-hq/dietapi/pkg/api"
	"nutrition-hq/dietapi/pkg/bulk"
	"nutrition-hq/dietapi/pkg/catalog"
	"nutrition-hq/dietapi/pkg/dataengine"
	"nutrition-hq/dietapi/pkg/telemetry/health"
	"nutrition-hq/dietapi/pkg/templates"
)

type countingRecorder struct {
	rejected  atomic.Int32
	bodies    atomic.Int32
	inserted  atomic.Int32
	requested atomic.Int32
	builds    atomic.Int32
	truncated atomic.Int32
}

func (r *countingRecorder) RecordBodySize(string, int) { r.bodies.Add(1) }
func (r *countingRecorder) RecordBodyRejected()        { r.rejected.Add(1) }
func (r *countingRecorder) RecordBulkInsert(requested, inserted int) {
	r.requested.Add(int32(requested))
	r.inserted.Add(int32(inserted))
}
func (r *countingRecorder) RecordTemplateBuild(_ string, _ time.Duration, truncated bool, _ error) {
	r.builds.Add(1)
	if truncated {
		r.truncated.Add(1)
	}
}

func newAPI(engine dataengine.Engine, checker *health.Checker, recorder api.Recorder, maxBody int) *api.API {
	return api.New(api.Services{
		Catalog:   catalog.NewStore(engine),
		Templates: templates.NewBuilder(engine, templates.Config{}),
		Bulk:      bulk.NewWriter(engine),
		Health:    checker,
		Recorder:  recorder,
	}, api.Config{MaxBodyBytes: maxBody})
}

func serve(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestAPIResponses(t *testing.T) {
	engine := testdb.Open(t)
	a := newAPI(engine, nil, nil, 0)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name: "health", method: "GET", target: "/health",
			wantStatus: 200, wantBody: `{"status":"ok","service":"diet-api-c"}`,
		},
		{
			name: "categories in sort order", method: "GET", target: "/api/categories",
			wantStatus: 200,
			wantBody: `{"success":true,"categories":[` +
				`{"id":2,"name":"Vegetables","icon":"carrot","color":"#00aa00","sort_order":1},` +
				`{"id":1,"name":"Fruits","icon":"apple","color":"#ff0000","sort_order":2},` +
				`{"id":3,"name":"Dairy","icon":"","color":"","sort_order":3}],"count":3}`,
		},
		{
			name: "category by id", method: "GET", target: "/api/categories/3",
			wantStatus: 200,
			wantBody:   `{"success":true,"category":{"id":3,"name":"Dairy","icon":"","color":"","sort_order":3}}`,
		},
		{
			name: "missing category", method: "GET", target: "/api/categories/99",
			wantStatus: 404, wantBody: `{"success":false,"error":"Category not found"}`,
		},
		{
			name: "category id zero", method: "GET", target: "/api/categories/0",
			wantStatus: 404, wantBody: `{"success":false,"error":"Not found"}`,
		},
		{
			name: "food by id with null macros", method: "GET", target: "/api/foods/16",
			wantStatus: 200,
			wantBody: `{"success":true,"food":{"id":16,"name":"Cherry_Tomato","category_id":2,` +
				`"calories":0,"protein":0,"carbs":0,"fat":0}}`,
		},
		{
			name: "missing food", method: "GET", target: "/api/foods/999",
			wantStatus: 404, wantBody: `{"success":false,"error":"Food not found"}`,
		},
		{
			name: "foods limited", method: "GET", target: "/api/foods?limit=2",
			wantStatus: 200,
			wantBody: `{"success":true,"foods":[` +
				`{"id":15,"name":"100% Orange Juice","category_id":1,"calories":45,"protein":0.7,"carbs":10.4,"fat":0.2},` +
				`{"id":10,"name":"Apple","category_id":1,"calories":52,"protein":0.3,"carbs":14,"fat":0.2}],"count":2}`,
		},
		{
			name: "missing template", method: "GET", target: "/api/templates/999/full",
			wantStatus: 404, wantBody: `{"success":false,"error":"Template not found"}`,
		},
		{
			name: "template without suffix", method: "GET", target: "/api/templates/1",
			wantStatus: 404, wantBody: `{"success":false,"error":"Not found"}`,
		},
		{
			name: "options", method: "OPTIONS", target: "/api/anything",
			wantStatus: 200, wantBody: `{}`,
		},
		{
			name: "unknown path", method: "GET", target: "/api/unknown",
			wantStatus: 404, wantBody: `{"success":false,"error":"Not found"}`,
		},
		{
			name: "wrong method", method: "DELETE", target: "/api/categories",
			wantStatus: 404, wantBody: `{"success":false,"error":"Not found"}`,
		},
		{
			name: "ready without checks", method: "GET", target: "/ready",
			wantStatus: 200, wantBody: `{"status":"ready","checks":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, a, tt.method, tt.target, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body:\n got %s\nwant %s", got, tt.wantBody)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestFoodsLimitAndFilters(t *testing.T) {
	engine := testdb.Open(t)
	a := newAPI(engine, nil, nil, 0)

	tests := []struct {
		query     string
		wantCount int
	}{
		{"", 8},
		{"?limit=0", 8},
		{"?limit=-3", 8},
		{"?limit=1001", 8},
		{"?limit=abc", 8},
		{"?limit=1", 1},
		{"?category_id=1", 3},
		{"?category_id=abc", 0},
		{"?search=cherry_", 1},
		{"?search=100%25", 1},
		{"?category_id=2&search=o", 4},
		{"?category_id=2&search=broc", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(t, a, "GET", "/api/foods"+tt.query, nil)
			if rec.Code != 200 {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}

			var body struct {
				Success bool           `json:"success"`
				Foods   []catalog.Food `json:"foods"`
				Count   int            `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if !body.Success || body.Count != tt.wantCount || len(body.Foods) != tt.wantCount {
				t.Errorf("count = %d (len %d), want %d", body.Count, len(body.Foods), tt.wantCount)
			}
		})
	}
}

func TestTemplateFull(t *testing.T) {
	engine := testdb.Open(t)
	recorder := &countingRecorder{}
	a := newAPI(engine, nil, recorder, 0)

	first := serve(t, a, "GET", "/api/templates/1/full", nil)
	second := serve(t, a, "GET", "/api/templates/1/full", nil)

	if first.Code != 200 {
		t.Fatalf("status = %d: %s", first.Code, first.Body)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("repeated responses differ:\n%s\n%s", first.Body, second.Body)
	}

	var body struct {
		Success  bool               `json:"success"`
		Template templates.Template `json:"template"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	tpl := body.Template
	if tpl.ID != testdb.TemplateKeto || len(tpl.Days) != 2 {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if tpl.Days[0].DayNumber != 1 || tpl.Days[1].DayNumber != 2 {
		t.Errorf("days out of order: %d, %d", tpl.Days[0].DayNumber, tpl.Days[1].DayNumber)
	}
	if got := len(tpl.Days[0].Meals[0].Items); got != 2 {
		t.Errorf("breakfast items = %d, want 2", got)
	}
	if recorder.builds.Load() != 2 {
		t.Errorf("recorded builds = %d, want 2", recorder.builds.Load())
	}

	empty := serve(t, a, "GET", "/api/templates/2/full", nil)
	if !strings.Contains(empty.Body.String(), `"days":[]`) {
		t.Errorf("empty template should serialize an empty days array: %s", empty.Body)
	}
}

func countItems(t *testing.T, engine dataengine.Engine, mealID int) int {
	t.Helper()
	cur, err := engine.Query(context.Background(), "SELECT COUNT(*) FROM diet_meal_items WHERE meal_id = ?", mealID)
	if err != nil {
		t.Fatalf("count items: %v", err)
	}
	defer cur.Close()
	if !cur.Next() {
		t.Fatal("count returned no rows")
	}
	return cur.Row().Int(0)
}

func TestBulkInsert(t *testing.T) {
	engine := testdb.Open(t)
	recorder := &countingRecorder{}
	a := newAPI(engine, nil, recorder, 0)

	payload := fmt.Sprintf(`{"meal_id": %d, "items": [
		{"food_item_id": 10, "portion_grams_min": 50, "portion_grams_max": 100},
		{"food_item_id": 11, "portion_grams_min": 60},
		{"food_item_id": 12, "portion_grams_min": 70, "portion_grams_max": 90, "sort_order": 7},
		{"portion_grams_min": 10, "portion_grams_max": 20},
		{"food_item_id": 14, "portion_grams_min": 30.9, "portion_grams_max": 40}
	]}`, testdb.MealEmpty)

	rec := serve(t, a, "POST", "/api/benchmark/bulk-insert", strings.NewReader(payload))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); got != `{"success":true,"inserted_count":3}` {
		t.Errorf("body = %s", got)
	}
	if got := countItems(t, engine, testdb.MealEmpty); got != 3 {
		t.Errorf("stored items = %d, want 3", got)
	}
	if recorder.requested.Load() != 5 || recorder.inserted.Load() != 3 {
		t.Errorf("recorded %d/%d, want 3/5", recorder.inserted.Load(), recorder.requested.Load())
	}
}

func TestBulkInsertValidation(t *testing.T) {
	engine := testdb.Open(t)
	a := newAPI(engine, nil, nil, 0)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "Missing request body"},
		{"whitespace body", "  \n", "Missing request body"},
		{"invalid json", `{"meal_id":`, "Invalid JSON"},
		{"string meal id", `{"meal_id":"7","items":[]}`, "Invalid request format"},
		{"items not an array", `{"meal_id":7,"items":{}}`, "Invalid request format"},
		{"array document", `[1,2,3]`, "Invalid request format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, a, "POST", "/api/benchmark/bulk-insert", strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			want := `{"success":false,"error":"` + tt.wantErr + `"}`
			if rec.Body.String() != want {
				t.Errorf("body = %s, want %s", rec.Body, want)
			}
		})
	}
}

// hiddenLength hides the size of the underlying reader so the request is
// sent without a Content-Length.
type hiddenLength struct{ r io.Reader }

func (h hiddenLength) Read(p []byte) (int, error) { return h.r.Read(p) }

func TestBodyTooLarge(t *testing.T) {
	const maxBody = 64

	items := strings.Repeat(`{"food_item_id":10,"portion_grams_min":1,"portion_grams_max":2},`, 4)
	payload := fmt.Sprintf(`{"meal_id":%d,"items":[%s{}]}`, testdb.MealEmpty, items)

	tests := []struct {
		name string
		body io.Reader
	}{
		{"declared length", strings.NewReader(payload)},
		{"streamed across chunks", hiddenLength{io.MultiReader(
			strings.NewReader(payload[:40]),
			strings.NewReader(payload[40:]),
		)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := testdb.Open(t)
			recorder := &countingRecorder{}
			a := newAPI(engine, nil, recorder, maxBody)

			rec := serve(t, a, "POST", "/api/benchmark/bulk-insert", tt.body)

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413", rec.Code)
			}
			if got := rec.Body.String(); got != `{"success":false,"error":"Request body too large"}` {
				t.Errorf("body = %s", got)
			}
			if got := countItems(t, engine, testdb.MealEmpty); got != 0 {
				t.Errorf("handler ran: %d items stored", got)
			}
			if recorder.rejected.Load() != 1 || recorder.requested.Load() != 0 {
				t.Errorf("rejected = %d, bulk items = %d", recorder.rejected.Load(), recorder.requested.Load())
			}
		})
	}
}

func TestUnknownRouteSkipsBody(t *testing.T) {
	const maxBody = 64
	payload := strings.Repeat("x", 4*maxBody)

	tests := []struct {
		name string
		body io.Reader
	}{
		{"declared length", strings.NewReader(payload)},
		{"streamed", hiddenLength{strings.NewReader(payload)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &countingRecorder{}
			a := newAPI(testdb.Open(t), nil, recorder, maxBody)

			rec := serve(t, a, "POST", "/nope", tt.body)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if got := rec.Body.String(); got != `{"success":false,"error":"Not found"}` {
				t.Errorf("body = %s", got)
			}
			if recorder.rejected.Load() != 0 || recorder.bodies.Load() != 0 {
				t.Errorf("rejected = %d, bodies = %d", recorder.rejected.Load(), recorder.bodies.Load())
			}
		})
	}
}

func TestDatabaseErrors(t *testing.T) {
	// Never connected: every data route degrades to 500.
	engine := dataengine.NewHandle(dataengine.HandleConfig{})
	a := newAPI(engine, nil, nil, 0)

	for _, target := range []string{
		"/api/categories",
		"/api/categories/1",
		"/api/foods",
		"/api/foods/10",
		"/api/templates/1/full",
	} {
		t.Run(target, func(t *testing.T) {
			rec := serve(t, a, "GET", target, nil)
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			if !strings.HasPrefix(rec.Body.String(), `{"success":false,"error":"Database error: `) {
				t.Errorf("body = %s", rec.Body)
			}
		})
	}

	rec := serve(t, a, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health should not touch the data engine, got %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	engine := testdb.Open(t)

	tests := []struct {
		name       string
		check      health.CheckFunc
		wantStatus int
		wantState  string
	}{
		{"healthy", func(context.Context) error { return nil }, 200, health.StatusReady},
		{"unhealthy", func(context.Context) error { return errors.New("down") }, 503, health.StatusNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := health.New(time.Second)
			checker.RegisterCheck("data_engine", tt.check)
			a := newAPI(engine, checker, nil, 0)

			rec := serve(t, a, "GET", "/ready", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var status health.Status
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatal(err)
			}
			if status.Status != tt.wantState {
				t.Errorf("status = %q, want %q", status.Status, tt.wantState)
			}
			if _, ok := status.Checks["data_engine"]; !ok {
				t.Errorf("missing data_engine check: %+v", status.Checks)
			}
		})
	}
}

func TestConcurrentReadsDoNotCrossTalk(t *testing.T) {
	engine := testdb.Open(t)
	srv := httptest.NewServer(newAPI(engine, nil, nil, 0))
	defer srv.Close()

	targets := []string{
		"/api/categories",
		"/api/categories/1",
		"/api/foods?category_id=2",
		"/api/foods/14",
		"/api/templates/1/full",
	}

	want := make(map[string]string, len(targets))
	for _, target := range targets {
		resp, err := http.Get(srv.URL + target)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		want[target] = string(body)
	}

	const workers = 16
	const rounds = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				target := targets[(w+i)%len(targets)]
				resp, err := http.Get(srv.URL + target)
				if err != nil {
					errs <- err
					continue
				}
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				if string(body) != want[target] {
					errs <- fmt.Errorf("%s: got %s", target, body)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
