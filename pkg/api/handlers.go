package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nutrition-hq/dietapi/pkg/bulk"
	"nutrition-hq/dietapi/pkg/catalog"
	"nutrition-hq/dietapi/pkg/telemetry/health"
	"nutrition-hq/dietapi/pkg/telemetry/tracing"
	"nutrition-hq/dietapi/pkg/templates"
)

// ServiceName is reported by /health.
const ServiceName = "diet-api-c"

type healthBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type categoriesBody struct {
	Success    bool               `json:"success"`
	Categories []catalog.Category `json:"categories"`
	Count      int                `json:"count"`
}

type categoryBody struct {
	Success  bool             `json:"success"`
	Category catalog.Category `json:"category"`
}

type foodsBody struct {
	Success bool           `json:"success"`
	Foods   []catalog.Food `json:"foods"`
	Count   int            `json:"count"`
}

type foodBody struct {
	Success bool         `json:"success"`
	Food    catalog.Food `json:"food"`
}

type templateBody struct {
	Success  bool                `json:"success"`
	Template *templates.Template `json:"template"`
}

type bulkBody struct {
	Success       bool `json:"success"`
	InsertedCount int  `json:"inserted_count"`
}

type handlers struct {
	catalog   *catalog.Store
	templates *templates.Builder
	bulk      *bulk.Writer
	checker   *health.Checker
	recorder  Recorder
}

func (h *handlers) liveness(context.Context, *Request) Response {
	return JSON(http.StatusOK, healthBody{Status: "ok", Service: ServiceName})
}

func (h *handlers) ready(ctx context.Context, _ *Request) Response {
	if h.checker == nil {
		return JSON(http.StatusOK, health.Status{Status: health.StatusReady, Checks: map[string]health.CheckResult{}})
	}

	status := h.checker.CheckReadiness(ctx)
	code := http.StatusOK
	if !status.Ready() {
		code = http.StatusServiceUnavailable
	}
	return JSON(code, status)
}

func (h *handlers) listCategories(ctx context.Context, _ *Request) Response {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		return DatabaseError(err)
	}
	return JSON(http.StatusOK, categoriesBody{Success: true, Categories: categories, Count: len(categories)})
}

func (h *handlers) getCategory(ctx context.Context, _ *Request, id int) Response {
	category, err := h.catalog.GetCategory(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound):
		return Error(http.StatusNotFound, "Category not found")
	case err != nil:
		return DatabaseError(err)
	}
	return JSON(http.StatusOK, categoryBody{Success: true, Category: category})
}

func (h *handlers) listFoods(ctx context.Context, req *Request) Response {
	foods, err := h.catalog.ListFoods(ctx, catalog.ParseFoodFilter(req.Query))
	if err != nil {
		return DatabaseError(err)
	}
	return JSON(http.StatusOK, foodsBody{Success: true, Foods: foods, Count: len(foods)})
}

func (h *handlers) getFood(ctx context.Context, _ *Request, id int) Response {
	food, err := h.catalog.GetFood(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrFoodNotFound):
		return Error(http.StatusNotFound, "Food not found")
	case err != nil:
		return DatabaseError(err)
	}
	return JSON(http.StatusOK, foodBody{Success: true, Food: food})
}

func (h *handlers) templateFull(ctx context.Context, _ *Request, id int) Response {
	ctx, span := tracing.Start(ctx, "templates.build", tracing.TemplateID(id))
	defer span.End()

	start := time.Now()
	tpl, err := h.templates.Build(ctx, id)
	strategy := string(h.templates.Strategy())
	h.recorder.RecordTemplateBuild(strategy, time.Since(start), tpl != nil && tpl.Truncated, err)

	switch {
	case errors.Is(err, templates.ErrTemplateNotFound):
		return Error(http.StatusNotFound, "Template not found")
	case err != nil:
		tracing.RecordError(span, err)
		return DatabaseError(err)
	}
	tracing.SetTemplateAttributes(span, strategy, len(tpl.Days), tpl.Truncated)
	return JSON(http.StatusOK, templateBody{Success: true, Template: tpl})
}

func (h *handlers) bulkInsert(ctx context.Context, req *Request) Response {
	batch, err := bulk.ParseBatch(req.Body)
	switch {
	case errors.Is(err, bulk.ErrMissingBody):
		return Error(http.StatusBadRequest, "Missing request body")
	case errors.Is(err, bulk.ErrInvalidJSON):
		return Error(http.StatusBadRequest, "Invalid JSON")
	case err != nil:
		return Error(http.StatusBadRequest, "Invalid request format")
	}

	ctx, span := tracing.Start(ctx, "bulk.apply")
	inserted := h.bulk.Apply(ctx, batch)
	requested := len(batch.Items) + batch.Skipped
	tracing.SetBulkAttributes(span, batch.MealID, requested, inserted)
	span.End()

	h.recorder.RecordBulkInsert(requested, inserted)

	return JSON(http.StatusCreated, bulkBody{Success: true, InsertedCount: inserted})
}
