// Package api is the HTTP surface of the diet service: a router over the
// catalog, template and bulk-insert operations, the JSON envelope every
// response is written in, and the adapter that collects request bodies
// before dispatch.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nutrition-hq/dietapi/pkg/bodycollector"
	"nutrition-hq/dietapi/pkg/bulk"
	"nutrition-hq/dietapi/pkg/catalog"
	"nutrition-hq/dietapi/pkg/telemetry/health"
	"nutrition-hq/dietapi/pkg/telemetry/logging"
	"nutrition-hq/dietapi/pkg/templates"
)

// Recorder receives per-request domain measurements. The metrics collector
// implements it.
type Recorder interface {
	RecordBodySize(route string, size int)
	RecordBodyRejected()
	RecordBulkInsert(requested, inserted int)
	RecordTemplateBuild(strategy string, duration time.Duration, truncated bool, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordBodySize(string, int)                             {}
func (nopRecorder) RecordBodyRejected()                                    {}
func (nopRecorder) RecordBulkInsert(int, int)                              {}
func (nopRecorder) RecordTemplateBuild(string, time.Duration, bool, error) {}

// Services are the components the handlers call.
type Services struct {
	Catalog   *catalog.Store
	Templates *templates.Builder
	Bulk      *bulk.Writer

	// Health backs /ready. Optional; without it the service always
	// reports ready.
	Health *health.Checker

	// Recorder is optional.
	Recorder Recorder
}

// Config tunes the HTTP adapter.
type Config struct {
	// MaxBodyBytes caps collected request bodies. Zero means
	// bodycollector.DefaultMaxBytes.
	MaxBodyBytes int
}

// API is an http.Handler serving every route of the service.
type API struct {
	router   *Router
	maxBody  int
	recorder Recorder
	logger   *slog.Logger
}

// New wires the routes to svc.
func New(svc Services, cfg Config) *API {
	recorder := svc.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = bodycollector.DefaultMaxBytes
	}

	h := &handlers{
		catalog:   svc.Catalog,
		templates: svc.Templates,
		bulk:      svc.Bulk,
		checker:   svc.Health,
		recorder:  recorder,
	}

	r := NewRouter()
	r.Handle(http.MethodGet, "/health", "health", h.liveness)
	r.Handle(http.MethodGet, "/ready", "ready", h.ready)
	r.Handle(http.MethodGet, "/api/categories", "categories", h.listCategories)
	r.Handle(http.MethodGet, "/api/foods", "foods", h.listFoods)
	r.Handle(http.MethodPost, "/api/benchmark/bulk-insert", "bulk_insert", h.bulkInsert)
	r.HandleID(http.MethodGet, "/api/categories/", "", "category", h.getCategory)
	r.HandleID(http.MethodGet, "/api/foods/", "", "food", h.getFood)
	r.HandleID(http.MethodGet, "/api/templates/", "/full", "template_full", h.templateFull)

	return &API{
		router:   r,
		maxBody:  maxBody,
		recorder: recorder,
		logger:   logging.Component("api"),
	}
}

// Router exposes the route table.
func (a *API) Router() *Router {
	return a.router
}

// RouteName names the route r would reach.
func (a *API) RouteName(r *http.Request) string {
	return a.router.RouteName(r.Method, r.URL.Path)
}

// ServeHTTP collects the body of POST and PUT requests, then dispatches.
// A body over the cap is answered with 413 and no handler runs.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := a.RouteName(r)
	ctx := logging.WithRoute(r.Context(), route)

	// Unknown routes never read the body.
	if route == RouteNotFound {
		Write(w, Error(http.StatusNotFound, "Not found"))
		return
	}

	req := &Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		if r.ContentLength > int64(a.maxBody) {
			a.rejectBody(w, r, route, r.ContentLength)
			return
		}

		body, err := bodycollector.Collect(ctx, r.Body, a.maxBody)
		switch {
		case errors.Is(err, bodycollector.ErrPayloadTooLarge):
			a.rejectBody(w, r, route, -1)
			return
		case err != nil:
			a.logger.WarnContext(ctx, "failed to read request body", "error", err)
			Write(w, Error(http.StatusBadRequest, "Invalid request body"))
			return
		}
		a.recorder.RecordBodySize(route, len(body))
		req.Body = body
	}

	Write(w, a.router.Dispatch(ctx, req))
}

func (a *API) rejectBody(w http.ResponseWriter, r *http.Request, route string, declared int64) {
	a.recorder.RecordBodyRejected()
	a.logger.WarnContext(r.Context(), "request body too large",
		"route", route,
		"max_bytes", a.maxBody,
		"content_length", declared,
	)
	Write(w, Error(http.StatusRequestEntityTooLarge, "Request body too large"))
}
