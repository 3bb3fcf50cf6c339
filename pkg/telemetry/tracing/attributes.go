package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. HTTP keys follow the OpenTelemetry semantic
// conventions; service specific keys use the "dietapi." prefix.
const (
	AttrHTTPMethod     = "http.request.method"
	AttrHTTPStatusCode = "http.response.status_code"
	AttrHTTPRoute      = "http.route"
	AttrURLPath        = "url.path"

	AttrRequestID = "dietapi.request_id"

	AttrTemplateID = "dietapi.template.id"
	AttrStrategy   = "dietapi.template.strategy"
	AttrTruncated  = "dietapi.template.truncated"
	AttrDays       = "dietapi.template.days"

	AttrMealID        = "dietapi.bulk.meal_id"
	AttrBulkRequested = "dietapi.bulk.requested"
	AttrBulkInserted  = "dietapi.bulk.inserted"
)

// TemplateID returns the template id attribute.
func TemplateID(id int) attribute.KeyValue {
	return attribute.Int(AttrTemplateID, id)
}

// SetHTTPAttributes sets the request attributes on a server span.
func SetHTTPAttributes(span trace.Span, method, route, path string, status int) {
	span.SetAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrURLPath, path),
		attribute.Int(AttrHTTPStatusCode, status),
	)
}

// SetTemplateAttributes describes a finished template build.
func SetTemplateAttributes(span trace.Span, strategy string, days int, truncated bool) {
	span.SetAttributes(
		attribute.String(AttrStrategy, strategy),
		attribute.Int(AttrDays, days),
		attribute.Bool(AttrTruncated, truncated),
	)
}

// SetBulkAttributes describes a finished bulk insert.
func SetBulkAttributes(span trace.Span, mealID, requested, inserted int) {
	span.SetAttributes(
		attribute.Int(AttrMealID, mealID),
		attribute.Int(AttrBulkRequested, requested),
		attribute.Int(AttrBulkInserted, inserted),
	)
}
