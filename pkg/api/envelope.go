package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"nutrition-hq/dietapi/pkg/dataengine"
)

// ContentType is set on every API response.
const ContentType = "application/json"

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// encodeFailure is written when a payload cannot be encoded.
var encodeFailure = []byte(`{"success":false,"error":"Internal server error"}`)

// JSON encodes v as the body of a response with the given status. Payload
// types are structs so field order, and therefore the bytes, are stable.
func JSON(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		return Response{Status: http.StatusInternalServerError, Body: encodeFailure}
	}
	return Response{Status: status, Body: body}
}

// Error returns the canonical error envelope.
func Error(status int, message string) Response {
	return JSON(status, errorBody{Success: false, Error: message})
}

// DatabaseError returns the 500 envelope for a data engine failure,
// carrying the engine's diagnostic.
func DatabaseError(err error) Response {
	return Error(http.StatusInternalServerError, "Database error: "+dataengine.Diagnostic(err))
}

func preflight() Response {
	return Response{Status: http.StatusOK, Body: []byte("{}")}
}

// Write sends resp on w.
func Write(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
