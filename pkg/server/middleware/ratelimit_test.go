package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nutrition-hq/dietapi/pkg/config"
	"nutrition-hq/dietapi/pkg/limits/ratelimit"
)

type rejectionCounter struct {
	mu      sync.Mutex
	reasons map[string]int
}

func (c *rejectionCounter) RecordRejection(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reasons == nil {
		c.reasons = map[string]int{}
	}
	c.reasons[reason]++
}

func TestAdmissionMiddlewareRate(t *testing.T) {
	rec := &rejectionCounter{}
	handler := AdmissionMiddleware(AdmissionConfig{
		Limiter:  ratelimit.NewLimiter(config.LimitsConfig{RequestsPerSecond: 0.5, Burst: 2}),
		Recorder: rec,
		Exempt:   func(r *http.Request) bool { return r.URL.Path == "/health" },
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("status codes = %v, want [200 200 429]", codes)
	}

	if got := last.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Success || body.Error != "Too many requests" {
		t.Errorf("body = %+v", body)
	}
	if rec.reasons["rate"] != 1 {
		t.Errorf("recorded rejections = %v, want one rate rejection", rec.reasons)
	}

	probe := httptest.NewRecorder()
	handler.ServeHTTP(probe, httptest.NewRequest(http.MethodGet, "/health", nil))
	if probe.Code != http.StatusOK {
		t.Errorf("exempt probe status = %d, want 200", probe.Code)
	}
}

func TestAdmissionMiddlewareInFlight(t *testing.T) {
	limiter := ratelimit.NewLimiter(config.LimitsConfig{MaxInFlight: 1})

	entered := make(chan struct{})
	unblock := make(chan struct{})
	handler := AdmissionMiddleware(AdmissionConfig{Limiter: limiter})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-unblock
		}),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/foods", nil))
	}()
	<-entered

	busy := httptest.NewRecorder()
	handler.ServeHTTP(busy, httptest.NewRequest(http.MethodGet, "/api/foods", nil))
	if busy.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", busy.Code)
	}
	if busy.Header().Get("Retry-After") != "" {
		t.Error("in-flight refusal should not set Retry-After")
	}

	close(unblock)
	<-done
	if got := limiter.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d after the request finished, want 0", got)
	}
}
