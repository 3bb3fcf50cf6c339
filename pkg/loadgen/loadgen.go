// Package loadgen drives HTTP load against a running diet API and reports
// latency percentiles and status code counts.
package loadgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"nutrition-hq/dietapi/pkg/telemetry/tracing"
)

// Target is one request shape. Requests are spread over the targets in
// round-robin order.
type Target struct {
	Name   string
	Method string
	Path   string
	Body   []byte
}

// Config configures a load run. Either Requests or Duration must be set;
// when both are, the run stops at whichever comes first.
type Config struct {
	// BaseURL is the server root, for example "http://localhost:8080".
	BaseURL string

	Targets []Target

	// Requests is the total number of requests to send.
	Requests int

	// Duration bounds the run.
	Duration time.Duration

	// Concurrency is the number of workers. Values below one mean one.
	Concurrency int

	// Rate caps requests per second across all workers. Zero is unlimited.
	Rate int

	// Timeout bounds each request. Zero uses DefaultRequestTimeout.
	Timeout time.Duration

	// Client defaults to a client with Timeout.
	Client *http.Client

	// Progress is called after every completed request with the number
	// completed so far. Optional.
	Progress func(completed int64)
}

// DefaultRequestTimeout bounds a single request.
const DefaultRequestTimeout = 10 * time.Second

// Result is the outcome of a run.
type Result struct {
	Total       int
	Succeeded   int
	Failed      int
	Duration    time.Duration
	Latency     Summary
	StatusCodes map[int]int
	PerTarget   map[string]*TargetResult

	// TransportErrors counts requests that got no HTTP response.
	TransportErrors int
}

// TargetResult is the share of a Result that went to one target.
type TargetResult struct {
	Requests int
	Failed   int
	Latency  Summary
}

// Throughput returns completed requests per second.
func (r *Result) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Total) / r.Duration.Seconds()
}

// Summary describes a latency distribution.
type Summary struct {
	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
}

type sample struct {
	target  int
	status  int
	latency time.Duration
	err     error
}

// Run sends the configured load and blocks until it is done or ctx ends.
// Failed requests are counted, not returned; the error is only for an
// invalid configuration.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	concurrency := max(cfg.Concurrency, 1)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	jobs := make(chan int)
	var (
		mu        sync.Mutex
		samples   []sample
		completed atomic.Int64
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return produce(gctx, jobs, cfg.Requests, cfg.Rate)
	})

	for range concurrency {
		g.Go(func() error {
			for i := range jobs {
				t := i % len(cfg.Targets)
				s := send(gctx, client, base, cfg.Targets[t])
				if s.err != nil && gctx.Err() != nil {
					// cut off by the end of the run
					continue
				}
				s.target = t

				mu.Lock()
				samples = append(samples, s)
				mu.Unlock()

				n := completed.Add(1)
				if cfg.Progress != nil {
					cfg.Progress(n)
				}
			}
			return nil
		})
	}

	// The producer only fails when ctx ends, which is how a timed run stops.
	_ = g.Wait()

	return summarize(cfg.Targets, samples, time.Since(start)), nil
}

func (cfg Config) validate() error {
	var errs []error
	if cfg.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if len(cfg.Targets) == 0 {
		errs = append(errs, errors.New("at least one target is required"))
	}
	if cfg.Requests <= 0 && cfg.Duration <= 0 {
		errs = append(errs, errors.New("requests or duration must be positive"))
	}
	if cfg.Rate < 0 {
		errs = append(errs, errors.New("rate must not be negative"))
	}
	return errors.Join(errs...)
}

// produce feeds job indexes until limit is reached (limit <= 0 means no
// limit) or ctx ends, pacing them when rate is set.
func produce(ctx context.Context, jobs chan<- int, limit, rate int) error {
	var tick <-chan time.Time
	if rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; limit <= 0 || i < limit; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case jobs <- i:
		}
	}
	return nil
}

func send(ctx context.Context, client *http.Client, base string, t Target) sample {
	var body io.Reader
	if t.Body != nil {
		body = bytes.NewReader(t.Body)
	}
	req, err := http.NewRequestWithContext(ctx, t.Method, base+t.Path, body)
	if err != nil {
		return sample{err: err}
	}
	if t.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return sample{status: resp.StatusCode, latency: time.Since(start)}
}

func summarize(targets []Target, samples []sample, elapsed time.Duration) *Result {
	res := &Result{
		Total:       len(samples),
		Duration:    elapsed,
		StatusCodes: make(map[int]int),
		PerTarget:   make(map[string]*TargetResult, len(targets)),
	}

	all := make([]time.Duration, 0, len(samples))
	per := make([][]time.Duration, len(targets))
	for _, s := range samples {
		name := targetName(targets[s.target])
		tr := res.PerTarget[name]
		if tr == nil {
			tr = &TargetResult{}
			res.PerTarget[name] = tr
		}
		tr.Requests++

		switch {
		case s.err != nil:
			res.TransportErrors++
			res.Failed++
			tr.Failed++
			continue
		case s.status >= 200 && s.status < 300:
			res.Succeeded++
		default:
			res.Failed++
			tr.Failed++
		}
		res.StatusCodes[s.status]++
		all = append(all, s.latency)
		per[s.target] = append(per[s.target], s.latency)
	}

	res.Latency = Percentiles(all)
	for i, t := range targets {
		if tr := res.PerTarget[targetName(t)]; tr != nil && len(per[i]) > 0 {
			tr.Latency = Percentiles(per[i])
		}
	}
	return res
}

func targetName(t Target) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Method + " " + t.Path
}

// Percentiles summarizes latencies using the nearest-rank method.
func Percentiles(latencies []time.Duration) Summary {
	if len(latencies) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return Summary{
		Min:  sorted[0],
		Mean: sum / time.Duration(len(sorted)),
		P50:  rank(sorted, 50),
		P95:  rank(sorted, 95),
		P99:  rank(sorted, 99),
		Max:  sorted[len(sorted)-1],
	}
}

func rank(sorted []time.Duration, p int) time.Duration {
	// ceil(p/100 * n) as a 1-based index
	idx := (p*len(sorted) + 99) / 100
	if idx < 1 {
		idx = 1
	}
	return sorted[idx-1]
}

// ReadTargets returns the default read mix: categories, a filtered and a
// limited food list, one food, and one template tree.
func ReadTargets(foodID, templateID int) []Target {
	return []Target{
		{Name: "categories", Method: http.MethodGet, Path: "/api/categories"},
		{Name: "foods", Method: http.MethodGet, Path: "/api/foods?limit=50"},
		{Name: "foods_search", Method: http.MethodGet, Path: "/api/foods?search=a&limit=20"},
		{Name: "food", Method: http.MethodGet, Path: fmt.Sprintf("/api/foods/%d", foodID)},
		{Name: "template_full", Method: http.MethodGet, Path: fmt.Sprintf("/api/templates/%d/full", templateID)},
	}
}

// BulkInsertTarget returns a bulk insert of n items of foodID into mealID.
func BulkInsertTarget(mealID, foodID, n int) Target {
	var b strings.Builder
	fmt.Fprintf(&b, `{"meal_id":%d,"items":[`, mealID)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"food_item_id":%d,"portion_grams_min":50,"portion_grams_max":150,"sort_order":%d}`, foodID, i)
	}
	b.WriteString("]}")
	return Target{
		Name:   "bulk_insert",
		Method: http.MethodPost,
		Path:   "/api/benchmark/bulk-insert",
		Body:   []byte(b.String()),
	}
}
