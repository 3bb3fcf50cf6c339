package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nutrition-hq/dietapi/pkg/cli"
	"nutrition-hq/dietapi/pkg/loadgen"
)

var loadtestFlags struct {
	target      string
	requests    int
	duration    time.Duration
	rate        int
	concurrency int
	mode        string
	foodID      int
	templateID  int
	mealID      int
	bulkItems   int
	format      string
	report      string
	quiet       bool
}

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Load test a running diet API",
	Long: `Send real HTTP requests to a running server and report throughput,
latency percentiles and status codes.

Modes:
  read   categories, food lists, a single food and a template tree
  bulk   bulk meal-item inserts into --meal-id
  mixed  both, in round-robin order

Examples:
  # 5000 reads with 16 workers
  dietapi loadtest --requests 5000 --concurrency 16

  # 30 seconds of bulk inserts at 50 req/s
  dietapi loadtest --mode bulk --meal-id 1 --duration 30s --rate 50

  # CSV report of per-target latency
  dietapi loadtest --format csv --report latency.csv`,
	RunE: runLoadtest,
}

func init() {
	rootCmd.AddCommand(loadtestCmd)

	f := loadtestCmd.Flags()
	f.StringVar(&loadtestFlags.target, "target", "http://localhost:8080", "server base URL")
	f.IntVar(&loadtestFlags.requests, "requests", 1000, "total requests (0 to run for --duration only)")
	f.DurationVar(&loadtestFlags.duration, "duration", 0, "maximum run time")
	f.IntVar(&loadtestFlags.rate, "rate", 0, "requests per second across all workers (0 is unlimited)")
	f.IntVar(&loadtestFlags.concurrency, "concurrency", 8, "concurrent workers")
	f.StringVar(&loadtestFlags.mode, "mode", "read", "request mix: read, bulk, mixed")
	f.IntVar(&loadtestFlags.foodID, "food-id", 1, "food used by single-food reads and bulk items")
	f.IntVar(&loadtestFlags.templateID, "template-id", 1, "template used by template tree reads")
	f.IntVar(&loadtestFlags.mealID, "meal-id", 1, "meal that bulk inserts write to")
	f.IntVar(&loadtestFlags.bulkItems, "bulk-items", 10, "items per bulk insert")
	f.StringVar(&loadtestFlags.format, "format", "text", "output format: text, json, csv")
	f.StringVar(&loadtestFlags.report, "report", "", "write the report to this file instead of stdout")
	f.BoolVarP(&loadtestFlags.quiet, "quiet", "q", false, "do not show progress")
}

func loadtestTargets(mode string) ([]loadgen.Target, error) {
	read := loadgen.ReadTargets(loadtestFlags.foodID, loadtestFlags.templateID)
	write := loadgen.BulkInsertTarget(loadtestFlags.mealID, loadtestFlags.foodID, loadtestFlags.bulkItems)

	switch mode {
	case "read":
		return read, nil
	case "bulk":
		return []loadgen.Target{write}, nil
	case "mixed":
		return append(read, write), nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want read, bulk or mixed)", mode)
	}
}

func runLoadtest(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(loadtestFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	targets, err := loadtestTargets(loadtestFlags.mode)
	if err != nil {
		return cli.NewConfigError("mode", err.Error())
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	cfg := loadgen.Config{
		BaseURL:     loadtestFlags.target,
		Targets:     targets,
		Requests:    loadtestFlags.requests,
		Duration:    loadtestFlags.duration,
		Concurrency: loadtestFlags.concurrency,
		Rate:        loadtestFlags.rate,
	}

	var progress *cli.SimpleProgress
	if !loadtestFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		progress.Start(int64(loadtestFlags.requests))
		cfg.Progress = progress.Update
	}

	res, err := loadgen.Run(ctx, cfg)
	if err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return cli.NewCommandError("loadtest", err)
	}
	if progress != nil {
		progress.Finish()
	}

	out := cmd.OutOrStdout()
	if loadtestFlags.report != "" {
		f, err := os.Create(loadtestFlags.report)
		if err != nil {
			return cli.NewCommandError("loadtest", err)
		}
		defer f.Close()
		out = f
	}

	return writeReport(out, format, newReport(res))
}

func writeReport(w io.Writer, format cli.OutputFormat, r *report) error {
	if format == cli.FormatText {
		fmt.Fprintf(w, "Requests:    %d total, %d succeeded, %d failed\n", r.Total, r.Succeeded, r.Failed)
		fmt.Fprintf(w, "Duration:    %.2fs\n", r.DurationSeconds)
		fmt.Fprintf(w, "Throughput:  %.1f req/s\n", r.Throughput)
		fmt.Fprintf(w, "Status:     ")
		for _, code := range r.statusOrder() {
			fmt.Fprintf(w, " %s=%d", code, r.StatusCodes[code])
		}
		if r.TransportErrors > 0 {
			fmt.Fprintf(w, " transport_errors=%d", r.TransportErrors)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}
	if err := cli.NewFormatter(format).FormatTo(w, r); err != nil {
		return cli.NewCommandError("loadtest", err)
	}
	return nil
}

// report is the serializable form of a loadgen.Result. It renders as a
// per-target latency table for text and CSV output.
type report struct {
	Total           int                `json:"total"`
	Succeeded       int                `json:"succeeded"`
	Failed          int                `json:"failed"`
	TransportErrors int                `json:"transport_errors"`
	DurationSeconds float64            `json:"duration_seconds"`
	Throughput      float64            `json:"throughput_rps"`
	StatusCodes     map[string]int     `json:"status_codes"`
	Latency         latencyMillis      `json:"latency_ms"`
	Targets         []targetReportLine `json:"targets"`
}

type latencyMillis struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	Max  float64 `json:"max"`
}

type targetReportLine struct {
	Name     string        `json:"name"`
	Requests int           `json:"requests"`
	Failed   int           `json:"failed"`
	Latency  latencyMillis `json:"latency_ms"`
}

func millis(s loadgen.Summary) latencyMillis {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return latencyMillis{
		Min:  ms(s.Min),
		Mean: ms(s.Mean),
		P50:  ms(s.P50),
		P95:  ms(s.P95),
		P99:  ms(s.P99),
		Max:  ms(s.Max),
	}
}

func newReport(res *loadgen.Result) *report {
	r := &report{
		Total:           res.Total,
		Succeeded:       res.Succeeded,
		Failed:          res.Failed,
		TransportErrors: res.TransportErrors,
		DurationSeconds: res.Duration.Seconds(),
		Throughput:      res.Throughput(),
		StatusCodes:     make(map[string]int, len(res.StatusCodes)),
		Latency:         millis(res.Latency),
	}
	for code, n := range res.StatusCodes {
		r.StatusCodes[strconv.Itoa(code)] = n
	}

	names := make([]string, 0, len(res.PerTarget))
	for name := range res.PerTarget {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		tr := res.PerTarget[name]
		r.Targets = append(r.Targets, targetReportLine{
			Name:     name,
			Requests: tr.Requests,
			Failed:   tr.Failed,
			Latency:  millis(tr.Latency),
		})
	}
	return r
}

func (r *report) statusOrder() []string {
	codes := make([]string, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Header implements cli.Table.
func (r *report) Header() []string {
	return []string{"target", "requests", "failed", "min_ms", "mean_ms", "p50_ms", "p95_ms", "p99_ms", "max_ms"}
}

// Rows implements cli.Table. The last row covers all targets.
func (r *report) Rows() [][]string {
	row := func(name string, requests, failed int, l latencyMillis) []string {
		f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
		return []string{
			name, strconv.Itoa(requests), strconv.Itoa(failed),
			f(l.Min), f(l.Mean), f(l.P50), f(l.P95), f(l.P99), f(l.Max),
		}
	}

	rows := make([][]string, 0, len(r.Targets)+1)
	for _, t := range r.Targets {
		rows = append(rows, row(t.Name, t.Requests, t.Failed, t.Latency))
	}
	return append(rows, row("all", r.Total, r.Failed, r.Latency))
}
