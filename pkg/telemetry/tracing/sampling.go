package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Values accepted for telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// createSampler decides sampling for new traces only. Requests that arrive
// with a traceparent keep the caller's decision.
func createSampler(name string, ratio float64) (sdktrace.Sampler, error) {
	root, err := rootSampler(name, ratio)
	if err != nil {
		return nil, err
	}
	return sdktrace.ParentBased(root), nil
}

func rootSampler(name string, ratio float64) (sdktrace.Sampler, error) {
	switch name {
	case SamplerAlways:
		return sdktrace.AlwaysSample(), nil
	case SamplerNever:
		return sdktrace.NeverSample(), nil
	case SamplerRatio:
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio %v outside [0, 1]", ratio)
		}
		return sdktrace.TraceIDRatioBased(ratio), nil
	}
	return nil, fmt.Errorf("unknown sampler %q (want %s, %s or %s)", name, SamplerAlways, SamplerNever, SamplerRatio)
}
