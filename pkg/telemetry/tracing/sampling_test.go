package tracing

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
		// decision for a root span whose trace id sorts lowest
		wantSample bool
	}{
		{name: "always", strategy: SamplerAlways, wantSample: true},
		{name: "never", strategy: SamplerNever, wantSample: false},
		{name: "ratio one", strategy: SamplerRatio, ratio: 1, wantSample: true},
		{name: "ratio zero", strategy: SamplerRatio, ratio: 0, wantSample: false},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "ratio above one", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "unknown", strategy: "probabilistic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			result := sampler.ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       trace.TraceID{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
				Name:          "root",
			})
			sampled := result.Decision == sdktrace.RecordAndSample
			if sampled != tt.wantSample {
				t.Errorf("sampled = %v, want %v", sampled, tt.wantSample)
			}
		})
	}
}
