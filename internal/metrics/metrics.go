// Package metrics defines the opencensus measures and views exported by the
// service, backed by the prometheus exporter.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/prometheus/common/model"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// KeyStack tags every measure with the stack name it was recorded for.
	KeyStack = tag.MustNewKey("stack")

	MeasureFits       = stats.Int64("fits_total", "Completed stack fits", stats.UnitDimensionless)
	MeasureFitErrors  = stats.Int64("fit_errors_total", "Failed stack fits", stats.UnitDimensionless)
	MeasureFitLatency = stats.Float64("fit_duration_ms", "Stack fit duration", stats.UnitMilliseconds)

	MeasurePredicts       = stats.Int64("predicts_total", "Served predictions", stats.UnitDimensionless)
	MeasurePredictLatency = stats.Float64("predict_duration_ms", "Prediction duration", stats.UnitMilliseconds)
	MeasureCacheHits      = stats.Int64("cache_hits_total", "Prediction cache hits", stats.UnitDimensionless)
)

var latencyBounds = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

func views() []*view.View {
	return []*view.View{
		{Name: "fits_total", Measure: MeasureFits, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Count()},
		{Name: "fit_errors_total", Measure: MeasureFitErrors, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Count()},
		{Name: "fit_duration_ms", Measure: MeasureFitLatency, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Distribution(latencyBounds...)},
		{Name: "predicts_total", Measure: MeasurePredicts, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Count()},
		{Name: "predict_duration_ms", Measure: MeasurePredictLatency, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Distribution(latencyBounds...)},
		{Name: "cache_hits_total", Measure: MeasureCacheHits, TagKeys: []tag.Key{KeyStack}, Aggregation: view.Count()},
	}
}

// RegisterViews registers every view after checking the exported names are
// valid prometheus metric names.
func RegisterViews() error {
	vs := views()
	for _, v := range vs {
		if !model.IsValidMetricName(model.LabelValue(v.Name)) {
			return fmt.Errorf("invalid metric name %q", v.Name)
		}
	}
	if err := view.Register(vs...); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

// NewExporter builds the prometheus exporter serving the /metrics handler.
func NewExporter() (*prometheus.Exporter, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "meld"})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}

// RecordFit records one completed or failed fit of the named stack.
func RecordFit(ctx context.Context, stack string, d time.Duration, err error) {
	ms := []stats.Measurement{MeasureFitLatency.M(float64(d.Milliseconds()))}
	if err != nil {
		ms = append(ms, MeasureFitErrors.M(1))
	} else {
		ms = append(ms, MeasureFits.M(1))
	}
	record(ctx, stack, ms...)
}

// RecordPredict records one served prediction for the named stack.
func RecordPredict(ctx context.Context, stack string, d time.Duration) {
	record(ctx, stack, MeasurePredicts.M(1), MeasurePredictLatency.M(float64(d.Milliseconds())))
}

// RecordCacheHit records a prediction answered from the cache.
func RecordCacheHit(ctx context.Context, stack string) {
	record(ctx, stack, MeasureCacheHits.M(1))
}

func record(ctx context.Context, stack string, ms ...stats.Measurement) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyStack, stack)}, ms...)
}
