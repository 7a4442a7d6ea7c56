package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestTurnDurationObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.TurnDuration.Record(ctx, 1.5)
	m.TurnDuration.Record(ctx, 0.3)

	rm := collect(t, reader)
	found := findMetric(rm, "casamind.turn.duration")
	if found == nil {
		t.Fatal("casamind.turn.duration not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", found.Data)
	}
	if got := hist.DataPoints[0].Count; got != 2 {
		t.Errorf("histogram count = %d, want 2", got)
	}
}

func TestIntentCounterAttributes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordIntent(ctx, "control")
	m.RecordIntent(ctx, "control")
	m.RecordIntent(ctx, "scene")

	rm := collect(t, reader)
	found := findMetric(rm, "casamind.intents")
	if found == nil {
		t.Fatal("casamind.intents not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", found.Data)
	}
	byKind := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		if kind, ok := dp.Attributes.Value(attribute.Key("kind")); ok {
			byKind[kind.AsString()] = dp.Value
		}
	}
	if byKind["control"] != 2 || byKind["scene"] != 1 {
		t.Errorf("intent counts = %v", byKind)
	}
}

func TestCallDurationsCarryNameAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOracleCall(ctx, "classify", 0.8)
	m.RecordOracleCall(ctx, "classify", 1.2)
	m.RecordBackendCall(ctx, "list_devices", 0.1)

	rm := collect(t, reader)
	oracle := findMetric(rm, "casamind.oracle.duration")
	if oracle == nil {
		t.Fatal("casamind.oracle.duration not found")
	}
	hist, ok := oracle.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", oracle.Data)
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 {
		t.Errorf("oracle histogram count = %d, want 2", dp.Count)
	}
	if call, ok := dp.Attributes.Value(attribute.Key("call")); !ok || call.AsString() != "classify" {
		t.Errorf("oracle call attribute = %v", dp.Attributes)
	}

	backend := findMetric(rm, "casamind.backend.duration")
	if backend == nil {
		t.Fatal("casamind.backend.duration not found")
	}
	bhist, ok := backend.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected data type %T", backend.Data)
	}
	bdp := bhist.DataPoints[0]
	if op, ok := bdp.Attributes.Value(attribute.Key("op")); !ok || op.AsString() != "list_devices" {
		t.Errorf("backend op attribute = %v", bdp.Attributes)
	}
}

func TestSessionsStartedCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SessionsStarted.Add(ctx, 1)
	m.SessionsStarted.Add(ctx, 1)

	rm := collect(t, reader)
	found := findMetric(rm, "casamind.sessions.started")
	if found == nil {
		t.Fatal("casamind.sessions.started not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", found.Data)
	}
	if !sum.IsMonotonic {
		t.Error("sessions started should be monotonic")
	}
	if got := sum.DataPoints[0].Value; got != 2 {
		t.Errorf("sessions started = %d, want 2", got)
	}
}
