// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics with a Prometheus exporter bridge so the standard
// /metrics endpoint keeps working.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/casamind/casamind"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TurnDuration tracks end-to-end conversational turn latency.
	TurnDuration metric.Float64Histogram

	// OracleDuration tracks LLM oracle call latency. Use with attribute:
	//   attribute.String("call", ...)
	OracleDuration metric.Float64Histogram

	// BackendDuration tracks IoT backend call latency.
	BackendDuration metric.Float64Histogram

	// Intents counts classified intent records. Use with attribute:
	//   attribute.String("kind", ...)
	Intents metric.Int64Counter

	// HandlerRuns counts handler node executions. Use with attributes:
	//   attribute.String("node", ...), attribute.String("status", ...)
	HandlerRuns metric.Int64Counter

	// OracleErrors counts failed oracle calls by call name.
	OracleErrors metric.Int64Counter

	// Suspensions counts turns suspended for high-risk confirmation.
	Suspensions metric.Int64Counter

	// Confirmations counts confirmation outcomes. Use with attribute:
	//   attribute.String("outcome", ...)
	Confirmations metric.Int64Counter

	// SessionsStarted counts conversation sessions created. Session stores
	// expire entries on their own, so there is no matching end event to
	// decrement on.
	SessionsStarted metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM-bound turn latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TurnDuration, err = m.Float64Histogram("casamind.turn.duration",
		metric.WithDescription("End-to-end conversational turn latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.OracleDuration, err = m.Float64Histogram("casamind.oracle.duration",
		metric.WithDescription("LLM oracle call latency by call name."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendDuration, err = m.Float64Histogram("casamind.backend.duration",
		metric.WithDescription("IoT backend call latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Intents, err = m.Int64Counter("casamind.intents",
		metric.WithDescription("Classified intent records by kind."),
	); err != nil {
		return nil, err
	}
	if met.HandlerRuns, err = m.Int64Counter("casamind.handler.runs",
		metric.WithDescription("Handler node executions by node and status."),
	); err != nil {
		return nil, err
	}
	if met.OracleErrors, err = m.Int64Counter("casamind.oracle.errors",
		metric.WithDescription("Failed oracle calls by call name."),
	); err != nil {
		return nil, err
	}
	if met.Suspensions, err = m.Int64Counter("casamind.suspensions",
		metric.WithDescription("Turns suspended for high-risk confirmation."),
	); err != nil {
		return nil, err
	}
	if met.Confirmations, err = m.Int64Counter("casamind.confirmations",
		metric.WithDescription("Confirmation outcomes by outcome."),
	); err != nil {
		return nil, err
	}

	if met.SessionsStarted, err = m.Int64Counter("casamind.sessions.started",
		metric.WithDescription("Conversation sessions created."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordOracleCall records the latency of one LLM oracle call by name.
func (m *Metrics) RecordOracleCall(ctx context.Context, call string, seconds float64) {
	m.OracleDuration.Record(ctx, seconds, metric.WithAttributes(Attr("call", call)))
}

// RecordBackendCall records the latency of one IoT backend operation.
func (m *Metrics) RecordBackendCall(ctx context.Context, op string, seconds float64) {
	m.BackendDuration.Record(ctx, seconds, metric.WithAttributes(Attr("op", op)))
}

// RecordIntent increments the intent counter for one classified record.
func (m *Metrics) RecordIntent(ctx context.Context, kind string) {
	m.Intents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordHandlerRun increments the handler execution counter.
func (m *Metrics) RecordHandlerRun(ctx context.Context, node, status string) {
	m.HandlerRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("node", node),
			attribute.String("status", status),
		))
}

// RecordConfirmation increments the confirmation outcome counter.
func (m *Metrics) RecordConfirmation(ctx context.Context, outcome string) {
	m.Confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
