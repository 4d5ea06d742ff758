// Package tracking records spans and metrics for Branch API calls.
package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	// ScopeName is the instrumentation scope of the Branch client
	ScopeName = "github.com/gaborage/branch-remote/httpclient"

	metricAttempts = "branch.remote.attempts" // Counter of round trips
	metricOutcomes = "branch.remote.outcomes" // Counter of finished calls
	metricDuration = "branch.remote.duration" // Histogram in seconds

	attrMethod     = "http.request.method"
	attrStatusCode = "http.response.status_code"
	attrOutcome    = "outcome"
	attrRetryCount = "branch.retry_count"
	attrTag        = "branch.tag"
)

// Call outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeNoConnectivity = "no_connectivity"
	OutcomeNoCredentials  = "no_credentials"
	OutcomeIOError        = "io_error"
)

var (
	remoteMeter   metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	attemptCounter    metric.Int64Counter
	outcomeCounter    metric.Int64Counter
	durationHistogram metric.Float64Histogram
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize branch metric %s: %v\n", metricName, err)
	}
}

func initRemoteMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if remoteMeter != nil {
		return
	}

	remoteMeter = otel.Meter(ScopeName)

	var err error
	attemptCounter, err = remoteMeter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP round trips sent to the Branch API"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	outcomeCounter, err = remoteMeter.Int64Counter(
		metricOutcomes,
		metric.WithDescription("Number of completed Branch API calls by outcome"),
		metric.WithUnit("{call}"),
	)
	logMetricError(metricOutcomes, err)

	durationHistogram, err = remoteMeter.Float64Histogram(
		metricDuration,
		metric.WithDescription("Duration of Branch API calls including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(metricDuration, err)

	metricsInited = true
}

func ensureMeterInitialized() {
	meterOnce.Do(initRemoteMeter)
}

// OutcomeForHTTPStatus maps a received HTTP status to an outcome label.
// Calls that end without a response pick their outcome from the fault.
func OutcomeForHTTPStatus(status int) string {
	if status >= 200 && status < 300 {
		return OutcomeSuccess
	}
	return OutcomeHTTPError
}

// RecordAttempt counts one round trip. status is zero when none was received.
func RecordAttempt(ctx context.Context, method string, status int) {
	ensureMeterInitialized()
	if attemptCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrMethod, method)}
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOutcome records a finished call and its total duration.
func RecordOutcome(ctx context.Context, method, outcome string, duration time.Duration) {
	ensureMeterInitialized()
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	)
	if outcomeCounter != nil {
		outcomeCounter.Add(ctx, 1, attrs)
	}
	if durationHistogram != nil {
		durationHistogram.Record(ctx, duration.Seconds(), attrs)
	}
}

// StartCall opens the client span for one logical call.
func StartCall(ctx context.Context, method, tag string) (context.Context, oteltrace.Span) {
	attrs := []attribute.KeyValue{attribute.String(attrMethod, method)}
	if tag != "" {
		attrs = append(attrs, attribute.String(attrTag, tag))
	}
	return otel.Tracer(ScopeName).Start(ctx, "branch.remote "+method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...),
	)
}

// EndCall annotates and ends the span. Every non-success outcome marks it as
// an error.
func EndCall(span oteltrace.Span, status, retries int, outcome string) {
	span.SetAttributes(
		attribute.Int(attrStatusCode, status),
		attribute.Int(attrRetryCount, retries),
		attribute.String(attrOutcome, outcome),
	)
	if outcome != OutcomeSuccess {
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	remoteMeter = nil
	attemptCounter = nil
	outcomeCounter = nil
	durationHistogram = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
