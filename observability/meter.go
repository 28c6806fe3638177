package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InstrumentationName is the meter and tracer name used by the server.
const InstrumentationName = "github.com/kbukum/testserver"

// Metric names.
const (
	MetricExchangeTotal    = "testserver.exchange.total"
	MetricExchangeDuration = "testserver.exchange.duration"
	MetricExchangeActive   = "testserver.exchange.active"
	MetricLifecycleTotal   = "testserver.lifecycle.total"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows plain HTTP to the collector.
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter creates an OTLP-exporting meter provider and installs it as the
// global provider. The caller shuts it down.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the server meter from provider, or from the global provider
// when provider is nil.
func Meter(provider metric.MeterProvider) metric.Meter {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return provider.Meter(InstrumentationName)
}

// Metrics holds the instruments recorded by the server. A nil *Metrics
// records nothing.
type Metrics struct {
	exchangeTotal    metric.Int64Counter
	exchangeDuration metric.Float64Histogram
	exchangeActive   metric.Int64UpDownCounter
	lifecycleTotal   metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	exchangeTotal, err := meter.Int64Counter(MetricExchangeTotal,
		metric.WithDescription("Total number of recorded exchanges"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricExchangeTotal, err)
	}

	exchangeDuration, err := meter.Float64Histogram(MetricExchangeDuration,
		metric.WithDescription("Handler duration of exchanges in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricExchangeDuration, err)
	}

	exchangeActive, err := meter.Int64UpDownCounter(MetricExchangeActive,
		metric.WithDescription("Number of exchanges currently being handled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricExchangeActive, err)
	}

	lifecycleTotal, err := meter.Int64Counter(MetricLifecycleTotal,
		metric.WithDescription("Start and stop transitions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricLifecycleTotal, err)
	}

	return &Metrics{
		exchangeTotal:    exchangeTotal,
		exchangeDuration: exchangeDuration,
		exchangeActive:   exchangeActive,
		lifecycleTotal:   lifecycleTotal,
	}, nil
}

// RecordExchangeStart increments the active exchange count.
func (m *Metrics) RecordExchangeStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.exchangeActive.Add(ctx, 1)
}

// RecordExchangeEnd decrements the active count and records a finished
// exchange. failed marks a handler that panicked.
func (m *Metrics) RecordExchangeEnd(ctx context.Context, method string, status int, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.exchangeActive.Add(ctx, -1)
	m.exchangeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrStatus, strconv.Itoa(status)),
		attribute.Bool(AttrFailed, failed),
	))
	m.exchangeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrMethod, method),
	))
}

// RecordLifecycle records a start or stop transition and its outcome.
func (m *Metrics) RecordLifecycle(ctx context.Context, operation, outcome string) {
	if m == nil {
		return
	}
	m.lifecycleTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, operation),
		attribute.String(AttrOutcome, outcome),
	))
}
