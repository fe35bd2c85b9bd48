package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	SamplesIngested metric.Int64Counter
	StoreOperations metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("water-quality-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	samplesIngested, err := meter.Int64Counter(
		"samples.ingested.total",
		metric.WithDescription("Total water samples persisted"),
	)
	if err != nil {
		return nil, err
	}

	storeOperations, err := meter.Int64Counter(
		"store.operations.total",
		metric.WithDescription("Total document store operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		SamplesIngested: samplesIngested,
		StoreOperations: storeOperations,
	}, nil
}

// RecordRequest records one handled HTTP request
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(context.Background(), 1, attrs)
	m.RequestDuration.Record(context.Background(), duration, attrs)
}

// RecordIngest counts one persisted sample
func (m *Metrics) RecordIngest(scenario string) {
	m.SamplesIngested.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("scenario", scenario)))
}

// RecordStoreOperation counts one document store call
func (m *Metrics) RecordStoreOperation(op, collection, status string) {
	m.StoreOperations.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("collection", collection),
			attribute.String("status", status),
		))
}
