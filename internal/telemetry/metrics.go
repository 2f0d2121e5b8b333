// Package telemetry sets up otel metrics and tracing and records order
// events as metrics.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/partnerdash/api/internal/notify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}

// Metrics counts order events. It implements notify.Notifier.
type Metrics struct {
	meter  metric.Meter
	events metric.Int64Counter
}

// ActiveSource reports how many active orders each open restaurant holds.
// Satisfied by *service.Sessions.
type ActiveSource interface {
	ActiveCounts() map[uuid.UUID]int
}

// NewMetrics registers the order instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("partnerdash/orders")

	events, err := meter.Int64Counter("orders_events",
		metric.WithDescription("Order lifecycle events by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("orders_events counter: %w", err)
	}

	return &Metrics{meter: meter, events: events}, nil
}

// ObserveActive exports orders_active from src at collection time. Orders
// restored from the backend are counted without any event.
func (m *Metrics) ObserveActive(src ActiveSource) error {
	active, err := m.meter.Int64ObservableGauge("orders_active",
		metric.WithDescription("Orders currently in INCOMING, PREPARING or READY"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return fmt.Errorf("orders_active gauge: %w", err)
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for rid, n := range src.ActiveCounts() {
			o.ObserveInt64(active, int64(n),
				metric.WithAttributes(attribute.String("restaurant_id", rid.String())))
		}
		return nil
	}, active)
	if err != nil {
		return fmt.Errorf("orders_active callback: %w", err)
	}
	return nil
}

func (m *Metrics) Notify(ctx context.Context, e notify.Event) error {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", e.Type),
		attribute.String("restaurant_id", e.RestaurantID.String()),
	))
	return nil
}
