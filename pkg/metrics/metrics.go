package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	// Settlement pipeline counters.
	OrdersCreated *prometheus.CounterVec
	WebhookEvents *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freshcart",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "freshcart",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freshcart",
		Subsystem: service,
		Name:      "orders_created_total",
		Help:      "Orders committed to the ledger, by settlement path.",
	}, []string{"path"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freshcart",
		Subsystem: service,
		Name:      "webhook_events_total",
		Help:      "Payment webhook deliveries, by event type and outcome.",
	}, []string{"type", "outcome"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(requests, latency, orders, webhooks)

	return &ServerMetrics{
		Requests:      requests,
		LatencyMS:     latency,
		OrdersCreated: orders,
		WebhookEvents: webhooks,
		registry:      registry,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
