package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is safe to
// use; every method no-ops, which keeps tests free of registry setup.
type Metrics struct {
	ticketCacheHits     *prometheus.CounterVec
	ticketCacheMisses   *prometheus.CounterVec
	ticketIssueDuration *prometheus.HistogramVec
	gatewayCalls        *prometheus.CounterVec
	signingFailures     prometheus.Counter
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ticketCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portauth",
			Name:      "ticket_cache_hits_total",
			Help:      "Tickets served from cache, by tier and service kind.",
		}, []string{"tier", "service_kind"}),
		ticketCacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portauth",
			Name:      "ticket_cache_misses_total",
			Help:      "Ticket lookups that required gateway issuance, by service kind.",
		}, []string{"service_kind"}),
		ticketIssueDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portauth",
			Name:      "ticket_issue_duration_seconds",
			Help:      "End-to-end build, sign, and gateway-login duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service_kind", "outcome"}),
		gatewayCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portauth",
			Name:      "gateway_calls_total",
			Help:      "WSAA login calls, by outcome.",
		}, []string{"outcome"}),
		signingFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "portauth",
			Name:      "signing_failures_total",
			Help:      "Failed CMS signing attempts.",
		}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portauth",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route, and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveCacheHit records a ticket served from the given tier ("l1" or "store").
func (m *Metrics) ObserveCacheHit(tier, serviceKind string) {
	if m == nil {
		return
	}
	m.ticketCacheHits.WithLabelValues(tier, serviceKind).Inc()
}

// ObserveCacheMiss records a lookup that fell through to issuance.
func (m *Metrics) ObserveCacheMiss(serviceKind string) {
	if m == nil {
		return
	}
	m.ticketCacheMisses.WithLabelValues(serviceKind).Inc()
}

// ObserveIssue records one issuance attempt with its duration and outcome.
func (m *Metrics) ObserveIssue(serviceKind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ticketIssueDuration.WithLabelValues(serviceKind, outcome).Observe(elapsed.Seconds())
}

// ObserveGatewayCall records one WSAA call by outcome ("ok" or the error code).
func (m *Metrics) ObserveGatewayCall(outcome string) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(outcome).Inc()
}

// ObserveSigningFailure records a failed signing attempt.
func (m *Metrics) ObserveSigningFailure() {
	if m == nil {
		return
	}
	m.signingFailures.Inc()
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
