// Package metrics exposes Prometheus counters and histograms for the auth
// service and its transports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeDuplicateUser      = "duplicate_user"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeError              = "error"
)

// Recorder is what the service and transports report to.
type Recorder interface {
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordAuthorization(outcome string)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
	RecordGRPCRequest(method, code string, d time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	grpcRequests   *prometheus.CounterVec
	grpcLatency    *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_authorizations_total",
			Help: "Token checks by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authkeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		grpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_grpc_requests_total",
			Help: "gRPC calls by method and status code.",
		}, []string{"method", "code"}),
		grpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authkeeper_grpc_request_duration_seconds",
			Help:    "gRPC call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.authorizations,
		c.httpRequests,
		c.httpLatency,
		c.grpcRequests,
		c.grpcLatency,
	)

	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAuthorization(outcome string) {
	c.authorizations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordGRPCRequest(method, code string, d time.Duration) {
	c.grpcRequests.WithLabelValues(method, code).Inc()
	c.grpcLatency.WithLabelValues(method).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRegistration(string)                            {}
func (Nop) RecordLogin(string)                                   {}
func (Nop) RecordAuthorization(string)                           {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordGRPCRequest(string, string, time.Duration)      {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
