// Package metrics exposes Prometheus counters for logins and director
// actions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ccf"

// Metrics holds the front end's collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	loginAttempts   prometheus.Counter
	loginResults    *prometheus.CounterVec
	questionsSent   prometheus.Counter
	reportDownloads prometheus.Counter
	reportShares    prometheus.Counter
	gateDecisions   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New registers the collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Sign-in requests sent to the backend, retries included.",
		}),
		loginResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_results_total",
			Help:      "Completed logins by outcome.",
		}, []string{"result"}),
		questionsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_sent_total",
			Help:      "Questions accepted by the backend.",
		}),
		reportDownloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_downloads_total",
			Help:      "Reports downloaded by directors.",
		}),
		reportShares: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_shares_total",
			Help:      "Reports shared with staff.",
		}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Protected route decisions by dashboard and outcome.",
		}, []string{"route", "decision"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route pattern and status class.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loginAttempts,
		m.loginResults,
		m.questionsSent,
		m.reportDownloads,
		m.reportShares,
		m.gateDecisions,
		m.httpRequests,
	)
	return m
}

// LoginAttempt counts one sign-in request.
func (m *Metrics) LoginAttempt() {
	if m == nil {
		return
	}
	m.loginAttempts.Inc()
}

// LoginResult counts a finished login; result is "success" or a failure kind.
func (m *Metrics) LoginResult(result string) {
	if m == nil {
		return
	}
	m.loginResults.WithLabelValues(result).Inc()
}

// QuestionsSent counts n accepted questions.
func (m *Metrics) QuestionsSent(n int) {
	if m == nil {
		return
	}
	m.questionsSent.Add(float64(n))
}

// ReportDownloaded counts one report download.
func (m *Metrics) ReportDownloaded() {
	if m == nil {
		return
	}
	m.reportDownloads.Inc()
}

// ReportShared counts one report share.
func (m *Metrics) ReportShared() {
	if m == nil {
		return
	}
	m.reportShares.Inc()
}

// GateDecision counts one protected route decision.
func (m *Metrics) GateDecision(route, decision string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(route, decision).Inc()
}

// HTTPRequest counts one served request; status is a class such as "2xx".
func (m *Metrics) HTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
