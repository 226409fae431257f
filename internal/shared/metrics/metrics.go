package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "emr_dashboard"

// Metrics groups the collectors the dashboard exports on /metrics.
type Metrics struct {
	ReportsComputed      *prometheus.CounterVec
	ReportDuration       prometheus.Histogram
	ReportCache          *prometheus.CounterVec
	VerificationRequests *prometheus.CounterVec
	JobStatusPolls       *prometheus.CounterVec
	UpstreamRequests     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReportsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_computed_total",
			Help:      "Coverage reports computed, by tab.",
		}, []string{"tab"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_compute_seconds",
			Help:      "Time spent aggregating a coverage report.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups, by result.",
		}, []string{"result"}),
		VerificationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_requests_total",
			Help:      "Verification webhook dispatches, by trigger and result.",
		}, []string{"trigger", "result"}),
		JobStatusPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_status_polls_total",
			Help:      "Form generator job status checks, by outcome.",
		}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to external collaborators, by service and status class.",
		}, []string{"service", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ReportsComputed,
			m.ReportDuration,
			m.ReportCache,
			m.VerificationRequests,
			m.JobStatusPolls,
			m.UpstreamRequests,
		)
	}
	return m
}

// ObserveReport records one report computation that started at start.
func (m *Metrics) ObserveReport(tab string, start time.Time) {
	if m == nil {
		return
	}
	m.ReportsComputed.WithLabelValues(tab).Inc()
	m.ReportDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ReportCache.WithLabelValues("hit").Inc()
		return
	}
	m.ReportCache.WithLabelValues("miss").Inc()
}

func (m *Metrics) Verification(trigger string, err error) {
	if m == nil {
		return
	}
	m.VerificationRequests.WithLabelValues(trigger, result(err)).Inc()
}

func (m *Metrics) JobPoll(outcome string) {
	if m == nil {
		return
	}
	m.JobStatusPolls.WithLabelValues(outcome).Inc()
}

// Upstream counts a request by HTTP status class ("2xx", "5xx") or "error".
func (m *Metrics) Upstream(service string, status int, err error) {
	if m == nil {
		return
	}
	label := "error"
	if err == nil && status > 0 {
		label = strconv.Itoa(status/100) + "xx"
	}
	m.UpstreamRequests.WithLabelValues(service, label).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
