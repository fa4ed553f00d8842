package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/insight"
)

// Metrics holds the dashboard's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.HistogramVec
	imports         *prometheus.CounterVec
	attendanceEdits prometheus.Counter
	insights        *prometheus.CounterVec
	rebuilds        prometheus.Counter
	unattributed    prometheus.Gauge
	organizations   prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hr_dashboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hr_dashboard",
			Name:      "payroll_imports_total",
			Help:      "Payroll correction uploads by result.",
		}, []string{"result"}),
		attendanceEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hr_dashboard",
			Name:      "attendance_edits_total",
			Help:      "Saved manual attendance edits.",
		}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hr_dashboard",
			Name:      "insight_tasks_total",
			Help:      "Finished insight tasks by final state.",
		}, []string{"state"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hr_dashboard",
			Name:      "snapshot_rebuilds_total",
			Help:      "Snapshots rebuilt after an input change.",
		}),
		unattributed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hr_dashboard",
			Name:      "unattributed_organizations",
			Help:      "Organizations outside every reporting unit in the latest snapshot.",
		}),
		organizations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hr_dashboard",
			Name:      "organizations",
			Help:      "Organizations in the latest snapshot.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.imports,
		m.attendanceEdits,
		m.insights,
		m.rebuilds,
		m.unattributed,
		m.organizations,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRebuild is installed as Dashboard.OnRebuild.
func (m *Metrics) ObserveRebuild(s *analytics.Snapshot) {
	m.rebuilds.Inc()
	m.organizations.Set(float64(len(s.Organizations)))
	m.unattributed.Set(float64(len(s.Attribution().Unattributed)))
}

// ObserveInsight is installed as Runner.OnFinish.
func (m *Metrics) ObserveInsight(state insight.State) {
	m.insights.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeImport(result string) {
	m.imports.WithLabelValues(result).Inc()
}

func (m *Metrics) observeAttendanceEdit() {
	m.attendanceEdits.Inc()
}

func (m *Metrics) observeRequest(method, route, status string, seconds float64) {
	m.requests.WithLabelValues(method, route, status).Observe(seconds)
}
