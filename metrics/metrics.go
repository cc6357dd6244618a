// Package metrics exports engine outcomes and HTTP traffic as prometheus
// counters and histograms.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitfsorg/nftstages-go/engine"
)

const namespace = "nftstages"

// Metrics holds the collectors. It implements engine.Observer.
type Metrics struct {
	mints        *prometheus.CounterVec
	unitsMinted  *prometheus.CounterVec
	adminOps     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ engine.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mint",
				Name:      "attempts_total",
				Help:      "Mint attempts by stage and result code.",
			},
			[]string{"stage", "result"},
		),
		unitsMinted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mint",
				Name:      "units_total",
				Help:      "Units minted by stage.",
			},
			[]string{"stage"},
		),
		adminOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admin",
				Name:      "operations_total",
				Help:      "Administrative operations by kind and result code.",
			},
			[]string{"op", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
	reg.MustRegister(m.mints, m.unitsMinted, m.adminOps, m.httpRequests, m.httpDuration)
	return m
}

// Result returns the result label for err: "ok", the engine error code, or
// "error" for anything else.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if code, _, ok := engine.CodeOf(err); ok {
		return strconv.FormatUint(uint64(code), 10)
	}
	return "error"
}

// ObserveMint implements engine.Observer.
func (m *Metrics) ObserveMint(stageIndex uint32, units uint64, err error) {
	stage := strconv.FormatUint(uint64(stageIndex), 10)
	m.mints.WithLabelValues(stage, Result(err)).Inc()
	if err == nil {
		m.unitsMinted.WithLabelValues(stage).Add(float64(units))
	}
}

// ObserveAdmin implements engine.Observer.
func (m *Metrics) ObserveAdmin(op string, err error) {
	m.adminOps.WithLabelValues(op, Result(err)).Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	s := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, s).Inc()
	m.httpDuration.WithLabelValues(method, path, s).Observe(d.Seconds())
}
