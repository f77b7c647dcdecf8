// Package metrics registers prometheus instrumentation for the waybill
// service.
package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "waybill_"

	resultSuccess = "success"
	resultError   = "error"
)

// Result labels used by observers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

var (
	registerOnce sync.Once

	createTotal   *prometheus.CounterVec
	createLatency *prometheus.HistogramVec

	updateTotal   *prometheus.CounterVec
	updateLatency *prometheus.HistogramVec

	transitionTotal   *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	overageOverridesTotal prometheus.Counter
	blankReleaseFailures  prometheus.Counter
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		createTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "create_total",
				Help: "Total waybill creations by result",
			},
			[]string{"result"},
		)
		createLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "create_latency_seconds",
				Help:    "Waybill creation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		updateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "update_total",
				Help: "Total waybill updates by result",
			},
			[]string{"result"},
		)
		updateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "update_latency_seconds",
				Help:    "Waybill update latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		transitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_transition_total",
				Help: "Total status transitions by target status and result",
			},
			[]string{"target", "result"},
		)
		transitionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "status_transition_latency_seconds",
				Help:    "Status transition latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"target", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total waybill exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Waybill export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		overageOverridesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "overage_overrides_total",
			Help: "Posted waybills where consumption overage was overridden",
		})
		blankReleaseFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "blank_release_failures_total",
			Help: "Blank release failures on waybill deletion, pending reconciliation",
		})

		prometheus.MustRegister(
			createTotal, createLatency,
			updateTotal, updateLatency,
			transitionTotal, transitionLatency,
			exportTotal, exportLatency,
			overageOverridesTotal, blankReleaseFailures,
		)

		registerDBMetrics(db, logger)
	})
}

// ObserveCreate records one create outcome.
func ObserveCreate(result string, elapsed time.Duration) {
	if createTotal == nil {
		return
	}
	createTotal.WithLabelValues(result).Inc()
	createLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveUpdate records one update outcome.
func ObserveUpdate(result string, elapsed time.Duration) {
	if updateTotal == nil {
		return
	}
	updateTotal.WithLabelValues(result).Inc()
	updateLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveTransition records one status transition outcome.
func ObserveTransition(target, result string, elapsed time.Duration) {
	if transitionTotal == nil {
		return
	}
	transitionTotal.WithLabelValues(target, result).Inc()
	transitionLatency.WithLabelValues(target, result).Observe(elapsed.Seconds())
}

// ObserveExport records one export outcome.
func ObserveExport(format, result string, elapsed time.Duration) {
	if exportTotal == nil {
		return
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format, result).Observe(elapsed.Seconds())
}

// IncOverageOverride counts an authorized overage posting.
func IncOverageOverride() {
	if overageOverridesTotal != nil {
		overageOverridesTotal.Inc()
	}
}

// IncBlankReleaseFailure counts a blank left reserved after deletion.
func IncBlankReleaseFailure() {
	if blankReleaseFailures != nil {
		blankReleaseFailures.Inc()
	}
}
