package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	submitTotal    *prometheus.CounterVec
	completedTotal *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	activeLanes    *prometheus.GaugeVec
	sweepTotal     *prometheus.CounterVec
	idleWorkers    prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			submitTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "submit_total",
					Help: "Total task submissions by strategy.",
				},
				[]string{"strategy"},
			),
			completedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tasks_completed_total",
					Help: "Total completed tasks by strategy and status.",
				},
				[]string{"strategy", "status"},
			),
			taskDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "task_duration_seconds",
					Help:    "Task execution duration in seconds by strategy.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"strategy"},
			),
			activeLanes: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "lanes_active",
					Help: "Current number of lanes holding unfinished tasks.",
				},
				[]string{"strategy"},
			),
			sweepTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sweep_total",
					Help: "Total sweep checks by strategy and outcome.",
				},
				[]string{"strategy", "outcome"},
			),
			idleWorkers: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "pooled_workers_idle",
					Help: "Current idle workers in the shared worker pool.",
				},
			),
		}

		prometheus.MustRegister(
			m.submitTotal,
			m.completedTotal,
			m.taskDuration,
			m.activeLanes,
			m.sweepTotal,
			m.idleWorkers,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordSubmit(strategy string) {
	getMetrics().submitTotal.WithLabelValues(strategy).Inc()
}

func RecordCompletion(strategy string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.completedTotal.WithLabelValues(strategy, status).Inc()
	m.taskDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

func SetActiveLanes(strategy string, count int) {
	getMetrics().activeLanes.WithLabelValues(strategy).Set(float64(count))
}

func RecordSweep(strategy string, swept bool) {
	outcome := "kept"
	if swept {
		outcome = "removed"
	}
	getMetrics().sweepTotal.WithLabelValues(strategy, outcome).Inc()
}

func SetIdleWorkers(count int) {
	getMetrics().idleWorkers.Set(float64(count))
}
