// Package metrics exposes the prometheus instrumentation for a task-core
// run: graph build/reconciliation timings and per-task scheduling and
// execution outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_core_tasks_total",
			Help: "Total number of tasks executed, by final status",
		},
		[]string{"status", "driver"},
	)

	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_core_scheduling_latency_seconds",
			Help:    "Time a task spent waiting for its dependencies before dispatch",
			Buckets: prometheus.DefBuckets,
		},
	)

	TaskExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_core_task_execution_duration_seconds",
			Help:    "Time taken to execute a single task, by driver",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver"},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_core_reconciliation_duration_seconds",
			Help:    "Time taken for the needed-by -> requires reconciliation pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_core_reconciliation_cycles_total",
			Help: "Total number of reconciliation passes completed",
		},
	)

	GraphBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_core_graph_build_duration_seconds",
			Help:    "Time taken to build the task dependency graph",
			Buckets: prometheus.DefBuckets,
		},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_core_run_duration_seconds",
			Help:    "Total wall-clock time for one task-core run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)
)

func init() {
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(TaskExecutionDuration)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(GraphBuildDuration)
	prometheus.MustRegister(RunDuration)
}

// Handler returns the Prometheus HTTP handler, exposed so a caller that
// wants a metrics endpoint alongside a run can mount it.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
