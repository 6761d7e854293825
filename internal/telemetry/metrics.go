// Package telemetry defines the Prometheus metrics exported by the service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksSubmitted counts tasks accepted through the API.
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imageforge",
		Subsystem: "tasks",
		Name:      "submitted_total",
		Help:      "Total tasks submitted.",
	})

	// TasksProcessed counts tasks that reached a terminal state, labelled
	// by that state.
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imageforge",
		Subsystem: "tasks",
		Name:      "processed_total",
		Help:      "Total tasks processed, labelled by terminal status.",
	}, []string{"status"})

	// TasksRunning tracks tasks currently being executed by a worker.
	TasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imageforge",
		Subsystem: "tasks",
		Name:      "running",
		Help:      "Tasks currently being executed.",
	})

	// TaskDurationSeconds observes end-to-end task execution time.
	TaskDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "imageforge",
		Subsystem: "tasks",
		Name:      "duration_seconds",
		Help:      "End-to-end task execution time in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	// DownloadsInFlight tracks image downloads currently in progress.
	DownloadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imageforge",
		Subsystem: "downloads",
		Name:      "inflight",
		Help:      "Image downloads currently in progress.",
	})

	// DownloadRetries counts download retry attempts.
	DownloadRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "imageforge",
		Subsystem: "downloads",
		Name:      "retries_total",
		Help:      "Total download retry attempts.",
	})

	// ObserverConnections tracks currently connected WebSocket observers.
	ObserverConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imageforge",
		Subsystem: "ws",
		Name:      "observers",
		Help:      "Currently connected WebSocket observers.",
	})
)
