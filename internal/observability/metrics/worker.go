package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	retryTotal      *prometheus.CounterVec
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docfields",
			Subsystem: "worker",
			Name:      "task_process_total",
			Help:      "Total processed extraction tasks by terminal status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docfields",
			Subsystem: "worker",
			Name:      "task_process_duration_seconds",
			Help:      "Extraction task duration in seconds by terminal status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docfields",
			Subsystem: "worker",
			Name:      "task_process_in_flight",
			Help:      "Number of in-flight extraction tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docfields",
			Subsystem: "worker",
			Name:      "task_retry_total",
			Help:      "Total retried extraction attempts.",
		},
		[]string{"service"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docfields",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, retryTotal, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		retryTotal:      retryTotal,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "finished"
	if err != nil {
		status = "failed"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveRetry(service string) {
	m.retryTotal.WithLabelValues(service).Inc()
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
