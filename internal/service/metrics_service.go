package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/classroom-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	uploadsEnqueued *prometheus.CounterVec
	uploadJobs      *prometheus.CounterVec
	uploadJobTime   prometheus.Histogram
	broadcasts      *prometheus.CounterVec
	listeners       prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	enqueuedCount        uint64
	rejectedCount        uint64
	completedCount       uint64
	failedCount          uint64
	droppedCount         uint64
	listenerCount        int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	uploadsEnqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_jobs_enqueued_total",
		Help: "Upload jobs handed to the queue, by result",
	}, []string{"result"})

	uploadJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_jobs_processed_total",
		Help: "Upload jobs processed by the worker, by outcome",
	}, []string{"outcome"})

	uploadJobTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upload_job_queue_latency_seconds",
		Help:    "Time between enqueue and the end of processing",
		Buckets: prometheus.DefBuckets,
	})

	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_broadcast_deliveries_total",
		Help: "Broadcast deliveries per event, by result",
	}, []string{"event", "result"})

	listeners := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_listeners",
		Help: "Currently connected broadcast listeners",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, uploadsEnqueued, uploadJobs, uploadJobTime, broadcasts, listeners, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		uploadsEnqueued: uploadsEnqueued,
		uploadJobs:      uploadJobs,
		uploadJobTime:   uploadJobTime,
		broadcasts:      broadcasts,
		listeners:       listeners,
	}
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordEnqueue counts an upload job hand-off.
func (m *MetricsService) RecordEnqueue(accepted bool) {
	if m == nil {
		return
	}
	if accepted {
		m.uploadsEnqueued.WithLabelValues("accepted").Inc()
		atomic.AddUint64(&m.enqueuedCount, 1)
		return
	}
	m.uploadsEnqueued.WithLabelValues("rejected").Inc()
	atomic.AddUint64(&m.rejectedCount, 1)
}

// RecordJobOutcome counts a processed upload job. enqueued may be zero.
func (m *MetricsService) RecordJobOutcome(success bool, enqueued time.Time) {
	if m == nil {
		return
	}
	if !enqueued.IsZero() {
		m.uploadJobTime.Observe(time.Since(enqueued).Seconds())
	}
	if success {
		m.uploadJobs.WithLabelValues("completed").Inc()
		atomic.AddUint64(&m.completedCount, 1)
		return
	}
	m.uploadJobs.WithLabelValues("failed").Inc()
	atomic.AddUint64(&m.failedCount, 1)
}

// ListenersChanged tracks the number of connected broadcast listeners.
func (m *MetricsService) ListenersChanged(n int) {
	if m == nil {
		return
	}
	m.listeners.Set(float64(n))
	atomic.StoreInt64(&m.listenerCount, int64(n))
}

// BroadcastDelivered records how many listeners received or missed an event.
func (m *MetricsService) BroadcastDelivered(event string, delivered, dropped int) {
	if m == nil {
		return
	}
	if delivered > 0 {
		m.broadcasts.WithLabelValues(event, "delivered").Add(float64(delivered))
	}
	if dropped > 0 {
		m.broadcasts.WithLabelValues(event, "dropped").Add(float64(dropped))
		atomic.AddUint64(&m.droppedCount, uint64(dropped))
	}
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		UploadsEnqueued:          atomic.LoadUint64(&m.enqueuedCount),
		UploadsRejected:          atomic.LoadUint64(&m.rejectedCount),
		UploadJobsCompleted:      atomic.LoadUint64(&m.completedCount),
		UploadJobsFailed:         atomic.LoadUint64(&m.failedCount),
		RealtimeListeners:        atomic.LoadInt64(&m.listenerCount),
		BroadcastsDropped:        atomic.LoadUint64(&m.droppedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
