package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the Prometheus collectors for the file vault.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	UploadsTotal    *prometheus.CounterVec   // filevault_uploads_total{result}
	UploadBytes     prometheus.Counter       // filevault_upload_bytes_total
	DownloadBytes   prometheus.Counter       // filevault_download_bytes_total
	DeletesTotal    *prometheus.CounterVec   // filevault_deletes_total{result}
	OrphanedChunks  prometheus.Counter       // filevault_orphaned_chunks_total
	RequestDuration *prometheus.HistogramVec // filevault_http_request_duration_seconds{method,route,status}
}

// New registers the collectors with registry. A nil registry uses the default registerer.
// Each registry can only be passed once; tests should use prometheus.NewRegistry().
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)
	return &Metrics{
		UploadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filevault_uploads_total",
			Help: "Uploads by result",
		}, []string{"result"}),

		UploadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "filevault_upload_bytes_total",
			Help: "Bytes committed by successful uploads",
		}),

		DownloadBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "filevault_download_bytes_total",
			Help: "Bytes streamed to downloaders",
		}),

		DeletesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "filevault_deletes_total",
			Help: "Object deletions by result",
		}, []string{"result"}),

		OrphanedChunks: f.NewCounter(prometheus.CounterOpts{
			Name: "filevault_orphaned_chunks_total",
			Help: "Objects whose chunks could not be removed after their metadata was deleted",
		}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filevault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordUpload counts one upload attempt and, on success, its size.
func (m *Metrics) RecordUpload(sizeBytes int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.UploadsTotal.WithLabelValues(ResultError).Inc()
		return
	}
	m.UploadsTotal.WithLabelValues(ResultOK).Inc()
	m.UploadBytes.Add(float64(sizeBytes))
}

// RecordDownloadBytes adds n streamed bytes.
func (m *Metrics) RecordDownloadBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DownloadBytes.Add(float64(n))
}

// RecordDelete counts one delete attempt.
func (m *Metrics) RecordDelete(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.DeletesTotal.WithLabelValues(result).Inc()
}

// RecordOrphan counts an object whose chunks outlived its metadata.
func (m *Metrics) RecordOrphan() {
	if m == nil {
		return
	}
	m.OrphanedChunks.Inc()
}

// ObserveRequest records an HTTP request latency.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes metrics from gatherer in Prometheus text format.
// A nil gatherer serves the default registry.
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
