// Package metrics provides Prometheus metrics for jfsio operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine call metrics
	EngineCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jfs_engine_calls_total",
			Help: "Total number of native engine calls",
		},
		[]string{"op", "status"}, // status: "ok" or the errno name
	)

	EngineCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jfs_engine_call_duration_seconds",
			Help:    "Native engine call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Descriptor table gauge
	OpenDescriptors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jfs_open_descriptors",
			Help: "Number of currently open file descriptors",
		},
	)

	WireDecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jfs_wire_decode_errors_total",
			Help: "Total number of engine buffers that failed to decode",
		},
		[]string{"format"},
	)

	UnclosedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jfs_unclosed_files_total",
			Help: "Total number of file objects reclaimed without an explicit close",
		},
	)

	// Data volume
	BytesReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jfs_bytes_read_total",
			Help: "Total number of bytes returned by read calls",
		},
	)

	BytesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jfs_bytes_written_total",
			Help: "Total number of bytes accepted by write calls",
		},
	)

	// Embedded engine metadata store
	MetadataQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jfs_metadata_queries_total",
			Help: "Total number of metadata store queries issued by the embedded engine",
		},
		[]string{"store", "operation"},
	)

	EmbeddedFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jfs_embedded_flushes_total",
			Help: "Total number of write buffers persisted by the embedded engine",
		},
		[]string{"trigger"}, // "flush", "close", "truncate", "concat", "writeback", "term"
	)

	// Admin HTTP server
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jfs_http_requests_total",
			Help: "Total number of HTTP requests served by the admin server",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jfs_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
