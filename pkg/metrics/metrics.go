// Package metrics provides Prometheus metrics for the media index.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan metrics
	scanEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaindex_scan_entries_total",
			Help: "Total number of storage entries visited by scans",
		},
		[]string{"status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediaindex_scan_duration_seconds",
			Help:    "Duration of full-tree scans in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	indexItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaindex_index_items",
			Help: "Number of rows in the item index",
		},
	)

	// Mutation metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaindex_mutations_total",
			Help: "Total number of mutation requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaindex_upload_bytes_total",
			Help: "Total bytes written by uploads",
		},
	)

	// Storage metrics
	storageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaindex_storage_operation_duration_seconds",
			Help:    "Storage backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation", "status"},
	)
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordScanEntry counts one visited entry with its get-or-create status.
func RecordScanEntry(entryStatus string) {
	scanEntriesTotal.WithLabelValues(entryStatus).Inc()
}

// RecordScan records the duration of a finished scan.
func RecordScan(duration time.Duration) {
	scanDuration.Observe(duration.Seconds())
}

// SetIndexItems sets the current index size.
func SetIndexItems(count int64) {
	indexItems.Set(float64(count))
}

// RecordMutation counts a mutation with its outcome label.
func RecordMutation(operation, result string) {
	mutationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordUpload adds written upload bytes.
func RecordUpload(size int64) {
	if size > 0 {
		uploadBytesTotal.Add(float64(size))
	}
}

// RecordStorageOperation records a single backend call.
func RecordStorageOperation(backend, operation string, duration time.Duration, success bool) {
	storageOperationDuration.WithLabelValues(backend, operation, status(success)).Observe(duration.Seconds())
}

// WriteTextfile writes every registered metric in the text exposition format,
// for collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
