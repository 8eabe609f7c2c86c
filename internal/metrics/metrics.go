// Package metrics defines the Prometheus instrumentation for the archive
// core. All metrics are prefixed with "slide_archive_" and registered with
// the default registry via promauto; a presentation layer exposes them by
// mounting promhttp.Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan and reconcile metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slide_archive_scans_total",
			Help: "Total number of archive filesystem scans",
		},
		[]string{"archive", "status"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slide_archive_scan_duration_seconds",
			Help:    "Archive filesystem scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"archive"},
	)

	ReconcileChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slide_archive_reconcile_changes_total",
			Help: "Metadata records added or pruned during reconciliation",
		},
		[]string{"archive", "change"}, // change: "added", "pruned", "adopted"
	)
)

// Thumbnail metrics
var (
	ThumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slide_archive_thumbnail_jobs_total",
			Help: "Thumbnail regeneration jobs by outcome",
		},
		[]string{"status"}, // "started", "success", "failure", "deduped"
	)

	ThumbnailJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slide_archive_thumbnail_job_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Store metrics
var (
	StoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slide_archive_store_writes_total",
			Help: "Document store writes by store and status",
		},
		[]string{"store", "status"},
	)
)

// Export metrics
var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slide_archive_exports_total",
			Help: "Slideshow document exports by status",
		},
		[]string{"status"},
	)

	ExportPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slide_archive_export_pages_total",
			Help: "Total pages emitted by slideshow exports",
		},
	)
)
