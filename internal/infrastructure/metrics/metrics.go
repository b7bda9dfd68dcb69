package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Clustering Engine Metrics
	ClusterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigpicture_cluster_duration_seconds",
			Help:    "Duration of the viewport clustering pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"}, // "grouped", "ungrouped", "empty"
	)

	ClusterMarkersFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bigpicture_cluster_markers_fetched",
			Help:    "Number of markers returned by the store per clustering request",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	ClustersReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bigpicture_clusters_returned",
			Help:    "Number of clusters returned per clustering request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	ImageFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bigpicture_image_fetch_failures_total",
			Help: "Total number of per-marker image fetches swallowed to an empty list",
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigpicture_store_errors_total",
			Help: "Total number of marker store failures",
		},
		[]string{"operation"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigpicture_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigpicture_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RecordCluster クラスタリング1回分の計測値を記録
func RecordCluster(mode string, duration time.Duration, markers, clusters int) {
	ClusterDuration.WithLabelValues(mode).Observe(duration.Seconds())
	ClusterMarkersFetched.Observe(float64(markers))
	ClustersReturned.Observe(float64(clusters))
}

// RecordAPIRequest APIリクエスト1件を記録
func RecordAPIRequest(method, path string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
