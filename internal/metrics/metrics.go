// Package metrics exposes Prometheus instrumentation for the sync sweeps
// and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncRuns counts per-source sync attempts by source type and outcome.
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_sync_runs_total",
		Help: "Number of per-source sync attempts.",
	}, []string{"type", "status"})

	// EventsUpserted counts calendar events written during syncs.
	EventsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_sync_events_upserted_total",
		Help: "Number of calendar events inserted or updated by sync.",
	})

	// EventsDeleted counts locally removed cancelled events.
	EventsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_sync_events_deleted_total",
		Help: "Number of calendar events deleted because the provider cancelled them.",
	})

	// PhotosImported counts album photos pulled into local storage.
	PhotosImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_sync_photos_imported_total",
		Help: "Number of photos imported from connected albums.",
	})

	// HTTPRequests counts API requests by method and response status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_http_requests_total",
		Help: "Number of HTTP requests handled.",
	}, []string{"method", "status"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
