package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passmap_requests_total",
		Help: "Total number of API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "passmap_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "passmap_sessions_active",
		Help: "Number of open map sessions",
	})
	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passmap_selections_total",
		Help: "Selection changes by source (click, search, api, clear)",
	}, []string{"source"})
	CameraAnimationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_camera_animations_total",
		Help: "Total camera animation runs started",
	})
	CameraSupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_camera_superseded_total",
		Help: "Camera runs replaced before completion",
	})
	CameraFramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_camera_frames_total",
		Help: "Total animation frames delivered",
	})
	SearchQueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_search_queries_total",
		Help: "Total search query updates",
	})
	SearchEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_search_empty_total",
		Help: "Search queries with no matching entries",
	})
	CountryInfoRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_countryinfo_requests_total",
		Help: "Total country facts REST requests",
	})
	CountryInfoSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_countryinfo_success_total",
		Help: "Total country facts REST successes",
	})
	CountryInfoFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_countryinfo_fail_total",
		Help: "Total country facts REST failures",
	})
	CountryInfoDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "passmap_countryinfo_duration_ms",
		Help:    "Country facts REST call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passmap_cache_hits_total",
		Help: "Country facts cache hits by backend",
	}, []string{"backend"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passmap_cache_misses_total",
		Help: "Country facts cache misses by backend",
	}, []string{"backend"})
	PanelStaleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passmap_panel_stale_total",
		Help: "Detail fetch results discarded because the selection moved on",
	})
	RenderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "passmap_render_duration_ms",
		Help:    "Map render duration in milliseconds by format",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"format"})
	CatalogReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passmap_catalog_reloads_total",
		Help: "Catalog rebuilds by status",
	}, []string{"status"})
	CatalogCountries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "passmap_catalog_countries",
		Help: "Countries in the active catalog by category",
	}, []string{"category"})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDurationMs,
		SessionsActive,
		SelectionsTotal,
		CameraAnimationsTotal,
		CameraSupersededTotal,
		CameraFramesTotal,
		SearchQueriesTotal,
		SearchEmptyTotal,
		CountryInfoRequestsTotal,
		CountryInfoSuccessTotal,
		CountryInfoFailTotal,
		CountryInfoDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
		PanelStaleTotal,
		RenderDurationMs,
		CatalogReloadsTotal,
		CatalogCountries,
	)
}

// Handler：默认注册表的抓取端点，主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
