// Package metrics holds the Prometheus collectors for shelfserve.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shelfserve"

var (
	registerOnce sync.Once

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of catalog queries by sort key",
	}, []string{"sort"})
	zeroResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_empty_total",
		Help:      "Total number of queries that matched nothing",
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time spent in filter, sort and paginate",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us up to ~100ms
	})
	searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_results",
		Help:      "Number of products matched per query before paging",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
	})
	suggestions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suggest_requests_total",
		Help:      "Total number of autocomplete requests",
	})

	catalogProducts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_products",
		Help:      "Records in the live catalog snapshot",
	})
	catalogInvalid = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_invalid_products",
		Help:      "Malformed records in the live catalog snapshot",
	})
	catalogReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_reloads_total",
		Help:      "Catalog reload attempts by result",
	}, []string{"result"})

	historyWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_write_failures_total",
		Help:      "Search history writes that failed and were dropped",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "HTTP requests rejected by the rate limiter",
	})
	ipcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ipc_requests_total",
		Help:      "IPC requests by operation",
	}, []string{"op"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searches, zeroResults, searchDuration, searchResults, suggestions,
			catalogProducts, catalogInvalid, catalogReloads, historyWriteFailures,
			httpRequests, rateLimited, ipcRequests)
	})
}

// ObserveSearch records one completed query.
func ObserveSearch(sort string, matched int, d time.Duration) {
	searches.WithLabelValues(sort).Inc()
	searchResults.Observe(float64(matched))
	searchDuration.Observe(d.Seconds())
	if matched == 0 {
		zeroResults.Inc()
	}
}

func IncSuggest() { suggestions.Inc() }

// SetCatalog publishes the size of a newly installed snapshot.
func SetCatalog(products, invalid int) {
	catalogProducts.Set(float64(products))
	catalogInvalid.Set(float64(invalid))
}

// IncCatalogReload counts a reload attempt; err nil counts as success.
func IncCatalogReload(err error) {
	if err != nil {
		catalogReloads.WithLabelValues("error").Inc()
		return
	}
	catalogReloads.WithLabelValues("ok").Inc()
}

func IncHistoryWriteFailure(error) { historyWriteFailures.Inc() }

func IncHTTPRequest(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func IncRateLimited() { rateLimited.Inc() }

func IncIPCRequest(op string) { ipcRequests.WithLabelValues(op).Inc() }
