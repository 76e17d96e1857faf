// Package metrics exposes Prometheus collectors for the concert crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch kinds recorded by ObserveFetch.
const (
	FetchKindProbe    = "probe"
	FetchKindHeadless = "headless"
)

var (
	fetchPagesTotal          *prometheus.CounterVec
	fetchBytesTotal          *prometheus.CounterVec
	headlessPromotionsTotal  *prometheus.CounterVec
	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	scrapesTotal             *prometheus.CounterVec
	concertsSavedTotal       *prometheus.CounterVec
	concertsFailedTotal      *prometheus.CounterVec
	activeWorkers            prometheus.Gauge
	rateLimitDelaysSeconds   *prometheus.HistogramVec
	pagesArchivedTotal       *prometheus.CounterVec
	notificationsFailedTotal prometheus.Counter
	queueWaitSeconds         *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_fetch_pages_total",
				Help: "Pages fetched, labeled by site, fetch kind and outcome.",
			},
			[]string{"site", "kind", "outcome"},
		)
		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_fetch_bytes_total",
				Help: "Bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)
		headlessPromotionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_headless_promotions_total",
				Help: "Probe responses re-fetched with a headless browser.",
			},
			[]string{"site"},
		)
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_scrapes_total",
				Help: "Venue scrapes, labeled by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		)
		concertsSavedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_saved_total",
				Help: "Concert candidates persisted, labeled by strategy.",
			},
			[]string{"strategy"},
		)
		concertsFailedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_save_failed_total",
				Help: "Concert candidates whose transaction was rolled back.",
			},
			[]string{"strategy"},
		)
		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "concerts_active_workers",
				Help: "Number of background workers currently scraping.",
			},
		)
		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concerts_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
		pagesArchivedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concerts_pages_archived_total",
				Help: "Listing pages written to the archive, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		notificationsFailedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "concerts_notifications_failed_total",
				Help: "Venue scraped notifications that could not be published.",
			},
		)
		queueWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concerts_queue_wait_seconds",
				Help:    "Time background scrape requests spent queued, labeled by scope.",
				Buckets: []float64{0.01, 0.1, 1, 5, 30, 120, 600},
			},
			[]string{"scope"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname, or "unknown".
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(site, kind string, ok bool, bytesFetched int) {
	Init()
	host := SanitizeSite(site)
	fetchPagesTotal.WithLabelValues(host, kind, outcome(ok)).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(host).Add(float64(bytesFetched))
	}
}

// ObserveHeadlessPromotion counts a probe promoted to headless.
func ObserveHeadlessPromotion(site string) {
	Init()
	headlessPromotionsTotal.WithLabelValues(SanitizeSite(site)).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveScrape records a finished venue scrape.
func ObserveScrape(strategy string, ok bool) {
	Init()
	scrapesTotal.WithLabelValues(strategy, outcome(ok)).Inc()
}

// ObserveSave records a single concert persistence attempt.
func ObserveSave(strategy string, ok bool) {
	Init()
	if ok {
		concertsSavedTotal.WithLabelValues(strategy).Inc()
		return
	}
	concertsFailedTotal.WithLabelValues(strategy).Inc()
}

// ObserveArchive records a page archive attempt.
func ObserveArchive(ok bool) {
	Init()
	pagesArchivedTotal.WithLabelValues(outcome(ok)).Inc()
}

// ObserveNotificationFailure counts a failed publish.
func ObserveNotificationFailure() {
	Init()
	notificationsFailedTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveQueueWait records how long a background request waited for a worker.
// scope is "venue" or "all".
func ObserveQueueWait(scope string, wait time.Duration) {
	Init()
	if wait < 0 {
		wait = 0
	}
	queueWaitSeconds.WithLabelValues(scope).Observe(wait.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
