package feeds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luminor_feed_cache_hits_total",
		Help: "The total number of feed group requests answered from cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "luminor_feed_cache_misses_total",
		Help: "The total number of feed group requests that triggered a refresh",
	})

	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "luminor_feed_fetch_errors_total",
		Help: "The total number of failed source feed fetches",
	}, []string{"url"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "luminor_feed_refresh_duration_seconds",
		Help:    "Duration of full feed group refreshes",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
