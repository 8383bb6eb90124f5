// Package metrics defines the Prometheus instruments of the feed service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "socialfeed"

type Metrics struct {
	// RequestsTotal counts HTTP requests. Labels: method, route, status.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes HTTP latency. Labels: method, route.
	RequestDuration *prometheus.HistogramVec
	// LeaderboardDuration observes time spent computing one leaderboard,
	// fetch included.
	LeaderboardDuration prometheus.Histogram
	// LikesSkippedTotal counts likes left out of a leaderboard as malformed.
	LikesSkippedTotal prometheus.Counter
	// CommentsDroppedTotal counts comments missing from a rendered tree
	// because their parent chain never reached a root.
	CommentsDroppedTotal prometheus.Counter
	// LikesTotal counts accepted likes. Labels: target (post, comment).
	LikesTotal *prometheus.CounterVec
	// ActiveSubscribers tracks open comment streams.
	ActiveSubscribers prometheus.Gauge
}

// New registers all instruments with reg. Pass a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		LeaderboardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "compute_duration_seconds",
			Help:      "Time to fetch likes and rank authors.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		LikesSkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard",
			Name:      "likes_skipped_total",
			Help:      "Likes skipped because their target author could not be resolved.",
		}),

		CommentsDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "dropped_total",
			Help:      "Comments left out of a tree because their parent was missing.",
		}),

		LikesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "likes",
			Name:      "created_total",
			Help:      "Accepted likes by target kind.",
		}, []string{"target"}),

		ActiveSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "active_subscribers",
			Help:      "Open new-comment streams.",
		}),
	}
}
