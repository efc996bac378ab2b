// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts registration attempts by result (created, conflict, invalid, error).
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_registrations_total",
		Help: "Total registration attempts by result",
	}, []string{"result"})

	// Logins counts login attempts by result (ok, unknown, error).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_logins_total",
		Help: "Total login attempts by result",
	}, []string{"result"})

	// PostsCreated counts successfully stored posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microblog_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostLikes counts like requests by outcome (applied, ignored).
	PostLikes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_post_likes_total",
		Help: "Total like requests by outcome",
	}, []string{"outcome"})

	// PostDeletes counts delete requests by outcome (deleted, ignored).
	PostDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_post_deletes_total",
		Help: "Total delete requests by outcome",
	}, []string{"outcome"})

	// AvatarRenders counts avatar responses by cache result (hit, miss, bypass).
	AvatarRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_avatar_renders_total",
		Help: "Total avatar responses by cache result",
	}, []string{"cache"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
