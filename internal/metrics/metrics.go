// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "steady"

var (
	streakEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_events_total",
			Help:      "Streak transitions by action.",
		},
		[]string{"action"},
	)

	rewardsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_awarded_total",
			Help:      "Reward rows created, by milestone.",
		},
		[]string{"milestone"},
	)

	puzzlesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "puzzles_completed_total",
			Help:      "Puzzles answered correctly.",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications persisted, by type.",
		},
		[]string{"type"},
	)

	deliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_delivery_failures_total",
			Help:      "Best-effort notification deliveries that failed, by channel.",
		},
		[]string{"channel"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by bucket.",
		},
		[]string{"bucket"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func StreakEvent(action string) {
	streakEventsTotal.WithLabelValues(action).Inc()
}

func RewardAwarded(milestone int) {
	rewardsAwardedTotal.WithLabelValues(strconv.Itoa(milestone)).Inc()
}

func PuzzleCompleted() {
	puzzlesCompletedTotal.Inc()
}

func NotificationCreated(typ string) {
	notificationsTotal.WithLabelValues(typ).Inc()
}

func DeliveryFailed(channel string) {
	deliveryFailuresTotal.WithLabelValues(channel).Inc()
}

func RateLimited(bucket string) {
	rateLimitedTotal.WithLabelValues(bucket).Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method string, status int, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(seconds)
}
