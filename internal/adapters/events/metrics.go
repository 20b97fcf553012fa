package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsConsumedTotal  *prometheus.CounterVec
	outboxPublishedTotal prometheus.Counter
	outboxFailedTotal    prometheus.Counter
)

// InitMetrics registers the relay/consumer counters. Call once at bootstrap.
func InitMetrics() {
	eventsConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "events_consumed_total",
			Help:      "Consumed stream messages by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)
	outboxPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "outbox_published_total",
			Help:      "Outbox records successfully published to the stream.",
		},
	)
	outboxFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ranking",
			Name:      "outbox_failed_total",
			Help:      "Outbox publish attempts that failed.",
		},
	)
	prometheus.MustRegister(eventsConsumedTotal, outboxPublishedTotal, outboxFailedTotal)
}

func countConsumed(topic, outcome string) {
	if eventsConsumedTotal != nil {
		eventsConsumedTotal.WithLabelValues(topic, outcome).Inc()
	}
}

func countOutboxPublished() {
	if outboxPublishedTotal != nil {
		outboxPublishedTotal.Inc()
	}
}

func countOutboxFailed() {
	if outboxFailedTotal != nil {
		outboxFailedTotal.Inc()
	}
}
