package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumer outcomes recorded on consumerMessages.
const (
	outcomeReceived     = "received"
	outcomeProcessed    = "processed"
	outcomeFailed       = "failed"
	outcomeDeadLettered = "dead_lettered"
)

var (
	consumerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parafort",
			Subsystem: "bus",
			Name:      "consumer_messages_total",
			Help:      "Messages seen by bus consumers, by outcome.",
		},
		[]string{"topic", "group", "outcome"},
	)

	consumerHandleSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parafort",
			Subsystem: "bus",
			Name:      "consumer_handle_seconds",
			Help:      "Time spent in a consumer handler, retries included.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic", "group"},
	)

	consumerDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parafort",
			Subsystem: "bus",
			Name:      "consumer_duplicates_total",
			Help:      "Events skipped because their ID was already processed.",
		},
		[]string{"event_type", "group"},
	)

	producerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parafort",
			Subsystem: "bus",
			Name:      "producer_messages_total",
			Help:      "Messages written by the producer, by result.",
		},
		[]string{"topic", "result"},
	)

	producerWriteSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "parafort",
			Subsystem: "bus",
			Name:      "producer_write_seconds",
			Help:      "Latency of producer writes.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

func countConsumed(topic, group, outcome string) {
	consumerMessages.WithLabelValues(topic, group, outcome).Inc()
}
