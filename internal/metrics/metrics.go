// Package metrics holds the Prometheus collectors for relationship operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_operations_total",
		Help: "Relationship operations by name and outcome",
	}, []string{"operation", "outcome"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relationship_events_published_total",
		Help: "Domain events handed to the event bus by result",
	}, []string{"type", "result"})

	previewSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recent_messages_preview_size",
		Help:    "Number of conversations in a recent-messages preview",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})
)

// ObserveOperation counts one call of operation. outcome is "ok" or an error kind.
func ObserveOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

func ObserveEvent(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}

func ObservePreviewSize(n int) {
	previewSize.Observe(float64(n))
}
