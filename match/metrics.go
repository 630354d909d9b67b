package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amity",
		Subsystem: "match",
		Name:      "requests_total",
		Help:      "Matching requests by outcome.",
	}, []string{"outcome"})

	candidatesRetrieved = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "amity",
		Subsystem: "match",
		Name:      "candidates_retrieved",
		Help:      "Nearest-neighbor pool size per request.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	conflictsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "amity",
		Subsystem: "match",
		Name:      "conflicts_filtered_total",
		Help:      "Candidates demoted to loose matches by conflict detection.",
	})

	cardsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "amity",
		Subsystem: "match",
		Name:      "cards_returned",
		Help:      "Match cards returned per request.",
		Buckets:   []float64{0, 1, 2, 3, 5, 10},
	})
)
