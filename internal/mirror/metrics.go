package mirror

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryLabels = []string{"query"}

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "a4f",
		Subsystem: "mirror",
		Name:      "query_duration_seconds",
		Help:      "Duration of mirror Postgres statements, by query.",
	}, queryLabels)
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "a4f",
		Subsystem: "mirror",
		Name:      "query_total",
		Help:      "Count of mirror Postgres statements, by query.",
	}, queryLabels)
)

// observe times one named statement, following the teacher's
// datastore/postgres query-timer pattern: call at the top of the
// function under defer.
func observe(query string) func() {
	start := time.Now()
	return func() {
		queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
		queryTotal.WithLabelValues(query).Inc()
	}
}
