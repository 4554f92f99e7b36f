package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	fetches       *prometheus.CounterVec
	retries       prometheus.Counter
	joins         prometheus.Counter
	hits          prometheus.Counter
	invalidations prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenote",
			Subsystem: "query",
			Name:      "fetches_total",
			Help:      "Completed query fetches by result.",
		}, []string{"result"}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voicenote",
			Subsystem: "query",
			Name:      "retries_total",
			Help:      "Fetch attempts repeated after a failure.",
		}),
		joins: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voicenote",
			Subsystem: "query",
			Name:      "dedup_joins_total",
			Help:      "Reads that joined an in-flight fetch instead of starting one.",
		}),
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voicenote",
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Reads served from fresh cached data.",
		}),
		invalidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "voicenote",
			Subsystem: "query",
			Name:      "invalidations_total",
			Help:      "Entries marked stale by invalidation.",
		}),
	}
}
