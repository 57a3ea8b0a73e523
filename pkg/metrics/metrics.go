package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompareDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bundle_compare_compare_seconds",
		Help:    "Time spent comparing two builds.",
		Buckets: prometheus.DefBuckets,
	})

	ExpandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bundle_compare_expand_seconds",
		Help:    "Time spent building a rooted graph.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bundle_compare_graph_nodes",
		Help: "Number of nodes in the most recently built graph.",
	}, []string{"query"})

	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_compare_reloads_total",
		Help: "Number of build stats loads, by build and outcome.",
	}, []string{"build", "outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundle_compare_watcher_events_total",
		Help: "Total number of relevant file system events received by the watcher.",
	})

	GraphCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bundle_compare_graph_cache_hits_total",
		Help: "Number of graph requests answered from the cache.",
	})
)
