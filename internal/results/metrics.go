package results

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	treeBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relic_results_tree_builds_total",
		Help: "Result tree builds by outcome.",
	}, []string{"outcome"})

	treeBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relic_results_tree_build_seconds",
		Help:    "Time spent building a result tree.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	treeNodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relic_results_tree_nodes_created_total",
		Help: "Result tree nodes created by kind.",
	}, []string{"kind"})

	treeNodesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relic_results_tree_class_removals_total",
		Help: "Class nodes removed because the class left the workspace.",
	})

	treeEventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relic_results_tree_events_ignored_total",
		Help: "Workspace events that did not change a result tree.",
	}, []string{"event"})

	openViews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relic_results_open_views",
		Help: "Result views currently open.",
	})
)
