package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	announcementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "segnode_announcements_total",
		Help: "Number of membership announcements made by this node.",
	})
	discoverableGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "segnode_capability_discoverable",
		Help: "Whether the node's capability is advertised to the cluster (1) or not (0).",
	})
)
