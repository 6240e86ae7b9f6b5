package hxbridge

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Side labels which end of the bridge recorded a metric.
const (
	sideHost    = "host"
	sideSurface = "surface"
)

var (
	metricEnvelopesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hxbridge",
		Name:      "envelopes_sent_total",
		Help:      "Envelopes handed to a transport.",
	}, []string{"side", "command"})
	metricEnvelopesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hxbridge",
		Name:      "envelopes_dropped_total",
		Help:      "Envelopes a transport refused (closed or full).",
	}, []string{"side", "reason"})
	metricRoutingMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hxbridge",
		Name:      "routing_misses_total",
		Help:      "Envelopes addressed to a component id with no live target.",
	}, []string{"side"})
	metricDispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hxbridge",
		Name:      "dispatch_errors_total",
		Help:      "Behavior hooks that returned an error.",
	})
	metricInstancesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hxbridge",
		Name:      "instances_active",
		Help:      "Behavior instances currently registered on surfaces.",
	})
)

func dropReason(err error) string {
	if errors.Is(err, ErrMailboxFull) {
		return "full"
	}
	return "closed"
}
