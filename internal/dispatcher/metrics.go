package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_delivery_attempts_total",
		Help: "Adapter invocations by message kind, channel and result.",
	}, []string{"kind", "channel", "result"})

	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_dispatches_total",
		Help: "Dispatch calls by message kind and final result.",
	}, []string{"kind", "result"})
)

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
