package manager

import "github.com/prometheus/client_golang/prometheus"

var modelLoadsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "asrd",
		Subsystem: "model",
		Name:      "loads_total",
		Help:      "Model load attempts by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(modelLoadsTotal)
}
