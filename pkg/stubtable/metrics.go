package stubtable

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/vitanid/pkg/util"
)

const (
	statusResolved = "resolved"
	statusFallback = "fallback"
)

type metrics struct {
	recordsWalked prometheus.Counter
	imports       *prometheus.CounterVec
	walkErrors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		recordsWalked: util.RegisterOrGet(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "stubtable",
			Name:      "records_walked_total",
			Help:      "The total number of import records decoded from stub tables.",
		})),
		imports: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "stubtable",
			Name:      "imports_total",
			Help:      "The total number of imported functions by resolution status.",
		}, []string{"status"})),
		walkErrors: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "stubtable",
			Name:      "walk_errors_total",
			Help:      "The total number of aborted stub table walks by failing step.",
		}, []string{"op"})),
	}
}
