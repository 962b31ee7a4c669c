package nids

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/vitanid/pkg/util"
)

type metrics struct {
	modulesLoaded     prometheus.Counter
	librariesLoaded   prometheus.Counter
	functionsLoaded   prometheus.Counter
	collisions        *prometheus.CounterVec
	degradedLibraries prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		modulesLoaded: util.RegisterOrGet(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "db",
			Name:      "modules_loaded_total",
			Help:      "The total number of modules added to the nids database.",
		})),
		librariesLoaded: util.RegisterOrGet(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "db",
			Name:      "libraries_loaded_total",
			Help:      "The total number of libraries added to the nids database.",
		})),
		functionsLoaded: util.RegisterOrGet(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "db",
			Name:      "functions_loaded_total",
			Help:      "The total number of distinct function NIDs added to the nids database.",
		})),
		collisions: util.RegisterOrGet(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "db",
			Name:      "nid_collisions_total",
			Help:      "The total number of NIDs overwritten while building the nids database.",
		}, []string{"scope"})),
		degradedLibraries: util.RegisterOrGet(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitanid",
			Subsystem: "db",
			Name:      "degraded_libraries_total",
			Help:      "The total number of libraries whose function list was only partially loaded.",
		})),
	}
}
