// Package metrics defines the Prometheus instrumentation the dispatcher
// and simulator report through. Per the design note in spec.md §9, the
// registry is an explicit, owned value threaded through by reference —
// never a package-level global registered via promauto/MustRegister —
// so multiple simulation runs in one process (as in tests) never
// collide registering the same metric name twice.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every counter and gauge one simulation run reports,
// backed by its own prometheus.Registry rather than the global default.
type Registry struct {
	prom *prometheus.Registry

	Dispatched     *prometheus.CounterVec
	PageFaults     prometheus.Counter
	ContextSwitch  prometheus.Counter
	FramesInUse    prometheus.Gauge
	ProcessesAlive prometheus.Gauge
}

// New creates a Registry with all metrics registered against a fresh
// prometheus.Registry.
func New() *Registry {
	prom := prometheus.NewRegistry()

	r := &Registry{
		prom: prom,
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oscore",
			Subsystem: "dispatch",
			Name:      "instructions_total",
			Help:      "Instructions dispatched, partitioned by opcode.",
		}, []string{"opcode"}),
		PageFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oscore",
			Subsystem: "paging",
			Name:      "faults_total",
			Help:      "Page faults serviced by the FIFO swap protocol.",
		}),
		ContextSwitch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oscore",
			Subsystem: "sched",
			Name:      "context_switches_total",
			Help:      "Number of times a CPU worker swapped the running PCB.",
		}),
		FramesInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oscore",
			Subsystem: "paging",
			Name:      "frames_in_use",
			Help:      "Physical frames currently allocated out of pmem's pool.",
		}),
		ProcessesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oscore",
			Subsystem: "sched",
			Name:      "processes_alive",
			Help:      "PCBs that have not yet finished or been killed.",
		}),
	}

	prom.MustRegister(r.Dispatched, r.PageFaults, r.ContextSwitch, r.FramesInUse, r.ProcessesAlive)
	return r
}

// Gatherer exposes the underlying prometheus.Registry for an HTTP
// /metrics handler to gather from.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}
