// Package metrics counts what the signing and verification loops do.
//
// Counters live on a private registry so they can be written to a node
// exporter textfile at the end of each pass. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mainsail"

type Metrics struct {
	Registry *prometheus.Registry

	files            *prometheus.CounterVec
	lookups          *prometheus.CounterVec
	registryRequests *prometheus.CounterVec
	lookupDuration   prometheus.Histogram
	migrations       prometheus.Counter
}

// New creates the counters and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files handled by a workflow, by outcome.",
		}, []string{"workflow", "outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trust_lookups_total",
			Help:      "Registry lookups, by verdict.",
		}, []string{"verdict"}),
		registryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_responses_total",
			Help:      "Responses from each registry, by result.",
		}, []string{"registry", "result"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trust_lookup_duration_seconds",
			Help:      "Time to reach a verdict across all registries.",
			Buckets:   prometheus.DefBuckets,
		}),
		migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_migrations_total",
			Help:      "Secret key moves between storage locations.",
		}),
	}
	m.Registry.MustRegister(m.files, m.lookups, m.registryRequests, m.lookupDuration, m.migrations)
	return m
}

func (m *Metrics) FileProcessed(workflow, outcome string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(workflow, outcome).Inc()
}

func (m *Metrics) LookupFinished(verdict string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(verdict).Inc()
	m.lookupDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RegistryResponse(registry, result string) {
	if m == nil {
		return
	}
	m.registryRequests.WithLabelValues(registry, result).Inc()
}

func (m *Metrics) KeyMigrated() {
	if m == nil {
		return
	}
	m.migrations.Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
