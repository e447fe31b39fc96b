// Package metrics exposes Prometheus collectors for cache, pipeline and
// entity activity. A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
	OutcomeDefault  = "default"
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
)

// Collector groups the module's counters.
type Collector struct {
	CacheLookups *prometheus.CounterVec
	CacheWrites  *prometheus.CounterVec
	StageFetches *prometheus.CounterVec
	EntityLoads  *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them with reg.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache store lookups by type and outcome.",
		}, []string{"type", "outcome"}),
		CacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache store alias writes by type and outcome.",
		}, []string{"type", "outcome"}),
		StageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_fetches_total",
			Help:      "Pipeline stage fetches by stage, type and outcome.",
		}, []string{"stage", "type", "outcome"}),
		EntityLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entity",
			Name:      "loads_total",
			Help:      "Entity load group loads by kind, group and outcome.",
		}, []string{"kind", "group", "outcome"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.CacheLookups, c.CacheWrites, c.StageFetches, c.EntityLoads} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// CacheLookup records a cache store lookup.
func (c *Collector) CacheLookup(typeName, outcome string) {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues(typeName, outcome).Inc()
}

// CacheWrite records a cache store alias write.
func (c *Collector) CacheWrite(typeName, outcome string) {
	if c == nil {
		return
	}
	c.CacheWrites.WithLabelValues(typeName, outcome).Inc()
}

// StageFetch records one pipeline stage attempt.
func (c *Collector) StageFetch(stage, typeName, outcome string) {
	if c == nil {
		return
	}
	c.StageFetches.WithLabelValues(stage, typeName, outcome).Inc()
}

// EntityLoad records an entity load group load.
func (c *Collector) EntityLoad(kind, group, outcome string) {
	if c == nil {
		return
	}
	c.EntityLoads.WithLabelValues(kind, group, outcome).Inc()
}
