// Package monitoring tracks in-process valuation metrics and assembles
// health snapshots for the API.
package monitoring

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/store"
)

// Runtime counts engine activity since process start. All counters are
// safe for concurrent use.
type Runtime struct {
	valuations  atomic.Int64
	fallbacks   atomic.Int64
	enrichments atomic.Int64
	failures    atomic.Int64
	startedAt   time.Time
}

// NewRuntime creates a runtime counter set.
func NewRuntime() *Runtime {
	return &Runtime{startedAt: time.Now().UTC()}
}

// RecordValuation counts one served valuation; degraded marks the
// closed-form path.
func (r *Runtime) RecordValuation(degraded bool) {
	r.valuations.Add(1)
	if degraded {
		r.fallbacks.Add(1)
	}
}

// RecordEnrichment counts one external city enrichment call.
func (r *Runtime) RecordEnrichment() { r.enrichments.Add(1) }

// RecordFailure counts one failed valuation request.
func (r *Runtime) RecordFailure() { r.failures.Add(1) }

// MetricsSnapshot is a point-in-time view of the system.
type MetricsSnapshot struct {
	// Stored history.
	Total            int            `json:"total_valuations"`
	AvgConfidence    float64        `json:"avg_confidence"`
	AvgPointEstimate float64        `json:"avg_point_estimate"`
	ByVerdict        map[string]int `json:"by_verdict"`

	// Since process start.
	Served        int64   `json:"served"`
	Fallbacks     int64   `json:"fallbacks"`
	FallbackRate  float64 `json:"fallback_rate"`
	Enrichments   int64   `json:"enrichments"`
	Failures      int64   `json:"failures"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collector assembles snapshots from the store and runtime counters.
type Collector struct {
	store   store.Store
	runtime *Runtime
}

// NewCollector creates a metrics collector. Either source may be nil;
// the snapshot then covers only the other.
func NewCollector(st store.Store, runtime *Runtime) *Collector {
	return &Collector{store: st, runtime: runtime}
}

// Collect gathers a snapshot.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		ByVerdict:   make(map[string]int),
		CollectedAt: time.Now().UTC(),
	}

	if c.store != nil {
		stats, err := c.store.Stats(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: store stats")
		}
		snap.Total = stats.Total
		snap.AvgConfidence = stats.AvgConfidence
		snap.AvgPointEstimate = stats.AvgPointEstimate
		for verdict, count := range stats.ByVerdict {
			snap.ByVerdict[verdict] = count
		}
	}

	if c.runtime != nil {
		snap.Served = c.runtime.valuations.Load()
		snap.Fallbacks = c.runtime.fallbacks.Load()
		snap.Enrichments = c.runtime.enrichments.Load()
		snap.Failures = c.runtime.failures.Load()
		snap.UptimeSeconds = time.Since(c.runtime.startedAt).Seconds()
		if snap.Served > 0 {
			snap.FallbackRate = float64(snap.Fallbacks) / float64(snap.Served)
		}
	}

	return snap, nil
}
