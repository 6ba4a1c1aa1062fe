// Package metrics implements the supplemented metrics collector (see
// SPEC_FULL.md's "Supplemented features"): per-node-kind and per-tick
// counters exposed for the host application to poll.
//
// Grounded on the teacher's internal/infrastructure/monitoring/metrics.go
// (MetricsCollector tracking execution count/duration/success per
// workflow and per node), narrowed to this engine's two natural units —
// a tick and a node kind — and with the teacher's AI-usage metrics
// dropped since no node kind calls an LLM (see SPEC_FULL.md's dropped-dep
// justification for go-openai).
package metrics

import (
	"sync"
	"time"
)

// TickMetrics aggregates counters across every tick of one engine run.
type TickMetrics struct {
	TickCount       int
	CycleAbortCount int
	TotalDuration   time.Duration
	LastTickAt      time.Time
}

// KindMetrics aggregates counters for one node kind across every tick.
type KindMetrics struct {
	Kind            string
	ExecutionCount  int
	SuccessCount    int
	FailureCount    int
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// Collector is a concurrency-safe counter store a Scheduler/Bus can report
// into; it holds no reference back to the engine so it can be shared
// across runs or swapped per test.
type Collector struct {
	mu   sync.RWMutex
	tick TickMetrics
	kind map[string]*KindMetrics
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{kind: make(map[string]*KindMetrics)}
}

// RecordTick records one completed (or aborted) tick.
func (c *Collector) RecordTick(duration time.Duration, cycleAborted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick.TickCount++
	c.tick.TotalDuration += duration
	c.tick.LastTickAt = time.Now()
	if cycleAborted {
		c.tick.CycleAbortCount++
	}
}

// RecordNode records one node's dispatch outcome within a tick.
func (c *Collector) RecordNode(kind string, duration time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.kind[kind]
	if !ok {
		m = &KindMetrics{Kind: kind}
		c.kind[kind] = m
	}
	m.ExecutionCount++
	if success {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.ExecutionCount)
}

// Tick returns a snapshot of the tick-level counters.
func (c *Collector) Tick() TickMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// ByKind returns a snapshot of the per-kind counters.
func (c *Collector) ByKind() map[string]KindMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]KindMetrics, len(c.kind))
	for k, m := range c.kind {
		out[k] = *m
	}
	return out
}
