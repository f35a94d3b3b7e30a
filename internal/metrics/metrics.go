// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package metrics collects the Prometheus instrumentation for one quartz
// table: blocks read/written, commit latency, split counts, and cache hit
// rate. It is deliberately not wired to any HTTP scrape endpoint — serving
// /metrics is a caller concern, outside this core (spec §1, "out of
// scope").
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is a self-contained Prometheus collector set for a table. Use
// NewMetrics to build one, register it with whatever prometheus.Registerer
// the embedding application uses, and read back a point-in-time Snapshot
// for logging or tests.
type Metrics struct {
	BlocksRead     prometheus.Counter
	BlocksWritten  prometheus.Counter
	BytesFlushed   prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	Splits         prometheus.Counter
	CommitLatency  prometheus.Histogram
	CommitsTotal   prometheus.Counter
	CancelsTotal   prometheus.Counter
}

// NewMetrics constructs a Metrics set labelled with the given table name.
func NewMetrics(table string) *Metrics {
	constLabels := prometheus.Labels{"table": table}
	return &Metrics{
		BlocksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "blocks_read_total", ConstLabels: constLabels,
			Help: "Number of blocks read through the block device, including reads served by the block cache.",
		}),
		BlocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "blocks_written_total", ConstLabels: constLabels,
			Help: "Number of blocks written to the data file.",
		}),
		BytesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "bytes_flushed_total", ConstLabels: constLabels,
			Help: "Bytes written to the data file before the most recent flush.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "cache_hits_total", ConstLabels: constLabels,
			Help: "Block reads satisfied from the in-memory block cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "cache_misses_total", ConstLabels: constLabels,
			Help: "Block reads that required a device read.",
		}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "splits_total", ConstLabels: constLabels,
			Help: "Number of block splits performed, including root promotions.",
		}),
		CommitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quartz", Name: "commit_latency_seconds", ConstLabels: constLabels,
			Help:    "Wall-clock time spent in commit, from flush through base-file swap.",
			Buckets: prometheus.DefBuckets,
		}),
		CommitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "commits_total", ConstLabels: constLabels,
			Help: "Number of successful commits.",
		}),
		CancelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quartz", Name: "cancels_total", ConstLabels: constLabels,
			Help: "Number of cancelled transactions.",
		}),
	}
}

// Collectors returns every metric as a prometheus.Collector, for bulk
// registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BlocksRead, m.BlocksWritten, m.BytesFlushed, m.CacheHits,
		m.CacheMisses, m.Splits, m.CommitLatency, m.CommitsTotal, m.CancelsTotal,
	}
}

// Snapshot is a plain-data copy of the metrics' current values, for logging
// and tests that should not need a live Prometheus registry.
type Snapshot struct {
	BlocksRead    uint64
	BlocksWritten uint64
	BytesFlushed  uint64
	CacheHits     uint64
	CacheMisses   uint64
	Splits        uint64
	CommitsTotal  uint64
	CancelsTotal  uint64
}

// Snapshot reads the current counter values via the Prometheus metric
// interface (dto.Metric), avoiding any dependency on a scrape pipeline.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		BlocksRead:    counterValue(m.BlocksRead),
		BlocksWritten: counterValue(m.BlocksWritten),
		BytesFlushed:  counterValue(m.BytesFlushed),
		CacheHits:     counterValue(m.CacheHits),
		CacheMisses:   counterValue(m.CacheMisses),
		Splits:        counterValue(m.Splits),
		CommitsTotal:  counterValue(m.CommitsTotal),
		CancelsTotal:  counterValue(m.CancelsTotal),
	}
}

// counterValue reads a Counter's current value via the dto.Metric Write
// path. Metrics.Snapshot is a test/logging convenience, not a hot path, so
// paying this allocation there is preferable to threading a parallel
// plain-uint64 counter through every increment site.
func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}
