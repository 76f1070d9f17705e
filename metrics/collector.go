// Package metrics exports bytepipe counters as Prometheus metrics.
package metrics

import (
	"sort"
	"sync"

	"github.com/jacoelho/bytepipe"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that reports pipe counters, such as a PipeReader,
// a PipeWriter or an inverted stream.
type StatsSource interface {
	Stats() bytepipe.Stats
}

var _ prometheus.Collector = (*Collector)(nil)

// Collector is a prometheus.Collector reading the stats of the pipes it tracks at
// scrape time. It is safe for concurrent use.
type Collector struct {
	written  *prometheus.Desc
	read     *prometheus.Desc
	buffered *prometheus.Desc
	capacity *prometheus.Desc
	blocked  *prometheus.Desc

	mu      sync.Mutex
	sources map[string]StatsSource
}

// NewCollector returns a Collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	labels := []string{"pipe"}
	return &Collector{
		written: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipe", "written_bytes_total"),
			"Bytes accepted by the pipe writer.", labels, nil),
		read: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipe", "read_bytes_total"),
			"Bytes handed to the pipe reader.", labels, nil),
		buffered: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipe", "buffered_bytes"),
			"Bytes written and not yet read.", labels, nil),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipe", "capacity_bytes"),
			"Current pipe buffer size.", labels, nil),
		blocked: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipe", "blocked_total"),
			"Reads and writes that waited on the other pipe end.", []string{"pipe", "side"}, nil),
		sources: make(map[string]StatsSource),
	}
}

// Track starts reporting src under name, replacing any source with the same name.
func (c *Collector) Track(name string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = src
}

// Untrack stops reporting the source registered under name.
func (c *Collector) Untrack(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.written
	ch <- c.read
	ch <- c.buffered
	ch <- c.capacity
	ch <- c.blocked
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sources := make([]StatsSource, len(names))
	sort.Strings(names)
	for i, name := range names {
		sources[i] = c.sources[name]
	}
	c.mu.Unlock()

	for i, name := range names {
		s := sources[i].Stats()
		ch <- prometheus.MustNewConstMetric(c.written, prometheus.CounterValue, float64(s.Written), name)
		ch <- prometheus.MustNewConstMetric(c.read, prometheus.CounterValue, float64(s.Read), name)
		ch <- prometheus.MustNewConstMetric(c.buffered, prometheus.GaugeValue, float64(s.Buffered), name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), name)
		ch <- prometheus.MustNewConstMetric(c.blocked, prometheus.CounterValue, float64(s.ReaderWaits), name, "reader")
		ch <- prometheus.MustNewConstMetric(c.blocked, prometheus.CounterValue, float64(s.WriterWaits), name, "writer")
	}
}
