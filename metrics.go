package sizecache

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is what a Collector reads. *Cache[V] implements it for
// every V.
type StatsSource interface {
	Stats() Stats
	Len() int
	SizeBytes() int64
	Capacity() int64
}

// Collector exports a cache's statistics as Prometheus metrics. Register
// it on the registry the embedding program already serves; the cache
// itself never listens on the network.
type Collector struct {
	source StatsSource

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
	entries     *prometheus.Desc
	sizeBytes   *prometheus.Desc
	capacity    *prometheus.Desc
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace_cache_. constLabels distinguishes several caches in one
// process, e.g. {"cache": "portfolio"}.
func NewCollector(namespace string, source StatsSource, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", name),
			help, nil, constLabels,
		)
	}
	return &Collector{
		source:      source,
		hits:        desc("hits_total", "Total number of cache hits"),
		misses:      desc("misses_total", "Total number of cache misses"),
		evictions:   desc("evictions_total", "Total number of entries evicted for capacity"),
		expirations: desc("expirations_total", "Total number of entries removed after their TTL"),
		entries:     desc("entries", "Current number of entries"),
		sizeBytes:   desc("size_bytes", "Current stored size in bytes"),
		capacity:    desc("capacity_bytes", "Configured capacity in bytes"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.expirations
	ch <- c.entries
	ch <- c.sizeBytes
	ch <- c.capacity
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.expirations, prometheus.CounterValue, float64(s.Expirations))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.source.Len()))
	ch <- prometheus.MustNewConstMetric(c.sizeBytes, prometheus.GaugeValue, float64(c.source.SizeBytes()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.source.Capacity()))
}

var _ prometheus.Collector = (*Collector)(nil)
