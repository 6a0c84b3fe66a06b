package framehistory

import "github.com/prometheus/client_golang/prometheus"

// Collector exports the Metrics of a History to Prometheus. Every series is
// labelled with the history id so several compositors can share a registry.
//
//	reg.MustRegister(framehistory.NewCollector(h, "compositor"))
type Collector struct {
	history *History

	allocations  *prometheus.Desc
	commits      *prometheus.Desc
	staleCommits *prometheus.Desc
	lookups      *prometheus.Desc
	misses       *prometheus.Desc
	wraps        *prometheus.Desc
	outOfOrder   *prometheus.Desc
	filled       *prometheus.Desc
	capacity     *prometheus.Desc
	interval     *prometheus.Desc
	jitter       *prometheus.Desc
}

// NewCollector creates a collector for h. An empty namespace defaults to
// "framehistory".
func NewCollector(h *History, namespace string) *Collector {
	if namespace == "" {
		namespace = "framehistory"
	}
	labels := prometheus.Labels{"history": h.ID()}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, labels)
	}
	return &Collector{
		history:      h,
		allocations:  desc("allocations_total", "Total number of slots allocated."),
		commits:      desc("pose_commits_total", "Total number of poses committed."),
		staleCommits: desc("stale_commits_total", "Pose commits rejected because the slot was recycled."),
		lookups:      desc("lookups_total", "Total number of closest-frame lookups."),
		misses:       desc("lookup_misses_total", "Lookups that found no filled slot."),
		wraps:        desc("wraps_total", "Times the write cursor wrapped around the ring."),
		outOfOrder:   desc("out_of_order_total", "Allocations older than the previous allocation."),
		filled:       desc("filled_slots", "Slots currently holding a timestamp."),
		capacity:     desc("capacity_slots", "Fixed number of slots in the ring."),
		interval:     desc("producer_interval_ticks", "Mean ticks between consecutive allocations."),
		jitter:       desc("producer_jitter_ticks", "Standard deviation of the allocation interval."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocations
	ch <- c.commits
	ch <- c.staleCommits
	ch <- c.lookups
	ch <- c.misses
	ch <- c.wraps
	ch <- c.outOfOrder
	ch <- c.filled
	ch <- c.capacity
	ch <- c.interval
	ch <- c.jitter
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.history.Metrics()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter(c.allocations, m.Allocations)
	counter(c.commits, m.Commits)
	counter(c.staleCommits, m.StaleCommits)
	counter(c.lookups, m.Lookups)
	counter(c.misses, m.Misses)
	counter(c.wraps, m.Wraps)
	counter(c.outOfOrder, m.OutOfOrder)
	gauge(c.filled, float64(m.Filled))
	gauge(c.capacity, Capacity)
	gauge(c.interval, m.MeanInterval)
	gauge(c.jitter, m.Jitter)
}
