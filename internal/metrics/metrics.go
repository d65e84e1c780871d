// Package metrics exposes Prometheus collectors for bit heap activity.
//
// A Collector owns its own registry so that several generators in one
// process (or in one test binary) never collide on registration. All
// methods are safe on a nil *Collector, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bitheap"

// Collector groups the bit heap counters and histograms.
type Collector struct {
	registry    *prometheus.Registry
	heaps       prometheus.Counter
	bits        prometheus.Counter
	dropped     prometheus.Counter
	compressors *prometheus.CounterVec
	adderWidth  prometheus.Histogram
	stages      prometheus.Histogram
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		heaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heaps_compressed_total",
			Help:      "Number of bit heaps reduced to a single word.",
		}),
		bits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bits_added_total",
			Help:      "Number of weighted bits contributed by operators.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bits_dropped_total",
			Help:      "Compressor output bits discarded because their weight is at or above the heap size.",
		}),
		compressors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compressors_total",
			Help:      "Compressor instances, by kind (inputs0_inputs1).",
		}, []string{"kind"}),
		adderWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adder_width_bits",
			Help:      "Width of the final carry-propagate adder.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		stages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_stage",
			Help:      "Pipeline stage at which the summed word becomes valid.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
	}
	c.registry.MustRegister(c.heaps, c.bits, c.dropped, c.compressors, c.adderWidth, c.stages)
	return c
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// BitAdded records one contributed bit.
func (c *Collector) BitAdded() {
	if c == nil {
		return
	}
	c.bits.Inc()
}

// CompressorUsed records one compressor instance of the given kind.
func (c *Collector) CompressorUsed(kind string) {
	if c == nil {
		return
	}
	c.compressors.WithLabelValues(kind).Inc()
}

// HeapCompressed records a finished reduction.
func (c *Collector) HeapCompressed(adderWidth, stage, dropped int) {
	if c == nil {
		return
	}
	c.heaps.Inc()
	c.dropped.Add(float64(dropped))
	if adderWidth > 0 {
		c.adderWidth.Observe(float64(adderWidth))
	}
	c.stages.Observe(float64(stage))
}

// WriteTextfile writes the current values in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
