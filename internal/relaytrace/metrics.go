package relaytrace

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the Prometheus metrics of a tracing run. A nil
// *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RaysTraced     prometheus.Counter
	RaysBinned     prometheus.Counter
	RaysDropped    *prometheus.CounterVec   // side: below, above
	PhaseDurations *prometheus.HistogramVec // phase: derive, trace, bin, emit
	LastRunRays    prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	traced, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaytrace_rays_traced_total",
		Help: "Total number of rays propagated to the sensor.",
	}), "relaytrace_rays_traced_total")
	if err != nil {
		return nil, err
	}
	binned, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaytrace_rays_binned_total",
		Help: "Total number of rays that landed inside the histogram window.",
	}), "relaytrace_rays_binned_total")
	if err != nil {
		return nil, err
	}
	dropped, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaytrace_rays_dropped_total",
		Help: "Total number of rays outside the histogram window, by side.",
	}, []string{"side"}), "relaytrace_rays_dropped_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relaytrace_phase_duration_seconds",
		Help:    "Duration of each run phase in seconds.",
		Buckets: []float64{1e-5, 1e-4, 1e-3, 0.01, 0.1, 1, 10},
	}, []string{"phase"}), "relaytrace_phase_duration_seconds")
	if err != nil {
		return nil, err
	}
	last, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relaytrace_last_run_rays",
		Help: "Bundle size of the most recent run.",
	}), "relaytrace_last_run_rays")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		RaysTraced:     traced,
		RaysBinned:     binned,
		RaysDropped:    dropped,
		PhaseDurations: durations,
		LastRunRays:    last,
	}, nil
}

func (c *Collector) ObservePhase(phase string, d time.Duration) {
	if c == nil || c.PhaseDurations == nil {
		return
	}
	c.PhaseDurations.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordRun accounts one finished run.
func (c *Collector) RecordRun(res *Result) {
	if c == nil || res == nil {
		return
	}
	n := float64(len(res.Paths))
	c.RaysTraced.Add(n)
	c.LastRunRays.Set(n)
	c.RaysBinned.Add(float64(res.Histogram.Total()))
	c.RaysDropped.WithLabelValues("below").Add(float64(res.Histogram.Below))
	c.RaysDropped.WithLabelValues("above").Add(float64(res.Histogram.Above))
}

// WriteTextfile dumps the gathered metrics in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, col C, name string) (C, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			return col, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return col, err
	}
	return col, nil
}
