package relaytrace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is everything a run produces, handed to each Sink.
type Result struct {
	Params    Params
	Geometry  Geometry
	Source    Source
	Paths     []RayPath
	Histogram Histogram
	BinLo     Real
	BinHi     Real
}

// Runner executes derive → trace → bin → emit for a config.
type Runner struct {
	Metrics  *Collector // optional
	Sinks    []Sink
	Parallel bool
	Workers  int // <= 0 means NumCPU, only with Parallel
}

// Run traces cfg with the package-level Parallel flag and the given sinks.
func Run(ctx context.Context, cfg *Config, sinks ...Sink) (*Result, error) {
	r := &Runner{Sinks: sinks, Parallel: Parallel}
	if cfg != nil {
		r.Workers = cfg.Workers
	}
	return r.Run(ctx, cfg)
}

func (r *Runner) Run(ctx context.Context, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx, span := tracer().Start(ctx, "relaytrace.Run", trace.WithAttributes(
		attribute.Int("rays", cfg.RayDensity),
		attribute.Float64("source.h", cfg.Source.H),
		attribute.Float64("source.z", cfg.Source.Z),
	))
	defer span.End()

	res := &Result{Params: cfg.Params(), Source: cfg.Source}
	var pl *Pipeline
	err := r.phase(ctx, "derive", func(context.Context) error {
		var err error
		pl, err = NewPipeline(res.Params)
		if err != nil {
			return err
		}
		res.Geometry = pl.Geometry()
		DebugLog("System matrix (z=%g): %v", cfg.Source.Z, pl.SystemMatrix(cfg.Source.Z))
		return nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	err = r.phase(ctx, "trace", func(ctx context.Context) error {
		rays, err := NewBundle(cfg.Source, res.Geometry.ThetaMax, res.Params.RayDensity)
		if err != nil {
			return err
		}
		if r.Parallel {
			res.Paths, err = pl.TraceParallel(ctx, cfg.Source, rays, r.Workers)
			return err
		}
		res.Paths = pl.Trace(cfg.Source, rays)
		return nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	err = r.phase(ctx, "bin", func(context.Context) error {
		lo, hi, err := cfg.Window(res.Geometry.SensorSize)
		if err != nil {
			return err
		}
		edges, err := BinEdges(lo, hi, res.Params.PixelPitch)
		if err != nil {
			return err
		}
		res.BinLo, res.BinHi = lo, hi
		res.Histogram = NewHistogram(SensorHeights(res.Paths), edges)
		return nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}
	r.Metrics.RecordRun(res)

	peak, peakCount := res.Histogram.Peak()
	Logger().Info("traced ray bundle",
		"rays", len(res.Paths),
		"bins", res.Histogram.Bins(),
		"binned", res.Histogram.Total(),
		"below", res.Histogram.Below,
		"above", res.Histogram.Above,
		"peak_bin", peak,
		"peak_count", peakCount,
	)

	err = r.phase(ctx, "emit", func(ctx context.Context) error {
		for _, s := range r.Sinks {
			if err := s.Emit(ctx, res); err != nil {
				return fmt.Errorf("emit %T: %w", s, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, endSpan(span, err)
	}
	return res, nil
}

func (r *Runner) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer().Start(ctx, name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	r.Metrics.ObservePhase(name, time.Since(start))
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	return endSpan(span, err)
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// RunFile loads the config at cfgPath and runs it with sinks chosen by the
// PNG and CSV flags, both writing to OutputDir(cfg.OutDir, cfg).
func RunFile(ctx context.Context, cfgPath string, m *Collector) (*Result, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	dir := OutputDir(cfg.OutDir, cfg)
	var sinks []Sink
	if PNG {
		sinks = append(sinks, FigureSink{Dir: dir})
	}
	if CSV {
		sinks = append(sinks, CSVSink{Dir: dir})
	}
	r := &Runner{Metrics: m, Sinks: sinks, Parallel: Parallel, Workers: cfg.Workers}
	res, err := r.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(sinks) > 0 {
		Logger().Info("saved outputs", "dir", dir, "sinks", len(sinks))
	}
	return res, nil
}
