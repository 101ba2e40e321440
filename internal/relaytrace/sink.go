package relaytrace

import (
	"context"
	"fmt"
	"path/filepath"
)

// Sink receives a finished run. Figures, CSV dumps and anything else that
// leaves the process live behind this interface; the core never does I/O.
type Sink interface {
	Emit(ctx context.Context, res *Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res *Result) error

func (f SinkFunc) Emit(ctx context.Context, res *Result) error { return f(ctx, res) }

// OutputDir is the per-run directory under base, named after ray density and
// source offsets so runs with different sources never overwrite each other.
func OutputDir(base string, cfg *Config) string {
	return filepath.Join(base, fmt.Sprintf("RayDensity%d_z%g_h%g", cfg.RayDensity, cfg.Source.Z, cfg.Source.H))
}

func fileSuffix(src Source) string { return fmt.Sprintf("z%g_h%g", src.Z, src.H) }
