package relaytrace

import (
	"context"
	"runtime"
	"sync"
)

// RayPath is one ray's state at every stage boundary of the relay.
type RayPath struct {
	Index     int
	Angle     Real // launch angle, for colour coding
	Launch    Ray  // at the source
	Objective Ray  // just before the objective
	Tube      Ray  // just before the tube lens
	Sensor    Ray  // on the sensor
}

// Heights returns the lateral offsets at source, objective, tube and sensor.
func (p RayPath) Heights() [4]Real {
	return [4]Real{p.Launch.H, p.Objective.H, p.Tube.H, p.Sensor.H}
}

// Pipeline propagates ray bundles through the objective → tube lens → sensor
// relay. It is immutable after construction and safe for concurrent use.
type Pipeline struct {
	params Params
	geom   Geometry

	objToTube    Mat2 // FreeSpace(fT+fOb)·ThinLens(fOb)
	tubeToSensor Mat2 // FreeSpace(fT)·ThinLens(fT)
}

func NewPipeline(p Params) (*Pipeline, error) {
	geom, err := p.Derive()
	if err != nil {
		return nil, err
	}
	lOb, err := ThinLens(p.FocalObjective)
	if err != nil {
		return nil, err
	}
	lT, err := ThinLens(p.FocalTube)
	if err != nil {
		return nil, err
	}
	pl := &Pipeline{
		params:       p,
		geom:         geom,
		objToTube:    Chain(lOb, FreeSpace(p.FocalTube+p.FocalObjective)),
		tubeToSensor: Chain(lT, FreeSpace(p.FocalTube)),
	}
	DebugLog("Pipeline objective->tube %v, tube->sensor %v", pl.objToTube, pl.tubeToSensor)
	return pl, nil
}

func (pl *Pipeline) Params() Params     { return pl.params }
func (pl *Pipeline) Geometry() Geometry { return pl.geom }

func (pl *Pipeline) toObjective(z Real) Mat2 {
	return FreeSpace(pl.params.FocalObjective + z)
}

// SystemMatrix is the full source → sensor operator for a source at axial
// offset z. At z = 0 it is the 4f relay diag(-fT/fOb, -fOb/fT).
func (pl *Pipeline) SystemMatrix(z Real) Mat2 {
	return Chain(pl.toObjective(z), pl.objToTube, pl.tubeToSensor)
}

func (pl *Pipeline) propagate(i int, r Ray, toObj Mat2) RayPath {
	obj := toObj.Apply(r)
	tube := pl.objToTube.Apply(obj)
	return RayPath{
		Index:     i,
		Angle:     r.Theta,
		Launch:    r,
		Objective: obj,
		Tube:      tube,
		Sensor:    pl.tubeToSensor.Apply(tube),
	}
}

// Trace propagates every ray in order. An empty bundle yields an empty result.
func (pl *Pipeline) Trace(src Source, rays []Ray) []RayPath {
	toObj := pl.toObjective(src.Z)
	out := make([]RayPath, len(rays))
	for i, r := range rays {
		out[i] = pl.propagate(i, r, toObj)
	}
	return out
}

// TraceParallel is Trace spread over workers goroutines (NumCPU when <= 0).
// Each worker fills its own contiguous range, so output order and values are
// identical to Trace.
func (pl *Pipeline) TraceParallel(ctx context.Context, src Source, rays []Ray, workers int) ([]RayPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]RayPath, len(rays))
	if len(rays) == 0 {
		return out, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = imax(1, imin(workers, len(rays)))
	per, rem := len(rays)/workers, len(rays)%workers
	DebugLogOnce("Tracing %d rays on %d workers (%d each, +1 for first %d)", len(rays), workers, per, rem)

	toObj := pl.toObjective(src.Z)
	var wg sync.WaitGroup
	wg.Add(workers)
	start := 0
	for w := 0; w < workers; w++ {
		n := per
		if w < rem {
			n++
		}
		go func(lo, hi int) {
			defer wg.Done()
			for c := lo; c < hi; c += chunkRays {
				if ctx.Err() != nil {
					return
				}
				end := imin(c+chunkRays, hi)
				for i := c; i < end; i++ {
					out[i] = pl.propagate(i, rays[i], toObj)
				}
			}
		}(start, start+n)
		start += n
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SensorHeights extracts the final lateral offsets in bundle order.
func SensorHeights(paths []RayPath) []Real {
	hs := make([]Real, len(paths))
	for i, p := range paths {
		hs[i] = p.Sensor.H
	}
	return hs
}
