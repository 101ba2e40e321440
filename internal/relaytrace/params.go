package relaytrace

import (
	"fmt"
	"math"
)

// Params are the fixed inputs of a run. Lengths are in metres.
type Params struct {
	FocalObjective Real
	FocalTube      Real
	NA             Real
	MediumIndex    Real
	PixelPitch     Real
	NumPixels      int
	RayDensity     int
}

// DefaultParams returns the reference relay.
func DefaultParams() Params {
	return Params{
		FocalObjective: FocalObjective,
		FocalTube:      FocalTube,
		NA:             NumAperture,
		MediumIndex:    MediumIndex,
		PixelPitch:     PixelPitch,
		NumPixels:      NumPixels,
		RayDensity:     RayDensity,
	}
}

// Geometry holds everything derived from Params. Axial positions are measured
// from the nominal front focal plane of the objective.
type Geometry struct {
	ThetaMax        Real // objective half-cone, asin(NA/n)
	ObjectiveRadius Real
	ThetaTube       Real // asin(fOb/fT), matched-NA relay assumption
	TubeRadius      Real
	ObjectiveZ      Real
	TubeZ           Real
	SensorZ         Real
	SensorSize      Real
}

func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    Real
	}{{"objective", p.FocalObjective}, {"tube", p.FocalTube}} {
		if f.v == 0 {
			return fmt.Errorf("%w: %s focal length: %w", ErrInvalidGeometry, f.name, ErrZeroFocalLength)
		}
		if !isFinite(f.v) {
			return fmt.Errorf("%w: %s focal length %g", ErrInvalidGeometry, f.name, f.v)
		}
	}
	if !isFinite(p.NA) || p.NA <= 0 {
		return fmt.Errorf("%w: numerical aperture %g must be > 0", ErrInvalidGeometry, p.NA)
	}
	if !isFinite(p.MediumIndex) || p.MediumIndex <= 0 {
		return fmt.Errorf("%w: refractive index %g must be > 0", ErrInvalidGeometry, p.MediumIndex)
	}
	if p.NA/p.MediumIndex > 1 {
		return fmt.Errorf("%w: NA/n = %g/%g = %g exceeds 1", ErrInvalidGeometry, p.NA, p.MediumIndex, p.NA/p.MediumIndex)
	}
	if !isFinite(p.PixelPitch) || p.PixelPitch <= 0 {
		return fmt.Errorf("%w: pixel pitch %g must be > 0", ErrInvalidGeometry, p.PixelPitch)
	}
	if p.NumPixels < 0 {
		return fmt.Errorf("%w: pixel count %d", ErrInvalidGeometry, p.NumPixels)
	}
	if p.RayDensity < 0 {
		return fmt.Errorf("%w: ray density %d", ErrInvalidGeometry, p.RayDensity)
	}
	return nil
}

// Derive validates p and computes the relay geometry.
func (p Params) Derive() (Geometry, error) {
	if err := p.Validate(); err != nil {
		return Geometry{}, err
	}
	fOb, fT := p.FocalObjective, p.FocalTube
	naTube := fOb / fT
	if math.Abs(naTube) > 1 {
		return Geometry{}, fmt.Errorf("%w: fOb/fT = %g exceeds 1, tube acceptance undefined", ErrInvalidGeometry, naTube)
	}
	theta := math.Asin(p.NA / p.MediumIndex)
	thetaTube := math.Asin(naTube)
	tubeZ := fOb + (fOb + fT)
	g := Geometry{
		ThetaMax:        theta,
		ObjectiveRadius: fOb * math.Tan(theta),
		ThetaTube:       thetaTube,
		TubeRadius:      fT * math.Tan(thetaTube),
		ObjectiveZ:      fOb,
		TubeZ:           tubeZ,
		SensorZ:         tubeZ + fT,
		SensorSize:      p.PixelPitch * Real(p.NumPixels),
	}
	DebugLog("Derived geometry %+v from %+v", g, p)
	return g, nil
}
