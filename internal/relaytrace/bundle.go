package relaytrace

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Source is a point emitter. H is the lateral offset from the axis and Z the
// axial offset from the objective's front focal plane (positive = farther away).
type Source struct {
	H Real `json:"h"`
	Z Real `json:"z"`
}

// LaunchAngles samples n angles evenly over the closed interval
// [-thetaMax, thetaMax]. A single sample is the chief ray at 0.
func LaunchAngles(thetaMax Real, n int) ([]Real, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative ray count %d", ErrInvalidConfig, n)
	}
	if !isFinite(thetaMax) || thetaMax < 0 {
		return nil, fmt.Errorf("%w: max angle %g", ErrInvalidGeometry, thetaMax)
	}
	switch n {
	case 0:
		return []Real{}, nil
	case 1:
		return []Real{0}, nil
	}
	angles := make([]Real, n)
	floats.Span(angles, -thetaMax, thetaMax)
	angles[n-1] = thetaMax // pin the closed end against rounding
	return angles, nil
}

// NewBundle returns one ray per launch angle, all starting at src.H.
func NewBundle(src Source, thetaMax Real, n int) ([]Ray, error) {
	angles, err := LaunchAngles(thetaMax, n)
	if err != nil {
		return nil, err
	}
	rays := make([]Ray, len(angles))
	for i, a := range angles {
		rays[i] = Ray{H: src.H, Theta: a}
	}
	return rays, nil
}
