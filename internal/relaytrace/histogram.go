package relaytrace

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Histogram counts sensor landings per pixel bin. Bin i is the half-open
// interval [Edges[i], Edges[i+1]). Values outside the edges are not binned
// but are tallied in Below and Above, so Total()+Dropped() is always the
// number of input values.
type Histogram struct {
	Edges  []Real
	Counts []int
	Below  int // < Edges[0]
	Above  int // >= Edges[len-1], or NaN
}

// BinEdges returns lo, lo+step, ... strictly below hi (arange semantics).
func BinEdges(lo, hi, step Real) ([]Real, error) {
	if !isFinite(step) || step <= 0 {
		return nil, fmt.Errorf("%w: step %g must be > 0", ErrInvalidBins, step)
	}
	if !isFinite(lo) || !isFinite(hi) {
		return nil, fmt.Errorf("%w: range [%g, %g)", ErrInvalidBins, lo, hi)
	}
	if hi <= lo {
		return []Real{}, nil
	}
	ratio := math.Ceil((hi - lo) / step)
	if math.IsNaN(ratio) || ratio > maxBins {
		return nil, fmt.Errorf("%w: [%g, %g) in steps of %g needs more than %d edges", ErrInvalidBins, lo, hi, step, maxBins)
	}
	n := int(ratio)
	edges := make([]Real, n)
	for i := range edges {
		edges[i] = lo + Real(i)*step
	}
	return edges, nil
}

// SensorWindow is the central ±sensorSize/zoom slice of the sensor. The
// reference setup zooms by 25 to resolve the focal spot, not the full chip.
func SensorWindow(sensorSize, zoom Real) (lo, hi Real, err error) {
	if !isFinite(zoom) || zoom <= 0 {
		return 0, 0, fmt.Errorf("%w: zoom %g must be > 0", ErrInvalidBins, zoom)
	}
	half := sensorSize / zoom
	return -half, half, nil
}

// NewHistogram bins values into edges. Edges that are not ascending
// define no bins, so every value is tallied in Above.
func NewHistogram(values, edges []Real) Histogram {
	h := Histogram{Edges: edges, Counts: []int{}}
	if len(edges) == 0 || !sort.Float64sAreSorted(edges) {
		h.Above = len(values)
		return h
	}
	lo, hi := edges[0], edges[len(edges)-1]
	in := make([]float64, 0, len(values))
	for _, v := range values {
		switch {
		case math.IsNaN(v) || v >= hi:
			h.Above++
		case v < lo:
			h.Below++
		default:
			in = append(in, v)
		}
	}
	if len(edges) < 2 {
		return h
	}
	sort.Float64s(in)
	counts := stat.Histogram(nil, edges, in, nil)
	h.Counts = make([]int, len(counts))
	for i, c := range counts {
		h.Counts[i] = int(c)
	}
	return h
}

// Bins is the number of bins.
func (h Histogram) Bins() int { return len(h.Counts) }

// Total is the number of values that landed in a bin.
func (h Histogram) Total() int {
	t := 0
	for _, c := range h.Counts {
		t += c
	}
	return t
}

func (h Histogram) Dropped() int { return h.Below + h.Above }

// Centers returns the midpoint of each bin.
func (h Histogram) Centers() []Real {
	c := make([]Real, len(h.Counts))
	for i := range c {
		c[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return c
}

// Peak returns the first fullest bin, or -1 when there are no bins.
func (h Histogram) Peak() (idx, count int) {
	idx = -1
	for i, c := range h.Counts {
		if idx < 0 || c > count {
			idx, count = i, c
		}
	}
	return idx, count
}
