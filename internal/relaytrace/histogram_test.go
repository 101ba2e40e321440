package relaytrace

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

func TestBinEdgesArangeSemantics(t *testing.T) {
	e, err := BinEdges(0, 1, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, []Real{0, 0.25, 0.5, 0.75}) {
		t.Fatalf("edges %v", e)
	}
	e, _ = BinEdges(0, 1, 0.3)
	if len(e) != 4 || math.Abs(e[3]-0.9) > 1e-15 {
		t.Fatalf("edges %v", e)
	}
	e, _ = BinEdges(1, 1, 0.1)
	if len(e) != 0 {
		t.Fatalf("empty range gave %v", e)
	}
	if _, err := BinEdges(0, 1, 0); !errors.Is(err, ErrInvalidBins) {
		t.Fatalf("zero step: %v", err)
	}
	if _, err := BinEdges(math.Inf(-1), 1, 0.1); !errors.Is(err, ErrInvalidBins) {
		t.Fatalf("infinite lo: %v", err)
	}
}

func TestReferenceWindowEdges(t *testing.T) {
	lo, hi, err := SensorWindow(PixelPitch*NumPixels, BinZoom)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lo+5.3248e-4) > 1e-15 || math.Abs(hi-5.3248e-4) > 1e-15 {
		t.Fatalf("window [%g, %g)", lo, hi)
	}
	e, _ := BinEdges(lo, hi, PixelPitch)
	if len(e) != 164 {
		t.Fatalf("edges = %d, want 164", len(e))
	}
	if _, _, err := SensorWindow(1, 0); !errors.Is(err, ErrInvalidBins) {
		t.Fatalf("zero zoom: %v", err)
	}
}

func TestHistogramHalfOpenBins(t *testing.T) {
	edges := []Real{0, 1, 2, 3}
	h := NewHistogram([]Real{0, 0.5, 1, 2.999, 3, -0.1, math.NaN(), 7}, edges)
	if !reflect.DeepEqual(h.Counts, []int{2, 1, 1}) {
		t.Fatalf("counts %v", h.Counts)
	}
	if h.Below != 1 || h.Above != 3 {
		t.Fatalf("below=%d above=%d", h.Below, h.Above)
	}
	if h.Total() != 4 || h.Dropped() != 4 {
		t.Fatalf("total=%d dropped=%d", h.Total(), h.Dropped())
	}
	if !reflect.DeepEqual(h.Centers(), []Real{0.5, 1.5, 2.5}) {
		t.Fatalf("centers %v", h.Centers())
	}
	if i, c := h.Peak(); i != 0 || c != 2 {
		t.Fatalf("peak %d/%d", i, c)
	}
}

func TestBinEdgesRejectsHugeCounts(t *testing.T) {
	for _, c := range []struct{ lo, hi, step Real }{
		{-1, 1, 1e-300},
		{-1, 1, 1e-12},
		{-math.MaxFloat64, math.MaxFloat64, 1},
	} {
		e, err := BinEdges(c.lo, c.hi, c.step)
		if !errors.Is(err, ErrInvalidBins) || e != nil {
			t.Fatalf("BinEdges(%g, %g, %g) = %d edges, %v", c.lo, c.hi, c.step, len(e), err)
		}
	}
	if e, err := BinEdges(0, 1, 1e-6); err != nil || len(e) < 999999 {
		t.Fatalf("micron bins over a metre: %d, %v", len(e), err)
	}
}

func TestRunRejectsTinyPitchWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PixelPitch = 1e-300
	cfg.Bins = &BinsCfg{Lo: -1, Hi: 1}
	cfg.RayDensity = 10
	if _, err := Run(context.Background(), cfg); !errors.Is(err, ErrInvalidBins) {
		t.Fatalf("want ErrInvalidBins, got %v", err)
	}
}

func TestHistogramUnsortedEdges(t *testing.T) {
	h := NewHistogram([]Real{0.5, 1.5, 2.5}, []Real{0, 2, 1, 3})
	if h.Bins() != 0 || h.Total() != 0 || h.Above != 3 || h.Below != 0 {
		t.Fatalf("unsorted edges: %+v", h)
	}
}

func TestHistogramEmptyInputs(t *testing.T) {
	h := NewHistogram(nil, []Real{0, 1})
	if !reflect.DeepEqual(h.Counts, []int{0}) || h.Dropped() != 0 {
		t.Fatalf("no values: %+v", h)
	}
	h = NewHistogram([]Real{1, 2}, nil)
	if h.Bins() != 0 || h.Total() != 0 || h.Dropped() != 2 {
		t.Fatalf("no edges: %+v", h)
	}
	if i, _ := h.Peak(); i != -1 {
		t.Fatalf("peak of empty histogram %d", i)
	}
	h = NewHistogram([]Real{-1, 1}, []Real{0})
	if h.Bins() != 0 || h.Below != 1 || h.Above != 1 {
		t.Fatalf("single edge: %+v", h)
	}
}

type binCase struct {
	Values   []Real
	Lo, Step Real
	NumEdges int
}

func (binCase) Generate(r *rand.Rand, size int) reflect.Value {
	vals := make([]Real, r.Intn(size*10+1))
	for i := range vals {
		vals[i] = r.NormFloat64() * 3
	}
	return reflect.ValueOf(binCase{
		Values:   vals,
		Lo:       r.Float64()*8 - 4,
		Step:     0.01 + r.Float64(),
		NumEdges: r.Intn(40),
	})
}

func TestHistogramConservesCount(t *testing.T) {
	conserve := func(c binCase) bool {
		edges, err := BinEdges(c.Lo, c.Lo+Real(c.NumEdges)*c.Step, c.Step)
		if err != nil {
			return false
		}
		h := NewHistogram(c.Values, edges)
		return h.Total()+h.Dropped() == len(c.Values)
	}
	if err := quick.Check(conserve, &quick.Config{MaxCount: 500, Rand: rand.New(rand.NewSource(11))}); err != nil {
		t.Fatal(err)
	}
}

func TestReferenceBundleHistogram(t *testing.T) {
	pl := referencePipeline(t)
	g := pl.Geometry()
	for _, src := range []Source{{}, {Z: 1.5e-6}, {H: 2.5e-6}} {
		rays, _ := NewBundle(src, g.ThetaMax, 1000)
		hs := SensorHeights(pl.Trace(src, rays))
		lo, hi, _ := SensorWindow(g.SensorSize, BinZoom)
		edges, err := BinEdges(lo, hi, PixelPitch)
		if err != nil {
			t.Fatal(err)
		}
		h := NewHistogram(hs, edges)

		inside := 0
		for _, v := range hs {
			if v >= edges[0] && v < edges[len(edges)-1] {
				inside++
			}
		}
		if h.Total() != inside {
			t.Fatalf("src %+v: binned %d, counted %d", src, h.Total(), inside)
		}
		if h.Total() <= 0 || h.Total() > 1000 {
			t.Fatalf("src %+v: total %d out of (0, 1000]", src, h.Total())
		}
		if h.Total()+h.Dropped() != 1000 {
			t.Fatalf("src %+v: conservation broken %+v", src, h)
		}
	}
}

func TestInFocusBundleLandsInOnePixel(t *testing.T) {
	pl := referencePipeline(t)
	rays, _ := NewBundle(Source{}, pl.Geometry().ThetaMax, 1000)
	lo, hi, _ := SensorWindow(pl.Geometry().SensorSize, BinZoom)
	edges, _ := BinEdges(lo, hi, PixelPitch)
	h := NewHistogram(SensorHeights(pl.Trace(Source{}, rays)), edges)
	if _, c := h.Peak(); c != 1000 {
		t.Fatalf("peak bin holds %d rays, want all 1000", c)
	}
}
