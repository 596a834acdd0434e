// Package starfield finds and measures stellar point sources on a 2-D
// pixel raster: background estimation, thresholded detection,
// centroid refinement and aperture photometry.
package starfield

import (
	"fmt"
	"math"
	"sort"
)

// A Grid is a row-major raster of float64 pixel intensities, the
// in-memory form every stage of the pipeline works on.
type Grid struct {
	stride int
	values []float64
}

func NewGrid(w, h int) *Grid {
	return &Grid{stride: w, values: make([]float64, w*h)}
}

// GridFrom wraps an existing row-major buffer without copying it.
func GridFrom(pix []float64, w, h int) *Grid {
	if len(pix) != w*h {
		panic(fmt.Sprintf("grid %dx%d needs %d values, got %d", w, h, w*h, len(pix)))
	}
	return &Grid{stride: w, values: pix}
}

func (g *Grid) Set(x, y int, v float64) { g.values[g.stride*y+x] = v }
func (g *Grid) Get(x, y int) float64    { return g.values[g.stride*y+x] }
func (g *Grid) Dx() int                 { return g.stride }
func (g *Grid) Dy() int                 { return len(g.values) / g.stride }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Dx() && y < g.Dy()
}

// Values exposes the backing buffer for whole-frame statistics.
// Callers must treat it as read-only.
func (g *Grid) Values() []float64 { return g.values }

// MinMaxAtPercentile returns the pixel values at the given quantiles,
// used to set display stretch for diagnostic rendering.
func (g *Grid) MinMaxAtPercentile(loPrct, hiPrct float64) (float64, float64) {
	vals := make([]float64, len(g.values))
	copy(vals, g.values)
	sort.Float64s(vals)

	iLo := int(loPrct * float64(len(vals)))
	iHi := int(hiPrct * float64(len(vals)))
	if iLo < 0 {
		iLo = 0
	}
	if iHi >= len(vals) {
		iHi = len(vals) - 1
	}
	return vals[iLo], vals[iHi]
}

func (g *Grid) Stats() string {
	min := math.MaxFloat64
	max := -min
	for _, v := range g.values {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return fmt.Sprintf("grid[%dx%d, vals{%g,%g}]", g.Dx(), g.Dy(), min, max)
}
