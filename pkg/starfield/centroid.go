package starfield

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrCentroidDiverged is returned when centroid refinement fails to
// settle, or the refinement window loses all signal.
var ErrCentroidDiverged = errors.New("centroid refinement diverged")

// CentroidParams controls iterative centroid refinement.
type CentroidParams struct {
	HalfWidth int     // window half-width in pixels
	Epsilon   float64 // convergence threshold, pixels
	MaxIters  int
}

// RefineCentroid computes a background-subtracted, flux-weighted
// first moment in a square window around an approximate position,
// re-centering the window on the result until it moves less than
// Epsilon. The loop is bounded by MaxIters so a flat or pathological
// window terminates with an error instead of wandering forever.
func RefineCentroid(g *Grid, x, y float64, p CentroidParams) (float64, float64, error) {
	cx, cy := x, y

	for iter := 0; iter < p.MaxIters; iter++ {
		nx, ny, err := windowMoment(g, cx, cy, p.HalfWidth)
		if err != nil {
			return 0, 0, err
		}
		moved := math.Hypot(nx-cx, ny-cy)
		cx, cy = nx, ny
		if moved < p.Epsilon {
			return cx, cy, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no convergence after %d iterations at (%.1f,%.1f)",
		ErrCentroidDiverged, p.MaxIters, x, y)
}

// windowMoment is one refinement step: local background from the
// window perimeter, then the first moment of the positive residual.
func windowMoment(g *Grid, cx, cy float64, halfWidth int) (float64, float64, error) {
	x0 := int(math.Round(cx)) - halfWidth
	y0 := int(math.Round(cy)) - halfWidth
	x1 := int(math.Round(cx)) + halfWidth
	y1 := int(math.Round(cy)) + halfWidth

	if !g.InBounds(x0, y0) || !g.InBounds(x1, y1) {
		return 0, 0, fmt.Errorf("%w: window [%d,%d]-[%d,%d] leaves the frame",
			ErrCentroidDiverged, x0, y0, x1, y1)
	}

	// The window perimeter is assumed to be sky; its median is the
	// local background.
	perim := []float64{}
	for x := x0; x <= x1; x++ {
		perim = append(perim, g.Get(x, y0), g.Get(x, y1))
	}
	for y := y0 + 1; y < y1; y++ {
		perim = append(perim, g.Get(x0, y), g.Get(x1, y))
	}
	sort.Float64s(perim)
	bg := perim[len(perim)/2]

	var sumW, sumWX, sumWY float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			w := g.Get(x, y) - bg
			if w <= 0 {
				continue
			}
			sumW += w
			sumWX += w * float64(x)
			sumWY += w * float64(y)
		}
	}
	if sumW <= 0 {
		return 0, 0, fmt.Errorf("%w: no signal above background at (%.1f,%.1f)",
			ErrCentroidDiverged, cx, cy)
	}

	return sumWX / sumW, sumWY / sumW, nil
}
