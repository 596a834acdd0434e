package starfield

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonPositiveFlux is returned when background subtraction leaves a
// source with no net flux, which makes the magnitude logarithm
// undefined. This happens on background-dominated apertures and must
// be reported rather than clamped, or it silently corrupts every
// statistic computed downstream.
var ErrNonPositiveFlux = errors.New("non-positive net flux")

// PhotometryParams sets the aperture geometry, in pixels.
type PhotometryParams struct {
	ApertureRadius float64
	AnnulusInner   float64
	AnnulusOuter   float64
}

// A Photometry is the aperture measurement for one star.
type Photometry struct {
	NetFlux     float64
	Background  float64 // per-pixel sky level from the annulus
	ApertureSum float64
	AperturePix int
	AnnulusPix  int
}

func (p Photometry) String() string {
	return fmt.Sprintf("phot[net=%.1f sky=%.2f/px ap=%dpx]", p.NetFlux, p.Background, p.AperturePix)
}

// MeasureFlux sums pixel flux in a circular aperture centered on a
// refined centroid, estimates the local sky from a surrounding
// annulus with sigma clipping, and subtracts background*area. A
// pixel belongs to a region when its center falls inside the radius.
func MeasureFlux(g *Grid, cx, cy float64, p PhotometryParams) (Photometry, error) {
	phot := Photometry{}

	x0 := int(math.Floor(cx - p.AnnulusOuter - 1))
	x1 := int(math.Ceil(cx + p.AnnulusOuter + 1))
	y0 := int(math.Floor(cy - p.AnnulusOuter - 1))
	y1 := int(math.Ceil(cy + p.AnnulusOuter + 1))

	annulus := []float64{}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !g.InBounds(x, y) {
				continue
			}
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d <= p.ApertureRadius:
				phot.ApertureSum += g.Get(x, y)
				phot.AperturePix++
			case d >= p.AnnulusInner && d <= p.AnnulusOuter:
				annulus = append(annulus, g.Get(x, y))
			}
		}
	}

	if phot.AperturePix == 0 {
		return phot, fmt.Errorf("%w: empty aperture at (%.1f,%.1f)", ErrNonPositiveFlux, cx, cy)
	}
	if len(annulus) == 0 {
		return phot, fmt.Errorf("%w: empty sky annulus at (%.1f,%.1f)", ErrNonPositiveFlux, cx, cy)
	}

	sky := EstimateBackground(annulus, 3.0, 5)
	phot.Background = sky.Median
	phot.AnnulusPix = len(annulus)
	phot.NetFlux = phot.ApertureSum - sky.Median*float64(phot.AperturePix)

	return phot, nil
}

// DeltaMag converts the flux ratio of the two components into an
// instrumental magnitude difference, -2.5*log10(F2/F1). The sign
// convention follows the designation: positive when the secondary is
// fainter, so swapping the components negates the result.
func DeltaMag(primary, secondary Photometry) (float64, error) {
	if primary.NetFlux <= 0 {
		return 0, fmt.Errorf("%w: primary net flux %.2f", ErrNonPositiveFlux, primary.NetFlux)
	}
	if secondary.NetFlux <= 0 {
		return 0, fmt.Errorf("%w: secondary net flux %.2f", ErrNonPositiveFlux, secondary.NetFlux)
	}
	return -2.5 * math.Log10(secondary.NetFlux/primary.NetFlux), nil
}
