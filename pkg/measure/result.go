package measure

import (
	"fmt"
	"time"

	"starpair/pkg/astrometry"
	"starpair/pkg/starfield"
)

// A StarMeasurement is the finished measurement of one component:
// where detection first saw it, where refinement settled, its sky
// position and its aperture photometry. Never mutated once built.
type StarMeasurement struct {
	RawX, RawY float64 // detection centroid, pre-refinement
	X, Y       float64 // refined centroid
	Sky        astrometry.SkyPos
	Phot       starfield.Photometry
}

// Diagnostics carries the per-stage numbers needed to work out why a
// measurement went wrong without re-running the pipeline.
type Diagnostics struct {
	CandidateCount int
	Background     starfield.Background
	PixelScaleAsec float64
}

// A Result is the immutable per-image output: the three measurements
// plus the component positions and stage diagnostics.
type Result struct {
	Path  string
	Epoch time.Time

	SeparationArcsec float64
	PositionAngleDeg float64 // [0, 360), N through E
	DeltaMag         float64 // positive when secondary is fainter

	Primary   StarMeasurement
	Secondary StarMeasurement
	Diag      Diagnostics
}

// Record renders the measurement line the way it is published:
// separation, angle, delta-mag to two decimals.
func (r *Result) Record() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f", r.SeparationArcsec, r.PositionAngleDeg, r.DeltaMag)
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: sep=%.2f\" pa=%.2fdeg dmag=%.2f (primary %.2f,%.2f  secondary %.2f,%.2f)",
		r.Path, r.SeparationArcsec, r.PositionAngleDeg, r.DeltaMag,
		r.Primary.X, r.Primary.Y, r.Secondary.X, r.Secondary.Y)
}
