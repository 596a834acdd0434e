package fits

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNoWCS is returned by NewWCS when the header carries no usable
// plate solution.
var ErrNoWCS = errors.New("no usable WCS in header")

// A WCS is the linear + gnomonic plate solution from a FITS header:
// the CD matrix maps pixel offsets from the reference pixel onto
// tangent-plane coordinates (degrees), which project onto the
// celestial sphere about the reference coordinate CRVAL.
//
// Pixel coordinates on the Go side are 0-based; CRPIX in the header
// is 1-based per the FITS standard, and the shift is applied here so
// callers never see it.
type WCS struct {
	CD1_1, CD1_2 float64
	CD2_1, CD2_2 float64
	CRPIX1       float64 // 1-based reference pixel
	CRPIX2       float64
	CRVAL1       float64 // reference RA, degrees
	CRVAL2       float64 // reference Dec, degrees
	CTYPE1       string
	CTYPE2       string

	inv [4]float64 // CD^-1, for SkyToPixel
}

// NewWCS parses the WCS keywords out of a header. The CD matrix is
// preferred; the older CDELT/CROTA2 form is accepted as a fallback.
// A singular CD matrix is treated the same as a missing solution,
// since neither direction of the transform is trustworthy.
func NewWCS(h *Header) (*WCS, error) {
	w := &WCS{}

	if h.Has("CD1_1") {
		var err error
		if w.CD1_1, err = h.Float("CD1_1"); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoWCS, err)
		}
		w.CD1_2 = h.FloatOr("CD1_2", 0)
		w.CD2_1 = h.FloatOr("CD2_1", 0)
		if w.CD2_2, err = h.Float("CD2_2"); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoWCS, err)
		}
	} else if h.Has("CDELT1") && h.Has("CDELT2") {
		cdelt1 := h.FloatOr("CDELT1", 0)
		cdelt2 := h.FloatOr("CDELT2", 0)
		rot := h.FloatOr("CROTA2", 0) * math.Pi / 180
		w.CD1_1 = cdelt1 * math.Cos(rot)
		w.CD1_2 = -cdelt2 * math.Sin(rot)
		w.CD2_1 = cdelt1 * math.Sin(rot)
		w.CD2_2 = cdelt2 * math.Cos(rot)
	} else {
		return nil, fmt.Errorf("%w: no CD matrix or CDELT keywords", ErrNoWCS)
	}

	var missing []string
	for _, key := range []string{"CRPIX1", "CRPIX2", "CRVAL1", "CRVAL2"} {
		if !h.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrNoWCS, missing)
	}
	w.CRPIX1 = h.FloatOr("CRPIX1", 0)
	w.CRPIX2 = h.FloatOr("CRPIX2", 0)
	w.CRVAL1 = h.FloatOr("CRVAL1", 0)
	w.CRVAL2 = h.FloatOr("CRVAL2", 0)
	w.CTYPE1 = h.Str("CTYPE1")
	w.CTYPE2 = h.Str("CTYPE2")

	cd := mat.NewDense(2, 2, []float64{w.CD1_1, w.CD1_2, w.CD2_1, w.CD2_2})
	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		return nil, fmt.Errorf("%w: singular CD matrix", ErrNoWCS)
	}
	w.inv = [4]float64{inv.At(0, 0), inv.At(0, 1), inv.At(1, 0), inv.At(1, 1)}

	return w, nil
}

// NewLinearWCS builds a WCS directly from its elements, for plate
// solutions supplied outside a FITS header (sidecar files, tests).
func NewLinearWCS(cd11, cd12, cd21, cd22, crpix1, crpix2, crval1, crval2 float64) (*WCS, error) {
	w := &WCS{
		CD1_1: cd11, CD1_2: cd12, CD2_1: cd21, CD2_2: cd22,
		CRPIX1: crpix1, CRPIX2: crpix2, CRVAL1: crval1, CRVAL2: crval2,
		CTYPE1: "RA---TAN", CTYPE2: "DEC--TAN",
	}
	cd := mat.NewDense(2, 2, []float64{cd11, cd12, cd21, cd22})
	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		return nil, fmt.Errorf("%w: singular CD matrix", ErrNoWCS)
	}
	w.inv = [4]float64{inv.At(0, 0), inv.At(0, 1), inv.At(1, 0), inv.At(1, 1)}
	return w, nil
}

// project applies the CD matrix to a 0-based pixel position, giving
// tangent-plane offsets (xi, eta) in degrees.
func (w *WCS) project(x, y float64) (float64, float64) {
	dx := x - (w.CRPIX1 - 1)
	dy := y - (w.CRPIX2 - 1)
	return w.CD1_1*dx + w.CD1_2*dy, w.CD2_1*dx + w.CD2_2*dy
}

// PixelToSky converts a 0-based pixel position to (RA, Dec) in
// degrees, deprojecting the tangent plane onto the sphere. RA is
// normalized to [0, 360).
func (w *WCS) PixelToSky(x, y float64) (ra, dec float64) {
	xi, eta := w.project(x, y)
	xi *= math.Pi / 180
	eta *= math.Pi / 180

	ra0 := w.CRVAL1 * math.Pi / 180
	dec0 := w.CRVAL2 * math.Pi / 180

	rho := math.Hypot(xi, eta)
	if rho == 0 {
		return w.CRVAL1, w.CRVAL2
	}
	c := math.Atan(rho)

	decR := math.Asin(math.Cos(c)*math.Sin(dec0) + eta*math.Sin(c)*math.Cos(dec0)/rho)
	raR := ra0 + math.Atan2(xi*math.Sin(c),
		rho*math.Cos(dec0)*math.Cos(c)-eta*math.Sin(dec0)*math.Sin(c))

	ra = math.Mod(raR*180/math.Pi+360, 360)
	dec = decR * 180 / math.Pi
	return ra, dec
}

// SkyToPixel is the inverse transform: (RA, Dec) in degrees to a
// 0-based pixel position. Used when a reference sky position seeds
// source selection.
func (w *WCS) SkyToPixel(ra, dec float64) (x, y float64) {
	raR := ra * math.Pi / 180
	decR := dec * math.Pi / 180
	ra0 := w.CRVAL1 * math.Pi / 180
	dec0 := w.CRVAL2 * math.Pi / 180

	cosC := math.Sin(dec0)*math.Sin(decR) + math.Cos(dec0)*math.Cos(decR)*math.Cos(raR-ra0)
	xi := math.Cos(decR) * math.Sin(raR-ra0) / cosC * 180 / math.Pi
	eta := (math.Cos(dec0)*math.Sin(decR) - math.Sin(dec0)*math.Cos(decR)*math.Cos(raR-ra0)) / cosC * 180 / math.Pi

	dx := w.inv[0]*xi + w.inv[1]*eta
	dy := w.inv[2]*xi + w.inv[3]*eta
	return dx + (w.CRPIX1 - 1), dy + (w.CRPIX2 - 1)
}

// SkyAngle is the field rotation in degrees, east of north.
func (w *WCS) SkyAngle() float64 {
	return math.Atan2(w.CD2_1, w.CD1_1) * 180 / math.Pi
}

// SkyScale returns the per-axis plate scale in degrees per pixel.
func (w *WCS) SkyScale() (float64, float64) {
	rot := w.SkyAngle() * math.Pi / 180
	return w.CD1_1 / math.Cos(rot), w.CD2_2 / math.Cos(rot)
}

// PixelScale is a single representative plate scale in arcseconds
// per pixel, handy for logs and for sizing search radii.
func (w *WCS) PixelScale() float64 {
	sx, sy := w.SkyScale()
	return (math.Abs(sx) + math.Abs(sy)) / 2 * 3600
}

func (w *WCS) String() string {
	return fmt.Sprintf("WCS[crval=(%.4f,%.4f) crpix=(%.1f,%.1f) scale=%.3f\"/px rot=%.2fdeg]",
		w.CRVAL1, w.CRVAL2, w.CRPIX1, w.CRPIX2, w.PixelScale(), w.SkyAngle())
}
