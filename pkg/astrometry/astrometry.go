// Package astrometry computes the relative astrometry of a double
// star: great-circle separation and position angle between two sky
// positions.
package astrometry

import (
	"fmt"
	"math"
)

// A SkyPos is an equatorial coordinate in degrees.
type SkyPos struct {
	RA  float64
	Dec float64
}

func (s SkyPos) String() string {
	return fmt.Sprintf("(%.6f, %+.6f)", s.RA, s.Dec)
}

const degToRad = math.Pi / 180

// Separation returns the great-circle angular distance between two
// sky positions, in arcseconds. The haversine form stays accurate
// for the sub-arcminute separations typical of visual doubles, where
// the plain spherical law of cosines loses precision, and it remains
// correct at any separation (the flat-sky approximation does not).
func Separation(a, b SkyPos) float64 {
	dRA := (b.RA - a.RA) * degToRad
	dDec := (b.Dec - a.Dec) * degToRad

	sinDec := math.Sin(dDec / 2)
	sinRA := math.Sin(dRA / 2)
	h := sinDec*sinDec + math.Cos(a.Dec*degToRad)*math.Cos(b.Dec*degToRad)*sinRA*sinRA
	return 2 * math.Asin(math.Sqrt(h)) / degToRad * 3600
}

// PositionAngle returns the direction from the primary toward the
// companion, in degrees from north through east, normalized to
// [0, 360). The atan2 form handles the RA wrap at 0h/24h without any
// special casing, since only sin/cos of the RA difference appear.
func PositionAngle(primary, companion SkyPos) float64 {
	dRA := (companion.RA - primary.RA) * degToRad
	dec1 := primary.Dec * degToRad
	dec2 := companion.Dec * degToRad

	y := math.Sin(dRA) * math.Cos(dec2)
	x := math.Cos(dec1)*math.Sin(dec2) - math.Sin(dec1)*math.Cos(dec2)*math.Cos(dRA)

	pa := math.Atan2(y, x) / degToRad
	return math.Mod(pa+360, 360)
}
