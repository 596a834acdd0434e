package astrometry_test

import (
	"math"
	"testing"

	"starpair/pkg/astrometry"
)

func TestSeparationAlongDec(t *testing.T) {
	a := astrometry.SkyPos{RA: 100, Dec: 10}
	b := astrometry.SkyPos{RA: 100, Dec: 10 + 10.0/3600}
	if got := astrometry.Separation(a, b); math.Abs(got-10) > 1e-6 {
		t.Errorf("Separation = %g arcsec; want 10", got)
	}
}

func TestSeparationIsSymmetric(t *testing.T) {
	a := astrometry.SkyPos{RA: 14.2, Dec: -33.1}
	b := astrometry.SkyPos{RA: 14.21, Dec: -33.11}
	if d1, d2 := astrometry.Separation(a, b), astrometry.Separation(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Separation not symmetric: %g vs %g", d1, d2)
	}
}

func TestSeparationRAConvergesWithDec(t *testing.T) {
	// One arcsecond of RA is worth cos(dec) arcseconds on the sky.
	a := astrometry.SkyPos{RA: 100, Dec: 60}
	b := astrometry.SkyPos{RA: 100 + 10.0/3600, Dec: 60}
	if got := astrometry.Separation(a, b); math.Abs(got-5) > 1e-3 {
		t.Errorf("10\" of RA at dec 60 = %g arcsec; want ~5", got)
	}
}

func TestSeparationMatchesFlatSkyWhenSmall(t *testing.T) {
	a := astrometry.SkyPos{RA: 200, Dec: 45}
	b := astrometry.SkyPos{RA: 200 + 8.0/3600, Dec: 45 + 6.0/3600}

	dRA := (b.RA - a.RA) * math.Cos(a.Dec*math.Pi/180) * 3600
	dDec := (b.Dec - a.Dec) * 3600
	flat := math.Hypot(dRA, dDec)

	if got := astrometry.Separation(a, b); math.Abs(got-flat) > 0.01 {
		t.Errorf("Separation = %g; flat-sky gives %g", got, flat)
	}
}

func TestPositionAngleCardinalDirections(t *testing.T) {
	p := astrometry.SkyPos{RA: 150, Dec: 20}
	off := 10.0 / 3600
	cases := []struct {
		name string
		c    astrometry.SkyPos
		want float64
	}{
		{"north", astrometry.SkyPos{RA: 150, Dec: 20 + off}, 0},
		{"east", astrometry.SkyPos{RA: 150 + off, Dec: 20}, 90},
		{"south", astrometry.SkyPos{RA: 150, Dec: 20 - off}, 180},
		{"west", astrometry.SkyPos{RA: 150 - off, Dec: 20}, 270},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := astrometry.PositionAngle(p, c.c)
			if angleDiff(got, c.want) > 0.01 {
				t.Errorf("PA = %g; want %g", got, c.want)
			}
		})
	}
}

func TestPositionAngleReversesByHalfTurn(t *testing.T) {
	a := astrometry.SkyPos{RA: 88.3, Dec: 41.9}
	b := astrometry.SkyPos{RA: 88.3 + 7.0/3600, Dec: 41.9 + 4.0/3600}
	pa := astrometry.PositionAngle(a, b)
	rev := astrometry.PositionAngle(b, a)
	if angleDiff(rev, pa+180) > 0.01 {
		t.Errorf("PA %g reversed to %g; want %g", pa, rev, math.Mod(pa+180, 360))
	}
}

func TestPositionAngleAcrossRAWrap(t *testing.T) {
	a := astrometry.SkyPos{RA: 359.9995, Dec: 0}
	b := astrometry.SkyPos{RA: 0.0005, Dec: 0}

	if got := astrometry.Separation(a, b); math.Abs(got-3.6) > 1e-3 {
		t.Errorf("Separation across wrap = %g; want 3.6", got)
	}
	if got := astrometry.PositionAngle(a, b); angleDiff(got, 90) > 0.01 {
		t.Errorf("PA across wrap = %g; want 90", got)
	}
}

func TestPositionAngleRange(t *testing.T) {
	p := astrometry.SkyPos{RA: 10, Dec: 5}
	for i := 0; i < 36; i++ {
		theta := float64(i) * 10 * math.Pi / 180
		c := astrometry.SkyPos{
			RA:  p.RA + 10.0/3600*math.Sin(theta)/math.Cos(p.Dec*math.Pi/180),
			Dec: p.Dec + 10.0/3600*math.Cos(theta),
		}
		pa := astrometry.PositionAngle(p, c)
		if pa < 0 || pa >= 360 {
			t.Fatalf("PA = %g out of [0,360)", pa)
		}
		if angleDiff(pa, float64(i)*10) > 0.05 {
			t.Errorf("offset at %d deg measured as %g", i*10, pa)
		}
	}
}

// angleDiff is the absolute difference between two angles in degrees,
// accounting for wraparound.
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+540, 360) - 180
	return math.Abs(d)
}
