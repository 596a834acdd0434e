// Package testsupport builds synthetic FITS frames and star fields
// for tests. Nothing here is used by the shipped binary.
package testsupport

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

const block = 2880

// Card formats one 80-byte FITS header card image.
func Card(key, value string) string {
	return fmt.Sprintf("%-8s= %-70s", key, value)[:80]
}

// FITSBytes assembles a minimal single-HDU FITS file: BITPIX=-64
// image data so test pixel values round-trip exactly. extraCards are
// appended after the mandatory keywords, in order.
func FITSBytes(width, height int, pix []float64, extraCards ...string) []byte {
	if len(pix) != width*height {
		panic(fmt.Sprintf("pix has %d values, want %d", len(pix), width*height))
	}

	cards := []string{
		Card("SIMPLE", "T"),
		Card("BITPIX", "-64"),
		Card("NAXIS", "2"),
		Card("NAXIS1", fmt.Sprintf("%d", width)),
		Card("NAXIS2", fmt.Sprintf("%d", height)),
	}
	cards = append(cards, extraCards...)
	cards = append(cards, fmt.Sprintf("%-80s", "END"))

	header := ""
	for _, c := range cards {
		header += c
	}
	for len(header)%block != 0 {
		header += " "
	}

	data := make([]byte, len(pix)*8)
	for i, v := range pix {
		binary.BigEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}
	for len(data)%block != 0 {
		data = append(data, 0)
	}

	return append([]byte(header), data...)
}

// WCSCards returns header cards for a simple plate solution:
// scale arcsec/pixel, rotation in degrees east of north, reference
// pixel (1-based) at (crpix1, crpix2) mapping to (ra, dec) degrees.
func WCSCards(crpix1, crpix2, ra, dec, scaleArcsec, rotDeg float64) []string {
	s := scaleArcsec / 3600
	rot := rotDeg * math.Pi / 180
	return []string{
		Card("CTYPE1", "'RA---TAN'"),
		Card("CTYPE2", "'DEC--TAN'"),
		Card("CRPIX1", fmt.Sprintf("%g", crpix1)),
		Card("CRPIX2", fmt.Sprintf("%g", crpix2)),
		Card("CRVAL1", fmt.Sprintf("%g", ra)),
		Card("CRVAL2", fmt.Sprintf("%g", dec)),
		Card("CD1_1", fmt.Sprintf("%g", s*math.Cos(rot))),
		Card("CD1_2", fmt.Sprintf("%g", -s*math.Sin(rot))),
		Card("CD2_1", fmt.Sprintf("%g", s*math.Sin(rot))),
		Card("CD2_2", fmt.Sprintf("%g", s*math.Cos(rot))),
	}
}

// AddGaussian stamps a circular Gaussian source of the given peak and
// sigma onto a row-major pixel buffer, centered at 0-based (cx, cy).
func AddGaussian(pix []float64, width, height int, cx, cy, peak, sigma float64) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			pix[y*width+x] += peak * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
		}
	}
}

// AddNoise adds seeded Gaussian read noise, so detection thresholds
// behave as they do on real frames while tests stay deterministic.
func AddNoise(pix []float64, sigma float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range pix {
		pix[i] += rng.NormFloat64() * sigma
	}
}

// FlatField returns a width*height buffer filled with a constant sky
// level.
func FlatField(width, height int, sky float64) []float64 {
	pix := make([]float64, width*height)
	for i := range pix {
		pix[i] = sky
	}
	return pix
}

// WriteFITS drops a synthetic FITS file into dir and returns its path.
func WriteFITS(t *testing.T, dir, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
