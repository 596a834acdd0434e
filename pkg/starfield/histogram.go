package starfield

import (
	"fmt"
	"math"
	"strings"

	"github.com/codahale/hdrhistogram"
)

// PixelHistogram builds a histogram of the frame's pixel levels.
// Values below 1 (possible after bias subtraction) clamp to 1, which
// is fine for the exposure sanity checks this feeds.
func PixelHistogram(g *Grid) *hdrhistogram.Histogram {
	max := int64(1)
	for _, v := range g.Values() {
		if iv := int64(math.Ceil(v)); iv > max {
			max = iv
		}
	}

	h := hdrhistogram.New(1, max, 3)
	for _, v := range g.Values() {
		iv := int64(v)
		if iv < 1 {
			iv = 1
		}
		h.RecordValue(iv)
	}
	return h
}

// HistogramSummary formats the pixel-level quantiles for the inspect
// report, with a saturation warning against the given full-well ADU
// level (0 to skip the check).
func HistogramSummary(h *hdrhistogram.Histogram, saturationADU int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pixels: %d  mean: %.1f\n", h.TotalCount(), h.Mean())
	for _, q := range []float64{50, 90, 99, 99.9, 100} {
		fmt.Fprintf(&b, "  p%-5g %d\n", q, h.ValueAtQuantile(q))
	}
	if saturationADU > 0 && h.Max() >= saturationADU {
		fmt.Fprintf(&b, "  warning: peak %d at or above saturation (%d)\n", h.Max(), saturationADU)
	}
	return b.String()
}
