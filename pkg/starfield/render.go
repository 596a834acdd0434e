package starfield

import (
	"fmt"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// A Marker is one measured star to overlay on the diagnostic image.
type Marker struct {
	X, Y         float64
	ApertureR    float64
	AnnulusInner float64
	AnnulusOuter float64
	Label        string
}

// heat is a dark-to-bright false-color ramp, easier to read faint
// structure on than plain grayscale.
var heat = []colorful.Color{
	{R: 0.00, G: 0.00, B: 0.02},
	{R: 0.23, G: 0.04, B: 0.36},
	{R: 0.73, G: 0.21, B: 0.33},
	{R: 0.98, G: 0.62, B: 0.23},
	{R: 0.99, G: 0.99, B: 0.75},
}

func heatColor(t float64) colorful.Color {
	if t <= 0 {
		return heat[0]
	}
	if t >= 1 {
		return heat[len(heat)-1]
	}
	seg := t * float64(len(heat)-1)
	i := int(seg)
	return heat[i].BlendRgb(heat[i+1], seg-float64(i))
}

// RenderDiagnostic writes a false-color PNG of the frame with the
// measured stars circled: solid ring for the aperture, dashed rings
// for the sky annulus. The stretch runs between the 1st and 99.9th
// percentile pixel so one hot pixel cannot flatten the display.
func RenderDiagnostic(g *Grid, markers []Marker, filename string) error {
	lo, hi := g.MinMaxAtPercentile(0.01, 0.999)
	if hi <= lo {
		hi = lo + 1
	}

	dc := gg.NewContext(g.Dx(), g.Dy())
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			t := (g.Get(x, y) - lo) / (hi - lo)
			dc.SetColor(heatColor(t))
			dc.SetPixel(x, y)
		}
	}

	for _, m := range markers {
		dc.SetRGB(0.2, 1.0, 0.4)
		dc.SetLineWidth(1)
		dc.DrawCircle(m.X, m.Y, m.ApertureR)
		dc.Stroke()

		dc.SetRGB(0.4, 0.7, 1.0)
		dc.SetDash(3, 3)
		dc.DrawCircle(m.X, m.Y, m.AnnulusInner)
		dc.Stroke()
		dc.DrawCircle(m.X, m.Y, m.AnnulusOuter)
		dc.Stroke()
		dc.SetDash()

		if m.Label != "" {
			dc.SetRGB(1, 1, 1)
			dc.DrawString(m.Label, m.X+m.AnnulusOuter+2, m.Y)
		}
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("write diagnostic %s: %v", filename, err)
	}
	return nil
}
