package starfield

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrTooFewSources is returned when a frame does not yield the two
// detections a double-star measurement needs.
var ErrTooFewSources = errors.New("fewer than two sources detected")

// A Candidate is one detected point source: its flux-weighted
// centroid, background-subtracted integrated flux, and how far its
// peak stands above the noise floor.
type Candidate struct {
	X, Y         float64
	Flux         float64
	Peak         float64
	PixelCount   int
	Significance float64
}

func (c Candidate) String() string {
	return fmt.Sprintf("src[(%.2f,%.2f) flux=%.1f %.1fsigma %dpx]",
		c.X, c.Y, c.Flux, c.Significance, c.PixelCount)
}

// DetectParams controls thresholded source detection.
type DetectParams struct {
	// SigmaThreshold flags pixels above median + k*std.
	SigmaThreshold float64
	// MinPixels rejects groups smaller than this, which are almost
	// always hot pixels or cosmic-ray hits, not stars.
	MinPixels int
}

// Detect finds connected groups of pixels above the detection
// threshold and reduces each group to a Candidate. The background is
// estimated over the whole frame with sigma clipping first, so the
// threshold tracks the actual sky level. Candidates come back sorted
// by descending flux.
func Detect(g *Grid, p DetectParams) ([]Candidate, Background) {
	bg := EstimateGridBackground(g, 3.0, 5)
	thresh := bg.Median + p.SigmaThreshold*bg.Std

	width, height := g.Dx(), g.Dy()
	seen := make([]bool, width*height)
	cands := []Candidate{}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if seen[y*width+x] || g.Get(x, y) <= thresh {
				continue
			}
			if c, ok := floodGroup(g, x, y, thresh, bg, seen); ok && c.PixelCount >= p.MinPixels {
				cands = append(cands, c)
			}
		}
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].Flux > cands[j].Flux })
	return cands, bg
}

// floodGroup grows a 4-connected region of above-threshold pixels
// from a seed and accumulates its moments. Visited pixels are marked
// in seen so each group is extracted once.
func floodGroup(g *Grid, seedX, seedY int, thresh float64, bg Background, seen []bool) (Candidate, bool) {
	width := g.Dx()
	type pt struct{ x, y int }
	toVisit := []pt{{seedX, seedY}}

	var sumW, sumWX, sumWY, peak float64
	n := 0

	for len(toVisit) > 0 {
		p := toVisit[0]
		toVisit = toVisit[1:]

		idx := p.y*width + p.x
		if seen[idx] {
			continue
		}
		seen[idx] = true

		v := g.Get(p.x, p.y)
		if v <= thresh {
			continue
		}

		w := v - bg.Median
		sumW += w
		sumWX += w * float64(p.x)
		sumWY += w * float64(p.y)
		if w > peak {
			peak = w
		}
		n++

		if p.x > 0 {
			toVisit = append(toVisit, pt{p.x - 1, p.y})
		}
		if p.y > 0 {
			toVisit = append(toVisit, pt{p.x, p.y - 1})
		}
		if p.x < width-1 {
			toVisit = append(toVisit, pt{p.x + 1, p.y})
		}
		if p.y < g.Dy()-1 {
			toVisit = append(toVisit, pt{p.x, p.y + 1})
		}
	}

	if n == 0 || sumW <= 0 {
		return Candidate{}, false
	}

	sig := 0.0
	if bg.Std > 0 {
		sig = peak / bg.Std
	}
	return Candidate{
		X:            sumWX / sumW,
		Y:            sumWY / sumW,
		Flux:         sumW,
		Peak:         peak,
		PixelCount:   n,
		Significance: sig,
	}, true
}

// A PairPolicy says how to reduce many candidates down to the two
// components of the target system. This heuristic has known failure
// modes (crowded fields, residual hot pixels), which is why it lives
// behind one function that can be swapped or tested on its own.
type PairPolicy struct {
	// HintX/HintY is the expected pixel position of the target,
	// when the caller supplied a reference sky position.
	HintX, HintY float64
	HaveHint     bool
	// MaxHintRadius bounds the companion search around the hint, in
	// pixels. Zero means unbounded.
	MaxHintRadius float64
	// CenterX/CenterY is the frame center, for flux tie-breaks.
	CenterX, CenterY float64
}

// SelectPair reduces the candidate list to (primary, secondary).
//
// With a hint, the candidate nearest the hint anchors the pair and
// its nearest neighbour within MaxHintRadius is the companion; the
// anchor is designated primary. Without a hint the two brightest
// win, flux ties going to the candidate nearer the frame center, and
// the brighter of the two is primary.
func SelectPair(cands []Candidate, pol PairPolicy) (Candidate, Candidate, error) {
	if len(cands) < 2 {
		return Candidate{}, Candidate{}, fmt.Errorf("%w: %d candidate(s)", ErrTooFewSources, len(cands))
	}

	if pol.HaveHint {
		byHint := append([]Candidate{}, cands...)
		sort.Slice(byHint, func(i, j int) bool {
			return pixDist(byHint[i], pol.HintX, pol.HintY) < pixDist(byHint[j], pol.HintX, pol.HintY)
		})
		anchor := byHint[0]

		best := -1
		bestDist := math.MaxFloat64
		for i := 1; i < len(byHint); i++ {
			d := math.Hypot(byHint[i].X-anchor.X, byHint[i].Y-anchor.Y)
			if pol.MaxHintRadius > 0 && d > pol.MaxHintRadius {
				continue
			}
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			return Candidate{}, Candidate{}, fmt.Errorf("%w: no companion within %.0fpx of hint",
				ErrTooFewSources, pol.MaxHintRadius)
		}
		return anchor, byHint[best], nil
	}

	byFlux := append([]Candidate{}, cands...)
	sort.Slice(byFlux, func(i, j int) bool {
		if byFlux[i].Flux != byFlux[j].Flux {
			return byFlux[i].Flux > byFlux[j].Flux
		}
		return pixDist(byFlux[i], pol.CenterX, pol.CenterY) < pixDist(byFlux[j], pol.CenterX, pol.CenterY)
	})
	return byFlux[0], byFlux[1], nil
}

func pixDist(c Candidate, x, y float64) float64 {
	return math.Hypot(c.X-x, c.Y-y)
}
