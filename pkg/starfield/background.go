package starfield

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Background is a robust estimate of the sky level and pixel noise,
// from iteratively sigma-clipped statistics.
type Background struct {
	Mean   float64
	Median float64
	Std    float64
}

func (b Background) String() string {
	return fmt.Sprintf("bg[median=%.2f mean=%.2f std=%.2f]", b.Median, b.Mean, b.Std)
}

// EstimateBackground computes sigma-clipped mean/median/stddev over a
// sample of pixel values. Each iteration drops values more than
// sigma standard deviations from the median, until the kept set is
// stable or maxIters is reached. Stars occupy few pixels, so what
// survives clipping is sky.
func EstimateBackground(values []float64, sigma float64, maxIters int) Background {
	kept := make([]float64, len(values))
	copy(kept, values)
	sort.Float64s(kept)

	bg := Background{}
	for iter := 0; iter < maxIters; iter++ {
		if len(kept) < 2 {
			break
		}
		bg.Median = stat.Quantile(0.5, stat.Empirical, kept, nil)
		bg.Mean = stat.Mean(kept, nil)
		bg.Std = stat.StdDev(kept, nil)
		if bg.Std == 0 {
			break
		}

		lo := bg.Median - sigma*bg.Std
		hi := bg.Median + sigma*bg.Std
		iLo := sort.SearchFloat64s(kept, lo)
		iHi := sort.SearchFloat64s(kept, hi)
		if iLo == 0 && iHi == len(kept) {
			break
		}
		kept = kept[iLo:iHi]
	}
	return bg
}

// EstimateGridBackground clips over the whole frame.
func EstimateGridBackground(g *Grid, sigma float64, maxIters int) Background {
	return EstimateBackground(g.Values(), sigma, maxIters)
}
