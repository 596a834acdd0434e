package measure

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"

	"starpair/pkg/starfield"
)

// A SkyHint is an expected sky position for the target system, used
// to pick the right pair out of a crowded frame.
type SkyHint struct {
	RA  float64
	Dec float64
}

// Config is every tunable the pipeline consumes, passed in
// explicitly so per-image analysis stays pure and a batch can run
// images in parallel without shared state.
type Config struct {
	// Detection
	DetectionSigma float64 // threshold above sky, in noise sigmas
	MinPixels      int     // smallest pixel group accepted as a star

	// Centroid refinement
	CentroidHalfWidth int
	CentroidEpsilon   float64 // convergence threshold, pixels
	CentroidMaxIters  int

	// Photometry, radii in pixels
	ApertureRadius float64
	AnnulusInner   float64
	AnnulusOuter   float64

	// Pair selection
	Hint          *SkyHint // nil: pick the two brightest
	MaxHintRadius float64  // companion search radius around the hint, pixels

	// Batch processing
	Jobs int // parallel workers; 0 means NumCPU

	// Diagnostics
	SaturationADU int64 // warn when pixels reach this level; 0 disables
}

// NewConfig returns the documented defaults: 5-sigma detection, a
// 4px aperture inside an 8-12px sky annulus, and an 11x11 centroid
// window.
func NewConfig() Config {
	return Config{
		DetectionSigma:    5.0,
		MinPixels:         3,
		CentroidHalfWidth: 5,
		CentroidEpsilon:   1e-3,
		CentroidMaxIters:  20,
		ApertureRadius:    4.0,
		AnnulusInner:      8.0,
		AnnulusOuter:      12.0,
		MaxHintRadius:     50.0,
		Jobs:              runtime.NumCPU(),
	}
}

// LoadConfig reads overrides from a YAML file on top of the defaults.
func LoadConfig(filename string) (Config, error) {
	c := NewConfig()
	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("config read %s: %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse %s: %v", filename, err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.DetectionSigma <= 0 {
		return fmt.Errorf("detectionsigma must be > 0, got %g", c.DetectionSigma)
	}
	if c.CentroidHalfWidth < 1 {
		return fmt.Errorf("centroidhalfwidth must be >= 1, got %d", c.CentroidHalfWidth)
	}
	if c.CentroidMaxIters < 1 {
		return fmt.Errorf("centroidmaxiters must be >= 1, got %d", c.CentroidMaxIters)
	}
	if c.ApertureRadius <= 0 {
		return fmt.Errorf("apertureradius must be > 0, got %g", c.ApertureRadius)
	}
	if c.AnnulusInner <= c.ApertureRadius {
		return fmt.Errorf("annulusinner (%g) must exceed apertureradius (%g)",
			c.AnnulusInner, c.ApertureRadius)
	}
	if c.AnnulusOuter <= c.AnnulusInner {
		return fmt.Errorf("annulusouter (%g) must exceed annulusinner (%g)",
			c.AnnulusOuter, c.AnnulusInner)
	}
	return nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("can't marshal config yaml: %v", err)
	}
	return string(b)
}

func (c Config) detectParams() starfield.DetectParams {
	return starfield.DetectParams{
		SigmaThreshold: c.DetectionSigma,
		MinPixels:      c.MinPixels,
	}
}

func (c Config) centroidParams() starfield.CentroidParams {
	return starfield.CentroidParams{
		HalfWidth: c.CentroidHalfWidth,
		Epsilon:   c.CentroidEpsilon,
		MaxIters:  c.CentroidMaxIters,
	}
}

func (c Config) photometryParams() starfield.PhotometryParams {
	return starfield.PhotometryParams{
		ApertureRadius: c.ApertureRadius,
		AnnulusInner:   c.AnnulusInner,
		AnnulusOuter:   c.AnnulusOuter,
	}
}
