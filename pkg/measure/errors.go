package measure

import (
	"errors"

	"starpair/pkg/starfield"
)

// The pipeline fails with exactly one of these kinds. They are
// deterministic properties of the image content, so the orchestrator
// never retries; callers pick them apart with errors.Is.
var (
	// ErrBadFormat: the file is unreadable or not a supported image.
	ErrBadFormat = errors.New("unreadable or malformed image")

	// ErrNoCalibration: no usable WCS plate solution. Raised at load
	// time, before any detection work runs.
	ErrNoCalibration = errors.New("no usable WCS calibration")

	// Detection, centroiding and photometry failures propagate from
	// the package that produced them.
	ErrTooFewSources    = starfield.ErrTooFewSources
	ErrCentroidDiverged = starfield.ErrCentroidDiverged
	ErrNonPositiveFlux  = starfield.ErrNonPositiveFlux
)
