package measure

import (
	"log/slog"
	"sync"

	"starpair/pkg/astrometry"
	"starpair/pkg/starfield"
)

// A Pipeline runs the single-image measurement sequence: load,
// detect, refine, astrometry and photometry. It holds only the
// configuration and a logger, so one Pipeline can serve any number
// of images concurrently.
type Pipeline struct {
	Cfg Config
	Log *slog.Logger
}

func NewPipeline(cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{Cfg: cfg, Log: log}
}

// Analyze measures the double star in one image file. Any stage
// failure aborts the whole measurement; there are no partial results.
func (p *Pipeline) Analyze(path string) (*Result, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeImage(img)
}

// AnalyzeImage runs the pipeline on an already-loaded frame.
func (p *Pipeline) AnalyzeImage(img *Image) (*Result, error) {
	log := p.Log.With("image", img.Path)

	cands, bg := starfield.Detect(img.Grid, p.Cfg.detectParams())
	log.Debug("detection", "candidates", len(cands), "background", bg.String())

	pol := starfield.PairPolicy{
		CenterX: float64(img.Grid.Dx()) / 2,
		CenterY: float64(img.Grid.Dy()) / 2,
	}
	if p.Cfg.Hint != nil {
		hx, hy := img.Cal.SkyToPixel(p.Cfg.Hint.RA, p.Cfg.Hint.Dec)
		pol.HintX, pol.HintY = hx, hy
		pol.HaveHint = true
		pol.MaxHintRadius = p.Cfg.MaxHintRadius
		log.Debug("hint", "ra", p.Cfg.Hint.RA, "dec", p.Cfg.Hint.Dec, "x", hx, "y", hy)
	}

	primaryCand, secondaryCand, err := starfield.SelectPair(cands, pol)
	if err != nil {
		return nil, err
	}

	primary := StarMeasurement{RawX: primaryCand.X, RawY: primaryCand.Y}
	secondary := StarMeasurement{RawX: secondaryCand.X, RawY: secondaryCand.Y}

	cp := p.Cfg.centroidParams()
	if primary.X, primary.Y, err = starfield.RefineCentroid(img.Grid, primary.RawX, primary.RawY, cp); err != nil {
		return nil, err
	}
	if secondary.X, secondary.Y, err = starfield.RefineCentroid(img.Grid, secondary.RawX, secondary.RawY, cp); err != nil {
		return nil, err
	}
	log.Debug("centroids",
		"primary_raw_x", primary.RawX, "primary_raw_y", primary.RawY,
		"primary_x", primary.X, "primary_y", primary.Y,
		"secondary_x", secondary.X, "secondary_y", secondary.Y)

	// From here astrometry and photometry depend only on the two
	// refined centroids and the read-only grid, so the photometric
	// branch runs alongside the astrometric one.
	var dmag float64
	var photErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pp := p.Cfg.photometryParams()
		if primary.Phot, photErr = starfield.MeasureFlux(img.Grid, primary.X, primary.Y, pp); photErr != nil {
			return
		}
		if secondary.Phot, photErr = starfield.MeasureFlux(img.Grid, secondary.X, secondary.Y, pp); photErr != nil {
			return
		}
		dmag, photErr = starfield.DeltaMag(primary.Phot, secondary.Phot)
	}()

	ra, dec := img.Cal.PixelToSky(primary.X, primary.Y)
	primary.Sky = astrometry.SkyPos{RA: ra, Dec: dec}
	ra, dec = img.Cal.PixelToSky(secondary.X, secondary.Y)
	secondary.Sky = astrometry.SkyPos{RA: ra, Dec: dec}

	sep := astrometry.Separation(primary.Sky, secondary.Sky)
	pa := astrometry.PositionAngle(primary.Sky, secondary.Sky)

	wg.Wait()
	if photErr != nil {
		return nil, photErr
	}

	res := &Result{
		Path:             img.Path,
		Epoch:            img.Epoch,
		SeparationArcsec: sep,
		PositionAngleDeg: pa,
		DeltaMag:         dmag,
		Primary:          primary,
		Secondary:        secondary,
		Diag: Diagnostics{
			CandidateCount: len(cands),
			Background:     bg,
			PixelScaleAsec: img.Cal.PixelScale(),
		},
	}
	log.Debug("measured", "separation", sep, "angle", pa, "dmag", dmag)
	return res, nil
}
