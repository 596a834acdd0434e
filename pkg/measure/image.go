package measure

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"

	"starpair/pkg/fits"
	"starpair/pkg/starfield"
)

// Calibration is the part of a plate solution the pipeline needs:
// both directions of the pixel/sky mapping, plus the plate scale for
// logs and search radii.
type Calibration interface {
	PixelToSky(x, y float64) (ra, dec float64)
	SkyToPixel(ra, dec float64) (x, y float64)
	PixelScale() float64
}

// An Image is one loaded, calibrated frame. The pipeline never
// mutates it; every stage reads the same grid.
type Image struct {
	Path  string
	Grid  *starfield.Grid
	Cal   Calibration
	Epoch time.Time // observation time, zero when unknown
}

// imageExts are the file types Load accepts; anything else in a batch
// directory is skipped.
var imageExts = map[string]bool{
	".fits": true, ".fit": true, ".fts": true,
	".tif": true, ".tiff": true,
}

// IsImagePath reports whether the filename looks like a frame the
// loader can handle.
func IsImagePath(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// Load reads pixel data and WCS calibration from an image file. FITS
// carries its own solution; TIFF frames (from plate solvers that
// leave the image untouched) need a YAML sidecar next to the file.
// A missing or singular plate solution fails here, before any
// detection work happens.
func Load(path string) (*Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		return loadFITS(path)
	case ".tif", ".tiff":
		return loadTIFF(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrBadFormat, filepath.Ext(path))
	}
}

func loadFITS(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	defer f.Close()

	ff, err := fits.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if ff.WCS == nil {
		return nil, fmt.Errorf("%w: %s has no plate solution", ErrNoCalibration, path)
	}

	return &Image{
		Path:  path,
		Grid:  starfield.GridFrom(ff.Pix, ff.Width, ff.Height),
		Cal:   ff.WCS,
		Epoch: ff.DateObs,
	}, nil
}

// wcsSidecar is the YAML shape written next to TIFF frames, mirroring
// the FITS keywords.
type wcsSidecar struct {
	CD1_1  float64 `yaml:"cd1_1"`
	CD1_2  float64 `yaml:"cd1_2"`
	CD2_1  float64 `yaml:"cd2_1"`
	CD2_2  float64 `yaml:"cd2_2"`
	CRPIX1 float64 `yaml:"crpix1"`
	CRPIX2 float64 `yaml:"crpix2"`
	CRVAL1 float64 `yaml:"crval1"`
	CRVAL2 float64 `yaml:"crval2"`
}

// SidecarPath returns where the plate-solution sidecar for a TIFF
// frame lives: image.tif -> image.wcs.yaml.
func SidecarPath(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".wcs.yaml"
}

func loadTIFF(path string) (*Image, error) {
	img := &Image{Path: path}

	// EXIF first: the observation timestamp matters for double-star
	// submissions. Absence is not an error.
	if reader, err := os.Open(path); err == nil {
		if ex, err := exif.Decode(reader); err == nil {
			if t, err := ex.DateTime(); err == nil {
				img.Epoch = t
			}
		}
		reader.Close()
	}

	reader, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	defer reader.Close()
	decoded, err := tiff.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: tiff decode %s: %v", ErrBadFormat, path, err)
	}
	img.Grid = grayGrid(decoded)

	sidecar := SidecarPath(path)
	contents, err := os.ReadFile(sidecar)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no plate solution (%s missing)",
			ErrNoCalibration, path, sidecar)
	}
	var sc wcsSidecar
	if err := yaml.Unmarshal(contents, &sc); err != nil {
		return nil, fmt.Errorf("%w: sidecar %s: %v", ErrNoCalibration, sidecar, err)
	}
	wcs, err := fits.NewLinearWCS(sc.CD1_1, sc.CD1_2, sc.CD2_1, sc.CD2_2,
		sc.CRPIX1, sc.CRPIX2, sc.CRVAL1, sc.CRVAL2)
	if err != nil {
		return nil, fmt.Errorf("%w: sidecar %s: %v", ErrNoCalibration, sidecar, err)
	}
	img.Cal = wcs

	return img, nil
}

// grayGrid maps image colors onto a luminance raster in the 16-bit
// range, matching what monochrome CCD frames look like.
func grayGrid(src image.Image) *starfield.Grid {
	b := src.Bounds()
	g := starfield.NewGrid(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, gr, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := float64(r)*0.2989 + float64(gr)*0.5870 + float64(bl)*0.1140
			g.Set(x, y, lum)
		}
	}
	return g
}
