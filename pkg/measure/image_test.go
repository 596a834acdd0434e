package measure_test

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"starpair/pkg/measure"
)

func writeGrayTIFF(t *testing.T, dir, name string, width, height int, set func(x, y int) uint16) string {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := set(x, y)
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("tiff encode: %v", err)
	}
	return path
}

func TestLoadTIFFWithSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeGrayTIFF(t, dir, "obs.tif", 32, 16, func(x, y int) uint16 {
		if x == 5 && y == 3 {
			return 40000
		}
		return 1000
	})

	sidecar := "cd1_1: 2.7778e-4\ncd1_2: 0\ncd2_1: 0\ncd2_2: 2.7778e-4\n" +
		"crpix1: 16\ncrpix2: 8\ncrval1: 100\ncrval2: 0\n"
	if err := os.WriteFile(measure.SidecarPath(path), []byte(sidecar), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := measure.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Grid.Dx() != 32 || img.Grid.Dy() != 16 {
		t.Fatalf("grid %dx%d; want 32x16", img.Grid.Dx(), img.Grid.Dy())
	}
	// Gray pixels survive the luminance mapping unweighted.
	if got := img.Grid.Get(5, 3); math.Abs(got-40000) > 40 {
		t.Errorf("bright pixel = %g; want ~40000", got)
	}
	if math.Abs(img.Cal.PixelScale()-1.0) > 0.01 {
		t.Errorf("pixel scale = %g; want ~1\"/px", img.Cal.PixelScale())
	}
}

func TestLoadTIFFWithoutSidecar(t *testing.T) {
	path := writeGrayTIFF(t, t.TempDir(), "bare.tif", 8, 8, func(x, y int) uint16 { return 1000 })
	if _, err := measure.Load(path); !errors.Is(err, measure.ErrNoCalibration) {
		t.Errorf("err = %v; want ErrNoCalibration", err)
	}
}
