package measure_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"starpair/internal/testsupport"
	"starpair/pkg/measure"
)

func TestBatchMixedDirectory(t *testing.T) {
	dir := t.TempDir()
	pairFrame(t, dir, "a_pair.fits", 10)
	pairFrame(t, dir, "b_pair.fits", 12)

	// A blank frame fails measurement, a corrupt file fails loading,
	// and a text file is not an image at all.
	blank := testsupport.FlatField(64, 64, 100)
	testsupport.AddNoise(blank, 5, 9)
	testsupport.WriteFITS(t, dir, "c_blank.fits",
		testsupport.FITSBytes(64, 64, blank, testsupport.WCSCards(33, 33, 100, 0, 1.0, 0)...))
	if err := os.WriteFile(filepath.Join(dir, "d_corrupt.fits"), []byte("not a frame"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("observing log"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := measure.NewConfig()
	cfg.Jobs = 2
	entries, err := quietPipeline(cfg).Batch(dir)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	if len(entries) != 4 {
		t.Fatalf("got %d entries; want 4 image files", len(entries))
	}
	wantNames := []string{"a_pair.fits", "b_pair.fits", "c_blank.fits", "d_corrupt.fits"}
	for i, e := range entries {
		if filepath.Base(e.Path) != wantNames[i] {
			t.Errorf("entry %d = %s; want %s", i, filepath.Base(e.Path), wantNames[i])
		}
		if e.Index != i {
			t.Errorf("entry %d carries index %d", i, e.Index)
		}
	}
	if entries[0].Err != nil || entries[1].Err != nil {
		t.Errorf("good frames failed: %v / %v", entries[0].Err, entries[1].Err)
	}
	if entries[2].Err == nil || entries[3].Err == nil {
		t.Error("blank and corrupt frames should carry errors")
	}

	var buf bytes.Buffer
	if err := measure.WriteCSV(&buf, entries); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows; want header + 2 measurements:\n%v", len(rows), rows)
	}
	if rows[0][0] != "Index" || rows[0][4] != "Dmag" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "0" || rows[1][1] != "a_pair.fits" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][0] != "1" || rows[2][1] != "b_pair.fits" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestBatchMissingDirectory(t *testing.T) {
	if _, err := quietPipeline(measure.NewConfig()).Batch(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("want error for missing directory")
	}
}

func TestBatchEmptyDirectory(t *testing.T) {
	entries, err := quietPipeline(measure.NewConfig()).Batch(t.TempDir())
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from empty dir", len(entries))
	}
}

func TestIsImagePath(t *testing.T) {
	yes := []string{"a.fits", "b.FIT", "c.fts", "d.tif", "e.TIFF"}
	no := []string{"a.txt", "b.fits.bak", "c", "d.png"}
	for _, p := range yes {
		if !measure.IsImagePath(p) {
			t.Errorf("IsImagePath(%q) = false", p)
		}
	}
	for _, p := range no {
		if measure.IsImagePath(p) {
			t.Errorf("IsImagePath(%q) = true", p)
		}
	}
}

func TestSidecarPath(t *testing.T) {
	if got := measure.SidecarPath("frames/obs.tif"); got != "frames/obs.wcs.yaml" {
		t.Errorf("SidecarPath = %q", got)
	}
}
