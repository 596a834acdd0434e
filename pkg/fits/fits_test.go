package fits_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"starpair/internal/testsupport"
	"starpair/pkg/fits"
)

func TestReadImageAndWCS(t *testing.T) {
	pix := testsupport.FlatField(8, 4, 100)
	pix[2*8+5] = 512.5 // (x=5, y=2)

	cards := testsupport.WCSCards(4.5, 2.5, 100, 0, 1.0, 0)
	cards = append(cards, testsupport.Card("DATE-OBS", "'2025-02-18T03:14:15'"))
	b := testsupport.FITSBytes(8, 4, pix, cards...)

	f, err := fits.Read(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Width != 8 || f.Height != 4 {
		t.Fatalf("dimensions %dx%d; want 8x4", f.Width, f.Height)
	}
	if got := f.At(5, 2); got != 512.5 {
		t.Errorf("At(5,2) = %g; want 512.5", got)
	}
	if got := f.At(0, 0); got != 100 {
		t.Errorf("At(0,0) = %g; want 100", got)
	}
	if f.WCS == nil {
		t.Fatal("WCS should be present")
	}
	if f.DateObs.IsZero() || f.DateObs.Year() != 2025 {
		t.Errorf("DateObs = %v; want 2025 timestamp", f.DateObs)
	}
}

func TestReadWithoutWCS(t *testing.T) {
	b := testsupport.FITSBytes(4, 4, testsupport.FlatField(4, 4, 7))
	f, err := fits.Read(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.WCS != nil {
		t.Error("WCS should be nil when no keywords present")
	}
}

func TestReadInt16WithScaling(t *testing.T) {
	// Hand-build a BITPIX=16 file using BZERO to store unsigned
	// camera values, the most common real-world encoding.
	header := testsupport.Card("SIMPLE", "T") +
		testsupport.Card("BITPIX", "16") +
		testsupport.Card("NAXIS", "2") +
		testsupport.Card("NAXIS1", "2") +
		testsupport.Card("NAXIS2", "1") +
		testsupport.Card("BSCALE", "1") +
		testsupport.Card("BZERO", "32768") +
		fmt.Sprintf("%-80s", "END")
	header += strings.Repeat(" ", 2880-len(header))

	data := make([]byte, 2880)
	stored0 := int16(-32768)
	binary.BigEndian.PutUint16(data[0:], uint16(stored0))     // stored 0 ADU
	binary.BigEndian.PutUint16(data[2:], uint16(int16(1232))) // stored 34000 ADU

	f, err := fits.Read(bytes.NewReader(append([]byte(header), data...)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := f.At(0, 0); got != 0 {
		t.Errorf("At(0,0) = %g; want 0", got)
	}
	if got := f.At(1, 0); got != 34000 {
		t.Errorf("At(1,0) = %g; want 34000", got)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := fits.Read(bytes.NewReader([]byte("not a fits file"))); err == nil {
		t.Error("want error for truncated garbage")
	}

	// A full header that is not SIMPLE.
	header := testsupport.Card("SIMPLE", "F") +
		testsupport.Card("BITPIX", "8") +
		testsupport.Card("NAXIS", "2") +
		testsupport.Card("NAXIS1", "1") +
		testsupport.Card("NAXIS2", "1") +
		fmt.Sprintf("%-80s", "END")
	header += strings.Repeat(" ", 2880-len(header))
	if _, err := fits.Read(bytes.NewReader([]byte(header))); err == nil {
		t.Error("want error for SIMPLE=F")
	}
}

func TestWCSErrorsAreNoWCS(t *testing.T) {
	// Singular CD matrix: both rows identical.
	cards := []string{
		testsupport.Card("CRPIX1", "1"), testsupport.Card("CRPIX2", "1"),
		testsupport.Card("CRVAL1", "10"), testsupport.Card("CRVAL2", "20"),
		testsupport.Card("CD1_1", "1e-4"), testsupport.Card("CD1_2", "2e-4"),
		testsupport.Card("CD2_1", "1e-4"), testsupport.Card("CD2_2", "2e-4"),
	}
	b := testsupport.FITSBytes(2, 2, testsupport.FlatField(2, 2, 0), cards...)
	f, err := fits.Read(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.WCS != nil {
		t.Error("singular CD matrix should not produce a WCS")
	}

	if _, err := fits.NewLinearWCS(1e-4, 2e-4, 1e-4, 2e-4, 1, 1, 10, 20); !errors.Is(err, fits.ErrNoWCS) {
		t.Errorf("NewLinearWCS singular: err = %v; want ErrNoWCS", err)
	}
}
