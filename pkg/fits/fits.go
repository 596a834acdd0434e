// Package fits reads 2-D images from FITS files, the standard storage
// format for astronomical data, along with the WCS plate solution
// recorded in their headers.
//
// The reader covers the parts of the FITS 4.0 standard that
// plate-solved CCD frames actually use: a primary HDU holding a
// single 2-D image in any of the six BITPIX encodings, BSCALE/BZERO
// linear scaling, and the Greisen & Calabretta WCS keywords
// (A&A 395, 1061 and 1077, 2002).
package fits

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// FITS files are laid out in 2880-byte blocks; the data segment
// starts on a block boundary after the END card.
const blockSize = 2880

const cardSize = 80

// A File is one decoded FITS image: the raw header, the pixel raster
// as float64 (whatever the on-disk encoding), and the parsed WCS if
// the header carries one.
type File struct {
	Header *Header
	Width  int
	Height int
	Pix    []float64 // row-major, Width*Height values

	WCS *WCS // nil when the header has no plate solution

	DateObs time.Time // zero when DATE-OBS is absent
}

// At returns the pixel value at 0-based (x, y). y=0 is the first row
// of the data segment.
func (f *File) At(x, y int) float64 { return f.Pix[y*f.Width+x] }

// Read decodes the primary HDU of a FITS file. It fails on anything
// that is not a SIMPLE 2-D image; extensions after the primary HDU
// are ignored. A header without WCS keywords is not an error here -
// the caller decides whether calibration is required.
func Read(r io.Reader) (*File, error) {
	f := &File{Header: NewHeader()}

	nRead, err := readHeader(r, f.Header)
	if err != nil {
		return nil, err
	}

	if !f.Header.Bool("SIMPLE") {
		return nil, fmt.Errorf("not a standard FITS file (SIMPLE != T)")
	}
	naxis, err := f.Header.Int("NAXIS")
	if err != nil {
		return nil, err
	}
	if naxis != 2 {
		return nil, fmt.Errorf("only 2-D images supported, NAXIS=%d", naxis)
	}
	bitpix, err := f.Header.Int("BITPIX")
	if err != nil {
		return nil, err
	}
	if f.Width, err = f.Header.Int("NAXIS1"); err != nil {
		return nil, err
	}
	if f.Height, err = f.Header.Int("NAXIS2"); err != nil {
		return nil, err
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("bad image dimensions %dx%d", f.Width, f.Height)
	}

	// Skip padding up to the block boundary where the data starts.
	if pad := (blockSize - nRead%blockSize) % blockSize; pad > 0 {
		if _, err := io.ReadFull(r, make([]byte, pad)); err != nil {
			return nil, fmt.Errorf("header padding: %v", err)
		}
	}

	if err := f.readData(r, bitpix); err != nil {
		return nil, err
	}

	if wcs, err := NewWCS(f.Header); err == nil {
		f.WCS = wcs
	}

	if f.Header.Has("DATE-OBS") {
		f.DateObs = parseDateObs(f.Header.Str("DATE-OBS"))
	}

	return f, nil
}

// readHeader consumes card images until the END card, returning how
// many bytes were read.
func readHeader(r io.Reader, h *Header) (int, error) {
	card := make([]byte, cardSize)
	n := 0
	for {
		if _, err := io.ReadFull(r, card); err != nil {
			return n, fmt.Errorf("header truncated after %d bytes: %v", n, err)
		}
		n += cardSize
		s := string(card)
		if s[:3] == "END" && len(trimCard(s)) == 3 {
			return n, nil
		}
		h.parseCard(s)
	}
}

func trimCard(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func (f *File) readData(r io.Reader, bitpix int) error {
	bytesPer := bitpix / 8
	if bytesPer < 0 {
		bytesPer = -bytesPer
	}
	npix := f.Width * f.Height
	raw := make([]byte, npix*bytesPer)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("data segment truncated: %v", err)
	}

	f.Pix = make([]float64, npix)

	// FITS data is big-endian. Integer types are unsigned only for
	// BITPIX=8; BZERO shifts the rest when the camera wrote unsigned
	// values.
	switch bitpix {
	case 8:
		for i := range f.Pix {
			f.Pix[i] = float64(raw[i])
		}
	case 16:
		for i := range f.Pix {
			f.Pix[i] = float64(int16(binary.BigEndian.Uint16(raw[i*2:])))
		}
	case 32:
		for i := range f.Pix {
			f.Pix[i] = float64(int32(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case 64:
		for i := range f.Pix {
			f.Pix[i] = float64(int64(binary.BigEndian.Uint64(raw[i*8:])))
		}
	case -32:
		for i := range f.Pix {
			f.Pix[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case -64:
		for i := range f.Pix {
			f.Pix[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
		}
	default:
		return fmt.Errorf("unsupported BITPIX %d", bitpix)
	}

	bscale := f.Header.FloatOr("BSCALE", 1)
	bzero := f.Header.FloatOr("BZERO", 0)
	if bscale != 1 || bzero != 0 {
		for i := range f.Pix {
			f.Pix[i] = f.Pix[i]*bscale + bzero
		}
	}

	return nil
}

// parseDateObs accepts the two DATE-OBS forms seen in the wild:
// full ISO timestamps and bare dates.
func parseDateObs(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
