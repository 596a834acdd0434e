package fits

import (
	"fmt"
	"testing"
)

func card(key, value string) string {
	return fmt.Sprintf("%-8s= %-70s", key, value)[:80]
}

func TestHeaderCardParsing(t *testing.T) {
	h := NewHeader()
	h.parseCard(card("SIMPLE", "T"))
	h.parseCard(card("BITPIX", "16"))
	h.parseCard(card("CRVAL1", "100.25 / reference RA"))
	h.parseCard(card("CTYPE1", "'RA---TAN'          / projection"))
	h.parseCard(fmt.Sprintf("%-80s", "HISTORY solved by astrometry.net"))
	h.parseCard(fmt.Sprintf("%-80s", "COMMENT nothing to see here"))

	if !h.Bool("SIMPLE") {
		t.Error("SIMPLE should parse as true")
	}
	if n, err := h.Int("BITPIX"); err != nil || n != 16 {
		t.Errorf("BITPIX = %d, %v; want 16", n, err)
	}
	if f, err := h.Float("CRVAL1"); err != nil || f != 100.25 {
		t.Errorf("CRVAL1 = %g, %v; want 100.25 (comment stripped)", f, err)
	}
	if s := h.Str("CTYPE1"); s != "RA---TAN" {
		t.Errorf("CTYPE1 = %q; want quoted string unwrapped", s)
	}
	if len(h.History) != 1 || h.History[0] != "solved by astrometry.net" {
		t.Errorf("history = %v", h.History)
	}
	if h.Has("COMMENT") {
		t.Error("COMMENT cards should not become keywords")
	}
}

func TestHeaderMissingKeys(t *testing.T) {
	h := NewHeader()
	if _, err := h.Int("NAXIS"); err == nil {
		t.Error("want error for missing NAXIS")
	}
	if _, err := h.Float("CRVAL1"); err == nil {
		t.Error("want error for missing CRVAL1")
	}
	if got := h.FloatOr("BSCALE", 1.0); got != 1.0 {
		t.Errorf("FloatOr default = %g; want 1", got)
	}
}
