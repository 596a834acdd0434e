package fits

import (
	"fmt"
	"strconv"
	"strings"
)

// A Header holds the keyword records from a FITS header unit. FITS
// stores these as 80-byte card images: an 8-byte keyword, "= ", the
// value, and an optional "/ comment" trailer.
type Header struct {
	cards   map[string]string
	History []string
}

func NewHeader() *Header {
	return &Header{cards: map[string]string{}}
}

// parseCard digests one 80-byte card image. Cards that carry no
// keyword=value pair (COMMENT, blank keywords) are ignored, except
// HISTORY which is collected verbatim.
func (h *Header) parseCard(card string) {
	if strings.HasPrefix(card, "HISTORY") {
		h.History = append(h.History, strings.TrimSpace(card[7:]))
		return
	}
	if strings.HasPrefix(card, "COMMENT") || len(card) < 10 || card[8] != '=' {
		return
	}

	key := strings.TrimSpace(card[0:8])
	val := card[9:]

	// A quoted string value may contain '/', so strip the comment
	// only outside quotes.
	if i := strings.Index(val, "'"); i >= 0 {
		if j := strings.Index(val[i+1:], "'"); j >= 0 {
			val = val[i+1 : i+1+j]
			h.cards[key] = strings.TrimRight(val, " ")
			return
		}
	}
	if i := strings.Index(val, "/"); i >= 0 {
		val = val[:i]
	}
	h.cards[key] = strings.TrimSpace(val)
}

func (h *Header) Has(key string) bool {
	_, exists := h.cards[key]
	return exists
}

func (h *Header) Str(key string) string { return h.cards[key] }

func (h *Header) Int(key string) (int, error) {
	v, exists := h.cards[key]
	if !exists {
		return 0, fmt.Errorf("header has no %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("header %s=%q: %v", key, v, err)
	}
	return n, nil
}

func (h *Header) Float(key string) (float64, error) {
	v, exists := h.cards[key]
	if !exists {
		return 0, fmt.Errorf("header has no %s", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("header %s=%q: %v", key, v, err)
	}
	return f, nil
}

// FloatOr returns the value for key, or dflt when the key is absent
// or malformed. Used for the optional scaling/rotation keywords.
func (h *Header) FloatOr(key string, dflt float64) float64 {
	if f, err := h.Float(key); err == nil {
		return f
	}
	return dflt
}

// Bool follows the FITS logical convention: a single T or F.
func (h *Header) Bool(key string) bool { return h.cards[key] == "T" }
