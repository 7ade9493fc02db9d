package segy

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// TextEncoding selects how the 3200-byte textual header is interpreted.
type TextEncoding string

const (
	TextEBCDIC TextEncoding = "ebcdic"
	TextASCII  TextEncoding = "ascii"
	// TextAuto picks EBCDIC when the header starts with an EBCDIC 'C' card marker
	TextAuto TextEncoding = "auto"
)

const (
	cardCount = 40
	cardWidth = 80
	ebcdicC   = 0xC3
)

// DecodeTextHeader splits the textual header into its 40 80-column cards,
// decoding from EBCDIC (code page 037) when requested.
func DecodeTextHeader(raw []byte, enc TextEncoding) []string {
	if len(raw) > TextHeaderSize {
		raw = raw[:TextHeaderSize]
	}

	text := []rune(string(raw))
	if enc == TextEBCDIC || (enc == TextAuto && len(raw) > 0 && raw[0] == ebcdicC) {
		decoded, err := charmap.CodePage037.NewDecoder().Bytes(raw)
		if err == nil {
			text = []rune(string(decoded))
		}
	}

	cards := make([]string, 0, cardCount)
	for i := 0; i < cardCount; i++ {
		start := i * cardWidth
		if start >= len(text) {
			break
		}
		end := min(start+cardWidth, len(text))
		card := strings.Map(func(r rune) rune {
			if r < 0x20 || r == 0xfffd {
				return ' '
			}
			return r
		}, string(text[start:end]))
		cards = append(cards, strings.TrimRight(card, " "))
	}

	// Drop trailing blank cards
	for len(cards) > 0 && cards[len(cards)-1] == "" {
		cards = cards[:len(cards)-1]
	}
	return cards
}
