// Package chunk splits rendered text into transport-sized pieces.
package chunk

import "unicode/utf8"

// DefaultLimit is the maximum chunk size, in runes.
const DefaultLimit = 4096

// Split cuts text into ordered chunks of at most limit runes whose
// concatenation equals text byte for byte. A cut is placed after the last
// blank line inside the window, else after the last newline, else at the
// limit. Bytes that are not valid UTF-8 count as one rune each and are kept
// as is. Empty text yields no chunks; limit <= 0 means DefaultLimit.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var chunks []string
	for text != "" {
		cut := cutPoint(text, limit)
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}

// cutPoint returns the byte length of the next chunk of text.
func cutPoint(text string, limit int) int {
	end, blank, newline := 0, 0, 0
	prevNewline := false
	for n := 0; n < limit && end < len(text); n++ {
		r, w := utf8.DecodeRuneInString(text[end:])
		end += w
		if r == '\n' {
			if prevNewline {
				blank = end
			}
			newline = end
		}
		prevNewline = r == '\n'
	}

	switch {
	case end == len(text):
		return end
	case blank > 0:
		return blank
	case newline > 0:
		return newline
	default:
		return end
	}
}
