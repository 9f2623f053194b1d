package barcode

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeValue converts a decoded payload to NFC and drops control runes
// so it can be embedded in single-line info strings.
func NormalizeValue(v string) string {
	v = norm.NFC.String(v)
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, v))
}
