package rule

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes user-entered text (titles, notes, target
// names) before persistence: surrounding whitespace is trimmed and the
// string is NFC normalized so visually identical input always stores as the
// same bytes.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
