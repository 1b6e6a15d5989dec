// ABOUTME: Address normalization used to build stable cache keys
// ABOUTME: Folds accents, lower-cases and collapses whitespace
package geocode

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAddress returns the canonical form of an address.
func NormalizeAddress(address string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, address)
	if err != nil {
		folded = address
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
