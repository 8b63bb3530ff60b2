package cardindex

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// apostropheReplacer folds curly quotes that phone keyboards insert into the
// straight apostrophe used by Scryfall card names.
var apostropheReplacer = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"ʼ", "'", // modifier letter apostrophe
)

// NormalizeName returns the lookup key for a card name or a query pattern.
func NormalizeName(s string) string {
	s = apostropheReplacer.Replace(s)
	return norm.NFC.String(strings.ToLower(s))
}
