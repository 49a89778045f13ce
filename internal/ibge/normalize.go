package ibge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeLabel uppercases a header or name cell and strips diacritics so
// "POPULAÇÃO ESTIMADA" and "POPULACAO ESTIMADA" compare equal. The transform
// chain is stateful, so a fresh one is built per call.
func normalizeLabel(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}
