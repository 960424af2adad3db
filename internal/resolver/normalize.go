package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText lowercases s, strips diacritics, spells out '+' as "plus",
// replaces every other non-alphanumeric rune with a space and collapses
// whitespace. "Galaxy S21+ (Café)" becomes "galaxy s21 plus cafe".
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '+':
			b.WriteString(" plus ")
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokens splits folded text into words. Capacities are rewritten to their
// canonical label, joining a number split from a two-letter unit, so
// "256 gb" and "256G" both yield the token "256gb". A lone "g" or "t" after
// a number stays a word of its own.
func tokens(s string) []string {
	fields := strings.Fields(foldText(s))
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if i+1 < len(fields) && isDigits(f) && isStorageUnit(fields[i+1]) {
			f += fields[i+1]
			i++
		}
		if label, ok := parseStorage(f); ok {
			f = strings.ToLower(label)
		}
		out = append(out, f)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	toks := tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isStorageUnit(s string) bool {
	switch s {
	case "gb", "tb":
		return true
	}
	return false
}
