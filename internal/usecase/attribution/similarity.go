package attribution

import (
	"strings"
	"unicode/utf8"
)

// Similarity scores two strings in [0,1].
// Inputs are compared lower-cased and trimmed. Containment short-circuits to the
// length ratio, everything else falls through to a bigram Dice coefficient.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter, longer := a, b
	ls, ll := la, lb
	if la > lb {
		shorter, longer = b, a
		ls, ll = lb, la
	}
	if strings.Contains(longer, shorter) {
		return float64(ls) / float64(ll)
	}

	denom := la + lb - 2
	if denom <= 0 {
		return 0
	}

	pool := make(map[string]int)
	for _, bg := range bigrams(a) {
		pool[bg]++
	}
	matches := 0
	for _, bg := range bigrams(b) {
		if pool[bg] > 0 {
			pool[bg]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(denom)
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}
