// Package match implements the applicability matchers for regulatory and
// geopolitical events: set intersection over an event's declared scope and
// the entity's country/sector/product attributes.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips diacritics so "Électronique" matches
// "electronique". Source labels mix French and English casing freely.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// containsFolded reports whether set contains value under folded comparison.
func containsFolded(set []string, value string) (string, bool) {
	fv := fold(value)
	if fv == "" {
		return "", false
	}
	for _, s := range set {
		if fold(s) == fv {
			return s, true
		}
	}
	return "", false
}

// intersectFolded returns the event-side values that exactly match any entity
// value under folded comparison.
func intersectFolded(eventSet, entitySet []string) []string {
	var matched []string
	for _, ev := range eventSet {
		if _, ok := containsFolded(entitySet, ev); ok {
			matched = append(matched, ev)
		}
	}
	return matched
}

// intersectSubstring returns the event-side values that partially match any
// entity value, in either direction. Substring matching is deliberate: event
// scopes name products coarsely ("rubber") while entity catalogs are specific
// ("rubberized coating"). False positives are a known fuzziness of this rule.
func intersectSubstring(eventSet, entitySet []string) []string {
	var matched []string
	for _, ev := range eventSet {
		fev := fold(ev)
		if fev == "" {
			continue
		}
		for _, en := range entitySet {
			fen := fold(en)
			if fen == "" {
				continue
			}
			if strings.Contains(fen, fev) || strings.Contains(fev, fen) {
				matched = append(matched, ev)
				break
			}
		}
	}
	return matched
}
