package biblio

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	deweySubdivision = regexp.MustCompile(`^\d{3}\.\d+$`)
	deweyWhole       = regexp.MustCompile(`^\d{3}$`)
)

// MoreSpecific reports whether candidate is a more specific classification
// than baseline. It holds when candidate is more than two characters longer,
// when only candidate contains a period, or when candidate is a Dewey
// subdivision of a three digit baseline.
func MoreSpecific(candidate, baseline string) bool {
	if utf8.RuneCountInString(candidate) > utf8.RuneCountInString(baseline)+2 {
		return true
	}
	if strings.Contains(candidate, ".") && !strings.Contains(baseline, ".") {
		return true
	}
	return deweySubdivision.MatchString(candidate) && deweyWhole.MatchString(baseline)
}

// PickBest chooses between the current value and an ordered candidate list.
// A blank current yields the first candidate. Otherwise the first candidate
// more specific than current wins, and current is kept when none is.
func PickBest(current string, candidates []string) string {
	if strings.TrimSpace(current) == "" {
		if len(candidates) == 0 {
			return ""
		}
		return candidates[0]
	}
	for _, c := range candidates {
		if MoreSpecific(c, current) {
			return c
		}
	}
	return current
}

// Compatible reports whether a and b agree, ignoring case and whitespace,
// or one is a prefix of the other ("823.9" and "823.914").
func Compatible(a, b string) bool {
	a, b = squash(a), squash(b)
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func squash(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Assess derives the confidence label for a record whose classifications
// came from basic (may be nil) and set (may be nil). chosen holds the
// final value per scheme.
func Assess(basic *Fragment, set *ClassificationSet, chosen map[Scheme]string) Confidence {
	for _, s := range Schemes {
		contribs := set.Contributions(s)
		if v := strings.TrimSpace(basic.Value(s)); v != "" {
			contribs = append([]Contribution{{Source: basic.Source, Value: v}}, contribs...)
		}
		if corroborated(contribs) {
			return ConfidenceHigh
		}
	}
	for _, s := range Schemes {
		if strings.TrimSpace(chosen[s]) != "" || len(set.Candidates(s)) > 0 {
			return ConfidenceMedium
		}
	}
	return ConfidenceLow
}

func corroborated(contribs []Contribution) bool {
	for i := range contribs {
		for j := i + 1; j < len(contribs); j++ {
			if contribs[i].Source == contribs[j].Source {
				continue
			}
			if Compatible(contribs[i].Value, contribs[j].Value) {
				return true
			}
		}
	}
	return false
}
