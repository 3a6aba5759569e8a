package receipt

import (
	"regexp"
	"sort"
	"strings"
)

// rule is one extraction pattern. Rules are tried in order, most specific
// (label-anchored) first; the first rule that yields an acceptable value
// wins. Keeping them as a list rather than one mega-expression keeps each
// pattern testable on its own.
type rule struct {
	name string
	re   *regexp.Regexp
}

type ruleSet struct {
	reference []rule
	amount    []rule
	date      []rule
}

// numberPat matches grouped ("1 500", "1.500") or plain digits with an
// optional 1-2 digit decimal part.
const numberPat = `[0-9]{1,3}(?:[ .,][0-9]{3})*(?:[.,][0-9]{1,2})?|[0-9]+(?:[.,][0-9]{1,2})?`

const datePat = `([0-9]{1,2})[/.\-]([0-9]{1,2})[/.\-]([0-9]{4})`

func compileRules(p Profile) ruleSet {
	refLabels := labelAlternation(p.ReferenceLabels)
	amtLabels := labelAlternation(p.AmountLabels)
	dateLabels := labelAlternation(p.DateLabels)
	currency := labelAlternation(p.CurrencyWords)

	return ruleSet{
		reference: []rule{
			{"reference-label", regexp.MustCompile(`(?i)\b(?:` + refLabels + `)\b\s*[:\-.]?\s*([A-Za-z0-9][A-Za-z0-9\-]{3,23})`)},
			{"reference-bare", regexp.MustCompile(`\b([A-Za-z]{2,5}-[A-Za-z0-9]{4,12})\b`)},
		},
		amount: []rule{
			// Trailing boundary keeps a long id after the label from being
			// clipped to its first three digits.
			{"amount-label", regexp.MustCompile(`(?i)\b(?:` + amtLabels + `)\b\s*[:\-.]?\s*(?:` + currency + `)?\s*(` + numberPat + `)(?:[^0-9]|$)`)},
			{"amount-currency", regexp.MustCompile(`(?i)\b(` + numberPat + `)\s*(?:` + currency + `)\b`)},
		},
		date: []rule{
			{"date-label", regexp.MustCompile(`(?i)\b(?:` + dateLabels + `)\b\s*[:\-.]?\s*` + datePat)},
			{"date-bare", regexp.MustCompile(`\b` + datePat + `\b`)},
		},
	}
}

// labelAlternation builds a regex alternation from label words, longest
// first so "référence" is not swallowed by a leading "réf" prefix match.
func labelAlternation(labels []string) string {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, 0, len(sorted))
	for _, l := range sorted {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	return strings.Join(quoted, "|")
}
