package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExtractFields runs the rule cascades over the OCR text. Each field is
// extracted independently; a miss on one never blocks the others, and no
// field being found at all is still a valid (empty) result.
func (v *Validator) ExtractFields(text string) Fields {
	fields := Fields{RawText: text}
	norm := normalizeText(text)

	if code, name, ok := v.extractReference(norm); ok {
		fields.ReferenceCode = &code
		fields.Trace.ReferenceRule = name
	}
	if amount, name, ok := v.extractAmount(norm); ok {
		fields.Amount = &amount
		fields.Trace.AmountRule = name
	}
	if date, name, ok := v.extractDate(norm); ok {
		fields.Date = &date
		fields.Trace.DateRule = name
	}
	return fields
}

// extractReference tries the label-anchored rule first, then the bare
// code-shape fallback. Candidates without a single digit are skipped: the
// payer-supplied codes are alphanumeric, and a pure word after "Motif:" is
// almost always prose ("paiement", a name), not the code.
func (v *Validator) extractReference(text string) (string, string, bool) {
	for _, r := range v.rules.reference {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			cand := strings.TrimSpace(m[1])
			if !strings.ContainsAny(cand, "0123456789") {
				continue
			}
			return strings.ToUpper(cand), r.name, true
		}
	}
	return "", "", false
}

// extractAmount walks the amount rules in priority order and keeps the
// first candidate inside the plausibility bounds. OCR noise routinely
// yields digit runs (phone numbers, transaction ids) that parse fine but
// are absurd as transfer amounts; those fall through to the next candidate.
func (v *Validator) extractAmount(text string) (float64, string, bool) {
	for _, r := range v.rules.amount {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			amount, err := parseAmount(m[1])
			if err != nil {
				continue
			}
			if amount < v.profile.MinAmount || amount > v.profile.MaxAmount {
				continue
			}
			return amount, r.name, true
		}
	}
	return 0, "", false
}

// extractDate looks for day-month-year patterns and rejects impossible
// calendar values, continuing to the next match instead of failing. The
// accepted value is normalized to a UTC calendar date.
func (v *Validator) extractDate(text string) (time.Time, string, bool) {
	for _, r := range v.rules.date {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			day, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if day < 1 || day > 31 || month < 1 || month > 12 {
				continue
			}
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			return d, r.name, true
		}
	}
	return time.Time{}, "", false
}

// parseAmount converts a matched number string into currency units. A
// trailing separator followed by exactly 3 digits is thousands grouping
// ("1.500" -> 1500); 1-2 digits make a decimal part ("12,50" -> 12.5).
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	last := strings.LastIndexAny(s, ".,")
	if last == -1 {
		return strconv.ParseFloat(s, 64)
	}
	frac := s[last+1:]
	if len(frac) == 3 {
		// grouping separator
		return strconv.ParseFloat(onlyDigits(s), 64)
	}
	whole, err := strconv.ParseFloat(onlyDigits(s[:last]), 64)
	if err != nil {
		return 0, err
	}
	dec, err := strconv.ParseFloat(frac, 64)
	if err != nil {
		return 0, err
	}
	for range frac {
		dec /= 10
	}
	return whole + dec, nil
}

// onlyDigits strips everything but decimal digits.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// normalizeText collapses whitespace so the patterns see one clean line.
func normalizeText(t string) string {
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	return strings.Join(strings.Fields(t), " ")
}
