package receipt

import (
	"math"
	"strings"
	"time"
)

// Score compares extracted fields against the expected payment parameters.
// An absent field counts as a non-match on its axis, never as "skip": the
// weights are calibrated so all three signals saturate the scale, two of
// three land in the manual-review band, and fewer score low enough to
// reject.
func (v *Validator) Score(fields Fields, expected Expected, now time.Time) Result {
	var r Result

	if fields.ReferenceCode != nil {
		want := strings.ToUpper(strings.TrimSpace(expected.ReferenceCode))
		r.ReferenceCodeMatches = want != "" && *fields.ReferenceCode == want
	}
	if fields.Amount != nil {
		r.AmountMatches = math.Abs(*fields.Amount-expected.Amount) <= v.profile.Tolerance+1e-9
	}
	if fields.Date != nil {
		r.DatePlausible = dateWithinWindow(*fields.Date, now, v.profile.WindowDays)
	}

	if r.ReferenceCodeMatches {
		r.Confidence += v.profile.ReferenceWeight
	}
	if r.AmountMatches {
		r.Confidence += v.profile.AmountWeight
	}
	if r.DatePlausible {
		r.Confidence += v.profile.DateWeight
	}
	if r.Confidence > 100 {
		r.Confidence = 100
	}
	return r
}

// dateWithinWindow reports whether d falls inside the trailing window
// ending today. Comparison is at day granularity: today is plausible,
// tomorrow is not, exactly windowDays back is still plausible.
func dateWithinWindow(d, now time.Time, windowDays int) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		return false
	}
	return today.Sub(day) <= time.Duration(windowDays)*24*time.Hour
}
