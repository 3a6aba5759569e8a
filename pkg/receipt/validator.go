package receipt

import (
	"log"
	"os"
	"time"
)

// Recognizer converts a prepared image into raw text. Implementations wrap
// an external OCR engine; latency and accuracy are the engine's problem.
type Recognizer interface {
	Recognize(path string, language string) (string, error)
}

// Expected holds the payment parameters the receipt is checked against.
// Owned by the caller, never mutated here.
type Expected struct {
	ReferenceCode string
	Amount        float64
}

// Fields is the structured data pulled out of the OCR text. Every field is
// independently optional: nil means the signal was absent, which is a valid
// outcome, not an error.
type Fields struct {
	ReferenceCode *string
	Amount        *float64
	Date          *time.Time
	RawText       string
	Trace         Trace
}

// Trace records which extraction rule produced each field (empty when the
// field is absent), so callers and tests can see why a value was chosen.
type Trace struct {
	ReferenceRule string
	AmountRule    string
	DateRule      string
}

// Result is the trust signal handed back to the caller, which owns the
// decision thresholds (auto-accept / review / reject bands).
type Result struct {
	ReferenceCodeMatches bool `json:"reference_code_matches"`
	AmountMatches        bool `json:"amount_matches"`
	DatePlausible        bool `json:"date_plausible"`
	Confidence           int  `json:"confidence"`
}

// Validator runs the image -> text -> fields -> score pipeline. It is
// stateless per call; concurrent use is fine.
type Validator struct {
	profile    Profile
	rules      ruleSet
	recognizer Recognizer
}

func New(profile Profile, recognizer Recognizer) *Validator {
	return &Validator{
		profile:    profile,
		rules:      compileRules(profile),
		recognizer: recognizer,
	}
}

// Validate runs the full pipeline over the image at path. It returns the
// extracted fields alongside the result so the caller can show them during
// human review. Only decode failures (ErrImageUnreadable) and engine
// failures (ErrOCRUnavailable) surface as errors; missing or mismatching
// fields just lower the confidence.
func (v *Validator) Validate(path string, expected Expected, now time.Time) (Fields, Result, error) {
	normalized, err := v.NormalizeImage(path)
	if err != nil {
		return Fields{}, Result{}, err
	}
	defer os.Remove(normalized)

	text, err := v.recognizer.Recognize(normalized, v.profile.Language)
	if err != nil {
		return Fields{}, Result{}, err
	}

	fields := v.ExtractFields(text)
	result := v.Score(fields, expected, now)
	log.Printf("receipt validate %s: ref=%s amount=%s date=%s confidence=%d",
		path, fields.Trace.ReferenceRule, fields.Trace.AmountRule, fields.Trace.DateRule, result.Confidence)
	return fields, result, nil
}
