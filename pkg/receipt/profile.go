package receipt

// Profile bundles every format-specific constant the validator depends on:
// the OCR language, the label words printed on the bank's receipts, the
// plausible amount bounds, the matching tolerance and date window, and the
// score weights. Retargeting the validator to another bank/locale means
// supplying a different Profile, not touching the extraction code.
type Profile struct {
	// Language is the Tesseract language code the receipts are printed in.
	Language string

	// MaxDimension caps the longest image side before OCR. JPEGQuality is
	// the re-encode quality for the normalized copy.
	MaxDimension int
	JPEGQuality  int

	// Label words that anchor the high-priority extraction rules.
	ReferenceLabels []string
	AmountLabels    []string
	CurrencyWords   []string
	DateLabels      []string

	// MinAmount/MaxAmount bound what counts as a plausible transaction;
	// OCR noise regularly produces digit garbage outside this range.
	MinAmount float64
	MaxAmount float64

	// Tolerance is the absolute amount slack (bank fees get added or
	// subtracted from the nominal transfer).
	Tolerance float64

	// WindowDays is how far back a transaction date may lie and still be
	// considered plausible. Future dates are never plausible.
	WindowDays int

	// Score weights. The reference code is the strongest signal (the payer
	// types it deliberately), the amount next, the date weakest.
	ReferenceWeight int
	AmountWeight    int
	DateWeight      int
}

// DefaultProfile targets the French-language transfer receipts our clients
// upload: the reference appears after "Motif"/"Réf", the amount after
// "Montant"/"Total".
func DefaultProfile() Profile {
	return Profile{
		Language:        "fra",
		MaxDimension:    1200,
		JPEGQuality:     85,
		ReferenceLabels: []string{"motif", "reference", "référence", "ref", "réf"},
		AmountLabels:    []string{"montant", "total", "somme"},
		CurrencyWords:   []string{"ar", "mga"},
		DateLabels:      []string{"date", "le"},
		MinAmount:       50,
		MaxAmount:       10000,
		Tolerance:       10,
		WindowDays:      30,
		ReferenceWeight: 50,
		AmountWeight:    30,
		DateWeight:      20,
	}
}
