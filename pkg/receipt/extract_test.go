package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return New(DefaultProfile(), nil)
}

func TestExtractFieldsFullReceipt(t *testing.T) {
	v := newTestValidator()
	text := "BANQUE ATLANTIQUE\nVirement effectué\nMotif: WEB-3F9A2C\nMontant: 1 500 Ar\nDate: 12/05/2026\nRRN 40123456789012"

	f := v.ExtractFields(text)

	require.NotNil(t, f.ReferenceCode)
	assert.Equal(t, "WEB-3F9A2C", *f.ReferenceCode)
	assert.Equal(t, "reference-label", f.Trace.ReferenceRule)

	require.NotNil(t, f.Amount)
	assert.Equal(t, 1500.0, *f.Amount)
	assert.Equal(t, "amount-label", f.Trace.AmountRule)

	require.NotNil(t, f.Date)
	assert.Equal(t, time.Date(2026, time.May, 12, 0, 0, 0, 0, time.UTC), *f.Date)
	assert.Equal(t, "date-label", f.Trace.DateRule)

	assert.Equal(t, text, f.RawText)
}

func TestExtractFieldsFallbackRules(t *testing.T) {
	v := newTestValidator()
	// Labels mangled by OCR; only bare shapes remain.
	text := "B4NQUE ... WEB-9D21AB ... 2 750 Ar ... 03-04-2026"

	f := v.ExtractFields(text)

	require.NotNil(t, f.ReferenceCode)
	assert.Equal(t, "WEB-9D21AB", *f.ReferenceCode)
	assert.Equal(t, "reference-bare", f.Trace.ReferenceRule)

	require.NotNil(t, f.Amount)
	assert.Equal(t, 2750.0, *f.Amount)
	assert.Equal(t, "amount-currency", f.Trace.AmountRule)

	require.NotNil(t, f.Date)
	assert.Equal(t, time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC), *f.Date)
	assert.Equal(t, "date-bare", f.Trace.DateRule)
}

func TestExtractFieldsGarbageText(t *testing.T) {
	v := newTestValidator()
	f := v.ExtractFields("lorem ipsum dolor sit amet consectetur")
	assert.Nil(t, f.ReferenceCode)
	assert.Nil(t, f.Amount)
	assert.Nil(t, f.Date)
	assert.Equal(t, Trace{}, f.Trace)
}

func TestExtractFieldsAreIndependent(t *testing.T) {
	v := newTestValidator()
	// Amount only; missing code and date must not block it.
	f := v.ExtractFields("Montant: 980 Ar")
	assert.Nil(t, f.ReferenceCode)
	assert.Nil(t, f.Date)
	require.NotNil(t, f.Amount)
	assert.Equal(t, 980.0, *f.Amount)
}

func TestExtractAmountPlausibilityFilter(t *testing.T) {
	v := newTestValidator()
	// The labeled number is a transaction id, far beyond the plausible
	// range; the bare currency fallback should win instead.
	f := v.ExtractFields("Total: 40123456789 ... frais inclus 1 500 Ar")
	require.NotNil(t, f.Amount)
	assert.Equal(t, 1500.0, *f.Amount)
	assert.Equal(t, "amount-currency", f.Trace.AmountRule)
}

func TestExtractAmountRejectsOutOfBounds(t *testing.T) {
	v := newTestValidator()
	for _, text := range []string{"Montant: 12 Ar", "Montant: 950 000 Ar"} {
		f := v.ExtractFields(text)
		assert.Nil(t, f.Amount, "text %q", text)
	}
}

func TestExtractDateSkipsInvalidCalendarValues(t *testing.T) {
	v := newTestValidator()
	f := v.ExtractFields("brouillon 45/13/2026 corrigé 02/03/2026")
	require.NotNil(t, f.Date)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), *f.Date)
}

func TestExtractReferenceSkipsProseAfterLabel(t *testing.T) {
	v := newTestValidator()
	// "paiement" has no digit so it cannot be the code; the bare shape
	// later in the text should be picked up.
	f := v.ExtractFields("Motif: paiement site WEB-77A0C1")
	require.NotNil(t, f.ReferenceCode)
	assert.Equal(t, "WEB-77A0C1", *f.ReferenceCode)
}

func TestExtractReferenceNormalizesCase(t *testing.T) {
	v := newTestValidator()
	f := v.ExtractFields("motif: web-3f9a2c")
	require.NotNil(t, f.ReferenceCode)
	assert.Equal(t, "WEB-3F9A2C", *f.ReferenceCode)
}

func TestExtractFieldsIdempotent(t *testing.T) {
	v := newTestValidator()
	text := "Motif: WEB-3F9A2C Montant: 1.500,00 Ar Date: 12/05/2026"
	first := v.ExtractFields(text)
	second := v.ExtractFields(text)
	assert.Equal(t, first, second)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1500", 1500},
		{"1 500", 1500},
		{"1.500", 1500},
		{"1,500", 1500},
		{"1.500,00", 1500},
		{"1,500.00", 1500},
		{"980,50", 980.5},
		{"75.5", 75.5},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
	}
}
