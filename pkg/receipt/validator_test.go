package receipt

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	text string
	err  error
}

func (f fakeRecognizer) Recognize(path string, language string) (string, error) {
	return f.text, f.err
}

func testImage(t *testing.T) string {
	t.Helper()
	img := imaging.New(800, 600, color.NRGBA{255, 255, 255, 255})
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestValidateEndToEnd(t *testing.T) {
	now := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	dated := now.AddDate(0, 0, -2).Format("02/01/2006")
	rec := fakeRecognizer{text: "Motif: WEB-3F9A2C\nMontant: 1 500 Ar\nDate: " + dated}
	v := New(DefaultProfile(), rec)

	fields, result, err := v.Validate(testImage(t), Expected{ReferenceCode: "WEB-3F9A2C", Amount: 1500}, now)
	require.NoError(t, err)
	require.NotNil(t, fields.ReferenceCode)
	assert.True(t, result.ReferenceCodeMatches)
	assert.True(t, result.AmountMatches)
	assert.True(t, result.DatePlausible)
	assert.Equal(t, 100, result.Confidence)
}

func TestValidateOCRFailure(t *testing.T) {
	rec := fakeRecognizer{err: fmt.Errorf("%w: engine exploded", ErrOCRUnavailable)}
	v := New(DefaultProfile(), rec)

	_, _, err := v.Validate(testImage(t), Expected{}, time.Now())
	assert.True(t, errors.Is(err, ErrOCRUnavailable))
}

func TestValidateUnreadableImage(t *testing.T) {
	v := New(DefaultProfile(), fakeRecognizer{text: "irrelevant"})
	_, _, err := v.Validate(filepath.Join(t.TempDir(), "missing.jpg"), Expected{}, time.Now())
	assert.True(t, errors.Is(err, ErrImageUnreadable))
}

func TestValidateIdempotent(t *testing.T) {
	now := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	rec := fakeRecognizer{text: "Motif: WEB-AA11BB Montant: 990 Ar"}
	v := New(DefaultProfile(), rec)
	path := testImage(t)
	exp := Expected{ReferenceCode: "WEB-AA11BB", Amount: 1000}

	f1, r1, err1 := v.Validate(path, exp, now)
	f2, r2, err2 := v.Validate(path, exp, now)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, f1, f2)
	assert.Equal(t, r1, r2)
}
