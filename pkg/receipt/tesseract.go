package receipt

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer runs Tesseract via gosseract. A fresh client per call
// keeps the recognizer safe for concurrent validations.
type TesseractRecognizer struct{}

func (TesseractRecognizer) Recognize(path string, language string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("%w: set language %q: %v", ErrOCRUnavailable, language, err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	return text, nil
}
