package receipt

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// NormalizeImage re-encodes the upload into a bounded JPEG for OCR: longest
// side capped at Profile.MaxDimension (aspect ratio preserved), fixed
// quality. OCR accuracy is flat beyond that resolution, and unbounded
// uploads just burn memory and engine time. Returns the path of a temp
// file; the caller removes it.
func (v *Validator) NormalizeImage(path string) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}

	b := img.Bounds()
	if b.Dx() > v.profile.MaxDimension || b.Dy() > v.profile.MaxDimension {
		img = imaging.Fit(img, v.profile.MaxDimension, v.profile.MaxDimension, imaging.Lanczos)
	}

	tmp, err := os.CreateTemp("", "receipt-*.jpg")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	_ = tmp.Close()
	if err := imaging.Save(img, tmp.Name(), imaging.JPEGQuality(v.profile.JPEGQuality)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("save normalized image: %w", err)
	}
	return tmp.Name(), nil
}
