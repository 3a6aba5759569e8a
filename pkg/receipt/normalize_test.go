package receipt

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestNormalizeImageCapsLongestSide(t *testing.T) {
	v := newTestValidator()
	src := imaging.New(2400, 1200, color.NRGBA{255, 255, 255, 255})
	path := filepath.Join(t.TempDir(), "big.png")
	if err := imaging.Save(src, path); err != nil {
		t.Fatalf("save source: %v", err)
	}

	out, err := v.NormalizeImage(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	defer os.Remove(out)

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open normalized: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 1200 || b.Dy() != 600 {
		t.Fatalf("expected 1200x600 got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeImageKeepsSmallImages(t *testing.T) {
	v := newTestValidator()
	src := imaging.New(640, 480, color.NRGBA{255, 255, 255, 255})
	path := filepath.Join(t.TempDir(), "small.png")
	if err := imaging.Save(src, path); err != nil {
		t.Fatalf("save source: %v", err)
	}

	out, err := v.NormalizeImage(path)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	defer os.Remove(out)

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open normalized: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("expected 640x480 got %dx%d", b.Dx(), b.Dy())
	}
}

func TestNormalizeImageUnreadable(t *testing.T) {
	v := newTestValidator()
	path := filepath.Join(t.TempDir(), "not-an-image.jpg")
	if err := os.WriteFile(path, []byte("definitely not pixels"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := v.NormalizeImage(path)
	if !errors.Is(err, ErrImageUnreadable) {
		t.Fatalf("expected ErrImageUnreadable got %v", err)
	}
}
