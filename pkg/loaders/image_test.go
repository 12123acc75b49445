package loaders

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestSavePNG_LoadImage(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "frame.png")

	img := image.NewNRGBA64(image.Rect(0, 0, 2, 2))
	img.SetNRGBA64(0, 0, color.NRGBA64{R: 0xffff, G: 0xffff, B: 0xffff, A: 0xffff})
	img.SetNRGBA64(1, 0, color.NRGBA64{R: 0xffff, A: 0xffff})
	img.SetNRGBA64(0, 1, color.NRGBA64{G: 0x8000, A: 0x8000})
	// (1,1) stays fully transparent

	if err := SavePNG(filename, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	buffer, err := LoadImage(filename)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}

	if buffer.Width != 2 || buffer.Height != 2 {
		t.Fatalf("Expected 2x2 image, got %dx%d", buffer.Width, buffer.Height)
	}

	tests := []struct {
		x, y       int
		r, g, b, a float64
	}{
		{0, 0, 1, 1, 1, 1},
		{1, 0, 1, 0, 0, 1},
		{0, 1, 0, float64(0x8000) / 0xffff, 0, float64(0x8000) / 0xffff},
		{1, 1, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		c := buffer.At(tt.x, tt.y)
		if c.R != tt.r || c.G != tt.g || c.B != tt.b || c.A != tt.a {
			t.Errorf("Pixel (%d,%d): expected (%v,%v,%v,%v), got %v", tt.x, tt.y, tt.r, tt.g, tt.b, tt.a, c)
		}
	}
}

func TestLoadImage_Missing(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
