package effects

import (
	"testing"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// disc draws an opaque white square in the middle of a transparent buffer
func disc() *Buffer {
	b := NewBuffer(5, 5)
	white := core.NewColour(1, 1, 1, 1)
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			b.Set(x, y, white)
		}
	}
	return b
}

func TestOutlineMask(t *testing.T) {
	mask := OutlineMask(disc())

	expectedMarked := map[[2]int]bool{
		{1, 0}: true, {2, 0}: true, {3, 0}: true,
		{0, 1}: true, {0, 2}: true, {0, 3}: true,
		{4, 1}: true, {4, 2}: true, {4, 3}: true,
		{1, 4}: true, {2, 4}: true, {3, 4}: true,
	}

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			got := mask.At(x, y)
			if expectedMarked[[2]int{x, y}] {
				if got != core.NewColour(0, 0, 0, 1) {
					t.Errorf("Expected outline at (%d,%d), got %v", x, y, got)
				}
			} else if got != core.Transparent {
				t.Errorf("Expected no outline at (%d,%d), got %v", x, y, got)
			}
		}
	}
}

func TestOverlay(t *testing.T) {
	b := disc()
	out := Overlay(b)

	if out.At(2, 2) != core.NewColour(1, 1, 1, 1) {
		t.Errorf("Opaque interior should be untouched, got %v", out.At(2, 2))
	}
	if out.At(2, 0) != core.NewColour(0, 0, 0, 1) {
		t.Errorf("Edge pixel should be outlined, got %v", out.At(2, 0))
	}
	if out.At(0, 0) != core.Transparent {
		t.Errorf("Corner pixel has no differing neighbour, got %v", out.At(0, 0))
	}
	if b.At(2, 0) != core.Transparent {
		t.Error("Overlay must not modify its input")
	}
}

func TestApply(t *testing.T) {
	b := disc()

	if got := Apply(b, nil); got == b || got.At(2, 2) != b.At(2, 2) {
		t.Error("Apply with no effects should return an equal copy")
	}

	// A second outline marks the transparent pixels around the first mask
	twice := Apply(b, []Effect{Outline, Outline})
	if twice.At(2, 0) != core.Transparent {
		t.Errorf("Opaque mask pixels should not be marked again, got %v", twice.At(2, 0))
	}
	if twice.At(0, 0) != core.NewColour(0, 0, 0, 1) {
		t.Errorf("Expected corner to be outlined on the second pass, got %v", twice.At(0, 0))
	}
	if twice.At(2, 2) != core.Transparent {
		t.Errorf("Interior has no opaque neighbours in the first mask, got %v", twice.At(2, 2))
	}
}

func TestParseEffect(t *testing.T) {
	for _, effect := range []Effect{Outline, OutlineOverlay} {
		parsed, err := ParseEffect(effect.String())
		if err != nil || parsed != effect {
			t.Errorf("ParseEffect(%q) = %v, %v", effect.String(), parsed, err)
		}
	}
	if _, err := ParseEffect("blur"); err == nil {
		t.Error("Expected error for unknown effect")
	}
}
