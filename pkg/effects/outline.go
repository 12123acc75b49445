package effects

import (
	"fmt"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Effect is a post-processing pass
type Effect int

const (
	// Outline replaces the buffer with its edge mask
	Outline Effect = iota
	// OutlineOverlay draws the edge mask over the buffer
	OutlineOverlay
)

func (e Effect) String() string {
	switch e {
	case Outline:
		return "outline"
	case OutlineOverlay:
		return "outline_overlay"
	default:
		return fmt.Sprintf("Effect(%d)", int(e))
	}
}

// ParseEffect maps a scene file tag onto an Effect
func ParseEffect(name string) (Effect, error) {
	switch name {
	case "outline", "Outline":
		return Outline, nil
	case "outline_overlay", "OutlineOverlay":
		return OutlineOverlay, nil
	}
	return 0, fmt.Errorf("unknown effect %q", name)
}

var outlineColour = core.NewColour(0, 0, 0, 1)

// OutlineMask marks every pixel that is not fully opaque and differs from one
// of its four neighbours. Marked pixels are opaque black; the rest are transparent.
func OutlineMask(b *Buffer) *Buffer {
	mask := NewBuffer(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			current := b.At(x, y)
			if current.A == 1 {
				continue
			}
			if (x > 0 && b.At(x-1, y) != current) ||
				(x+1 < b.Width && b.At(x+1, y) != current) ||
				(y > 0 && b.At(x, y-1) != current) ||
				(y+1 < b.Height && b.At(x, y+1) != current) {
				mask.Set(x, y, outlineColour)
			}
		}
	}
	return mask
}

// Overlay composites the outline mask over the buffer
func Overlay(b *Buffer) *Buffer {
	mask := OutlineMask(b)
	out := b.Clone()
	for i, m := range mask.Pixels {
		if m.A > 0 {
			out.Pixels[i] = m.Over(out.Pixels[i])
		}
	}
	return out
}

// Apply runs the effects in order and returns the final buffer.
// The input buffer is left untouched.
func Apply(b *Buffer, effects []Effect) *Buffer {
	out := b
	for _, effect := range effects {
		switch effect {
		case Outline:
			out = OutlineMask(out)
		case OutlineOverlay:
			out = Overlay(out)
		}
	}
	if out == b {
		return b.Clone()
	}
	return out
}
