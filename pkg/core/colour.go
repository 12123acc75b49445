package core

import (
	"image/color"
	"math"
)

// Colour is a linear RGBA colour with channels nominally in [0, 1]
type Colour struct {
	R, G, B, A float64
}

// NewColour creates a new colour
func NewColour(r, g, b, a float64) Colour {
	return Colour{R: r, G: g, B: b, A: a}
}

// Transparent is the colour returned for rays that leave the scene
var Transparent = Colour{}

// Add returns the channel-wise sum of two colours
func (c Colour) Add(other Colour) Colour {
	return Colour{c.R + other.R, c.G + other.G, c.B + other.B, c.A + other.A}
}

// Multiply scales every channel, including alpha
func (c Colour) Multiply(scalar float64) Colour {
	return Colour{c.R * scalar, c.G * scalar, c.B * scalar, c.A * scalar}
}

// Tint multiplies the colour channels by another colour, leaving alpha untouched
func (c Colour) Tint(other Colour) Colour {
	return Colour{c.R * other.R, c.G * other.G, c.B * other.B, c.A}
}

// Lerp linearly interpolates between c (t=0) and other (t=1)
func (c Colour) Lerp(other Colour, t float64) Colour {
	return c.Multiply(1 - t).Add(other.Multiply(t))
}

// Clamp returns the colour with every channel clamped to [0, 1]
func (c Colour) Clamp() Colour {
	return Colour{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// Over composites c over dst using standard alpha blending
func (c Colour) Over(dst Colour) Colour {
	alpha := c.A + dst.A*(1-c.A)
	if alpha <= 0 {
		return Transparent
	}
	return Colour{
		R: (c.R*c.A + dst.R*dst.A*(1-c.A)) / alpha,
		G: (c.G*c.A + dst.G*dst.A*(1-c.A)) / alpha,
		B: (c.B*c.A + dst.B*dst.A*(1-c.A)) / alpha,
		A: alpha,
	}
}

// NRGBA64 converts the colour into a 16-bit non-premultiplied colour
func (c Colour) NRGBA64() color.NRGBA64 {
	c = c.Clamp()
	return color.NRGBA64{
		R: uint16(math.Round(c.R * 0xffff)),
		G: uint16(math.Round(c.G * 0xffff)),
		B: uint16(math.Round(c.B * 0xffff)),
		A: uint16(math.Round(c.A * 0xffff)),
	}
}

// ColourFromNRGBA64 converts a 16-bit non-premultiplied colour back into a Colour
func ColourFromNRGBA64(c color.NRGBA64) Colour {
	return Colour{
		R: float64(c.R) / 0xffff,
		G: float64(c.G) / 0xffff,
		B: float64(c.B) / 0xffff,
		A: float64(c.A) / 0xffff,
	}
}

// ColourFromRGBA converts an 8-bit fixed-point colour into a Colour
func ColourFromRGBA(c color.RGBA) Colour {
	return Colour{
		R: float64(c.R) / 0xff,
		G: float64(c.G) / 0xff,
		B: float64(c.B) / 0xff,
		A: float64(c.A) / 0xff,
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
