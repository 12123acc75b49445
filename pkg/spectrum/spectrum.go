// Package spectrum provides colour gradients that map a scalar in [0, 1] to a colour.
package spectrum

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Spectrum is an immutable ordered list of evenly spaced colour stops
type Spectrum struct {
	stops []color.RGBA
}

// NewSpectrum creates a spectrum from at least two colour stops
func NewSpectrum(stops []color.RGBA) (*Spectrum, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("spectrum needs at least 2 colour stops, got %d", len(stops))
	}
	copied := make([]color.RGBA, len(stops))
	copy(copied, stops)
	return &Spectrum{stops: copied}, nil
}

// FromHex creates a spectrum from 0xRRGGBBAA encoded stops
func FromHex(stops ...uint32) (*Spectrum, error) {
	rgba := make([]color.RGBA, len(stops))
	for i, hex := range stops {
		rgba[i] = color.RGBA{
			R: uint8(hex >> 24),
			G: uint8(hex >> 16),
			B: uint8(hex >> 8),
			A: uint8(hex),
		}
	}
	return NewSpectrum(rgba)
}

// Constant creates a spectrum that samples to the same colour everywhere
func Constant(c color.RGBA) *Spectrum {
	return &Spectrum{stops: []color.RGBA{c, c}}
}

// Len returns the number of colour stops
func (s *Spectrum) Len() int {
	return len(s.stops)
}

// Sample returns the colour at t, clamped to [0, 1]
func (s *Spectrum) Sample(t float64) core.Colour {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))

	segments := len(s.stops) - 1
	scaled := t * float64(segments)
	index := int(math.Floor(scaled))
	if index >= segments {
		index = segments - 1
	}
	frac := scaled - float64(index)

	lo := core.ColourFromRGBA(s.stops[index])
	hi := core.ColourFromRGBA(s.stops[index+1])
	return lo.Lerp(hi, frac)
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
// Six-digit colours are opaque.
func ParseHex(text string) (color.RGBA, error) {
	hex := strings.TrimPrefix(text, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: expected 6 or 8 hex digits", text)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", text, err)
	}
	if len(hex) == 6 {
		value = value<<8 | 0xFF
	}
	return color.RGBA{
		R: uint8(value >> 24),
		G: uint8(value >> 16),
		B: uint8(value >> 8),
		A: uint8(value),
	}, nil
}

// Parse creates a spectrum from hex colour strings
func Parse(stops []string) (*Spectrum, error) {
	rgba := make([]color.RGBA, len(stops))
	for i, text := range stops {
		c, err := ParseHex(text)
		if err != nil {
			return nil, err
		}
		rgba[i] = c
	}
	return NewSpectrum(rgba)
}
