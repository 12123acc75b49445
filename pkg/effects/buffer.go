// Package effects implements post-processing passes over finished pixel buffers.
package effects

import (
	"image"
	"image/color"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Buffer is a row-major grid of colours
type Buffer struct {
	Width  int
	Height int
	Pixels []core.Colour
}

// NewBuffer creates a transparent buffer
func NewBuffer(width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Pixels: make([]core.Colour, width*height)}
}

// At returns the colour at (x, y)
func (b *Buffer) At(x, y int) core.Colour {
	return b.Pixels[y*b.Width+x]
}

// Set stores the colour at (x, y)
func (b *Buffer) Set(x, y int, c core.Colour) {
	b.Pixels[y*b.Width+x] = c
}

// Clone returns a deep copy of the buffer
func (b *Buffer) Clone() *Buffer {
	pixels := make([]core.Colour, len(b.Pixels))
	copy(pixels, b.Pixels)
	return &Buffer{Width: b.Width, Height: b.Height, Pixels: pixels}
}

// Image converts the buffer into a 16-bit non-premultiplied image
func (b *Buffer) Image() *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetNRGBA64(x, y, b.At(x, y).NRGBA64())
		}
	}
	return img
}

// BufferFromImage reads any image into a buffer
func BufferFromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	b := NewBuffer(bounds.Dx(), bounds.Dy())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			b.Set(x, y, core.ColourFromNRGBA64(c))
		}
	}
	return b
}
