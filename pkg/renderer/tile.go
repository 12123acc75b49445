package renderer

import (
	"image"
	"math/rand"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/integrator"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	X, Y   int             // Grid coordinate
	Bounds image.Rectangle // Pixel bounds
}

// Index returns the tile's position in row-major grid order
func (t Tile) Index(numTiles [2]int) int {
	return t.Y*numTiles[0] + t.X
}

// Partition splits a width×height image into nx×ny near-equal tiles in
// row-major order. The last row and column absorb any remainder, so every
// pixel belongs to exactly one tile.
func Partition(width, height, nx, ny int) []Tile {
	if width <= 0 || height <= 0 || nx <= 0 || ny <= 0 {
		return nil
	}
	nx, ny = min(nx, width), min(ny, height)

	tileWidth := width / nx
	tileHeight := height / ny

	tiles := make([]Tile, 0, nx*ny)
	for ty := 0; ty < ny; ty++ {
		y0 := ty * tileHeight
		y1 := y0 + tileHeight
		if ty == ny-1 {
			y1 = height
		}
		for tx := 0; tx < nx; tx++ {
			x0 := tx * tileWidth
			x1 := x0 + tileWidth
			if tx == nx-1 {
				x1 = width
			}
			tiles = append(tiles, Tile{X: tx, Y: ty, Bounds: image.Rect(x0, y0, x1, y1)})
		}
	}
	return tiles
}

// tileSeed derives a deterministic RNG seed for one tile in one loop
func tileSeed(tile Tile, numTiles [2]int, loop int) int64 {
	return int64(loop*numTiles[0]*numTiles[1]+tile.Index(numTiles)) + 42 // +42 to avoid seed 0
}

// renderTile evaluates every pixel of the tile. Sub-samples sit at the centres
// of an SxS grid inside each pixel unless the engine jitters them.
func renderTile(cam *Camera, ev *integrator.Evaluator, tile Tile, random *rand.Rand) []core.Colour {
	bounds := tile.Bounds
	pixels := make([]core.Colour, 0, bounds.Dx()*bounds.Dy())

	ss := cam.SuperSamples
	inv := 1.0 / float64(ss*ss)
	jitter := cam.Engine.Jitters()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum := core.Colour{}
			for sy := 0; sy < ss; sy++ {
				for sx := 0; sx < ss; sx++ {
					ox, oy := 0.5, 0.5
					if jitter {
						ox, oy = random.Float64(), random.Float64()
					}
					ray := cam.Ray(x, y, (float64(sx)+ox)/float64(ss), (float64(sy)+oy)/float64(ss))
					sum = sum.Add(ev.Evaluate(ray))
				}
			}
			pixels = append(pixels, quantize(sum.Multiply(inv)))
		}
	}
	return pixels
}

// quantize rounds a colour to checkpoint precision so rendered and resumed
// tiles hold identical values
func quantize(c core.Colour) core.Colour {
	return core.ColourFromNRGBA64(c.NRGBA64())
}
