package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Checkpoints stores finished tiles as 16-bit PNGs under
// <root>/<camera>/loop_NNN/tile_XXXXXX_YYYYYY.png
type Checkpoints struct {
	Root string
}

// NewCheckpoints creates a checkpoint store rooted at dir
func NewCheckpoints(dir string) *Checkpoints {
	return &Checkpoints{Root: dir}
}

// LoopDir returns the directory holding one camera's tiles for one loop
func (c *Checkpoints) LoopDir(camera string, loop int) string {
	return filepath.Join(c.Root, camera, fmt.Sprintf("loop_%03d", loop))
}

// Path returns the checkpoint file for a tile
func (c *Checkpoints) Path(camera string, loop, x, y int) string {
	return filepath.Join(c.LoopDir(camera, loop), fmt.Sprintf("tile_%06d_%06d.png", x, y))
}

// Exists reports whether a checkpoint has been written for tile (x, y)
func (c *Checkpoints) Exists(camera string, loop, x, y int) bool {
	info, err := os.Stat(c.Path(camera, loop, x, y))
	return err == nil && info.Mode().IsRegular()
}

// Load reads a tile's pixels back from its checkpoint
func (c *Checkpoints) Load(camera string, loop int, tile Tile) ([]core.Colour, error) {
	path := c.Path(camera, loop, tile.X, tile.Y)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() != tile.Bounds.Dx() || b.Dy() != tile.Bounds.Dy() {
		return nil, fmt.Errorf("checkpoint %s is %dx%d, expected %dx%d",
			path, b.Dx(), b.Dy(), tile.Bounds.Dx(), tile.Bounds.Dy())
	}

	pixels := make([]core.Colour, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, core.ColourFromNRGBA64(nrgba64At(img, x, y)))
		}
	}
	return pixels, nil
}

// Save writes a tile's pixels. The file is written under a temporary name
// and renamed, so a partially written checkpoint is never visible.
func (c *Checkpoints) Save(camera string, loop int, tile Tile, pixels []core.Colour) error {
	w, h := tile.Bounds.Dx(), tile.Bounds.Dy()
	if len(pixels) != w*h {
		return fmt.Errorf("tile (%d,%d) has %d pixels, expected %d", tile.X, tile.Y, len(pixels), w*h)
	}

	dir := c.LoopDir(camera, loop)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for i, p := range pixels {
		img.SetNRGBA64(i%w, i/w, p.NRGBA64())
	}

	tmp, err := os.CreateTemp(dir, ".tile-*.png")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(camera, loop, tile.X, tile.Y)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store checkpoint: %w", err)
	}
	return nil
}

// Progress counts the checkpoints present for each loop of a camera
func (c *Checkpoints) Progress(cam *Camera, loops int) []int {
	tiles := Partition(cam.Width, cam.Height, cam.NumTiles[0], cam.NumTiles[1])
	counts := make([]int, loops)
	for loop := 0; loop < loops; loop++ {
		for _, tile := range tiles {
			if c.Exists(cam.Name, loop, tile.X, tile.Y) {
				counts[loop]++
			}
		}
	}
	return counts
}

func nrgba64At(img image.Image, x, y int) color.NRGBA64 {
	if n, ok := img.(*image.NRGBA64); ok {
		return n.NRGBA64At(x, y)
	}
	return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
}
