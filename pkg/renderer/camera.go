package renderer

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/integrator"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// Camera generates primary rays for one output image. The world is Z-up;
// pixel rows run top to bottom and columns left to right.
type Camera struct {
	Name         string
	Eye          core.Vec3
	LookAt       core.Vec3
	FieldOfView  float64 // Horizontal, degrees
	Width        int
	Height       int
	NumTiles     [2]int // Tiles along x and y
	SuperSamples int    // Sub-samples per pixel axis
	Engine       integrator.Engine

	forward r3.Vec
	right   r3.Vec
	up      r3.Vec
}

// NewCamera validates a camera description and prepares its view basis
func NewCamera(desc scene.CameraDescription) (*Camera, error) {
	if desc.Name == "" || strings.ContainsAny(desc.Name, `/\`) || desc.Name == "." || desc.Name == ".." {
		return nil, fmt.Errorf("invalid camera name %q", desc.Name)
	}
	width, height := desc.Resolution[0], desc.Resolution[1]
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("camera %s: resolution must be positive, got %dx%d", desc.Name, width, height)
	}
	numTiles := desc.NumTiles
	if numTiles[0] == 0 && numTiles[1] == 0 {
		numTiles = [2]int{1, 1}
	}
	if numTiles[0] < 1 || numTiles[1] < 1 || numTiles[0] > width || numTiles[1] > height {
		return nil, fmt.Errorf("camera %s: num_tiles %v must be between 1 and the resolution", desc.Name, numTiles)
	}
	if !(desc.FieldOfView > 0 && desc.FieldOfView < 360) {
		return nil, fmt.Errorf("camera %s: field of view must be in (0, 360) degrees, got %v", desc.Name, desc.FieldOfView)
	}
	superSamples := desc.SuperSamples
	if superSamples == 0 {
		superSamples = 1
	}
	if superSamples < 0 {
		return nil, fmt.Errorf("camera %s: super_samples must be positive, got %d", desc.Name, superSamples)
	}

	eye, lookAt := scene.Vec(desc.Eye), scene.Vec(desc.LookAt)
	if eye == lookAt {
		return nil, fmt.Errorf("camera %s: eye and look_at must differ", desc.Name)
	}

	engine, err := integrator.NewEngine(desc.Engine)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", desc.Name, err)
	}

	forward := r3.Unit(r3.Sub(toR3(lookAt), toR3(eye)))
	upAxis := r3.Vec{Z: 1}
	if math.Abs(forward.Z) > 1-1e-9 {
		upAxis = r3.Vec{Y: 1}
	}
	right := r3.Unit(r3.Cross(forward, upAxis))
	up := r3.Unit(r3.Cross(right, forward))

	return &Camera{
		Name:         desc.Name,
		Eye:          eye,
		LookAt:       lookAt,
		FieldOfView:  desc.FieldOfView,
		Width:        width,
		Height:       height,
		NumTiles:     numTiles,
		SuperSamples: superSamples,
		Engine:       engine,
		forward:      forward,
		right:        right,
		up:           up,
	}, nil
}

// Ray returns the primary ray through the point (x+dx, y+dy) of the image,
// where dx and dy are offsets within the pixel in [0, 1)
func (c *Camera) Ray(x, y int, dx, dy float64) core.Ray {
	col := (float64(x)+dx)/float64(c.Width) - 0.5
	row := (float64(y)+dy)/float64(c.Height) - 0.5

	fov := c.FieldOfView * math.Pi / 180
	aspect := float64(c.Height) / float64(c.Width)
	yaw := -col * fov
	pitch := -row * fov * aspect

	direction := r3.NewRotation(pitch, c.right).Rotate(c.forward)
	direction = r3.NewRotation(yaw, c.up).Rotate(direction)
	return core.NewRay(c.Eye, fromR3(r3.Unit(direction)))
}

// TileCount returns the number of tiles the image is split into
func (c *Camera) TileCount() int {
	return c.NumTiles[0] * c.NumTiles[1]
}

func toR3(v core.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromR3(v r3.Vec) core.Vec3 {
	return core.NewVec3(v.X, v.Y, v.Z)
}
