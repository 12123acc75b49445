package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/effects"
	"github.com/df07/go-tile-raytracer/pkg/integrator"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// WorkerConfig contains the tunable parameters of a render run
type WorkerConfig struct {
	NumWorkers  int              // 0 means one per logical CPU
	Checkpoints *Checkpoints     // nil disables checkpointing and resume
	Logger      core.Logger      // Progress logging
	OnTile      func(TileResult) // Called once per finished tile, in loop order
}

// DefaultWorkerConfig returns sensible default values
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		NumWorkers: 0,
		Logger:     core.NewDefaultLogger(),
	}
}

// Frame is a finished image for one camera
type Frame struct {
	Camera string
	Buffer *effects.Buffer
	Stats  RenderStats
}

// Image returns the frame as a 16-bit non-premultiplied image
func (f *Frame) Image() *image.NRGBA64 {
	return f.Buffer.Image()
}

// Renderer renders the cameras of one scene
type Renderer struct {
	scene  *scene.Scene
	config WorkerConfig
}

// NewRenderer creates a renderer for a built scene
func NewRenderer(s *scene.Scene, config WorkerConfig) *Renderer {
	if config.Logger == nil {
		config.Logger = core.NopLogger{}
	}
	return &Renderer{scene: s, config: config}
}

// Render runs every loop over every tile of the camera's image and returns
// the running mean of the loops with the engine's post effects applied.
// Loop k is fully finished before any tile of loop k+1 starts. Cancellation
// is observed between tiles.
func (r *Renderer) Render(ctx context.Context, cam *Camera) (*Frame, error) {
	start := time.Now()
	loops := r.scene.Settings.MaxLoops
	if loops < 1 {
		loops = 1
	}

	evaluator := integrator.NewEvaluator(cam.Engine, r.scene)
	counter := &vertexCounter{}
	evaluator.Shader().Observer = counter.observe

	tiles := Partition(cam.Width, cam.Height, cam.NumTiles[0], cam.NumTiles[1])
	mean := effects.NewBuffer(cam.Width, cam.Height)
	stats := RenderStats{TotalPixels: cam.Width * cam.Height}

	pool := NewWorkerPool(cam, evaluator, r.config.Checkpoints, r.config.Logger, r.config.NumWorkers)
	pool.Start()
	defer pool.Stop()

	r.config.Logger.Printf("Rendering camera %s: %dx%d, %d tiles, %d loops, %s engine, %d workers\n",
		cam.Name, cam.Width, cam.Height, len(tiles), loops, cam.Engine.Kind, pool.GetNumWorkers())

	for loop := 0; loop < loops; loop++ {
		for _, tile := range tiles {
			pool.SubmitTask(TileTask{Ctx: ctx, Tile: tile, Loop: loop})
		}

		var firstErr error
		for range tiles {
			result, ok := pool.GetResult()
			if !ok {
				return nil, fmt.Errorf("worker pool closed unexpectedly")
			}
			if result.Error != nil {
				if firstErr == nil {
					firstErr = result.Error
				}
				continue
			}
			accumulate(mean, result, loop)
			stats.record(result, cam.SuperSamples)
			if r.config.OnTile != nil {
				r.config.OnTile(result)
			}
		}
		if firstErr != nil {
			return nil, fmt.Errorf("camera %s loop %d: %w", cam.Name, loop, firstErr)
		}

		stats.Loops++
		r.config.Logger.Printf("Camera %s: loop %d/%d complete\n", cam.Name, loop+1, loops)
	}

	buffer := mean
	if fx := cam.Engine.PostEffects(); len(fx) > 0 {
		buffer = effects.Apply(mean, fx)
	}

	stats.ShadedVertices = counter.count.Load()
	stats.Duration = time.Since(start)
	r.config.Logger.Printf("Camera %s finished in %v (%d tiles rendered, %d resumed)\n",
		cam.Name, stats.Duration, stats.RenderedTiles, stats.ResumedTiles)

	return &Frame{Camera: cam.Name, Buffer: buffer, Stats: stats}, nil
}

// accumulate folds a tile of loop k into the running mean of loops 0..k
func accumulate(mean *effects.Buffer, result TileResult, loop int) {
	w := result.Bounds.Dx()
	inv := 1.0 / float64(loop+1)
	for i, p := range result.Pixels {
		x := result.Bounds.Min.X + i%w
		y := result.Bounds.Min.Y + i/w
		if loop == 0 {
			mean.Set(x, y, p)
			continue
		}
		prev := mean.At(x, y)
		mean.Set(x, y, prev.Add(p.Add(prev.Multiply(-1)).Multiply(inv)))
	}
}
