package renderer

import (
	"sync/atomic"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Pixels in the image
	PrimarySamples int64         // Primary rays traced, excluding resumed tiles
	ShadedVertices int64         // Path vertices evaluated by the shader
	RenderedTiles  int           // Tiles rendered in this run
	ResumedTiles   int           // Tiles loaded from checkpoints
	Loops          int           // Loops completed
	Duration       time.Duration // Wall time of the render
}

// vertexCounter counts shader path vertices across workers
type vertexCounter struct {
	count atomic.Int64
}

func (vc *vertexCounter) observe(depth int, weight float64) {
	vc.count.Add(1)
}

// record folds one tile result into the statistics
func (s *RenderStats) record(result TileResult, superSamples int) {
	if result.Resumed {
		s.ResumedTiles++
		return
	}
	s.RenderedTiles++
	s.PrimarySamples += int64(result.Bounds.Dx() * result.Bounds.Dy() * superSamples * superSamples)
}
