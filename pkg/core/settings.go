package core

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// RenderSettings holds the process-wide rendering parameters.
// They are read-only once a scene has been built.
type RenderSettings struct {
	SmoothingLength     float64 `json:"smoothing_length"`       // Offset applied to secondary rays to avoid self-intersection
	MinWeight           float64 `json:"min_weight"`             // Energy below which a path is terminated
	MaxRecursions       int     `json:"max_recursions"`         // Maximum shading recursion depth
	MaxLoops            int     `json:"max_loops"`              // Number of progressive passes over every tile
	MeshBVHMaxChildren  int     `json:"mesh_bvh_max_children"`  // Maximum triangles per mesh BVH leaf
	MeshBVHMaxDepth     int     `json:"mesh_bvh_max_depth"`     // Maximum mesh BVH depth
	SceneBVHMaxChildren int     `json:"scene_bvh_max_children"` // Maximum entities per scene BVH leaf
	SceneBVHMaxDepth    int     `json:"scene_bvh_max_depth"`    // Maximum scene BVH depth
	OutputDirectory     string  `json:"output_directory"`       // Root directory for tile checkpoints
}

// DefaultRenderSettings returns sensible default values
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		SmoothingLength:     1e-6,
		MinWeight:           0.01,
		MaxRecursions:       8,
		MaxLoops:            1,
		MeshBVHMaxChildren:  2,
		MeshBVHMaxDepth:     32,
		SceneBVHMaxChildren: 2,
		SceneBVHMaxDepth:    16,
		OutputDirectory:     "output",
	}
}

// Validate checks that every setting is within its allowed range
func (s RenderSettings) Validate() error {
	if math.IsNaN(s.SmoothingLength) || math.IsInf(s.SmoothingLength, 0) || s.SmoothingLength <= 0 {
		return fmt.Errorf("smoothing_length must be finite and positive, got %v", s.SmoothingLength)
	}
	if math.IsNaN(s.MinWeight) || s.MinWeight < 0 || s.MinWeight > 1 {
		return fmt.Errorf("min_weight must be in [0, 1], got %v", s.MinWeight)
	}
	if s.MaxRecursions < 1 {
		return fmt.Errorf("max_recursions must be positive, got %d", s.MaxRecursions)
	}
	if s.MaxLoops < 1 {
		return fmt.Errorf("max_loops must be positive, got %d", s.MaxLoops)
	}
	if s.MeshBVHMaxChildren < 1 || s.SceneBVHMaxChildren < 1 {
		return fmt.Errorf("bvh max children must be positive, got mesh=%d scene=%d",
			s.MeshBVHMaxChildren, s.SceneBVHMaxChildren)
	}
	if s.MeshBVHMaxDepth < 1 || s.SceneBVHMaxDepth < 1 {
		return fmt.Errorf("bvh max depth must be positive, got mesh=%d scene=%d",
			s.MeshBVHMaxDepth, s.SceneBVHMaxDepth)
	}
	return nil
}

// LoadRenderSettings reads a JSON settings file. Fields missing from the file
// keep their default values.
func LoadRenderSettings(path string) (RenderSettings, error) {
	settings := DefaultRenderSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return settings, nil
}
