package integrator

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/material"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// Observer is told the depth and weight of every path vertex Shade evaluates
type Observer func(depth int, weight float64)

// Shader evaluates the recursive material model over a scene
type Shader struct {
	Scene         *scene.Scene
	MaxRecursions int
	MinWeight     float64
	Smoothing     float64
	Observer      Observer
}

// NewShader creates a shader using the scene's render settings
func NewShader(s *scene.Scene) *Shader {
	return &Shader{
		Scene:         s,
		MaxRecursions: s.Settings.MaxRecursions,
		MinWeight:     s.Settings.MinWeight,
		Smoothing:     s.Settings.SmoothingLength,
	}
}

// Shade returns the colour seen along the ray. The result is not scaled by
// weight; weight is the share of the pixel this path still carries and only
// decides when the path is cut off.
func (sh *Shader) Shade(ray core.Ray, depth int, weight float64) core.Colour {
	weight = clampWeight(weight)
	if sh.Observer != nil {
		sh.Observer(depth, weight)
	}
	if depth >= sh.MaxRecursions || weight < sh.MinWeight {
		return core.Transparent
	}

	hit, ok := sh.Scene.NearestHit(ray, 0, math.Inf(1))
	if !ok {
		return core.Transparent
	}

	direction := ray.Direction.Normalize()
	side := hit.Side()
	normal := hit.SmoothNormal.Multiply(side)
	offset := hit.Position.Add(hit.Normal.Multiply(side * sh.Smoothing))

	m := hit.Material
	surface := sh.surfaceColour(hit, normal, offset)

	switch m.Kind {
	case material.Diffuse:
		return surface

	case material.Reflective:
		return sh.reflect(surface, m.Absorption(), direction, normal, offset, depth, weight)

	case material.Refractive:
		n1, n2 := 1.0, m.RefractiveIndex
		if hit.Inside {
			n1, n2 = n2, n1
		}

		refracted, ok := material.Refract(direction, normal, n1, n2)
		if !ok {
			return sh.reflect(surface, m.Absorption(), direction, normal, offset, depth, weight)
		}

		absorption := m.Absorption()
		remaining := 1 - absorption
		reflectance := material.Fresnel(direction.Dot(normal), n1, n2)

		colour := surface.Multiply(absorption)
		if share := remaining * reflectance; share > 0 {
			reflected := core.NewRay(offset, direction.Reflect(normal))
			colour = colour.Add(sh.Shade(reflected, depth+1, weight*share).Multiply(share))
		}
		if share := remaining * (1 - reflectance); share > 0 {
			transmitted := core.NewRay(hit.Position, refracted).Travel(sh.Smoothing)
			colour = colour.Add(sh.Shade(transmitted, depth+1, weight*share).Multiply(share))
		}
		return colour
	}

	return core.Transparent
}

func (sh *Shader) reflect(surface core.Colour, absorption float64, direction, normal, offset core.Vec3, depth int, weight float64) core.Colour {
	colour := surface.Multiply(absorption)
	share := 1 - absorption
	if share <= 0 {
		return colour
	}
	reflected := core.NewRay(offset, direction.Reflect(normal))
	return colour.Add(sh.Shade(reflected, depth+1, weight*share).Multiply(share))
}

// surfaceColour samples the material spectrum by the direct light reaching the hit
func (sh *Shader) surfaceColour(hit scene.Hit, normal, offset core.Vec3) core.Colour {
	lightness, tint := DirectLight(sh.Scene, hit.Position, normal, offset, sh.MinWeight, sh.Smoothing)
	return hit.Material.Spectrum.Sample(lightness).Tint(tint)
}

func clampWeight(weight float64) float64 {
	if math.IsNaN(weight) {
		return 0
	}
	return math.Max(0, math.Min(1, weight))
}
