package scene

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/geometry"
	"github.com/df07/go-tile-raytracer/pkg/material"
)

// Entity is one placed instance of a mesh from the scene's arena, or a sphere
type Entity struct {
	Mesh      int             // Index into Scene.Meshes, or -1 for a sphere
	Sphere    geometry.Sphere // World-space sphere when Mesh is -1
	Material  *material.Material
	Transform geometry.Transform
	Bounds    core.AABB // World-space bounds
}

// IsSphere reports whether the entity is a sphere rather than a mesh instance
func (e *Entity) IsSphere() bool {
	return e.Mesh < 0
}

// Light is a point light
type Light struct {
	Position  core.Vec3
	Intensity float64
	Colour    core.Colour
}

// Hit describes the nearest surface a ray met, in world space.
// Normals are outward facing; Inside is set when the ray travels against them.
type Hit struct {
	Distance     float64
	Position     core.Vec3
	Normal       core.Vec3
	SmoothNormal core.Vec3
	Inside       bool
	Material     *material.Material
	Entity       int
}

// Side returns +1 when the ray hit the outside of the surface and -1 otherwise
func (h Hit) Side() float64 {
	if h.Inside {
		return -1
	}
	return 1
}

// Scene contains all the elements needed for rendering.
// It is immutable after Build and safe to share between workers.
type Scene struct {
	Meshes   []*geometry.Mesh // Mesh arena, shared by entities
	Entities []Entity
	Lights   []Light
	BVH      *geometry.BVH // Scene tier over entities
	Settings core.RenderSettings
}

// NearestHit finds the closest surface along the ray within [tMin, tMax]
func (s *Scene) NearestHit(ray core.Ray, tMin, tMax float64) (Hit, bool) {
	var hit Hit
	_, distance, ok := s.BVH.Nearest(ray, tMin, tMax, func(prim int, lo, hi float64) (float64, bool) {
		entity := &s.Entities[prim]

		if entity.IsSphere() {
			t, ok := entity.Sphere.Intersect(ray, lo, hi)
			if !ok {
				return 0, false
			}
			normal := entity.Sphere.NormalAt(ray.At(t))
			hit = Hit{Normal: normal, SmoothNormal: normal, Material: entity.Material, Entity: prim}
			return t, true
		}

		meshHit, ok := s.Meshes[entity.Mesh].Intersect(entity.Transform.RayToLocal(ray), lo, hi)
		if !ok {
			return 0, false
		}
		hit = Hit{
			Normal:       entity.Transform.NormalToWorld(meshHit.Normal),
			SmoothNormal: entity.Transform.NormalToWorld(meshHit.SmoothNormal),
			Material:     entity.Material,
			Entity:       prim,
		}
		return meshHit.Distance, true
	})
	if !ok {
		return Hit{}, false
	}

	hit.Distance = distance
	hit.Position = ray.At(distance)
	hit.Inside = ray.Direction.Dot(hit.Normal) > 0
	return hit, true
}

// Stats summarises scene size for logging
type Stats struct {
	Meshes    int
	Triangles int
	Entities  int
	Lights    int
	SceneBVH  geometry.BVHStats
}

// GetStats returns the scene's size and scene BVH shape
func (s *Scene) GetStats() Stats {
	stats := Stats{
		Meshes:   len(s.Meshes),
		Entities: len(s.Entities),
		Lights:   len(s.Lights),
		SceneBVH: s.BVH.Stats(),
	}
	for _, mesh := range s.Meshes {
		stats.Triangles += len(mesh.Triangles)
	}
	return stats
}
