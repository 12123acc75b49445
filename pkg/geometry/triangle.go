package geometry

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
)

// determinantEpsilon rejects rays that lie (nearly) in the plane of a triangle
const determinantEpsilon = 1e-5

// Triangle is three positions with per-vertex normals
type Triangle struct {
	Vertices [3]core.Vec3
	Normals  [3]core.Vec3
}

// TriangleHit describes where a ray met a triangle
type TriangleHit struct {
	Distance     float64
	Normal       core.Vec3 // Geometric normal, V0→V1 × V0→V2
	SmoothNormal core.Vec3 // Vertex normals interpolated at the hit
}

// NewTriangle creates a triangle whose vertex normals all equal the face normal
func NewTriangle(v0, v1, v2 core.Vec3) Triangle {
	normal := v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	return Triangle{
		Vertices: [3]core.Vec3{v0, v1, v2},
		Normals:  [3]core.Vec3{normal, normal, normal},
	}
}

// NewTriangleWithNormals creates a triangle with explicit vertex normals
func NewTriangleWithNormals(vertices, normals [3]core.Vec3) Triangle {
	return Triangle{Vertices: vertices, Normals: normals}
}

// Bounds returns the axis-aligned bounding box of the triangle
func (t Triangle) Bounds() core.AABB {
	return core.NewAABBFromPoints(t.Vertices[0], t.Vertices[1], t.Vertices[2])
}

// Centroid returns the mean of the three vertices
func (t Triangle) Centroid() core.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Multiply(1.0 / 3.0)
}

// Intersect tests the ray against the triangle using the Möller-Trumbore algorithm.
// Hits outside [tMin, tMax] and degenerate configurations are misses.
func (t Triangle) Intersect(ray core.Ray, tMin, tMax float64) (TriangleHit, bool) {
	edge1 := t.Vertices[1].Subtract(t.Vertices[0])
	edge2 := t.Vertices[2].Subtract(t.Vertices[0])

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray parallel to the triangle plane, or the triangle has no area
	if a > -determinantEpsilon && a < determinantEpsilon {
		return TriangleHit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.Vertices[0])
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return TriangleHit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return TriangleHit{}, false
	}

	distance := f * edge2.Dot(q)
	if distance < tMin || distance > tMax {
		return TriangleHit{}, false
	}

	normal := edge1.Cross(edge2).Normalize()

	w := 1 - u - v
	smooth := t.Normals[0].Multiply(w).
		Add(t.Normals[1].Multiply(u)).
		Add(t.Normals[2].Multiply(v)).
		Normalize()
	if smooth.LengthSquared() == 0 {
		smooth = normal
	}

	return TriangleHit{Distance: distance, Normal: normal, SmoothNormal: smooth}, true
}
