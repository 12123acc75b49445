package geometry

import (
	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Mesh is an immutable triangle soup with its own BVH in mesh-local space.
// Entities share a mesh by pointer.
type Mesh struct {
	Name      string
	Triangles []Triangle
	BVH       *BVH
}

// MeshHit describes the nearest triangle a ray met, in mesh space
type MeshHit struct {
	Triangle int
	TriangleHit
}

// NewMesh creates a mesh and builds its BVH
func NewMesh(name string, triangles []Triangle, maxChildren, maxDepth int) *Mesh {
	bounds := make([]core.AABB, len(triangles))
	centroids := make([]core.Vec3, len(triangles))
	for i, triangle := range triangles {
		bounds[i] = triangle.Bounds()
		centroids[i] = triangle.Centroid()
	}

	return &Mesh{
		Name:      name,
		Triangles: triangles,
		BVH:       BuildBVH(bounds, centroids, maxChildren, maxDepth),
	}
}

// Bounds returns the mesh-space bounding box
func (m *Mesh) Bounds() core.AABB {
	return m.BVH.Bounds()
}

// Intersect finds the nearest triangle hit in [tMin, tMax]
func (m *Mesh) Intersect(ray core.Ray, tMin, tMax float64) (MeshHit, bool) {
	var hit MeshHit
	_, _, ok := m.BVH.Nearest(ray, tMin, tMax, func(prim int, lo, hi float64) (float64, bool) {
		triangleHit, ok := m.Triangles[prim].Intersect(ray, lo, hi)
		if !ok {
			return 0, false
		}
		hit = MeshHit{Triangle: prim, TriangleHit: triangleHit}
		return triangleHit.Distance, true
	})
	return hit, ok
}
