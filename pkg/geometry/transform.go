package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Transform places an entity in the world: uniform scale, then rotation about
// X, Y and Z (degrees), then translation
type Transform struct {
	Translation core.Vec3
	Rotation    core.Vec3
	Scale       float64

	world   mgl64.Mat4
	inverse mgl64.Mat4
}

// NewTransform creates a transform and caches its world and inverse matrices
func NewTransform(translation, rotation core.Vec3, scale float64) Transform {
	rotate := mgl64.HomogRotate3DZ(mgl64.DegToRad(rotation.Z)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(rotation.Y))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(rotation.X)))

	world := mgl64.Translate3D(translation.X, translation.Y, translation.Z).
		Mul4(rotate).
		Mul4(mgl64.Scale3D(scale, scale, scale))

	return Transform{
		Translation: translation,
		Rotation:    rotation,
		Scale:       scale,
		world:       world,
		inverse:     world.Inv(),
	}
}

// IdentityTransform returns the transform that leaves everything in place
func IdentityTransform() Transform {
	return NewTransform(core.Vec3{}, core.Vec3{}, 1)
}

func apply(m mgl64.Mat4, v core.Vec3, w float64) core.Vec3 {
	out := m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, w})
	return core.NewVec3(out[0], out[1], out[2])
}

// PointToWorld maps a local point into world space
func (t Transform) PointToWorld(p core.Vec3) core.Vec3 {
	return apply(t.world, p, 1)
}

// RayToLocal maps a world ray into local space. The direction is not
// renormalised so a ray parameter means the same point in both spaces.
func (t Transform) RayToLocal(ray core.Ray) core.Ray {
	return core.NewRay(apply(t.inverse, ray.Origin, 1), apply(t.inverse, ray.Direction, 0))
}

// NormalToWorld maps a local surface normal into a unit world normal
func (t Transform) NormalToWorld(n core.Vec3) core.Vec3 {
	// Uniform scale keeps normals perpendicular under the world matrix
	return apply(t.world, n, 0).Normalize()
}

// BoundsToWorld returns the world box around the eight transformed corners
func (t Transform) BoundsToWorld(box core.AABB) core.AABB {
	if box.IsEmpty() {
		return box
	}
	world := core.EmptyAABB()
	for _, corner := range box.Corners() {
		world = world.Include(t.PointToWorld(corner))
	}
	return world
}

// SphereToWorld moves a sphere's centre into world space and scales its radius
func (t Transform) SphereToWorld(s Sphere) Sphere {
	return NewSphere(t.PointToWorld(s.Center), s.Radius*t.Scale)
}
