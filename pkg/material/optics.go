package material

import (
	"math"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

// Refract bends the unit direction d through a surface with unit normal n
// facing against d, going from index n1 into index n2. It reports false on
// total internal reflection.
func Refract(d, n core.Vec3, n1, n2 float64) (core.Vec3, bool) {
	eta := n1 / n2
	cosI := -d.Dot(n)
	k := 1 - eta*eta*(1-cosI*cosI)
	if k < 0 {
		return core.Vec3{}, false
	}
	cosT := math.Sqrt(k)
	return d.Multiply(eta).Add(n.Multiply(eta*cosI - cosT)).Normalize(), true
}

// Fresnel returns the unpolarised reflectance for light crossing from index
// n1 into n2 at the given incidence cosine. The transmitted share is 1 minus
// the result.
func Fresnel(cosI, n1, n2 float64) float64 {
	if n1 == n2 {
		return 0
	}
	cosI = math.Abs(cosI)
	sinT2 := n1 * n1 * (1 - cosI*cosI) / (n2 * n2)
	if sinT2 > 1 {
		return 1
	}
	cosT := math.Sqrt(1 - sinT2)
	if cosI == 0 {
		return 1
	}

	rs := (n2*cosI - n1*cosT) / (n2*cosI + n1*cosT)
	rp := (n1*cosI - n2*cosT) / (n1*cosI + n2*cosT)
	return clampUnit(0.5 * (rs*rs + rp*rp))
}
