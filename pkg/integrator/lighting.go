package integrator

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/scene"
)

// maxShadowCrossings bounds how many surfaces a shadow ray may pass through
const maxShadowCrossings = 64

// goldenRatio spaces hemisphere samples
const goldenRatio = 1.618033988749

// Transmittance returns the share of light that survives travelling from
// origin along the unit direction for the given distance. Every surface on
// the way keeps its absorbed share; nearly dark paths count as fully dark.
func Transmittance(s *scene.Scene, origin, direction core.Vec3, distance, minWeight, smoothing float64) float64 {
	light := 1.0
	ray := core.NewRay(origin, direction)
	travelled := 0.0

	for i := 0; i < maxShadowCrossings; i++ {
		hit, ok := s.NearestHit(ray, 0, distance-travelled)
		if !ok {
			break
		}

		light *= hit.Material.Transmittance()
		if light <= 0 || light < minWeight {
			return 0
		}

		step := hit.Distance + smoothing
		ray = ray.Travel(step)
		travelled += step
		if travelled >= distance {
			break
		}
	}
	return light
}

// DirectLight sums intensity·cosθ·transmittance over every light and clamps
// the total to [0, 1]. The tint is the light colours weighted by their share.
// normal faces the incoming ray; shadow rays leave from offset.
func DirectLight(s *scene.Scene, position, normal, offset core.Vec3, minWeight, smoothing float64) (float64, core.Colour) {
	white := core.NewColour(1, 1, 1, 1)

	total := 0.0
	tint := core.Colour{}
	for _, light := range s.Lights {
		toLight := light.Position.Subtract(position)
		distance := toLight.Length()
		if distance == 0 {
			continue
		}
		direction := toLight.Multiply(1 / distance)

		cos := normal.Dot(direction)
		if cos <= 0 {
			continue
		}

		contribution := light.Intensity * cos * Transmittance(s, offset, direction, distance, minWeight, smoothing)
		if contribution <= 0 {
			continue
		}
		total += contribution
		tint = tint.Add(light.Colour.Multiply(contribution))
	}

	if total <= 0 {
		return 0, white
	}
	tint = tint.Multiply(1 / total)
	tint.A = 1
	return math.Min(1, total), tint
}

// hemisphereDirections returns samples unit directions spread over the
// hemisphere around normal using golden-ratio spacing
func hemisphereDirections(normal core.Vec3, samples int) []core.Vec3 {
	n := toR3(normal)

	arbitrary := r3.Vec{Z: 1}
	if 1-math.Abs(normal.Z) < 0.1 {
		arbitrary = r3.Vec{Y: 1}
	}
	pitchAxis := r3.Unit(r3.Cross(n, arbitrary))

	directions := make([]core.Vec3, samples)
	total := 2 * samples
	for i := 0; i < samples; i++ {
		delta := float64(i) + 0.5*float64(1-total)
		pitch := math.Asin(2*delta/float64(total)) + math.Pi/2
		roll := (2 * math.Pi / goldenRatio) * math.Mod(delta, goldenRatio)

		d := r3.NewRotation(pitch, pitchAxis).Rotate(n)
		d = r3.NewRotation(roll, n).Rotate(d)
		directions[i] = fromR3(r3.Unit(d))
	}
	return directions
}

// LocalOcclusion returns the mean transmittance of rays cast over the
// hemisphere around normal: 1 is fully open, 0 fully enclosed
func LocalOcclusion(s *scene.Scene, offset, normal core.Vec3, samples int, minWeight, smoothing float64) float64 {
	if samples <= 0 {
		return 1
	}
	open := 0.0
	for _, direction := range hemisphereDirections(normal, samples) {
		open += Transmittance(s, offset, direction, math.Inf(1), minWeight, smoothing)
	}
	return open / float64(samples)
}

func toR3(v core.Vec3) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromR3(v r3.Vec) core.Vec3 {
	return core.NewVec3(v.X, v.Y, v.Z)
}
