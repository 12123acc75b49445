// Package material defines the closed set of surface materials and the
// optics helpers used to shade them.
package material

import (
	"fmt"
	"math"

	"github.com/df07/go-tile-raytracer/pkg/spectrum"
)

// Kind selects how a surface interacts with light
type Kind int

const (
	Diffuse Kind = iota
	Reflective
	Refractive
)

func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Reflective:
		return "reflective"
	case Refractive:
		return "refractive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a scene file name onto a Kind
func ParseKind(name string) (Kind, error) {
	switch name {
	case "diffuse", "Diffuse":
		return Diffuse, nil
	case "reflective", "Reflective":
		return Reflective, nil
	case "refractive", "Refractive":
		return Refractive, nil
	}
	return 0, fmt.Errorf("unknown material kind %q", name)
}

// Material is an immutable surface description shared by entities.
// Absorption is ignored for Diffuse surfaces, which absorb everything.
type Material struct {
	Name            string
	Kind            Kind
	Spectrum        *spectrum.Spectrum
	absorption      float64
	RefractiveIndex float64
}

// NewDiffuse creates a matte material
func NewDiffuse(s *spectrum.Spectrum) *Material {
	return &Material{Kind: Diffuse, Spectrum: s, absorption: 1, RefractiveIndex: 1}
}

// NewReflective creates a mirror-like material. Absorption is the share of
// energy coloured by the surface itself; the rest is reflected.
func NewReflective(s *spectrum.Spectrum, absorption float64) *Material {
	return &Material{Kind: Reflective, Spectrum: s, absorption: clampUnit(absorption), RefractiveIndex: 1}
}

// NewRefractive creates a transparent material
func NewRefractive(s *spectrum.Spectrum, absorption, refractiveIndex float64) *Material {
	if math.IsNaN(refractiveIndex) || refractiveIndex < 1 {
		refractiveIndex = 1
	}
	return &Material{
		Kind:            Refractive,
		Spectrum:        s,
		absorption:      clampUnit(absorption),
		RefractiveIndex: refractiveIndex,
	}
}

// Absorption returns the share of incoming energy the surface keeps, in [0, 1]
func (m *Material) Absorption() float64 {
	if m.Kind == Diffuse {
		return 1
	}
	return m.absorption
}

// Transmittance returns the share of light a shadow ray keeps when passing
// through the surface
func (m *Material) Transmittance() float64 {
	return 1 - m.Absorption()
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
