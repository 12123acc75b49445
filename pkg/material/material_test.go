package material

import (
	"math"
	"testing"

	"github.com/df07/go-tile-raytracer/pkg/core"
	"github.com/df07/go-tile-raytracer/pkg/spectrum"
)

func grey(t *testing.T) *spectrum.Spectrum {
	t.Helper()
	s, err := spectrum.FromHex(0x000000FF, 0xFFFFFFFF)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMaterial_Absorption(t *testing.T) {
	s := grey(t)

	tests := []struct {
		name     string
		material *Material
		expected float64
	}{
		{"Diffuse absorbs everything", NewDiffuse(s), 1},
		{"Reflective keeps given absorption", NewReflective(s, 0.25), 0.25},
		{"Refractive keeps given absorption", NewRefractive(s, 0.1, 1.5), 0.1},
		{"Absorption clamped above", NewReflective(s, 3), 1},
		{"Absorption clamped below", NewRefractive(s, -1, 1.5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.material.Absorption(); got != tt.expected {
				t.Errorf("Expected absorption %v, got %v", tt.expected, got)
			}
			if got := tt.material.Transmittance(); got != 1-tt.expected {
				t.Errorf("Expected transmittance %v, got %v", 1-tt.expected, got)
			}
		})
	}

	if got := NewRefractive(s, 0, 0.5).RefractiveIndex; got != 1 {
		t.Errorf("Refractive index below 1 should clamp to 1, got %v", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range []Kind{Diffuse, Reflective, Refractive} {
		parsed, err := ParseKind(kind.String())
		if err != nil || parsed != kind {
			t.Errorf("ParseKind(%q) = %v, %v", kind.String(), parsed, err)
		}
	}
	if _, err := ParseKind("velvet"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestRefract(t *testing.T) {
	normal := core.NewVec3(0, 1, 0)
	d := core.NewVec3(1, -1, 0).Normalize()

	// Index 1 leaves the direction unchanged
	straight, ok := Refract(d, normal, 1, 1)
	if !ok || straight.Subtract(d).Length() > 1e-12 {
		t.Errorf("Expected unchanged direction, got %v (ok=%v)", straight, ok)
	}

	// Entering glass bends toward the normal
	bent, ok := Refract(d, normal, 1, 1.5)
	if !ok {
		t.Fatal("Expected refraction into glass")
	}
	sinI := math.Sqrt(0.5)
	sinT := math.Abs(bent.X)
	if math.Abs(sinT-sinI/1.5) > 1e-9 {
		t.Errorf("Snell's law violated: sinT=%v, expected %v", sinT, sinI/1.5)
	}

	// Leaving glass at a steep angle reflects totally
	grazing := core.NewVec3(1, -0.2, 0).Normalize()
	if _, ok := Refract(grazing, normal, 1.5, 1); ok {
		t.Error("Expected total internal reflection")
	}
}

func TestFresnel(t *testing.T) {
	if got := Fresnel(0.7, 1, 1); got != 0 {
		t.Errorf("Matched indices should not reflect, got %v", got)
	}

	// Normal incidence on glass: ((1-1.5)/(1+1.5))^2 = 0.04
	if got := Fresnel(1, 1, 1.5); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("Expected 0.04 at normal incidence, got %v", got)
	}

	if got := Fresnel(0.1, 1.5, 1); got != 1 {
		t.Errorf("Expected total reflection past critical angle, got %v", got)
	}

	for _, cos := range []float64{0.05, 0.3, 0.6, 0.9, 1} {
		r := Fresnel(cos, 1, 1.33)
		if r < 0 || r > 1 {
			t.Errorf("Reflectance %v out of range at cos=%v", r, cos)
		}
	}
}
