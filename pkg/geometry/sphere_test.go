package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-tile-raytracer/pkg/core"
)

func TestSphere_Intersect(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, -5), 1)

	tests := []struct {
		name      string
		ray       core.Ray
		tMin      float64
		shouldHit bool
		distance  float64
	}{
		{"Front surface", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0.001, true, 4},
		{"Back surface from inside", core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1)), 0.001, true, 1},
		{"Skip near root", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 4.5, true, 6},
		{"Miss", core.NewRay(core.NewVec3(0, 2, 0), core.NewVec3(0, 0, -1)), 0.001, false, 0},
		{"Behind", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), 0.001, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance, ok := sphere.Intersect(tt.ray, tt.tMin, math.Inf(1))
			if ok != tt.shouldHit {
				t.Fatalf("Expected hit=%v, got %v", tt.shouldHit, ok)
			}
			if ok && math.Abs(distance-tt.distance) > 1e-9 {
				t.Errorf("Expected distance %v, got %v", tt.distance, distance)
			}
		})
	}
}

func TestSphere_NormalAndBounds(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 2)
	normal := sphere.NormalAt(core.NewVec3(1, 4, 3))
	if normal.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-12 {
		t.Errorf("Expected normal +Y, got %v", normal)
	}

	expected := core.NewAABB(core.NewVec3(-1, 0, 1), core.NewVec3(3, 4, 5))
	if sphere.Bounds() != expected {
		t.Errorf("Expected bounds %v, got %v", expected, sphere.Bounds())
	}
}
