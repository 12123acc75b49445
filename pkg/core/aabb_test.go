package core

import (
	"math"
	"testing"
)

func TestAABB_Distance(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		expected float64
	}{
		{
			name:     "Hit from outside",
			ray:      NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 1)),
			expected: 4,
		},
		{
			name:     "Miss to the side",
			ray:      NewRay(NewVec3(3, 0, -5), NewVec3(0, 0, 1)),
			expected: math.Inf(1),
		},
		{
			name:     "Box behind origin",
			ray:      NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)),
			expected: math.Inf(1),
		},
		{
			name:     "Origin inside box",
			ray:      NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1)),
			expected: -1,
		},
		{
			name:     "Unnormalized direction",
			ray:      NewRay(NewVec3(0, 0, -5), NewVec3(0, 0, 2)),
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := box.Distance(tt.ray, 0, math.Inf(1))
			if math.IsInf(tt.expected, 1) {
				if !math.IsInf(got, 1) {
					t.Errorf("Expected miss, got %v", got)
				}
				return
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAABB_DistanceBeyondTMax(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, 9), NewVec3(1, 1, 11))
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1))

	if box.Hit(ray, 0, 5) {
		t.Error("Expected no hit when box starts beyond tMax")
	}
	if !box.Hit(ray, 0, 10) {
		t.Error("Expected hit when tMax reaches the box")
	}
}

func TestAABB_Empty(t *testing.T) {
	empty := EmptyAABB()
	if !empty.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}

	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0))
	if empty.Hit(ray, math.Inf(-1), math.Inf(1)) {
		t.Error("Empty box should never be hit")
	}

	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 2, 3))
	if got := empty.Union(box); got != box {
		t.Errorf("Union with empty should return other box, got %v", got)
	}
	if got := box.Union(empty); got != box {
		t.Errorf("Union with empty should return this box, got %v", got)
	}
	if !box.Contains(empty) {
		t.Error("Every box should contain the empty box")
	}
}

func TestAABB_FromPointsAndCorners(t *testing.T) {
	box := NewAABBFromPoints(NewVec3(1, -2, 3), NewVec3(-1, 2, 0), NewVec3(0, 0, 5))
	expected := NewAABB(NewVec3(-1, -2, 0), NewVec3(1, 2, 5))
	if box != expected {
		t.Fatalf("Expected %v, got %v", expected, box)
	}

	rebuilt := EmptyAABB()
	for _, corner := range box.Corners() {
		rebuilt = rebuilt.Include(corner)
	}
	if rebuilt != box {
		t.Errorf("Corners should rebuild the box, got %v", rebuilt)
	}

	if axis := box.LongestAxis(); axis != 2 {
		t.Errorf("Expected longest axis 2, got %d", axis)
	}
}
